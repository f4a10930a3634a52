package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// NewBindCommand creates the bind command group.
func NewBindCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bind",
		Short: "Manage key bindings",
	}

	cmd.AddCommand(newBindAddCommand(opts))
	cmd.AddCommand(newBindDeleteCommand(opts))
	cmd.AddCommand(newBindListCommand(opts))

	return cmd
}

func newBindAddCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <chord> <action>",
		Short: "Bind a key chord to an action",
		Long: `Bind a key chord to an action. Chords are written as modifiers and one key
joined with "+", in any case: ctrl+shift+k, Alt+F4, space.
Both the chord and the action name must be unused.

Example:
  deckcfg bind add ctrl+k open_search`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			return withEnv(cmd, opts, func(ctx context.Context, e *env) error {
				b, err := e.session.AddBindingCombo(args[0], args[1])
				if err != nil {
					return f.Reject("bind add", err)
				}
				return f.Success(BindingsView{b})
			})
		},
	}
}

func newBindDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <id|action>",
		Aliases:       []string{"rm"},
		Short:         "Delete a binding and clear the slots wired to it",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			return withEnv(cmd, opts, func(ctx context.Context, e *env) error {
				id := args[0]
				if b, ok := e.session.ResolveBinding(id); ok {
					id = b.ID
				}
				if err := e.session.DeleteBinding(id); err != nil {
					return f.Reject("bind delete", err)
				}
				return f.Success(BindingsView(e.session.Bindings()))
			})
		},
	}
}

func newBindListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Aliases:       []string{"ls"},
		Short:         "List bindings",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, opts, func(ctx context.Context, e *env) error {
				return opts.formatter(cmd).Success(BindingsView(e.session.Bindings()))
			})
		},
	}
}
