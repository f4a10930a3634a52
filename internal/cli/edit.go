package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/deckcfg/internal/assign"
	"github.com/roach88/deckcfg/internal/model"
)

// NewShowCommand creates the show command.
func NewShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show",
		Short:         "Show groups, pool, slots and bindings",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, opts, func(ctx context.Context, e *env) error {
				return opts.formatter(cmd).Success(newShowView(e.session))
			})
		},
	}
}

// SettingsOptions holds flags for the settings command.
type SettingsOptions struct {
	*RootOptions
	Groups  int
	Slots   int
	Theme   string
	Variant string
}

// NewSettingsCommand creates the settings command.
func NewSettingsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SettingsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the controller settings",
		Long: `Show or change the controller settings. Only the flags given are changed.
A change is saved before the command returns.

Examples:
  deckcfg settings
  deckcfg settings --groups 3 --slots 8
  deckcfg settings --theme dark --variant material-you`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSettings(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Groups, "groups", 0, "number of groups (1-10)")
	cmd.Flags().IntVar(&opts.Slots, "slots", 0, "number of action slots (0-20)")
	cmd.Flags().StringVar(&opts.Theme, "theme", "", "light|dark")
	cmd.Flags().StringVar(&opts.Variant, "variant", "", "default|material-you|windows-11")

	return cmd
}

func runSettings(opts *SettingsOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	flags := cmd.Flags()

	return withEnv(cmd, opts.RootOptions, func(ctx context.Context, e *env) error {
		next := e.session.Settings()
		changed := false
		if flags.Changed("groups") {
			next.GroupCount, changed = opts.Groups, true
		}
		if flags.Changed("slots") {
			next.SlotCount, changed = opts.Slots, true
		}
		if flags.Changed("theme") {
			next.Theme, changed = model.Theme(opts.Theme), true
		}
		if flags.Changed("variant") {
			next.DesignVariant, changed = model.DesignVariant(opts.Variant), true
		}

		if changed {
			if err := e.session.ApplySettings(ctx, next); err != nil {
				return f.Reject("settings", err)
			}
			f.VerboseLog("settings saved")
		}
		return f.Success(newSettingsView(e.session.Configuration()))
	})
}

// NewRenameCommand creates the rename command.
func NewRenameCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <group-key> <display-name>",
		Short: "Rename a group",
		Long: `Change a group's display name. The key, and with it the group's members,
is unchanged. Display names are unique, compared case-insensitively.

Example:
  deckcfg rename "Group 2" Streaming`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			return withEnv(cmd, opts, func(ctx context.Context, e *env) error {
				if err := e.session.RenameGroup(args[0], args[1]); err != nil {
					return f.Reject("rename", err)
				}
				cfg := e.session.Configuration()
				g := cfg.Group(args[0])
				return f.Success(GroupView{Key: g.Key, Name: g.DisplayName, Members: g.Members})
			})
		},
	}
}

// MoveOptions holds flags for the move command.
type MoveOptions struct {
	*RootOptions
	From string
	To   string
}

// NewMoveCommand creates the move command.
func NewMoveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MoveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "move <app>",
		Short: "Move an application between the pool and groups",
		Long: `Move an application between the unassigned pool and a group, or between
two groups. An application belongs to at most one group.

Examples:
  deckcfg move Spotify --to "Group 1"
  deckcfg move Spotify --from "Group 1" --to pool`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			return withEnv(cmd, opts.RootOptions, func(ctx context.Context, e *env) error {
				from, to := assign.ParseContainer(opts.From), assign.ParseContainer(opts.To)
				if err := e.session.MoveApp(args[0], from, to); err != nil {
					return f.Reject("move", err)
				}
				return f.Success(fmt.Sprintf("moved %s: %s -> %s", args[0], from, to))
			})
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", "pool", `source: "pool" or a group key`)
	cmd.Flags().StringVar(&opts.To, "to", "pool", `target: "pool" or a group key`)

	return cmd
}

// NewSlotCommand creates the slot command.
func NewSlotCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "slot <ordinal> [binding]",
		Short: "Wire an action slot to a binding",
		Long: `Wire an action slot to a binding, given by id or action name. Without a
binding the slot is cleared.

Examples:
  deckcfg slot 1 open_search
  deckcfg slot 1`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			ordinal, err := strconv.Atoi(args[0])
			if err != nil {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid slot %q: must be a number", args[0]))
			}
			return withEnv(cmd, opts, func(ctx context.Context, e *env) error {
				id := ""
				if len(args) == 2 {
					id = args[1]
					if b, ok := e.session.ResolveBinding(args[1]); ok {
						id = b.ID
					}
				}
				if err := e.session.AssignSlot(ordinal, id); err != nil {
					return f.Reject("slot", err)
				}
				view := newShowView(e.session)
				return f.Success(view.Slots[ordinal-1])
			})
		},
	}
}

// PressResult reports the outcome of a dispatched chord.
type PressResult struct {
	Chord  string `json:"chord"`
	Action string `json:"action,omitempty"`
	Fired  bool   `json:"fired"`
}

func (r PressResult) String() string {
	if !r.Fired {
		return fmt.Sprintf("%s: no binding", r.Chord)
	}
	return fmt.Sprintf("%s: %s", r.Chord, r.Action)
}

// NewPressCommand creates the press command.
func NewPressCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "press <chord>",
		Short:         "Dispatch a key chord and print the action it fires",
		Example:       "  deckcfg press ctrl+shift+k",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			return withEnv(cmd, opts, func(ctx context.Context, e *env) error {
				out, err := e.session.Press(args[0])
				if err != nil {
					return f.Reject("press", err)
				}
				res := PressResult{Chord: args[0]}
				if out.Fired != nil {
					res = PressResult{Chord: out.Fired.Combo, Action: out.Fired.Action, Fired: true}
				}
				return f.Success(res)
			})
		},
	}
}
