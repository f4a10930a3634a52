package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/deckcfg/internal/model"
	"github.com/roach88/deckcfg/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit int
}

// RevisionView is one saved revision of a document.
type RevisionView struct {
	Seq      int64  `json:"seq"`
	Document string `json:"document"`
	Revision string `json:"revision"`
	Size     int    `json:"size"`
}

// HistoryView lists revisions, newest first.
type HistoryView []RevisionView

func (v HistoryView) String() string {
	if len(v) == 0 {
		return "(no revisions)"
	}
	var b strings.Builder
	for i, r := range v {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%6d  %-7s %s  %d bytes", r.Seq, r.Document, shortRevision(r.Revision), r.Size)
	}
	return b.String()
}

func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [config|binds]",
		Short: "List saved revisions",
		Long: `List the saved revisions of the configuration and bindings documents,
newest first. Each save that changed a document adds one revision.`,
		Args:          cobra.MaximumNArgs(1),
		ValidArgs:     []string{model.DocConfiguration, model.DocBindings},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum revisions per document")

	return cmd
}

func runHistory(opts *HistoryOptions, args []string, cmd *cobra.Command) error {
	docs := []string{model.DocConfiguration, model.DocBindings}
	if len(args) == 1 {
		if args[0] != model.DocConfiguration && args[0] != model.DocBindings {
			return NewExitError(ExitCommandError, fmt.Sprintf("unknown document %q: must be %s or %s",
				args[0], model.DocConfiguration, model.DocBindings))
		}
		docs = []string{args[0]}
	}

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	st, err := openStore(opts.RootOptions, cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	view := HistoryView{}
	for _, doc := range docs {
		revs, err := st.History(ctx, doc, opts.Limit)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read history", err)
		}
		view = append(view, revisionViews(revs)...)
	}
	return opts.formatter(cmd).Success(view)
}

func revisionViews(revs []store.Revision) []RevisionView {
	out := make([]RevisionView, 0, len(revs))
	for _, r := range revs {
		out = append(out, RevisionView{Seq: r.Seq, Document: r.Name, Revision: r.Revision, Size: len(r.Body)})
	}
	return out
}
