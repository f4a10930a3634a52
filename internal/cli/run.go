package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/deckcfg/internal/hardware"
	"github.com/roach88/deckcfg/internal/inventory"
	"github.com/roach88/deckcfg/internal/model"
	"github.com/roach88/deckcfg/internal/session"
)

// NewRunCommand creates the run command.
func NewRunCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run an interactive session",
		Long: `Run a long-lived editing session. Key chords read from stdin, one per line,
are dispatched to their bindings. The controller state is polled and the app
list file is watched for changes while the session runs.

The session stops on end of input, SIGINT or SIGTERM, saving pending edits.

Example:
  deckcfg run --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(opts, cmd)
		},
	}
}

func runSession(opts *RootOptions, cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	sink := func(b model.Binding) {
		fmt.Fprintf(out, "fired %s (%s)\n", b.Action, b.Combo)
	}

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	cmd.SetContext(ctx)
	return withEnv(cmd, opts, func(ctx context.Context, e *env) error {
		slog.SetDefault(e.logger)

		g, gctx := errgroup.WithContext(ctx)

		poller, err := newPoller(e)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to resolve hardware state path", err)
		}
		g.Go(func() error {
			poller.Run(gctx)
			return nil
		})

		invPath, _ := e.cfg.InventoryPath()
		if invPath != "" {
			g.Go(func() error {
				return inventory.Watch(gctx, invPath, e.logger, func() {
					if err := e.session.RefreshApps(gctx); err == nil {
						e.logger.Info("app list reloaded", "apps", len(e.session.Apps()))
					}
				})
			})
		}

		g.Go(func() error {
			defer cancel() // end of input ends the session
			return readChords(gctx, cmd.InOrStdin(), e.session, cmd.ErrOrStderr())
		})

		fmt.Fprintln(out, "Session started. Type a chord per line (e.g. ctrl+k).")
		if err := g.Wait(); err != nil && err != context.Canceled {
			return WrapExitError(ExitFailure, "session error", err)
		}

		e.logger.Info("session stopped")
		return nil
	}, session.WithActionSink(sink))
}

func newPoller(e *env) (*hardware.Poller, error) {
	path, err := e.cfg.HardwareStatePath()
	if err != nil {
		return nil, err
	}
	var source hardware.Source = hardware.Disconnected{}
	if path != "" {
		source = hardware.FileSource{Path: path}
	}

	connected := false
	return hardware.NewPoller(source,
		hardware.WithInterval(e.cfg.PollInterval()),
		hardware.WithLogger(e.logger),
		hardware.WithOnUpdate(func(st hardware.State) {
			if st.Connected != connected {
				connected = st.Connected
				e.logger.Info("controller state changed", "connected", connected,
					"sliders", len(st.Sliders), "buttons", len(st.Buttons))
			}
		}),
	), nil
}

// readChords dispatches one chord per input line until EOF or ctx ends.
func readChords(ctx context.Context, r io.Reader, sess *session.Session, errw io.Writer) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			res, err := sess.Press(line)
			if err != nil {
				fmt.Fprintf(errw, "invalid chord %q: %v\n", line, err)
				continue
			}
			if res.Fired == nil {
				fmt.Fprintf(errw, "no binding for %s\n", line)
			}
		}
	}
}
