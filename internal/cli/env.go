package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/deckcfg/internal/config"
	"github.com/roach88/deckcfg/internal/inventory"
	"github.com/roach88/deckcfg/internal/session"
	"github.com/roach88/deckcfg/internal/store"
)

// env is what a command needs to edit the configuration: the tool config,
// an open store and a loaded session.
type env struct {
	cfg     config.Config
	store   *store.Store
	session *session.Session
	logger  *slog.Logger
}

// loadConfig reads the config file named by --config, or the default one.
func loadConfig(opts *RootOptions) (config.Config, error) {
	path := opts.ConfigPath
	if path == "" {
		def, err := config.DefaultPath()
		if err != nil {
			return config.Config{}, err
		}
		path = def
	}
	return config.Load(path)
}

func newLogger(w io.Writer, verbose bool, cfg config.Config) *slog.Logger {
	level := cfg.LogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// openStore opens the database named by --db or the config, creating its
// directory when needed.
func openStore(opts *RootOptions, cfg config.Config) (*store.Store, error) {
	path := opts.Database
	if path == "" {
		p, err := cfg.StoragePath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if path != store.MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	return store.Open(path)
}

// openEnv loads the config, opens the store and loads a session. Extra
// options are applied after the config-derived ones.
func openEnv(ctx context.Context, cmd *cobra.Command, opts *RootOptions, extra ...session.Option) (*env, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose, cfg)

	st, err := openStore(opts, cfg)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	invPath, err := cfg.InventoryPath()
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to resolve inventory path", err)
	}

	sessOpts := []session.Option{
		session.WithLogger(logger),
		session.WithInventory(inventory.FileSource{Path: invPath}),
		session.WithDebounce(cfg.Debounce()),
		session.WithNoticeTTL(cfg.NoticeTTL()),
	}
	sess, err := session.New(st, append(sessOpts, extra...)...)
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to create session", err)
	}
	if err := sess.Load(ctx); err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	// Load problems are notices, not failures; surface them on stderr.
	for _, n := range sess.Notices() {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", n.Message)
	}

	return &env{cfg: cfg, store: st, session: sess, logger: logger}, nil
}

// Close flushes pending saves and closes the store.
func (e *env) Close(ctx context.Context) error {
	flushErr := e.session.Close(ctx)
	if flushErr != nil {
		flushErr = WrapExitError(ExitCommandError, "failed to save changes", flushErr)
	}
	return errors.Join(flushErr, e.store.Close())
}

// withEnv runs fn with an open env and always closes it. A close failure
// is reported only when fn succeeded.
func withEnv(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, e *env) error, extra ...session.Option) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	e, err := openEnv(ctx, cmd, opts, extra...)
	if err != nil {
		return err
	}
	runErr := fn(ctx, e)
	// Pending edits are saved even when the session was cancelled.
	closeErr := e.Close(context.WithoutCancel(ctx))
	if runErr != nil {
		return runErr
	}
	return closeErr
}
