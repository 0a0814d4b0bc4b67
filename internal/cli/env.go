package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/balanza/internal/config"
	"github.com/roach88/balanza/internal/store"
)

// loadConfig loads configuration and applies global flag overrides.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Database != "" {
		cfg.Database.Path = opts.Database
	}
	if opts.OwnerID != 0 {
		cfg.OwnerID = opts.OwnerID
	}
	if err := cfg.Validate(); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid config", err)
	}
	return cfg, nil
}

// newLogger builds the process logger. --verbose forces debug level.
func newLogger(opts *RootOptions, cfg *config.Config, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if opts.Verbose {
		level = slog.LevelDebug
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// openStore opens the configured database.
func openStore(cfg *config.Config, logger *slog.Logger) (*store.Store, func(), error) {
	logger.Debug("opening database", "path", cfg.Database.Path)
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	closeFn := func() {
		if err := st.Close(); err != nil {
			logger.Error("error closing database", "error", err)
		}
	}
	return st, closeFn, nil
}

// requireOwner checks that an owner is configured and exists.
func requireOwner(ctx context.Context, cfg *config.Config, st *store.Store) (store.User, error) {
	if cfg.OwnerID <= 0 {
		return store.User{}, NewExitError(ExitCommandError, "owner is required (--owner or owner_id in config)")
	}
	u, err := st.GetUser(ctx, cfg.OwnerID)
	if errors.Is(err, store.ErrNotFound) {
		return store.User{}, NewExitError(ExitFailure, fmt.Sprintf("owner %d does not exist", cfg.OwnerID))
	}
	if err != nil {
		return store.User{}, WrapExitError(ExitCommandError, "failed to look up owner", err)
	}
	return u, nil
}

// formatter builds an OutputFormatter writing to the command's streams.
func formatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// commandContext returns the command's context, or Background when unset.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
