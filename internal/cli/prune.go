package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/balanza/internal/janitor"
)

// NewPruneCommand creates the prune command.
func NewPruneCommand(rootOpts *RootOptions) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete dispatched reminders past retention",
		Long: `Delete reminders that were dispatched longer ago than the retention window.
Pending reminders are never pruned. A running engine with the janitor enabled
does this on its own schedule.

Example:
  balanza prune --db ./balanza.db --older-than 168h`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			if olderThan > 0 {
				cfg.Janitor.Retention = olderThan
			}
			logger := newLogger(rootOpts, cfg, cmd.ErrOrStderr())

			st, closeStore, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			j, err := janitor.New(st, janitor.Config{
				Schedule:  cfg.Janitor.Schedule,
				Retention: cfg.Janitor.Retention,
			}, logger)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid janitor config", err)
			}

			n, err := j.RunOnce(commandContext(cmd))
			if err != nil {
				return WrapExitError(ExitCommandError, "prune failed", err)
			}

			result := map[string]any{"removed": n, "retention": cfg.Janitor.Retention.String()}
			return formatter(rootOpts, cmd).Success(result, func(w io.Writer) {
				fmt.Fprintf(w, "Pruned %d dispatched reminder(s) older than %s\n", n, cfg.Janitor.Retention)
			})
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "retention window (default from janitor.retention)")

	return cmd
}
