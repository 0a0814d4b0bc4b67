package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/balanza/internal/engine"
	"github.com/roach88/balanza/internal/notify"
	"github.com/roach88/balanza/internal/reminder"
)

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	Title       string
	Description string
	At          string        // RFC 3339 trigger time
	In          time.Duration // trigger relative to now
	TaskID      int64
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Schedule a reminder",
		Long: `Validate and persist a reminder for the owner.

The title must be 3 to 50 characters and the trigger time must not be in the
past. A running engine picks the reminder up on its next refresh.

Example:
  balanza add --owner 1 --title "Pay rent" --at 2026-04-01T09:00:00Z
  balanza add --owner 1 --title "Call bank" --in 2h --task 3`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return addReminder(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Title, "title", "", "reminder title (required)")
	cmd.Flags().StringVar(&opts.Description, "description", "", "reminder description")
	cmd.Flags().StringVar(&opts.At, "at", "", "trigger time (RFC 3339)")
	cmd.Flags().DurationVar(&opts.In, "in", 0, "trigger after this duration from now")
	cmd.Flags().Int64Var(&opts.TaskID, "task", 0, "linked financial task id")
	_ = cmd.MarkFlagRequired("title")
	cmd.MarkFlagsMutuallyExclusive("at", "in")

	return cmd
}

func addReminder(opts *AddOptions, cmd *cobra.Command) error {
	trigger, err := opts.triggerTime(time.Now())
	if err != nil {
		return err
	}

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	logger := newLogger(opts.RootOptions, cfg, cmd.ErrOrStderr())
	out := formatter(opts.RootOptions, cmd)

	st, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := commandContext(cmd)
	owner, err := requireOwner(ctx, cfg, st)
	if err != nil {
		return err
	}

	r := reminder.Reminder{
		Title:       opts.Title,
		Description: opts.Description,
		TriggerTime: trigger,
	}
	if opts.TaskID != 0 {
		id := opts.TaskID
		r.TaskID = &id
	}

	// The engine is never started here; it only validates, persists and
	// stamps the owner the same way a running engine does.
	eng := engine.New(ctx, owner.ID, st, st, notify.NewLog(logger),
		engine.WithLogger(logger),
		engine.WithStoreTimeout(cfg.Scheduler.StoreTimeout),
	)
	if err := eng.AddReminder(ctx, &r); err != nil {
		var verr *reminder.ValidationError
		if errors.As(err, &verr) {
			_ = out.Error(string(verr.Code), verr.Message, map[string]string{"field": verr.Field})
			return WrapExitError(ExitFailure, "invalid reminder", err)
		}
		return WrapExitError(ExitCommandError, "failed to save reminder", err)
	}

	return out.Success(r, func(w io.Writer) {
		fmt.Fprintf(w, "Scheduled reminder %d: %s\n", r.ID, r.String())
	})
}

// triggerTime resolves --at or --in against now.
func (o *AddOptions) triggerTime(now time.Time) (time.Time, error) {
	return resolveTrigger(o.At, o.In, now)
}

// resolveTrigger turns an RFC 3339 time or a positive offset into a trigger time.
func resolveTrigger(at string, in time.Duration, now time.Time) (time.Time, error) {
	switch {
	case at != "":
		t, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return time.Time{}, WrapExitError(ExitCommandError, "invalid --at time", err)
		}
		return t, nil
	case in > 0:
		return now.Add(in), nil
	default:
		return time.Time{}, NewExitError(ExitCommandError, "one of --at or --in is required")
	}
}
