package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/balanza/internal/reminder"
	"github.com/roach88/balanza/internal/store"
)

// UpdateOptions holds flags for the update command.
type UpdateOptions struct {
	*RootOptions
	Title       string
	Description string
	At          string
	In          time.Duration
	TaskID      int64
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UpdateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit or reschedule a reminder",
		Long: `Change a reminder's title, description, trigger time or task link. Only the
flags given are changed, and the result is validated like a new reminder.
Updating a reminder that already fired makes it pending again; --task 0 removes
the task link.

A running engine picks the change up on its next refresh, but it will not fire
the same reminder twice: a reminder it already sent stays silent until the
engine restarts.

Example:
  balanza update 7 --owner 1 --in 24h
  balanza update 7 --owner 1 --title "Pay rent (April)"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateReminder(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Title, "title", "", "new title")
	cmd.Flags().StringVar(&opts.Description, "description", "", "new description")
	cmd.Flags().StringVar(&opts.At, "at", "", "new trigger time (RFC 3339)")
	cmd.Flags().DurationVar(&opts.In, "in", 0, "new trigger after this duration from now")
	cmd.Flags().Int64Var(&opts.TaskID, "task", 0, "linked financial task id (0 unlinks)")
	cmd.MarkFlagsMutuallyExclusive("at", "in")

	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a reminder",
		Long: `Delete one of the owner's reminders. A running engine drops it on its next
refresh.

Example:
  balanza delete 7 --owner 1`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return deleteReminder(rootOpts, cmd, args[0])
		},
	}
}

func updateReminder(opts *UpdateOptions, cmd *cobra.Command, arg string) error {
	id, err := parseReminderID(arg)
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
	r, err := ownedReminder(ctx, st, owner.ID, id)
	if err != nil {
		return err
	}

	now := time.Now()
	flags := cmd.Flags()
	if flags.Changed("title") {
		r.Title = opts.Title
	}
	if flags.Changed("description") {
		r.Description = opts.Description
	}
	if flags.Changed("at") || flags.Changed("in") {
		r.TriggerTime, err = resolveTrigger(opts.At, opts.In, now)
		if err != nil {
			return err
		}
	}
	if flags.Changed("task") {
		r.TaskID = nil
		if opts.TaskID != 0 {
			task := opts.TaskID
			r.TaskID = &task
		}
	}

	if err := reminder.Validate(r, now); err != nil {
		var verr *reminder.ValidationError
		if errors.As(err, &verr) {
			_ = out.Error(string(verr.Code), verr.Message, map[string]string{"field": verr.Field})
		}
		return WrapExitError(ExitFailure, "invalid reminder", err)
	}

	if err := st.UpdateReminder(ctx, r); err != nil {
		return WrapExitError(ExitCommandError, "failed to update reminder", err)
	}
	logger.Info("reminder updated", "reminder_id", r.ID, "owner_id", owner.ID)

	return out.Success(r, func(w io.Writer) {
		fmt.Fprintf(w, "Updated reminder %d: %s\n", r.ID, r.String())
	})
}

func deleteReminder(opts *RootOptions, cmd *cobra.Command, arg string) error {
	id, err := parseReminderID(arg)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger := newLogger(opts, cfg, cmd.ErrOrStderr())

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
	if _, err := ownedReminder(ctx, st, owner.ID, id); err != nil {
		return err
	}

	if err := st.DeleteReminder(ctx, id); err != nil {
		return WrapExitError(ExitCommandError, "failed to delete reminder", err)
	}
	logger.Info("reminder deleted", "reminder_id", id, "owner_id", owner.ID)

	return formatter(opts, cmd).Success(map[string]any{"id": id, "deleted": true}, func(w io.Writer) {
		fmt.Fprintf(w, "Deleted reminder %d\n", id)
	})
}

func parseReminderID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid reminder id %q", arg))
	}
	return id, nil
}

// ownedReminder loads a reminder and checks it belongs to ownerID. Another
// owner's reminder is reported as missing.
func ownedReminder(ctx context.Context, st *store.Store, ownerID, id int64) (reminder.Reminder, error) {
	r, err := st.GetReminder(ctx, id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && r.OwnerID != ownerID) {
		return reminder.Reminder{}, NewExitError(ExitFailure, fmt.Sprintf("reminder %d does not exist", id))
	}
	if err != nil {
		return reminder.Reminder{}, WrapExitError(ExitCommandError, "failed to look up reminder", err)
	}
	return r, nil
}
