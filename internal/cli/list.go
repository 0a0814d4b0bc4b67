package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/balanza/internal/reminder"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pending reminders",
		Long: `List the owner's pending reminders, soonest first.

Example:
  balanza list --owner 1
  balanza list --owner 1 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listReminders(rootOpts, cmd)
		},
	}
}

func listReminders(opts *RootOptions, cmd *cobra.Command) error {
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

	reminders, err := st.ListForOwner(ctx, owner.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list reminders", err)
	}

	return formatter(opts, cmd).Success(reminders, func(w io.Writer) {
		writeReminderTable(w, reminders)
	})
}

func writeReminderTable(w io.Writer, reminders []reminder.Reminder) {
	if len(reminders) == 0 {
		fmt.Fprintln(w, "No pending reminders.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTRIGGER\tTITLE\tTASK")
	for _, r := range reminders {
		task := "-"
		if r.TaskID != nil {
			task = fmt.Sprint(*r.TaskID)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.ID, r.TriggerTime.Format(reminder.TimeLayout), r.Title, task)
	}
	_ = tw.Flush()
}
