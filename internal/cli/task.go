package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/roach88/balanza/internal/reminder"
)

// TaskAddOptions holds flags for the task add command.
type TaskAddOptions struct {
	*RootOptions
	Title       string
	Description string
	Due         string
	Amount      string
	Category    string
	Status      string
}

// NewTaskCommand creates the task command group.
func NewTaskCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage financial tasks reminders can link to",
	}
	cmd.AddCommand(newTaskAddCommand(rootOpts))
	return cmd
}

func newTaskAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TaskAddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a financial task",
		Long: `Create a financial task (a bill, a budget review) for the owner. Reminders
linked to it with --task include the task line in their notification.

Example:
  balanza task add --owner 1 --title "Rent" --amount 1200.50 --due 2026-04-01T00:00:00Z`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return addTask(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Title, "title", "", "task title (required)")
	cmd.Flags().StringVar(&opts.Description, "description", "", "task description")
	cmd.Flags().StringVar(&opts.Due, "due", "", "due date (RFC 3339, required)")
	cmd.Flags().StringVar(&opts.Amount, "amount", "0", "amount")
	cmd.Flags().StringVar(&opts.Category, "category", "", "category")
	cmd.Flags().StringVar(&opts.Status, "status", string(reminder.TaskPending), "PENDING|COMPLETED|OVERDUE|CANCELLED")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("due")

	return cmd
}

// task parses the flags into a Task.
func (o *TaskAddOptions) task() (reminder.Task, error) {
	due, err := time.Parse(time.RFC3339, o.Due)
	if err != nil {
		return reminder.Task{}, WrapExitError(ExitFailure, "invalid --due time", err)
	}
	amount, err := decimal.NewFromString(o.Amount)
	if err != nil {
		return reminder.Task{}, WrapExitError(ExitFailure, "invalid --amount", err)
	}
	status := reminder.TaskStatus(strings.ToUpper(o.Status))
	if !reminder.ValidTaskStatuses[status] {
		return reminder.Task{}, NewExitError(ExitFailure, fmt.Sprintf("invalid --status %q", o.Status))
	}
	return reminder.Task{
		Title:       o.Title,
		Description: o.Description,
		DueDate:     due,
		Amount:      amount,
		Category:    o.Category,
		Status:      status,
	}, nil
}

func addTask(opts *TaskAddOptions, cmd *cobra.Command) error {
	t, err := opts.task()
	if err != nil {
		return err
	}

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	logger := newLogger(opts.RootOptions, cfg, cmd.ErrOrStderr())
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
	t.OwnerID = owner.ID

	id, err := st.InsertTask(ctx, t)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create task", err)
	}
	t.ID = id

	return formatter(opts.RootOptions, cmd).Success(t, func(w io.Writer) {
		fmt.Fprintf(w, "Created task %d: %s\n", t.ID, t.String())
	})
}
