package cli

import (
	"fmt"
	"io"
	"net/mail"

	"github.com/spf13/cobra"
)

// NewUserCommand creates the user command group.
func NewUserCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage reminder owners",
	}
	cmd.AddCommand(newUserAddCommand(rootOpts))
	return cmd
}

func newUserAddCommand(rootOpts *RootOptions) *cobra.Command {
	var email, name string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an owner",
		Long: `Create an owner. Notifications for the owner's reminders go to the e-mail
address given here.

Example:
  balanza user add --email ana@example.com --name "Ana"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := mail.ParseAddress(email); err != nil {
				return WrapExitError(ExitFailure, "invalid --email", err)
			}

			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			logger := newLogger(rootOpts, cfg, cmd.ErrOrStderr())
			st, closeStore, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			ctx := commandContext(cmd)
			id, err := st.InsertUser(ctx, email, name)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to create user", err)
			}
			u, err := st.GetUser(ctx, id)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read user", err)
			}

			return formatter(rootOpts, cmd).Success(u, func(w io.Writer) {
				fmt.Fprintf(w, "Created user %d <%s>\n", u.ID, u.Email)
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "notification e-mail address (required)")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}
