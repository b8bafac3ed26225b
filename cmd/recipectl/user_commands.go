package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sakif/recipe-api/internal/model"
)

func newCreateSuperuserCommand(ctx *commandContext) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "createsuperuser",
		Short: "Create a staff superuser account",
		Long: "Create a staff superuser account.\n\n" +
			"Without --password the account has no usable password and can only sign in through GitHub.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.ErrOrStderr(), func(a *app) error {
				user, err := a.users.CreateSuperuser(cmd.Context(), email, password)
				if err != nil {
					return fmt.Errorf("create superuser: %w", err)
				}
				printCreated(cmd, user)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (login identifier)")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newCreateUserCommand(ctx *commandContext) *cobra.Command {
	var email, password, name string

	cmd := &cobra.Command{
		Use:   "createuser",
		Short: "Create a regular user account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.ErrOrStderr(), func(a *app) error {
				user, err := a.users.CreateUser(cmd.Context(), email, password, name)
				if err != nil {
					return fmt.Errorf("create user: %w", err)
				}
				printCreated(cmd, user)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (login identifier)")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func printCreated(cmd *cobra.Command, user *model.User) {
	kind := "user"
	if user.IsSuperuser {
		kind = "superuser"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s (id %d)\n", kind, user.Email, user.ID)
}
