package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"readify-backend/internal/bootstrap"
	"readify-backend/internal/users"
)

func newUsersCmd(load appLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(newUsersCreateCmd(load))
	return cmd
}

func newUsersCreateCmd(load appLoader) *cobra.Command {
	var in users.CreateUserInput
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user, typically the first admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, load, func(app *bootstrap.App) error {
				user, err := app.Users.Create(cmd.Context(), in)
				if err != nil {
					return fmt.Errorf("create user: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %s %s role=%s\n", user.ID, user.Email, user.Role)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "display name")
	cmd.Flags().StringVar(&in.Email, "email", "", "login email")
	cmd.Flags().StringVar(&in.Password, "password", "", "initial password (min 8 characters)")
	cmd.Flags().StringVar(&in.Role, "role", users.RoleAdmin, "one of Admin, Editor, User")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
