package main

import (
	"context"

	"github.com/spf13/cobra"

	"readify-backend/internal/bootstrap"
)

type appLoader func(ctx context.Context) (*bootstrap.App, error)

func newRootCmd(load appLoader) *cobra.Command {
	root := &cobra.Command{
		Use:           "readifyctl",
		Short:         "Maintenance commands for the readify backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newReconcileCmd(load), newUsersCmd(load))
	return root
}

func withApp(cmd *cobra.Command, load appLoader, fn func(app *bootstrap.App) error) error {
	app, err := load(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(app)
}
