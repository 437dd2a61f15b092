package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"readify-backend/internal/bootstrap"
)

func newReconcileCmd(load appLoader) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Remove document records whose blob no longer exists",
		Long: `Checks every stored document against the object store and removes records
whose blob is gone. Blobs are never deleted by this command.

	readifyctl reconcile --dry-run
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, load, func(app *bootstrap.App) error {
				report, err := app.Reconciler.Sweep(cmd.Context(), dryRun)
				if err != nil {
					return fmt.Errorf("reconcile: %w", err)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "checked=%d stale=%d removed=%d dry_run=%t\n",
					report.Checked, len(report.Stale), report.Removed, report.DryRun)
				for _, doc := range report.Stale {
					fmt.Fprintf(out, "stale %s %s\n", doc.ID, doc.URL)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report stale records without removing them")
	return cmd
}
