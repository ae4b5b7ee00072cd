package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newRescanCmd creates the rescan command.
func newRescanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rescan",
		Short: "Validate the cache and discover untracked launcher files",
		Long: `Rescan runs the full reconciliation pass: every cached row is checked
against the file on disk, rows for vanished files are dropped, changed
files get their ownership re-resolved, and launcher files the cache has
never seen are resolved and added.

Requires a backend that supports searching files by path.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			rec := buildReconciler(cfg)
			defer rec.Close()

			rec.Rescan(cmd.Context())

			rows, err := rec.Store().Count()
			if err != nil {
				return fmt.Errorf("failed to count cache rows: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "rescan complete, %d launcher files cached\n", rows)
			return err
		},
	}
}
