package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pkdesk/launcherd/internal/ui"
)

// newStatusCmd creates the status command.
func newStatusCmd() *cobra.Command {
	var noColor bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show cache subsystem state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			rec := buildReconciler(cfg)
			defer rec.Close()

			rows, err := rec.Store().Count()
			if err != nil {
				return fmt.Errorf("failed to count cache rows: %w", err)
			}

			out := cmd.OutOrStdout()
			styles := ui.GetStyles(noColor || !ui.ShouldColor(out))
			_, err = fmt.Fprint(out, ui.RenderStatus(rec.Enabled(), rows, rec.Progress().Snapshot(), styles))
			return err
		},
	}

	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	return cmd
}
