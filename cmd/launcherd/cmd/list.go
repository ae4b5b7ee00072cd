package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pkdesk/launcherd/internal/store"
	"github.com/pkdesk/launcherd/internal/ui"
)

// newListCmd creates the list command.
func newListCmd() *cobra.Command {
	var noColor bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the cached launcher files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			rec := buildReconciler(cfg)
			defer rec.Close()

			var entries []store.Entry
			if err := rec.Store().ForEach(func(e store.Entry) {
				entries = append(entries, e)
			}); err != nil {
				return fmt.Errorf("failed to read cache: %w", err)
			}

			out := cmd.OutOrStdout()
			styles := ui.GetStyles(noColor || !ui.ShouldColor(out))
			_, err = fmt.Fprint(out, ui.RenderEntries(entries, styles))
			return err
		},
	}

	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	return cmd
}
