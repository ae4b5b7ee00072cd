package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pkdesk/launcherd/internal/query"
	"github.com/pkdesk/launcherd/internal/reconcile"
)

// operationResult is one package's line in an operation results file, as
// written by the package backend when an install/update transaction
// finishes.
type operationResult struct {
	PackageID   string `json:"package_id"`
	Disposition string `json:"disposition"`
}

// newIngestCmd creates the ingest command.
func newIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <results.json>",
		Short: "Apply a finished package operation to the cache",
		Long: `Ingest reads a JSON array of {package_id, disposition} objects
describing a finished package operation and adds any launcher files the
installed or updated packages ship. Dispositions other than "installed"
and "updated" are ignored.

Requires a backend that can list the files of a package.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := readResults(args[0])
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			rec := buildReconciler(cfg)
			defer rec.Close()

			rec.Ingest(cmd.Context(), results)

			rows, err := rec.Store().Count()
			if err != nil {
				return fmt.Errorf("failed to count cache rows: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "ingest complete, %d launcher files cached\n", rows)
			return err
		},
	}
}

// readResults parses an operation results file into package results.
func readResults(path string) ([]reconcile.PackageResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read results file: %w", err)
	}

	var raw []operationResult
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse results file: %w", err)
	}

	results := make([]reconcile.PackageResult, 0, len(raw))
	for _, r := range raw {
		pkg, err := query.ParsePackageID(r.PackageID)
		if err != nil {
			return nil, fmt.Errorf("invalid package id %q: %w", r.PackageID, err)
		}
		results = append(results, reconcile.PackageResult{
			Package:     pkg,
			Disposition: reconcile.Disposition(r.Disposition),
		})
	}
	return results, nil
}
