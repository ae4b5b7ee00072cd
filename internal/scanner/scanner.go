// Package scanner discovers launcher files under the application
// directories.
package scanner

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkdesk/launcherd/internal/desktop"
)

// Walk recursively enumerates launcher files under root, skipping any
// path for which skip returns true (the reconciler passes its visited-set
// membership test here so just-validated rows are not re-added).
//
// The result is fully materialized because callers pair it with per-item
// progress reporting. Unreadable directories are logged at warn level and
// skipped; they never fail the walk. A missing root yields an empty
// result.
func Walk(root string, skip func(path string) bool) []string {
	var found []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("skipping unreadable path",
				slog.String("path", path),
				slog.String("error", err.Error()))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(d.Name(), desktop.Suffix) {
			return nil
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			return nil
		}
		if skip != nil && skip(abs) {
			return nil
		}

		slog.Debug("discovered untracked launcher file", slog.String("path", abs))
		found = append(found, abs)
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		slog.Warn("walk failed",
			slog.String("root", root),
			slog.String("error", err.Error()))
	}

	return found
}

// WalkAll enumerates launcher files under each root in order, applying
// the same skip filter to all of them.
func WalkAll(roots []string, skip func(path string) bool) []string {
	var found []string
	for _, root := range roots {
		found = append(found, Walk(root, skip)...)
	}
	return found
}
