package ui

import (
	"fmt"
	"strings"

	"github.com/pkdesk/launcherd/internal/reconcile"
	"github.com/pkdesk/launcherd/internal/store"
)

// RenderEntries formats cached rows as an aligned table. The caller has
// already chosen styled or plain output.
func RenderEntries(entries []store.Entry, styles Styles) string {
	if len(entries) == 0 {
		return styles.Dim.Render("cache is empty") + "\n"
	}

	pathWidth := len("PATH")
	ownerWidth := len("PACKAGE")
	for _, e := range entries {
		if len(e.Path) > pathWidth {
			pathWidth = len(e.Path)
		}
		if len(e.Owner) > ownerWidth {
			ownerWidth = len(e.Owner)
		}
	}

	var b strings.Builder
	b.WriteString(styles.Header.Render(
		fmt.Sprintf("%-*s  %-*s  %-7s  %s", pathWidth, "PATH", ownerWidth, "PACKAGE", "VISIBLE", "FINGERPRINT")))
	b.WriteString("\n")

	for _, e := range entries {
		visible := "yes"
		if !e.Visible {
			visible = "no"
		}
		line := fmt.Sprintf("%-*s  %-*s  %-7s  %s", pathWidth, e.Path, ownerWidth, e.Owner, visible, e.Fingerprint)
		if e.Visible {
			b.WriteString(line)
		} else {
			b.WriteString(styles.Dim.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RenderStatus formats a one-shot subsystem summary.
func RenderStatus(enabled bool, rows int, snap reconcile.Snapshot, styles Styles) string {
	var b strings.Builder
	b.WriteString(styles.Header.Render("launcher cache"))
	b.WriteString("\n")

	state := styles.Success.Render("enabled")
	if !enabled {
		state = styles.Warning.Render("disabled")
	}
	b.WriteString(fmt.Sprintf("%s %s\n", styles.Label.Render("state:"), state))
	b.WriteString(fmt.Sprintf("%s %d\n", styles.Label.Render("rows:"), rows))
	b.WriteString(fmt.Sprintf("%s %s\n", styles.Label.Render("phase:"), string(snap.Phase)))

	if snap.Percentage != reconcile.PercentageIndeterminate {
		b.WriteString(fmt.Sprintf("%s %d%%\n", styles.Label.Render("progress:"), snap.Percentage))
	}
	return b.String()
}
