package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pkdesk/launcherd/internal/reconcile"
	"github.com/pkdesk/launcherd/internal/store"
)

func TestRenderEntriesEmpty(t *testing.T) {
	out := RenderEntries(nil, NoColorStyles())
	assert.Contains(t, out, "cache is empty")
}

func TestRenderEntriesAlignsColumns(t *testing.T) {
	entries := []store.Entry{
		{Path: "/usr/share/applications/gedit.desktop", Owner: "gedit", Visible: true, Fingerprint: "abc123"},
		{Path: "/a.desktop", Owner: "a", Visible: false, Fingerprint: "def456"},
	}
	out := RenderEntries(entries, NoColorStyles())

	assert.Contains(t, out, "PATH")
	assert.Contains(t, out, "PACKAGE")
	assert.Contains(t, out, "gedit.desktop")
	assert.Contains(t, out, "yes")
	assert.Contains(t, out, "no")
}

func TestRenderStatus(t *testing.T) {
	snap := reconcile.Snapshot{Phase: reconcile.PhaseFinished, Percentage: 100}
	out := RenderStatus(true, 7, snap, NoColorStyles())

	assert.Contains(t, out, "enabled")
	assert.Contains(t, out, "7")
	assert.Contains(t, out, "finished")
	assert.Contains(t, out, "100%")

	snap = reconcile.Snapshot{Phase: reconcile.PhaseIdle, Percentage: reconcile.PercentageIndeterminate}
	out = RenderStatus(false, 0, snap, NoColorStyles())
	assert.Contains(t, out, "disabled")
	assert.NotContains(t, out, "%")
}

func TestShouldColorPipedWriter(t *testing.T) {
	assert.False(t, ShouldColor(&bytes.Buffer{}))
}

func TestGetStyles(t *testing.T) {
	// Both variants render without panicking; styled output still
	// contains the text.
	assert.Contains(t, GetStyles(false).Header.Render("x"), "x")
	assert.Contains(t, GetStyles(true).Header.Render("x"), "x")
}
