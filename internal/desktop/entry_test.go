package desktop

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEntry(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.desktop")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseMinimalEntry(t *testing.T) {
	path := writeEntry(t, `[Desktop Entry]
Name=Text Editor
Type=Application
Exec=gedit %U
`)

	entry, err := Parse(path)
	require.NoError(t, err)
	assert.Equal(t, "Text Editor", entry.Name)
	assert.Equal(t, "Application", entry.Type)
	assert.Equal(t, "gedit %U", entry.Exec)
	assert.False(t, entry.NoDisplay)
	assert.False(t, entry.Hidden)
}

func TestParseIgnoresOtherGroupsAndLocales(t *testing.T) {
	path := writeEntry(t, `# comment
[Desktop Entry]
Name=Editor
Name[de]=Bearbeiter
Type=Application

[Desktop Action new-window]
Name=New Window
Exec=editor --new-window
`)

	entry, err := Parse(path)
	require.NoError(t, err)
	assert.Equal(t, "Editor", entry.Name)
	// Exec of the action group must not leak into the main entry
	assert.Empty(t, entry.Exec)
}

func TestParseLists(t *testing.T) {
	path := writeEntry(t, `[Desktop Entry]
Name=Panel Settings
OnlyShowIn=GNOME;KDE;
NotShowIn=XFCE;
`)

	entry, err := Parse(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"GNOME", "KDE"}, entry.OnlyShowIn)
	assert.Equal(t, []string{"XFCE"}, entry.NotShowIn)
}

func TestParseFailures(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "no desktop entry group", content: "[Other Group]\nName=x\n"},
		{name: "missing name", content: "[Desktop Entry]\nType=Application\n"},
		{name: "malformed line", content: "[Desktop Entry]\nName=x\nthis is not a key value pair\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeEntry(t, tt.content)
			_, err := Parse(path)
			assert.Error(t, err)
		})
	}
}

func TestParseMissingFile(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "missing.desktop"))
	assert.Error(t, err)
}

func TestShouldShow(t *testing.T) {
	tests := []struct {
		name     string
		entry    Entry
		desktops []string
		want     bool
	}{
		{name: "plain entry shown", entry: Entry{Name: "x"}, want: true},
		{name: "hidden", entry: Entry{Name: "x", Hidden: true}, want: false},
		{name: "no display", entry: Entry{Name: "x", NoDisplay: true}, want: false},
		{
			name:     "only show in matching desktop",
			entry:    Entry{Name: "x", OnlyShowIn: []string{"GNOME"}},
			desktops: []string{"GNOME"},
			want:     true,
		},
		{
			name:     "only show in other desktop",
			entry:    Entry{Name: "x", OnlyShowIn: []string{"KDE"}},
			desktops: []string{"GNOME"},
			want:     false,
		},
		{
			name:     "not show in current desktop",
			entry:    Entry{Name: "x", NotShowIn: []string{"GNOME"}},
			desktops: []string{"GNOME"},
			want:     false,
		},
		{
			name:     "case insensitive desktop match",
			entry:    Entry{Name: "x", OnlyShowIn: []string{"gnome"}},
			desktops: []string{"GNOME"},
			want:     true,
		},
		{
			name:  "only show in without current desktop",
			entry: Entry{Name: "x", OnlyShowIn: []string{"GNOME"}},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.entry.ShouldShow(tt.desktops))
		})
	}
}

func TestEvaluatorVisible(t *testing.T) {
	eval, err := NewEvaluator([]string{"GNOME"})
	require.NoError(t, err)

	shown := writeEntry(t, "[Desktop Entry]\nName=Shown\n")
	visible, err := eval.Visible(shown, "fp1")
	require.NoError(t, err)
	assert.True(t, visible)

	hidden := writeEntry(t, "[Desktop Entry]\nName=Hidden\nNoDisplay=true\n")
	visible, err = eval.Visible(hidden, "fp2")
	require.NoError(t, err)
	assert.False(t, visible)
}

func TestEvaluatorUnparsable(t *testing.T) {
	eval, err := NewEvaluator(nil)
	require.NoError(t, err)

	bad := writeEntry(t, "[Other]\nName=x\n")
	_, err = eval.Visible(bad, "fp")
	assert.Error(t, err)
}

func TestEvaluatorCachesByFingerprint(t *testing.T) {
	eval, err := NewEvaluator(nil)
	require.NoError(t, err)

	path := writeEntry(t, "[Desktop Entry]\nName=A\n")
	visible, err := eval.Visible(path, "fp1")
	require.NoError(t, err)
	assert.True(t, visible)

	// Same fingerprint: served from cache even after the file changes on disk.
	require.NoError(t, os.WriteFile(path, []byte("[Desktop Entry]\nName=A\nNoDisplay=true\n"), 0o644))
	visible, err = eval.Visible(path, "fp1")
	require.NoError(t, err)
	assert.True(t, visible)

	// New fingerprint forces a re-parse.
	visible, err = eval.Visible(path, "fp2")
	require.NoError(t, err)
	assert.False(t, visible)
}

func TestCurrentDesktops(t *testing.T) {
	t.Setenv("XDG_CURRENT_DESKTOP", "GNOME:GNOME-Classic")
	assert.Equal(t, []string{"GNOME", "GNOME-Classic"}, CurrentDesktops())

	t.Setenv("XDG_CURRENT_DESKTOP", "")
	assert.Nil(t, CurrentDesktops())
}
