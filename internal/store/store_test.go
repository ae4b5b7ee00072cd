package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUpsertAndGet(t *testing.T) {
	s := openMemory(t)

	entry := Entry{
		Path:        "/usr/share/applications/editor.desktop",
		Owner:       "editor",
		Visible:     true,
		Fingerprint: "abc123",
	}
	require.NoError(t, s.Upsert(entry))

	got, ok, err := s.Get(entry.Path)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, entry, got)
}

func TestUpsertIsIdempotent(t *testing.T) {
	s := openMemory(t)

	entry := Entry{Path: "/a.desktop", Owner: "pkga", Visible: true, Fingerprint: "h1"}
	require.NoError(t, s.Upsert(entry))
	require.NoError(t, s.Upsert(entry))

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, ok, err := s.Get(entry.Path)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, entry, got)
}

func TestUpsertSupersedes(t *testing.T) {
	s := openMemory(t)

	require.NoError(t, s.Upsert(Entry{Path: "/a.desktop", Owner: "old", Fingerprint: "h1"}))
	require.NoError(t, s.Upsert(Entry{Path: "/a.desktop", Owner: "new", Visible: true, Fingerprint: "h2"}))

	got, ok, err := s.Get("/a.desktop")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "new", got.Owner)
	assert.Equal(t, "h2", got.Fingerprint)
	assert.True(t, got.Visible)

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRemoveIsIdempotent(t *testing.T) {
	s := openMemory(t)

	require.NoError(t, s.Upsert(Entry{Path: "/a.desktop", Owner: "pkga", Fingerprint: "h1"}))
	require.NoError(t, s.Remove("/a.desktop"))
	require.NoError(t, s.Remove("/a.desktop"))
	require.NoError(t, s.Remove("/never-existed.desktop"))

	_, ok, err := s.Get("/a.desktop")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestForEachVisitsAllRows(t *testing.T) {
	s := openMemory(t)

	paths := []string{"/a.desktop", "/b.desktop", "/c.desktop"}
	for i, p := range paths {
		require.NoError(t, s.Upsert(Entry{Path: p, Owner: "pkg", Fingerprint: string(rune('0' + i))}))
	}

	var seen []string
	require.NoError(t, s.ForEach(func(e Entry) {
		seen = append(seen, e.Path)
	}))
	assert.ElementsMatch(t, paths, seen)
}

func TestForEachToleratesDeletionDuringIteration(t *testing.T) {
	s := openMemory(t)

	for _, p := range []string{"/a.desktop", "/b.desktop", "/c.desktop"} {
		require.NoError(t, s.Upsert(Entry{Path: p, Owner: "pkg", Fingerprint: "h"}))
	}

	var visited []string
	require.NoError(t, s.ForEach(func(e Entry) {
		visited = append(visited, e.Path)
		// Deleting mid-iteration must not skip or double-visit other rows.
		require.NoError(t, s.Remove(e.Path))
	}))
	assert.ElementsMatch(t, []string{"/a.desktop", "/b.desktop", "/c.desktop"}, visited)

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestPersistenceAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Upsert(Entry{Path: "/a.desktop", Owner: "pkga", Visible: true, Fingerprint: "h1"}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	got, ok, err := s.Get("/a.desktop")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "pkga", got.Owner)
}

func TestSecondOpenFailsWhileLocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	_, err = Open(path)
	assert.Error(t, err)
}

func TestDisabledStoreNoOps(t *testing.T) {
	s := Disabled()

	assert.False(t, s.Enabled())
	assert.NoError(t, s.Upsert(Entry{Path: "/a.desktop"}))
	assert.NoError(t, s.Remove("/a.desktop"))
	assert.NoError(t, s.ForEach(func(Entry) { t.Fatal("callback must not run") }))

	_, ok, err := s.Get("/a.desktop")
	assert.NoError(t, err)
	assert.False(t, ok)

	n, err := s.Count()
	assert.NoError(t, err)
	assert.Equal(t, 0, n)

	assert.NoError(t, s.Close())
}

func TestOperationsAfterClose(t *testing.T) {
	s := openMemory(t)
	require.NoError(t, s.Close())

	assert.False(t, s.Enabled())
	assert.NoError(t, s.Upsert(Entry{Path: "/a.desktop"}))
	assert.NoError(t, s.Remove("/a.desktop"))
	assert.NoError(t, s.Close())
}
