package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitBatch(t *testing.T, d *Debouncer) []FileEvent {
	t.Helper()
	select {
	case batch := <-d.Output():
		return batch
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for debounced batch")
		return nil
	}
}

func TestDebouncerSingleEventPassesThrough(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	d.Add(FileEvent{Path: "/usr/share/applications/a.desktop", Operation: OpCreate, Timestamp: time.Now()})

	batch := waitBatch(t, d)
	require.Len(t, batch, 1)
	assert.Equal(t, "/usr/share/applications/a.desktop", batch[0].Path)
	assert.Equal(t, OpCreate, batch[0].Operation)
}

func TestDebouncerCoalescesBurstForSamePath(t *testing.T) {
	d := NewDebouncer(100 * time.Millisecond)
	defer d.Stop()

	for i := 0; i < 5; i++ {
		d.Add(FileEvent{Path: "/a.desktop", Operation: OpModify, Timestamp: time.Now()})
	}

	batch := waitBatch(t, d)
	require.Len(t, batch, 1)
	assert.Equal(t, OpModify, batch[0].Operation)
}

func TestDebouncerCreateThenDeleteCancels(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	d.Add(FileEvent{Path: "/tmp.desktop", Operation: OpCreate, Timestamp: time.Now()})
	d.Add(FileEvent{Path: "/tmp.desktop", Operation: OpDelete, Timestamp: time.Now()})
	d.Add(FileEvent{Path: "/keep.desktop", Operation: OpCreate, Timestamp: time.Now()})

	batch := waitBatch(t, d)
	require.Len(t, batch, 1)
	assert.Equal(t, "/keep.desktop", batch[0].Path)
}

func TestDebouncerCreateThenModifyStaysCreate(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	d.Add(FileEvent{Path: "/a.desktop", Operation: OpCreate, Timestamp: time.Now()})
	d.Add(FileEvent{Path: "/a.desktop", Operation: OpModify, Timestamp: time.Now()})

	batch := waitBatch(t, d)
	require.Len(t, batch, 1)
	assert.Equal(t, OpCreate, batch[0].Operation)
}

func TestDebouncerDeleteThenCreateBecomesModify(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	d.Add(FileEvent{Path: "/a.desktop", Operation: OpDelete, Timestamp: time.Now()})
	d.Add(FileEvent{Path: "/a.desktop", Operation: OpCreate, Timestamp: time.Now()})

	batch := waitBatch(t, d)
	require.Len(t, batch, 1)
	assert.Equal(t, OpModify, batch[0].Operation)
}

func TestDebouncerModifyThenDeleteBecomesDelete(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	d.Add(FileEvent{Path: "/a.desktop", Operation: OpModify, Timestamp: time.Now()})
	d.Add(FileEvent{Path: "/a.desktop", Operation: OpDelete, Timestamp: time.Now()})

	batch := waitBatch(t, d)
	require.Len(t, batch, 1)
	assert.Equal(t, OpDelete, batch[0].Operation)
}

func TestDebouncerStopDropsPending(t *testing.T) {
	d := NewDebouncer(time.Hour)

	d.Add(FileEvent{Path: "/a.desktop", Operation: OpCreate, Timestamp: time.Now()})
	d.Stop()
	d.Stop() // idempotent

	d.Add(FileEvent{Path: "/b.desktop", Operation: OpCreate, Timestamp: time.Now()})
	select {
	case batch := <-d.Output():
		t.Fatalf("unexpected batch after stop: %v", batch)
	case <-time.After(50 * time.Millisecond):
	}
}
