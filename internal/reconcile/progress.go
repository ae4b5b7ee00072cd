package reconcile

import (
	"sync"
	"time"
)

// Phase labels the stage a reconciliation pass is in. Observable through
// Snapshot; has no bearing on correctness.
type Phase string

const (
	// PhaseIdle means no pass is running.
	PhaseIdle Phase = "idle"
	// PhaseScanning is the validation / manifest-retrieval stage.
	PhaseScanning Phase = "scanning"
	// PhaseGeneratingList is the resolution stage for newly found files.
	PhaseGeneratingList Phase = "generating-list"
	// PhaseFinished means the pass completed.
	PhaseFinished Phase = "finished"
)

// PercentageIndeterminate is the sentinel reported while no meaningful
// percentage exists.
const PercentageIndeterminate = 101

// Snapshot is an immutable view of reconciliation progress.
type Snapshot struct {
	Phase          Phase `json:"phase"`
	Percentage     int   `json:"percentage"`
	ElapsedSeconds int   `json:"elapsed_seconds"`
}

// Tracker provides thread-safe progress reporting for a reconciliation
// pass. The reconciler writes, observers read.
type Tracker struct {
	mu         sync.RWMutex
	phase      Phase
	percentage int
	started    time.Time
}

// NewTracker returns an idle tracker.
func NewTracker() *Tracker {
	return &Tracker{
		phase:      PhaseIdle,
		percentage: PercentageIndeterminate,
		started:    time.Now(),
	}
}

// Begin resets the tracker for a new pass.
func (t *Tracker) Begin() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phase = PhaseScanning
	t.percentage = PercentageIndeterminate
	t.started = time.Now()
}

// SetPhase updates the current phase.
func (t *Tracker) SetPhase(phase Phase) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phase = phase
}

// SetPercentage updates the completion percentage (0-100, or
// PercentageIndeterminate).
func (t *Tracker) SetPercentage(pct int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.percentage = pct
}

// Finish marks the pass complete.
func (t *Tracker) Finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phase = PhaseFinished
	t.percentage = 100
}

// Snapshot returns the current progress.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Snapshot{
		Phase:          t.phase,
		Percentage:     t.percentage,
		ElapsedSeconds: int(time.Since(t.started).Seconds()),
	}
}
