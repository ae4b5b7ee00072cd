package reconcile

// VisitedSet tracks launcher paths already confirmed valid during the
// current reconciliation pass, so the discovery phase does not re-add
// them as new. It is rebuilt empty at the start of every pass, never
// persisted, and only touched from the reconciliation goroutine.
type VisitedSet struct {
	paths map[string]struct{}
}

// NewVisitedSet returns an empty set.
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{paths: make(map[string]struct{})}
}

// Add marks a path as visited.
func (v *VisitedSet) Add(path string) {
	v.paths[path] = struct{}{}
}

// Contains reports whether a path was visited in this pass.
func (v *VisitedSet) Contains(path string) bool {
	_, ok := v.paths[path]
	return ok
}

// Len returns the number of visited paths.
func (v *VisitedSet) Len() int {
	return len(v.paths)
}
