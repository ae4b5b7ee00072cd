package desktop

import (
	"fmt"
	"os"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// entryCacheSize bounds the parsed-entry cache. A launcher directory on a
// typical system holds a few hundred files.
const entryCacheSize = 512

// VisibilityEvaluator decides whether a launcher file should appear in a
// menu. The reconciler depends only on this interface.
type VisibilityEvaluator interface {
	// Visible parses the launcher file identified by path whose current
	// content digest is fingerprint. Returns an error when the file does
	// not parse as a launcher entry.
	Visible(path, fingerprint string) (bool, error)
}

// Evaluator is the default VisibilityEvaluator. Parsed entries are cached
// per (path, fingerprint) so a rescan does not re-parse unchanged files.
type Evaluator struct {
	desktops []string

	cache   *lru.Cache[string, *Entry]
	cacheMu sync.RWMutex
}

// NewEvaluator creates an Evaluator for the given desktop environments.
// When desktops is nil, $XDG_CURRENT_DESKTOP is consulted.
func NewEvaluator(desktops []string) (*Evaluator, error) {
	if desktops == nil {
		desktops = CurrentDesktops()
	}

	cache, err := lru.New[string, *Entry](entryCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create entry cache: %w", err)
	}

	return &Evaluator{
		desktops: desktops,
		cache:    cache,
	}, nil
}

// Visible implements VisibilityEvaluator.
func (e *Evaluator) Visible(path, fingerprint string) (bool, error) {
	key := path + "\x00" + fingerprint

	e.cacheMu.RLock()
	entry, ok := e.cache.Get(key)
	e.cacheMu.RUnlock()

	if !ok {
		var err error
		entry, err = Parse(path)
		if err != nil {
			return false, err
		}

		e.cacheMu.Lock()
		e.cache.Add(key, entry)
		e.cacheMu.Unlock()
	}

	return entry.ShouldShow(e.desktops), nil
}

// CurrentDesktops returns the desktop environments from
// $XDG_CURRENT_DESKTOP (colon-separated, e.g. "GNOME:GNOME-Classic").
func CurrentDesktops() []string {
	raw := os.Getenv("XDG_CURRENT_DESKTOP")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ":") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
