package query

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/pkdesk/launcherd/internal/errors"
)

// PackageFiles is one package's delivered file manifest.
type PackageFiles struct {
	PackageID string
	Paths     []string
}

// Resolver issues blocking queries against a Service.
//
// A mutex serializes queries: the match accumulation for one query cycle
// must be fully drained before the next query is issued, so there is at
// most one outstanding query per Resolver at any time. Each query is
// bounded by the configured timeout; there is no cancellation of an
// in-flight query beyond that.
type Resolver struct {
	svc     Service
	timeout time.Duration

	mu sync.Mutex
}

// NewResolver creates a Resolver around svc. timeout bounds one blocking
// query cycle; zero falls back to five minutes.
func NewResolver(svc Service, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Resolver{svc: svc, timeout: timeout}
}

// Capabilities reports what the underlying backend supports.
func (r *Resolver) Capabilities() Capability {
	return r.svc.Capabilities()
}

// ResolveOwner determines which installed package owns the given file
// paths. Success requires the query to yield exactly one match: zero
// matches and multiple matches are both resolution failures, because
// ambiguous ownership is never guessed. Failures are logged and never
// retried here.
func (r *Resolver) ResolveOwner(ctx context.Context, paths []string) (Package, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	events, err := r.svc.SearchFiles(ctx, true, paths)
	if err != nil {
		return Package{}, errors.Wrap(errors.ErrCodeQueryFailed, err)
	}

	// Pending matches for this query cycle, accumulated in delivery order.
	var matches []Package
	if err := drain(ctx, events, func(ev Event) {
		if ev.Kind == KindMatch {
			matches = append(matches, ev.Package)
		}
	}); err != nil {
		return Package{}, err
	}

	if len(matches) != 1 {
		err := errors.New(errors.ErrCodeAmbiguousOwner,
			"ownership not resolved to exactly one package", nil).
			WithDetail("matches", strconv.Itoa(len(matches)))
		slog.Warn("ownership resolution failed",
			slog.Int("matches", len(matches)),
			slog.Any("paths", paths))
		return Package{}, err
	}
	return matches[0], nil
}

// FilesForPackages retrieves the file manifests of the given package IDs
// in one blocking query.
func (r *Resolver) FilesForPackages(ctx context.Context, packageIDs []string) ([]PackageFiles, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	events, err := r.svc.GetFiles(ctx, packageIDs)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, err)
	}

	var manifests []PackageFiles
	if err := drain(ctx, events, func(ev Event) {
		if ev.Kind == KindFiles {
			manifests = append(manifests, PackageFiles{PackageID: ev.PackageID, Paths: ev.Paths})
		}
	}); err != nil {
		return nil, err
	}
	return manifests, nil
}

// drain consumes the stream until the terminal event, forwarding data
// events to fn. The caller blocks here for the whole query cycle; this is
// the suspension point of the reconciliation flow.
func drain(ctx context.Context, events <-chan Event, fn func(Event)) error {
	sawFinished := false
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				if !sawFinished {
					slog.Warn("query stream ended without terminal event")
				}
				return nil
			}
			if ev.Kind == KindFinished {
				sawFinished = true
				if ev.Status != StatusSuccess {
					// Terminal failure is logged, not escalated; the
					// accumulated data still decides the outcome.
					slog.Warn("query finished with non-success status",
						slog.String("status", string(ev.Status)))
				}
				continue
			}
			fn(ev)
		case <-ctx.Done():
			return errors.New(errors.ErrCodeQueryTimeout, "query did not complete in time", ctx.Err())
		}
	}
}
