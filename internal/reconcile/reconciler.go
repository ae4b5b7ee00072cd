// Package reconcile keeps the launcher cache consistent with the
// filesystem and the package database.
//
// Two workflows share the store and the resolver. A full rescan validates
// every cached row against live file content, discovers untracked
// launcher files and resolves their owners. Incremental ingestion applies
// the same bookkeeping from a just-installed package's file manifest,
// where ownership is already known.
//
// Everything runs on one goroutine; the only suspension points are the
// blocking queries inside the Resolver. No failure here propagates to the
// triggering caller beyond log output.
package reconcile

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pkdesk/launcherd/internal/config"
	"github.com/pkdesk/launcherd/internal/desktop"
	"github.com/pkdesk/launcherd/internal/fingerprint"
	"github.com/pkdesk/launcherd/internal/query"
	"github.com/pkdesk/launcherd/internal/scanner"
	"github.com/pkdesk/launcherd/internal/store"
)

// Disposition is the outcome reported for one package by a completed
// install/update operation.
type Disposition string

const (
	DispositionInstalled Disposition = "installed"
	DispositionUpdated   Disposition = "updated"
	DispositionRemoved   Disposition = "removed"
)

// PackageResult is one package's entry in a completed operation's
// results, as reported by the host.
type PackageResult struct {
	Package     query.Package
	Disposition Disposition
}

// Options assembles a Reconciler from its parts.
type Options struct {
	Store           *store.Store
	Resolver        *query.Resolver
	Evaluator       desktop.VisibilityEvaluator
	ApplicationDirs []string
}

// Reconciler drives both reconciliation workflows.
type Reconciler struct {
	store    *store.Store
	resolver *query.Resolver
	eval     desktop.VisibilityEvaluator
	dirs     []string
	progress *Tracker
}

// New creates a Reconciler from explicit parts.
func New(opts Options) *Reconciler {
	return &Reconciler{
		store:    opts.Store,
		resolver: opts.Resolver,
		eval:     opts.Evaluator,
		dirs:     opts.ApplicationDirs,
		progress: NewTracker(),
	}
}

// Initialize builds the cache subsystem from configuration.
//
// When the subsystem is disabled in configuration, or the store cannot be
// opened, the returned Reconciler is inert: every operation no-ops for
// the process lifetime. This is logged once here, not an error.
func Initialize(cfg *config.Config, svc query.Service) *Reconciler {
	st := store.Disabled()
	switch {
	case !cfg.Enabled:
		slog.Info("launcher cache disabled by configuration")
	default:
		opened, err := store.Open(cfg.DatabasePath)
		if err != nil {
			slog.Warn("launcher cache disabled: store unavailable",
				slog.String("path", cfg.DatabasePath),
				slog.String("error", err.Error()))
		} else {
			st = opened
		}
	}

	eval, err := desktop.NewEvaluator(nil)
	if err != nil {
		// Only fails on nonsensical cache sizing; treat as disabled.
		slog.Warn("launcher cache disabled: evaluator init failed",
			slog.String("error", err.Error()))
		_ = st.Close()
		st = store.Disabled()
	}

	return New(Options{
		Store:           st,
		Resolver:        query.NewResolver(svc, cfg.Query.Timeout),
		Evaluator:       eval,
		ApplicationDirs: cfg.ApplicationDirs,
	})
}

// Enabled reports whether the subsystem is operational.
func (r *Reconciler) Enabled() bool {
	return r.store.Enabled()
}

// Store exposes the cache store for read-only consumers.
func (r *Reconciler) Store() *store.Store {
	return r.store
}

// Progress returns the progress tracker for this reconciler.
func (r *Reconciler) Progress() *Tracker {
	return r.progress
}

// Close releases the store. Safe to call multiple times.
func (r *Reconciler) Close() {
	if err := r.store.Close(); err != nil {
		slog.Warn("failed to close cache store", slog.String("error", err.Error()))
	}
}

// Rescan runs the full reconciliation pass: validate every cached row,
// discover untracked launcher files, resolve their owners.
//
// Requires the backend to support file search; without it the pass is
// skipped. Per-file failures are logged and skipped, never escalated.
func (r *Reconciler) Rescan(ctx context.Context) {
	if !r.Enabled() {
		slog.Debug("rescan skipped: cache disabled")
		return
	}
	if !r.resolver.Capabilities().Has(query.CapSearchFiles) {
		slog.Info("rescan skipped: backend cannot search files")
		return
	}

	r.progress.Begin()
	defer r.progress.Finish()

	// Phase 1: validate existing rows, populating the visited set.
	visited := NewVisitedSet()
	if err := r.store.ForEach(func(entry store.Entry) {
		r.validateEntry(ctx, entry, visited)
	}); err != nil {
		slog.Warn("cache validation pass failed", slog.String("error", err.Error()))
		return
	}

	// Phase 2: discover launcher files the validation pass did not touch.
	candidates := scanner.WalkAll(r.dirs, visited.Contains)
	if len(candidates) == 0 {
		return
	}

	// Phase 3: resolve and track the newcomers.
	r.progress.SetPhase(PhaseGeneratingList)
	for i, path := range candidates {
		r.progress.SetPercentage(i * 100 / len(candidates))
		r.trackNewFile(ctx, path)
	}
}

// validateEntry checks one cached row against the live file.
func (r *Reconciler) validateEntry(ctx context.Context, entry store.Entry, visited *VisitedSet) {
	digest, ok := fingerprint.Compute(entry.Path)
	if !ok {
		slog.Debug("removing cache entry, file no longer present",
			slog.String("path", entry.Path))
		if err := r.store.Remove(entry.Path); err != nil {
			slog.Warn("failed to remove stale entry", slog.String("error", err.Error()))
		}
		return
	}

	// The file still exists, so the discovery phase must not re-add it,
	// whether or not the refresh below succeeds.
	visited.Add(entry.Path)

	if digest == entry.Fingerprint {
		return
	}

	slog.Debug("cache entry modified on disk, re-resolving owner",
		slog.String("path", entry.Path))
	if !r.upsertResolved(ctx, entry.Path, digest) {
		// The old row stays; the next rescan retries.
		slog.Warn("failed to refresh modified entry", slog.String("path", entry.Path))
	}
}

// trackNewFile fingerprints, resolves and stores one untracked file. On
// any failure the file simply remains untracked until the next rescan.
func (r *Reconciler) trackNewFile(ctx context.Context, path string) {
	digest, ok := fingerprint.Compute(path)
	if !ok {
		// Disappeared between discovery and resolution.
		return
	}
	if !r.upsertResolved(ctx, path, digest) {
		slog.Debug("leaving file untracked", slog.String("path", path))
	}
}

// upsertResolved resolves ownership for path and writes the row.
// Reports whether the row was written.
func (r *Reconciler) upsertResolved(ctx context.Context, path, digest string) bool {
	pkg, err := r.resolver.ResolveOwner(ctx, []string{path})
	if err != nil {
		return false
	}
	return r.upsertEntry(path, pkg.Name, digest)
}

// upsertEntry evaluates visibility and writes one row.
func (r *Reconciler) upsertEntry(path, owner, digest string) bool {
	visible, err := r.eval.Visible(path, digest)
	if err != nil {
		slog.Warn("skipping unparsable launcher file",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return false
	}

	entry := store.Entry{Path: path, Owner: owner, Visible: visible, Fingerprint: digest}
	if err := r.store.Upsert(entry); err != nil {
		slog.Warn("failed to upsert cache entry",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return false
	}

	slog.Debug("cached launcher file",
		slog.String("path", path),
		slog.String("owner", owner),
		slog.Bool("visible", visible))
	return true
}

// Ingest applies a completed install/update operation's results to the
// cache. Only packages reported as installed or updated are considered;
// if none are, no query is issued and no row changes.
//
// Requires the backend to support file-manifest retrieval; ownership is
// taken from the manifest, so no search query is needed.
func (r *Reconciler) Ingest(ctx context.Context, results []PackageResult) {
	if !r.Enabled() {
		slog.Debug("ingest skipped: cache disabled")
		return
	}
	if !r.resolver.Capabilities().Has(query.CapGetFiles) {
		slog.Info("ingest skipped: backend cannot list package files")
		return
	}

	var ids []string
	for _, res := range results {
		if res.Disposition == DispositionInstalled || res.Disposition == DispositionUpdated {
			ids = append(ids, res.Package.ID())
		}
	}
	if len(ids) == 0 {
		slog.Debug("ingest skipped: no installed or updated packages")
		return
	}

	r.progress.Begin()
	defer r.progress.Finish()

	slog.Debug("requesting file manifests", slog.Int("packages", len(ids)))
	manifests, err := r.resolver.FilesForPackages(ctx, ids)
	if err != nil {
		slog.Warn("file manifest query failed", slog.String("error", err.Error()))
		return
	}

	for _, manifest := range manifests {
		pkg, err := query.ParsePackageID(manifest.PackageID)
		if err != nil {
			slog.Warn("manifest with invalid package id",
				slog.String("package_id", manifest.PackageID))
			continue
		}
		for _, path := range manifest.Paths {
			if !strings.HasSuffix(path, desktop.Suffix) {
				continue
			}
			digest, ok := fingerprint.Compute(path)
			if !ok {
				continue
			}
			r.upsertEntry(path, pkg.Name, digest)
		}
	}
}

// RevalidateFile reconciles a single launcher path against the cache,
// used by watch mode when a file changes on disk. A missing file drops
// the row; an unchanged fingerprint is a no-op; anything else resolves
// ownership and rewrites the row.
func (r *Reconciler) RevalidateFile(ctx context.Context, path string) {
	if !r.Enabled() || !strings.HasSuffix(path, desktop.Suffix) {
		return
	}

	digest, ok := fingerprint.Compute(path)
	if !ok {
		if err := r.store.Remove(path); err != nil {
			slog.Warn("failed to remove entry", slog.String("error", err.Error()))
		}
		return
	}

	if current, found, err := r.store.Get(path); err == nil && found && current.Fingerprint == digest {
		return
	}

	if !r.resolver.Capabilities().Has(query.CapSearchFiles) {
		return
	}
	r.upsertResolved(ctx, path, digest)
}
