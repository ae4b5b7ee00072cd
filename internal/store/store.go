// Package store persists the launcher cache table in SQLite.
//
// The table maps absolute launcher file paths to the package that owns
// them, a menu-visibility flag and a content fingerprint:
//
//	cache(path TEXT, package TEXT, show INTEGER, fingerprint TEXT)
//
// Uniqueness per path is enforced by always deleting before inserting.
// Synchronous writes are disabled: a crash can lose the most recent
// update but never corrupts structure.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	apperrors "github.com/pkdesk/launcherd/internal/errors"
)

// Entry is one persisted row of the launcher cache.
type Entry struct {
	// Path is the absolute launcher file path; unique key.
	Path string
	// Owner is the name of the package that installed the file.
	Owner string
	// Visible reports whether the launcher should appear in a menu.
	Visible bool
	// Fingerprint is the content digest computed at last validation.
	Fingerprint string
}

// Store is the persistent launcher cache. The zero value is unusable;
// use Open or Disabled.
//
// A disabled Store turns every operation into a no-op. This is the
// process-lifetime degradation mode for open/create failures and for the
// subsystem being switched off in configuration.
type Store struct {
	mu       sync.Mutex
	db       *sql.DB
	lock     *flock.Flock
	disabled bool
	closed   bool
}

const createTable = `CREATE TABLE IF NOT EXISTS cache (
	path TEXT,
	package TEXT,
	show INTEGER,
	fingerprint TEXT
)`

// Open opens or creates the cache database at path. An empty path opens
// an in-memory database for testing.
//
// The database file is guarded by a sibling lock file so two launcherd
// processes never write the same cache concurrently.
func Open(path string) (*Store, error) {
	s := &Store{}

	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}

		s.lock = flock.New(path + ".lock")
		locked, err := s.lock.TryLock()
		if err != nil {
			return nil, apperrors.New(apperrors.ErrCodeStoreLocked,
				"failed to acquire database lock", err)
		}
		if !locked {
			return nil, apperrors.New(apperrors.ErrCodeStoreLocked,
				fmt.Sprintf("database is locked by another process: %s", path), nil)
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		s.unlock()
		return nil, apperrors.New(apperrors.ErrCodeStoreUnavailable,
			"failed to open database", err)
	}

	// The cache is only ever written from one goroutine.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createTable); err != nil {
		_ = db.Close()
		s.unlock()
		return nil, apperrors.New(apperrors.ErrCodeStoreUnavailable,
			"failed to create cache table", err)
	}

	// Change detection data is cheap to rebuild; don't pay for fsync.
	if _, err := db.Exec("PRAGMA synchronous=OFF"); err != nil {
		slog.Warn("failed to relax synchronous mode", slog.String("error", err.Error()))
	}

	s.db = db
	return s, nil
}

// Disabled returns a Store whose operations all no-op.
func Disabled() *Store {
	return &Store{disabled: true}
}

// Enabled reports whether the store accepts operations.
func (s *Store) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.disabled && !s.closed
}

// Remove deletes the row with the given path. Removing an absent path is
// a no-op; Remove is idempotent.
func (s *Store) Remove(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unusable() {
		return nil
	}

	if _, err := s.db.Exec("DELETE FROM cache WHERE path = ?", path); err != nil {
		return apperrors.StoreError(fmt.Sprintf("failed to remove %s", path), err)
	}
	return nil
}

// Upsert removes any existing row for entry.Path and inserts the new row.
// The two statements are sequential, not atomic; a crash between them
// leaves the entry temporarily absent, which the next rescan repairs.
func (s *Store) Upsert(entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unusable() {
		return nil
	}

	if _, err := s.db.Exec("DELETE FROM cache WHERE path = ?", entry.Path); err != nil {
		return apperrors.StoreError(fmt.Sprintf("failed to supersede %s", entry.Path), err)
	}

	show := 0
	if entry.Visible {
		show = 1
	}
	_, err := s.db.Exec(
		"INSERT INTO cache (path, package, show, fingerprint) VALUES (?, ?, ?, ?)",
		entry.Path, entry.Owner, show, entry.Fingerprint,
	)
	if err != nil {
		return apperrors.StoreError(fmt.Sprintf("failed to insert %s", entry.Path), err)
	}
	return nil
}

// Get returns the row for path, if present.
func (s *Store) Get(path string) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unusable() {
		return Entry{}, false, nil
	}

	row := s.db.QueryRow("SELECT path, package, show, fingerprint FROM cache WHERE path = ?", path)
	entry, err := scanEntry(row.Scan)
	if err == sql.ErrNoRows {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("failed to query %s: %w", path, err)
	}
	return entry, true, nil
}

// ForEach streams all rows to fn in storage order.
//
// The row set is buffered before fn runs, so fn may delete or upsert rows
// against the store without disturbing the iteration.
func (s *Store) ForEach(fn func(Entry)) error {
	entries, err := s.snapshot()
	if err != nil {
		return err
	}
	for _, entry := range entries {
		fn(entry)
	}
	return nil
}

// Count returns the number of cached rows.
func (s *Store) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unusable() {
		return 0, nil
	}

	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM cache").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return n, nil
}

// Close releases the database and its lock. Safe to call multiple times.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disabled || s.closed {
		return nil
	}
	s.closed = true

	err := s.db.Close()
	s.unlock()
	return err
}

// snapshot buffers the full table under the lock.
func (s *Store) snapshot() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unusable() {
		return nil, nil
	}

	rows, err := s.db.Query("SELECT path, package, show, fingerprint FROM cache")
	if err != nil {
		return nil, fmt.Errorf("failed to scan cache table: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cache row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cache table: %w", err)
	}
	return entries, nil
}

func (s *Store) unusable() bool {
	return s.disabled || s.closed
}

func (s *Store) unlock() {
	if s.lock != nil {
		_ = s.lock.Unlock()
	}
}

func scanEntry(scan func(...any) error) (Entry, error) {
	var entry Entry
	var show int
	if err := scan(&entry.Path, &entry.Owner, &show, &entry.Fingerprint); err != nil {
		return Entry{}, err
	}
	entry.Visible = show != 0
	return entry, nil
}
