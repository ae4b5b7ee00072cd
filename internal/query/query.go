// Package query is the boundary to the external package query service.
//
// The service answers two questions: which installed package owns a set
// of file paths, and which files a set of packages deposited. Both are
// inherently asynchronous on the backend side; the service streams zero
// or more data events followed by exactly one terminal finished event.
// The Resolver turns that stream into blocking calls with a
// single-outstanding-query guarantee.
package query

import (
	"context"
	"fmt"
	"strings"
)

// Capability describes which operations a backend supports.
type Capability uint32

const (
	// CapSearchFiles is the ability to find the package owning a file.
	CapSearchFiles Capability = 1 << iota
	// CapGetFiles is the ability to list the files a package installed.
	CapGetFiles
)

// Has reports whether all bits of want are present.
func (c Capability) Has(want Capability) bool {
	return c&want == want
}

// Status is the terminal outcome of one query.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Kind discriminates events in a query stream.
type Kind int

const (
	// KindMatch carries one owning-package candidate for a search query.
	KindMatch Kind = iota
	// KindFiles carries one package's file list for a get-files query.
	KindFiles
	// KindFinished terminates the stream with the query outcome.
	KindFinished
)

// Event is one element of a query stream. After the KindFinished event
// the producer closes the channel.
type Event struct {
	Kind Kind

	// Package is set for KindMatch.
	Package Package

	// PackageID and Paths are set for KindFiles.
	PackageID string
	Paths     []string

	// Status is set for KindFinished.
	Status Status
}

// Service is the external query facility. Implementations must deliver
// events in order and close the channel after the terminal event, or when
// ctx is cancelled.
type Service interface {
	// Capabilities reports the operations the backend supports.
	Capabilities() Capability

	// SearchFiles asks which packages own the given file paths.
	SearchFiles(ctx context.Context, installedOnly bool, paths []string) (<-chan Event, error)

	// GetFiles asks for the file manifests of the given package IDs.
	GetFiles(ctx context.Context, packageIDs []string) (<-chan Event, error)
}

// Package identifies one package known to the backend.
type Package struct {
	Name    string
	Version string
	Arch    string
}

// ID renders the backend wire form "name;version;arch;installed".
func (p Package) ID() string {
	return fmt.Sprintf("%s;%s;%s;installed", p.Name, p.Version, p.Arch)
}

// ParsePackageID parses the backend wire form. Missing fields are left
// empty; only the name is required.
func ParsePackageID(id string) (Package, error) {
	parts := strings.Split(id, ";")
	if len(parts) == 0 || parts[0] == "" {
		return Package{}, fmt.Errorf("invalid package id: %q", id)
	}
	pkg := Package{Name: parts[0]}
	if len(parts) > 1 {
		pkg.Version = parts[1]
	}
	if len(parts) > 2 {
		pkg.Arch = parts[2]
	}
	return pkg, nil
}
