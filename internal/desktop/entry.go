// Package desktop parses launcher files and evaluates menu visibility.
//
// A launcher file is an INI-style text file with a [Desktop Entry] group
// describing an application's name, icon and invocation command. The cache
// only needs two things from it: proof that the file parses at all, and
// whether the entry should be shown in a menu.
package desktop

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	apperrors "github.com/pkdesk/launcherd/internal/errors"
)

// Suffix is the file name suffix identifying launcher files.
const Suffix = ".desktop"

// mainGroup is the required group header of a launcher file.
const mainGroup = "[Desktop Entry]"

// Entry is a parsed launcher file.
type Entry struct {
	Name       string
	Type       string
	Exec       string
	NoDisplay  bool
	Hidden     bool
	OnlyShowIn []string
	NotShowIn  []string
}

// Parse reads and parses a launcher file.
// Returns an error when the file cannot be read, lacks a [Desktop Entry]
// group, or is missing the required Name key.
func Parse(path string) (*Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeFileUnreadable,
			"failed to open launcher file", err)
	}
	defer func() { _ = f.Close() }()

	entry := &Entry{}
	inMain := false
	sawMain := false

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "[") {
			inMain = line == mainGroup
			if inMain {
				sawMain = true
			}
			continue
		}
		if !inMain {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, apperrors.EntryError(
				fmt.Sprintf("malformed line in %s: %q", path, line), nil)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		// Localized keys like Name[de] are irrelevant for visibility.
		if strings.Contains(key, "[") {
			continue
		}

		switch key {
		case "Name":
			entry.Name = value
		case "Type":
			entry.Type = value
		case "Exec":
			entry.Exec = value
		case "NoDisplay":
			entry.NoDisplay = parseBool(value)
		case "Hidden":
			entry.Hidden = parseBool(value)
		case "OnlyShowIn":
			entry.OnlyShowIn = parseList(value)
		case "NotShowIn":
			entry.NotShowIn = parseList(value)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.New(apperrors.ErrCodeFileUnreadable,
			"failed to read launcher file", err)
	}

	if !sawMain {
		return nil, apperrors.EntryError(
			fmt.Sprintf("no [Desktop Entry] group in %s", path), nil)
	}
	if entry.Name == "" {
		return nil, apperrors.EntryError(
			fmt.Sprintf("missing Name key in %s", path), nil)
	}

	return entry, nil
}

// ShouldShow reports whether the entry should appear in a menu for the
// given desktop environments (usually from $XDG_CURRENT_DESKTOP).
func (e *Entry) ShouldShow(desktops []string) bool {
	if e.Hidden || e.NoDisplay {
		return false
	}
	if len(e.OnlyShowIn) > 0 && !intersects(e.OnlyShowIn, desktops) {
		return false
	}
	if intersects(e.NotShowIn, desktops) {
		return false
	}
	return true
}

func parseBool(value string) bool {
	return strings.EqualFold(value, "true")
}

func parseList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ";") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if strings.EqualFold(x, y) {
				return true
			}
		}
	}
	return false
}
