// CLAUDE:SUMMARY Bulk word-list readers registered by format ID (plain lines, CSV column) feeding ledger imports.
package wordlist

import (
	"fmt"
	"io"
	"sort"
	"sync"
)

// Options tune a reader. Column names the CSV column to take terms from.
type Options struct {
	Column    string
	Delimiter rune
}

// Format reads terms out of a word-list source.
type Format interface {
	// ID returns the unique identifier of this format (e.g. "lines").
	ID() string
	// Description returns a human-readable description.
	Description() string
	// Read returns the terms in source order. Blank entries are dropped.
	Read(r io.Reader, opts Options) ([]string, error)
}

var (
	registryMu sync.RWMutex
	formats    = make(map[string]Format)
)

// Register adds a format to the global registry.
func Register(f Format) {
	registryMu.Lock()
	defer registryMu.Unlock()
	formats[f.ID()] = f
}

// Get returns a registered format by ID, or an error if not found.
func Get(id string) (Format, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := formats[id]
	if !ok {
		return nil, fmt.Errorf("unknown word-list format: %q", id)
	}
	return f, nil
}

// All returns all registered formats sorted by ID.
func All() []Format {
	registryMu.RLock()
	defer registryMu.RUnlock()
	result := make([]Format, 0, len(formats))
	for _, f := range formats {
		result = append(result, f)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })
	return result
}
