package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/hazyhaar/lessico/pkg/config"
	"github.com/hazyhaar/lessico/pkg/journal"
)

// ErrUnknownTable is returned by Registry.Get for an unconfigured table ID.
var ErrUnknownTable = errors.New("unknown table")

// Registry holds the ledgers of every configured table.
type Registry struct {
	mu      sync.RWMutex
	ledgers map[string]*Ledger
	journal *journal.Journal
	logger  *slog.Logger
}

// NewRegistry creates an empty registry. j may be nil.
func NewRegistry(j *journal.Journal, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		ledgers: make(map[string]*Ledger),
		journal: j,
		logger:  logger,
	}
}

// Load replaces the registry content with one ledger per table spec.
// Ledgers whose spec did not change are kept, so in-flight operations on
// them stay serialized with new ones.
func (r *Registry) Load(tables []config.TableSpec) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make(map[string]*Ledger, len(tables))
	for _, spec := range tables {
		if _, dup := next[spec.ID]; dup {
			return fmt.Errorf("duplicate table id %q", spec.ID)
		}
		if old, ok := r.ledgers[spec.ID]; ok && old.spec == spec {
			next[spec.ID] = old
			continue
		}
		next[spec.ID] = New(spec, WithJournal(r.journal), WithLogger(r.logger))
	}
	r.ledgers = next
	return nil
}

// Get returns the ledger for a table ID.
func (r *Registry) Get(id string) (*Ledger, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.ledgers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, id)
	}
	return l, nil
}

// Ledgers returns all ledgers sorted by ID.
func (r *Registry) Ledgers() []*Ledger {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Ledger, 0, len(r.ledgers))
	for _, l := range r.ledgers {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Count returns the number of configured tables.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ledgers)
}

// Journal returns the shared journal, possibly nil.
func (r *Registry) Journal() *journal.Journal { return r.journal }

// TableStatus is a table's Info, or the error that prevented loading it.
type TableStatus struct {
	Info
	Error string `json:"error,omitempty"`
}

// List summarizes every table, sorted by ID. Unreadable tables are listed
// with their error.
func (r *Registry) List(ctx context.Context) []TableStatus {
	ledgers := r.Ledgers()
	out := make([]TableStatus, 0, len(ledgers))
	for _, l := range ledgers {
		info, err := l.Info(ctx)
		st := TableStatus{Info: info}
		if err != nil {
			st.Info = Info{ID: l.ID(), Path: l.spec.Path}
			st.Error = err.Error()
		}
		out = append(out, st)
	}
	return out
}
