// CLAUDE:SUMMARY File-backed dictionary table handle: load, init, and the front-end operations (exists, check, add, import, finalize, enrich).
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/hazyhaar/lessico/pkg/config"
	"github.com/hazyhaar/lessico/pkg/dict"
	"github.com/hazyhaar/lessico/pkg/journal"
)

// Ledger is one table file plus its keys, format and backup policy.
//
// Operations on one Ledger are serialized in-process. Two processes writing
// the same file are not coordinated; run a single writer per table.
type Ledger struct {
	spec      config.TableSpec
	format    dict.Format
	normalize dict.Normalizer
	journal   *journal.Journal
	logger    *slog.Logger
	now       func() time.Time

	mu sync.Mutex
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithJournal records passes and ingestions in j.
func WithJournal(j *journal.Journal) Option {
	return func(l *Ledger) { l.journal = j }
}

// WithLogger sets the logger; the default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithClock overrides time.Now, used for backup names and pass timings.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New returns a handle for spec. The spec should come from a validated config.
func New(spec config.TableSpec, opts ...Option) *Ledger {
	l := &Ledger{
		spec: spec,
		format: dict.Format{
			Delimiter: spec.DelimiterRune(),
			Encoding:  spec.Encoding,
		},
		normalize: dict.GetNormalizer(spec.Normalize),
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, o := range opts {
		o(l)
	}
	l.logger = l.logger.With("table", spec.ID)
	return l
}

// ID returns the table ID.
func (l *Ledger) ID() string { return l.spec.ID }

// Spec returns the table configuration.
func (l *Ledger) Spec() config.TableSpec { return l.spec }

// Info is the public summary of a table.
type Info struct {
	ID         string   `json:"id"`
	Path       string   `json:"path"`
	EnglishKey string   `json:"english_key"`
	ItalianKey string   `json:"italian_key"`
	Fields     []string `json:"fields"`
	Rows       int      `json:"rows"`
}

// Info loads the table and summarizes it.
func (l *Ledger) Info(ctx context.Context) (Info, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, keys, err := l.load()
	if err != nil {
		return Info{}, err
	}
	return Info{
		ID:         l.spec.ID,
		Path:       l.spec.Path,
		EnglishKey: keys.English,
		ItalianKey: keys.Italian,
		Fields:     t.Schema.Fields(),
		Rows:       len(t.Records),
	}, nil
}

// Load reads the whole table and resolves its key columns.
func (l *Ledger) Load() (*dict.Table, dict.Keys, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load()
}

func (l *Ledger) load() (*dict.Table, dict.Keys, error) {
	f, err := os.Open(l.spec.Path)
	if err != nil {
		return nil, dict.Keys{}, dict.IOErr("open", l.spec.Path, err)
	}
	defer f.Close()

	t, err := dict.ReadTable(f, l.format)
	if err != nil {
		return nil, dict.Keys{}, err
	}
	keys, err := t.Schema.ResolveKeys(l.spec.EnglishKey, l.spec.ItalianKey)
	if err != nil {
		return nil, dict.Keys{}, err
	}
	return t, keys, nil
}

// Init creates the table file holding only a header made of fields. An
// existing file is left untouched and created is false.
func (l *Ledger) Init(fields []string) (created bool, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := os.Stat(l.spec.Path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, dict.IOErr("stat", l.spec.Path, err)
	}

	if len(fields) == 0 {
		fields = config.DefaultFields
	}
	schema, err := dict.NewSchema(fields)
	if err != nil {
		return false, err
	}
	if _, err := schema.ResolveKeys(l.spec.EnglishKey, l.spec.ItalianKey); err != nil {
		return false, err
	}
	if err := l.replace(dict.NewTable(schema)); err != nil {
		return false, err
	}
	l.logger.Info("table initialized", "path", l.spec.Path, "fields", len(fields))
	return true, nil
}
