package ledger

import (
	"context"
	"errors"
	"strings"

	"github.com/hazyhaar/lessico/pkg/dict"
	"github.com/hazyhaar/lessico/pkg/enrich"
	"github.com/hazyhaar/lessico/pkg/journal"
)

// Ingestion sources recorded in the journal.
const (
	SourceCheck  = "check"
	SourceAdd    = "add"
	SourceImport = "import"
)

// CheckResult is the outcome of Check.
type CheckResult struct {
	Term  string `json:"term"`
	Found bool   `json:"found"`
	Added bool   `json:"added"`
}

// AddResult is the outcome of AddTerm.
type AddResult struct {
	Column string `json:"column"`
	Term   string `json:"term"`
	Added  bool   `json:"added"`
}

// TermResult is one line of an import.
type TermResult struct {
	Term  string `json:"term"`
	Found bool   `json:"found"`
	Added bool   `json:"added"`
	Error string `json:"error,omitempty"`
}

// ImportResult summarizes a bulk import.
type ImportResult struct {
	Column  string       `json:"column"`
	Added   int          `json:"added"`
	Found   int          `json:"found"`
	Invalid int          `json:"invalid"`
	Backup  string       `json:"backup,omitempty"`
	Results []TermResult `json:"results"`
}

// Exists reports whether value is already present in column.
func (l *Ledger) Exists(ctx context.Context, column, value string) (bool, error) {
	if strings.TrimSpace(column) == "" {
		return false, dict.ValidationErr("column", column, "column is empty")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return false, err
	}
	t, _, err := l.load()
	if err != nil {
		return false, err
	}
	return t.ExistsWith(l.normalize, column, value)
}

// Check looks term up in the English key column and, when absent, appends a
// row holding the lowercased term in that column only.
func (l *Ledger) Check(ctx context.Context, term string) (CheckResult, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return CheckResult{}, dict.ValidationErr("term", "", "term is empty")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	_, added, err := l.ingest(ctx, SourceCheck, l.spec.EnglishKey, term)
	if err != nil {
		return CheckResult{}, err
	}
	return CheckResult{Term: term, Found: !added, Added: added}, nil
}

// AddTerm appends term verbatim to column unless a matching value is already
// there. An existing match is reported, not an error.
func (l *Ledger) AddTerm(ctx context.Context, column, term string) (AddResult, error) {
	if strings.TrimSpace(column) == "" {
		return AddResult{}, dict.ValidationErr("column", column, "column is empty")
	}
	if strings.TrimSpace(term) == "" {
		return AddResult{}, dict.ValidationErr(column, term, "term is empty")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	field, added, err := l.ingest(ctx, SourceAdd, column, term)
	if err != nil {
		return AddResult{}, err
	}
	return AddResult{Column: field, Term: term, Added: added}, nil
}

// ingest runs exists-then-append for a single value and returns the resolved
// column. Callers hold l.mu.
func (l *Ledger) ingest(ctx context.Context, source, column, value string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	t, _, err := l.load()
	if err != nil {
		return "", false, err
	}
	field, err := t.Schema.Resolve(column)
	if err != nil {
		return "", false, err
	}
	found, err := t.ExistsWith(l.normalize, field, value)
	if err != nil {
		return "", false, err
	}
	if !found {
		rec, err := t.Build(field, value)
		if err != nil {
			return "", false, err
		}
		if _, err := l.backup(); err != nil {
			return "", false, err
		}
		if err := l.appendRows(t, []dict.Record{rec}); err != nil {
			return "", false, err
		}
		l.logger.Info("term added", "source", source, "column", field, "term", value)
	}
	l.recordIngestion(ctx, source, field, value, !found)
	return field, !found, nil
}

// Import runs the check-or-add loop over terms sequentially. Terms are trimmed
// and stored otherwise verbatim; duplicates inside the batch are found like
// stored ones. The table is backed up once, before the first append.
// On cancellation the terms already appended stay appended.
func (l *Ledger) Import(ctx context.Context, column string, terms []string) (ImportResult, error) {
	if strings.TrimSpace(column) == "" {
		return ImportResult{}, dict.ValidationErr("column", column, "column is empty")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	t, _, err := l.load()
	if err != nil {
		return ImportResult{}, err
	}
	field, err := t.Schema.Resolve(column)
	if err != nil {
		return ImportResult{}, err
	}

	res := ImportResult{Column: field, Results: make([]TermResult, 0, len(terms))}
	backedUp := false
	for _, raw := range terms {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		term := strings.TrimSpace(raw)
		if term == "" {
			res.Invalid++
			res.Results = append(res.Results, TermResult{Term: raw, Error: "empty term"})
			continue
		}
		found, err := t.ExistsWith(l.normalize, field, term)
		if err != nil {
			return res, err
		}
		if found {
			res.Found++
			res.Results = append(res.Results, TermResult{Term: term, Found: true})
			l.recordIngestion(ctx, SourceImport, field, term, false)
			continue
		}
		rec, err := t.Build(field, term)
		var de *dict.Error
		if errors.As(err, &de) && errors.Is(err, dict.ErrValidation) {
			res.Invalid++
			res.Results = append(res.Results, TermResult{Term: term, Error: de.Msg})
			continue
		}
		if err != nil {
			return res, err
		}
		if !backedUp {
			if res.Backup, err = l.backup(); err != nil {
				return res, err
			}
			backedUp = true
		}
		t.Records = append(t.Records, rec)
		if err := l.appendRows(t, []dict.Record{rec}); err != nil {
			return res, err
		}
		res.Added++
		res.Results = append(res.Results, TermResult{Term: term, Added: true})
		l.recordIngestion(ctx, SourceImport, field, term, true)
	}
	l.logger.Info("import complete", "column", field, "added", res.Added, "found", res.Found, "invalid", res.Invalid)
	return res, nil
}

// Finalize consolidates the stored table and atomically replaces it. Either
// the consolidated table is written or the file is left as it was. A table
// that is already consolidated is not rewritten.
func (l *Ledger) Finalize(ctx context.Context) (*dict.Report, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pass := journal.Pass{ID: journal.NewPassID(), TableID: l.spec.ID, StartedAt: l.now()}
	rep, err := l.finalize(ctx, &pass)
	pass.FinishedAt = l.now()
	if err != nil {
		pass.Status, pass.Error = journal.StatusFailed, err.Error()
		l.logger.Error("finalize failed", "pass", pass.ID, "kind", dict.KindName(err), "error", err)
	} else {
		pass.Status = journal.StatusOK
		l.logger.Info("finalize complete",
			"pass", pass.ID,
			"rows_in", rep.RowsIn,
			"rows_out", rep.RowsOut,
			"exact_duplicates", rep.ExactDuplicates,
			"english_merges", rep.EnglishMerges,
			"italian_merges", rep.ItalianMerges,
			"conflicts", len(rep.Conflicts),
			"backup", pass.BackupPath,
		)
	}
	if l.journal != nil {
		if jerr := l.journal.RecordPass(context.WithoutCancel(ctx), pass, rep); jerr != nil {
			l.logger.Error("journal pass", "pass", pass.ID, "error", jerr)
		}
	}
	return rep, err
}

func (l *Ledger) finalize(ctx context.Context, pass *journal.Pass) (*dict.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, keys, err := l.load()
	if err != nil {
		return nil, err
	}
	c := &dict.Consolidator{Keys: keys, Normalize: l.normalize, Logger: l.logger}
	out, rep, err := c.Consolidate(t)
	if err != nil {
		return nil, err
	}
	if out.Equal(t) {
		return rep, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if pass.BackupPath, err = l.backup(); err != nil {
		return nil, err
	}
	if err := l.replace(out); err != nil {
		return nil, err
	}
	return rep, nil
}

// Enrich fills enrichment fields through e and rewrites the table when at
// least one cell changed. A cancelled pass leaves the file untouched.
func (l *Ledger) Enrich(ctx context.Context, e *enrich.Enricher) (enrich.Stats, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t, keys, err := l.load()
	if err != nil {
		return enrich.Stats{}, err
	}
	st, err := e.Apply(ctx, t, keys)
	if err != nil {
		return st, err
	}
	if st.Filled() == 0 {
		return st, nil
	}
	if err := ctx.Err(); err != nil {
		return st, err
	}
	if _, err := l.backup(); err != nil {
		return st, err
	}
	if err := l.replace(t); err != nil {
		return st, err
	}
	return st, nil
}

func (l *Ledger) recordIngestion(ctx context.Context, source, column, term string, added bool) {
	if l.journal == nil {
		return
	}
	err := l.journal.RecordIngestion(context.WithoutCancel(ctx), journal.Ingestion{
		TableID: l.spec.ID, Source: source, Column: column, Term: term, Added: added,
	})
	if err != nil {
		l.logger.Error("journal ingestion", "term", term, "error", err)
	}
}
