// CLAUDE:SUMMARY SQLite journal of consolidation passes, the merge conflicts they reported, and front-end ingestions.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hazyhaar/lessico/pkg/dict"

	_ "modernc.org/sqlite"
)

// Pass statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Pass is one row of the passes table.
type Pass struct {
	ID              string    `json:"id"`
	TableID         string    `json:"table"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	Status          string    `json:"status"`
	Error           string    `json:"error,omitempty"`
	RowsIn          int       `json:"rows_in"`
	RowsOut         int       `json:"rows_out"`
	ExactDuplicates int       `json:"exact_duplicates"`
	EnglishMerges   int       `json:"english_merges"`
	ItalianMerges   int       `json:"italian_merges"`
	Conflicts       int       `json:"conflicts"`
	BackupPath      string    `json:"backup_path,omitempty"`
}

// Ingestion is one front-end append or skip.
type Ingestion struct {
	TableID string
	Source  string // check, add, import
	Column  string
	Term    string
	Added   bool
}

// Journal manages the SQLite journal database.
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

const ddl = `
CREATE TABLE IF NOT EXISTS passes (
	id               TEXT PRIMARY KEY,
	table_id         TEXT NOT NULL,
	started_at       INTEGER NOT NULL,
	finished_at      INTEGER NOT NULL,
	status           TEXT NOT NULL,
	error            TEXT NOT NULL DEFAULT '',
	rows_in          INTEGER NOT NULL DEFAULT 0,
	rows_out         INTEGER NOT NULL DEFAULT 0,
	exact_duplicates INTEGER NOT NULL DEFAULT 0,
	english_merges   INTEGER NOT NULL DEFAULT 0,
	italian_merges   INTEGER NOT NULL DEFAULT 0,
	conflicts        INTEGER NOT NULL DEFAULT 0,
	backup_path      TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS passes_table_started ON passes(table_id, started_at);

CREATE TABLE IF NOT EXISTS conflicts (
	pass_id  TEXT NOT NULL REFERENCES passes(id),
	seq      INTEGER NOT NULL,
	axis     TEXT NOT NULL,
	identity TEXT NOT NULL,
	field    TEXT NOT NULL,
	kept     TEXT NOT NULL,
	dropped  TEXT NOT NULL,
	PRIMARY KEY (pass_id, seq)
);

CREATE TABLE IF NOT EXISTS ingestions (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	table_id TEXT NOT NULL,
	at       INTEGER NOT NULL,
	source   TEXT NOT NULL,
	col      TEXT NOT NULL,
	term     TEXT NOT NULL,
	added    INTEGER NOT NULL
);`

// Open opens (or creates) the SQLite database at path and ensures the
// journal tables exist.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal tables: %w", err)
	}
	return &Journal{db: db, now: time.Now}, nil
}

// Close closes the SQLite connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// NewPassID returns a fresh pass identifier.
func NewPassID() string {
	return uuid.NewString()
}

// RecordPass stores a finished pass and, for successful passes, its conflicts,
// in one transaction. rep may be nil for failed passes.
func (j *Journal) RecordPass(ctx context.Context, p Pass, rep *dict.Report) error {
	if p.ID == "" {
		p.ID = NewPassID()
	}
	if rep != nil {
		p.RowsIn = rep.RowsIn
		p.RowsOut = rep.RowsOut
		p.ExactDuplicates = rep.ExactDuplicates
		p.EnglishMerges = rep.EnglishMerges
		p.ItalianMerges = rep.ItalianMerges
		p.Conflicts = len(rep.Conflicts)
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record pass %s: %w", p.ID, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO passes
		(id, table_id, started_at, finished_at, status, error, rows_in, rows_out,
		 exact_duplicates, english_merges, italian_merges, conflicts, backup_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.TableID, p.StartedAt.UnixMilli(), p.FinishedAt.UnixMilli(), p.Status, p.Error,
		p.RowsIn, p.RowsOut, p.ExactDuplicates, p.EnglishMerges, p.ItalianMerges, p.Conflicts, p.BackupPath,
	)
	if err != nil {
		return fmt.Errorf("record pass %s: %w", p.ID, err)
	}

	if rep != nil {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO conflicts
			(pass_id, seq, axis, identity, field, kept, dropped) VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare conflicts: %w", err)
		}
		defer stmt.Close()
		for i, c := range rep.Conflicts {
			if _, err := stmt.ExecContext(ctx, p.ID, i, string(c.Axis), c.Identity, c.Field, c.Kept, c.Dropped); err != nil {
				return fmt.Errorf("record conflict %d of pass %s: %w", i, p.ID, err)
			}
		}
	}
	return tx.Commit()
}

// RecordIngestion stores one front-end append or skip.
func (j *Journal) RecordIngestion(ctx context.Context, in Ingestion) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO ingestions (table_id, at, source, col, term, added) VALUES (?, ?, ?, ?, ?, ?)`,
		in.TableID, j.now().UnixMilli(), in.Source, in.Column, in.Term, in.Added,
	)
	if err != nil {
		return fmt.Errorf("record ingestion for %s: %w", in.TableID, err)
	}
	return nil
}

// ListPasses returns the most recent passes of a table, newest first.
// An empty tableID lists every table.
func (j *Journal) ListPasses(ctx context.Context, tableID string, limit int) ([]Pass, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx, `SELECT id, table_id, started_at, finished_at, status, error,
		rows_in, rows_out, exact_duplicates, english_merges, italian_merges, conflicts, backup_path
		FROM passes WHERE ? = '' OR table_id = ?
		ORDER BY started_at DESC, id LIMIT ?`, tableID, tableID, limit)
	if err != nil {
		return nil, fmt.Errorf("list passes: %w", err)
	}
	defer rows.Close()

	var passes []Pass
	for rows.Next() {
		var p Pass
		var started, finished int64
		if err := rows.Scan(&p.ID, &p.TableID, &started, &finished, &p.Status, &p.Error,
			&p.RowsIn, &p.RowsOut, &p.ExactDuplicates, &p.EnglishMerges, &p.ItalianMerges,
			&p.Conflicts, &p.BackupPath); err != nil {
			return nil, fmt.Errorf("scan pass: %w", err)
		}
		p.StartedAt = time.UnixMilli(started)
		p.FinishedAt = time.UnixMilli(finished)
		passes = append(passes, p)
	}
	return passes, rows.Err()
}

// Conflicts returns the conflicts recorded for a pass, in report order.
func (j *Journal) Conflicts(ctx context.Context, passID string) ([]dict.Conflict, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT axis, identity, field, kept, dropped
		FROM conflicts WHERE pass_id = ? ORDER BY seq`, passID)
	if err != nil {
		return nil, fmt.Errorf("list conflicts of %s: %w", passID, err)
	}
	defer rows.Close()

	var out []dict.Conflict
	for rows.Next() {
		var c dict.Conflict
		var axis string
		if err := rows.Scan(&axis, &c.Identity, &c.Field, &c.Kept, &c.Dropped); err != nil {
			return nil, fmt.Errorf("scan conflict: %w", err)
		}
		c.Axis = dict.Axis(axis)
		out = append(out, c)
	}
	return out, rows.Err()
}

// IngestionCounts returns how many terms were added and skipped for a table.
func (j *Journal) IngestionCounts(ctx context.Context, tableID string) (added, skipped int, err error) {
	err = j.db.QueryRowContext(ctx, `SELECT
		COALESCE(SUM(CASE WHEN added THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN added THEN 0 ELSE 1 END), 0)
		FROM ingestions WHERE table_id = ?`, tableID).Scan(&added, &skipped)
	if err != nil {
		return 0, 0, fmt.Errorf("count ingestions of %s: %w", tableID, err)
	}
	return added, skipped, nil
}
