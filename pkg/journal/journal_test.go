package journal

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hazyhaar/lessico/pkg/dict"
)

func tempJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestOpen_CreatesTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer j.Close()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("db file not created: %v", err)
	}
	passes, err := j.ListPasses(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("ListPasses on empty db: %v", err)
	}
	if len(passes) != 0 {
		t.Fatalf("expected 0 passes, got %d", len(passes))
	}

	// Reopening must not fail on existing tables.
	j2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	j2.Close()
}

func TestRecordPass_WithConflicts(t *testing.T) {
	j := tempJournal(t)
	ctx := context.Background()

	start := time.UnixMilli(1_700_000_000_000)
	rep := &dict.Report{
		RowsIn: 10, RowsOut: 7, ExactDuplicates: 1, EnglishMerges: 1, ItalianMerges: 1,
		Conflicts: []dict.Conflict{
			{Axis: dict.AxisEnglish, Identity: "bank", Field: "Taxonomy", Kept: "Money", Dropped: "Nature"},
			{Axis: dict.AxisItalian, Identity: "gatto", Field: "English_Translation", Kept: "Cat", Dropped: "Kitty"},
		},
	}
	p := Pass{
		TableID:    "vocab",
		StartedAt:  start,
		FinishedAt: start.Add(150 * time.Millisecond),
		Status:     StatusOK,
		BackupPath: "/tmp/vocab.bak",
	}
	if err := j.RecordPass(ctx, p, rep); err != nil {
		t.Fatalf("RecordPass: %v", err)
	}

	passes, err := j.ListPasses(ctx, "vocab", 10)
	if err != nil {
		t.Fatalf("ListPasses: %v", err)
	}
	if len(passes) != 1 {
		t.Fatalf("expected 1 pass, got %d", len(passes))
	}
	got := passes[0]
	if got.ID == "" {
		t.Fatal("pass ID not generated")
	}
	if got.RowsIn != 10 || got.RowsOut != 7 || got.Conflicts != 2 || got.EnglishMerges != 1 {
		t.Errorf("pass counts = %+v", got)
	}
	if !got.StartedAt.Equal(start) || got.FinishedAt.Sub(got.StartedAt) != 150*time.Millisecond {
		t.Errorf("timestamps = %v .. %v", got.StartedAt, got.FinishedAt)
	}
	if got.BackupPath != "/tmp/vocab.bak" || got.Status != StatusOK {
		t.Errorf("pass = %+v", got)
	}

	conflicts, err := j.Conflicts(ctx, got.ID)
	if err != nil {
		t.Fatalf("Conflicts: %v", err)
	}
	if len(conflicts) != 2 {
		t.Fatalf("expected 2 conflicts, got %d", len(conflicts))
	}
	if conflicts[0] != rep.Conflicts[0] || conflicts[1] != rep.Conflicts[1] {
		t.Errorf("conflicts = %+v", conflicts)
	}
}

func TestRecordPass_Failed(t *testing.T) {
	j := tempJournal(t)
	ctx := context.Background()

	now := time.Now()
	p := Pass{ID: NewPassID(), TableID: "vocab", StartedAt: now, FinishedAt: now, Status: StatusFailed, Error: "SchemaMismatch: row 3"}
	if err := j.RecordPass(ctx, p, nil); err != nil {
		t.Fatalf("RecordPass: %v", err)
	}
	passes, _ := j.ListPasses(ctx, "vocab", 10)
	if len(passes) != 1 || passes[0].Status != StatusFailed || passes[0].Error != p.Error || passes[0].ID != p.ID {
		t.Fatalf("passes = %+v", passes)
	}
}

func TestListPasses_OrderAndFilter(t *testing.T) {
	j := tempJournal(t)
	ctx := context.Background()

	base := time.UnixMilli(1_700_000_000_000)
	for i, table := range []string{"a", "b", "a", "a"} {
		at := base.Add(time.Duration(i) * time.Minute)
		if err := j.RecordPass(ctx, Pass{TableID: table, StartedAt: at, FinishedAt: at, Status: StatusOK}, &dict.Report{RowsIn: i}); err != nil {
			t.Fatalf("RecordPass %d: %v", i, err)
		}
	}

	passes, err := j.ListPasses(ctx, "a", 2)
	if err != nil {
		t.Fatalf("ListPasses: %v", err)
	}
	if len(passes) != 2 {
		t.Fatalf("expected 2 passes, got %d", len(passes))
	}
	if passes[0].RowsIn != 3 || passes[1].RowsIn != 2 {
		t.Errorf("not newest first: %d, %d", passes[0].RowsIn, passes[1].RowsIn)
	}

	all, _ := j.ListPasses(ctx, "", 100)
	if len(all) != 4 {
		t.Errorf("expected 4 passes across tables, got %d", len(all))
	}
}

func TestRecordIngestion(t *testing.T) {
	j := tempJournal(t)
	ctx := context.Background()

	ins := []Ingestion{
		{TableID: "vocab", Source: "check", Column: "English_Translation", Term: "apple", Added: true},
		{TableID: "vocab", Source: "check", Column: "English_Translation", Term: "apple", Added: false},
		{TableID: "vocab", Source: "import", Column: "Italian_Translation", Term: "mela", Added: true},
		{TableID: "other", Source: "add", Column: "English_Translation", Term: "dog", Added: true},
	}
	for _, in := range ins {
		if err := j.RecordIngestion(ctx, in); err != nil {
			t.Fatalf("RecordIngestion: %v", err)
		}
	}

	added, skipped, err := j.IngestionCounts(ctx, "vocab")
	if err != nil {
		t.Fatalf("IngestionCounts: %v", err)
	}
	if added != 2 || skipped != 1 {
		t.Errorf("counts = %d added, %d skipped; want 2, 1", added, skipped)
	}

	added, skipped, _ = j.IngestionCounts(ctx, "none")
	if added != 0 || skipped != 0 {
		t.Errorf("empty table counts = %d, %d", added, skipped)
	}
}
