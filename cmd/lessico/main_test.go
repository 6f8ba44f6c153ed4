package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setupTable(t *testing.T) string {
	t.Helper()
	t.Setenv("LESSICO_LOG_LEVEL", "error")
	t.Setenv("LESSICO_CONFIG", "")
	dir := t.TempDir()
	t.Setenv("LESSICO_JOURNAL", filepath.Join(dir, "journal.db"))
	return filepath.Join(dir, "vocab.csv")
}

func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	if err := run(args, &out); err != nil {
		t.Fatalf("lessico %s: %v", strings.Join(args, " "), err)
	}
	return out.String()
}

func TestCLI_Workflow(t *testing.T) {
	table := setupTable(t)

	if out := runCmd(t, "init", "-table", table); !strings.HasPrefix(out, "created ") {
		t.Errorf("init = %q", out)
	}
	if out := runCmd(t, "init", "-table", table); !strings.HasPrefix(out, "exists ") {
		t.Errorf("second init = %q", out)
	}

	out := runCmd(t, "check", "-table", table, "Apple", "apple", "Dog")
	want := "added\tapple\nfound\tapple\nadded\tdog\n"
	if out != want {
		t.Errorf("check = %q, want %q", out, want)
	}

	out = runCmd(t, "add", "-table", table, "-column", "Italian_Translation", "Cane")
	if out != "added\tItalian_Translation\tCane\n" {
		t.Errorf("add = %q", out)
	}
	if out := runCmd(t, "exists", "-table", table, "-column", "italian_translation", "CANE"); out != "true\n" {
		t.Errorf("exists = %q", out)
	}
	if out := runCmd(t, "exists", "-table", table, "pear"); out != "false\n" {
		t.Errorf("exists pear = %q", out)
	}

	out = runCmd(t, "finalize", "-table", table)
	if !strings.HasPrefix(out, "vocab: 3 rows -> 3") {
		t.Errorf("finalize = %q", out)
	}

	out = runCmd(t, "history", "-table", table)
	if !strings.Contains(out, "vocab") || !strings.Contains(out, "ingestions: 3 added, 1 already present") {
		t.Errorf("history = %q", out)
	}
}

func TestCLI_Import(t *testing.T) {
	table := setupTable(t)
	runCmd(t, "init", "-table", table)

	list := filepath.Join(filepath.Dir(table), "words.txt")
	if err := os.WriteFile(list, []byte("# fruit\nApple\n\npear\nAPPLE\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := runCmd(t, "import", "-table", table, list)
	if !strings.Contains(out, "English_Translation: 2 added, 1 already present, 0 invalid") {
		t.Errorf("import = %q", out)
	}

	csvList := filepath.Join(filepath.Dir(table), "words.csv")
	if err := os.WriteFile(csvList, []byte("word;level\nfiume;A2\npera;A1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out = runCmd(t, "import", "-table", table, "-format", "csv", "-delimiter", ";",
		"-column", "Italian_Translation", "-source-column", "word", csvList)
	if !strings.Contains(out, "Italian_Translation: 2 added") {
		t.Errorf("csv import = %q", out)
	}
}

func TestCLI_EnrichTranslate(t *testing.T) {
	table := setupTable(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Q string `json:"q"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.Q != "apple" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"translatedText": "mela"})
	}))
	defer srv.Close()
	t.Setenv("LESSICO_TRANSLATE_URL", srv.URL)

	runCmd(t, "init", "-table", table)
	runCmd(t, "check", "-table", table, "apple")
	out := runCmd(t, "enrich", "-table", table, "-translate", "libretranslate", "-translate-mode", "terms")
	if !strings.Contains(out, "translations 1") || !strings.Contains(out, "lookup errors 0") {
		t.Errorf("enrich = %q", out)
	}
	if out := runCmd(t, "exists", "-table", table, "-column", "Italian_Translation", "mela"); out != "true\n" {
		t.Errorf("exists mela = %q", out)
	}

	var buf bytes.Buffer
	if err := run([]string{"enrich", "-table", table, "-translate", "babelfish"}, &buf); err == nil || !strings.Contains(err.Error(), "provider must be") {
		t.Errorf("unknown provider: err = %v", err)
	}
}

func TestCLI_Errors(t *testing.T) {
	table := setupTable(t)
	runCmd(t, "init", "-table", table)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown command", []string{"frobnicate"}, "unknown command"},
		{"blank term", []string{"check", "-table", table, " "}, "term is empty"},
		{"missing column", []string{"add", "-table", table, "x"}, "column is empty"},
		{"unknown format", []string{"import", "-table", table, "-format", "xml", "f.xml"}, "unknown word-list format"},
		{"missing table file", []string{"check", "-table", filepath.Join(t.TempDir(), "none.csv"), "x"}, "no such file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := run(tt.args, &out)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestTableID(t *testing.T) {
	tests := []struct {
		in, want string
		path     bool
	}{
		{"vocab", "vocab", false},
		{"data/vocab.csv", "vocab", true},
		{"vocab.tsv", "vocab", true},
	}
	for _, tt := range tests {
		if got := tableID(tt.in); got != tt.want {
			t.Errorf("tableID(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if got := looksLikePath(tt.in); got != tt.path {
			t.Errorf("looksLikePath(%q) = %v", tt.in, got)
		}
	}
}
