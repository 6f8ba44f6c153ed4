package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeYAML(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "lessico.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	return path
}

const validYAML = `
addr: "127.0.0.1:9000"
journal: "journal.db"
finalize_interval: "10m"

log:
  level: "debug"
  format: "json"

enrich:
  overrides: ["overrides.yaml"]
  tatoeba:
    enabled: true

tables:
  - id: vocab
    path: "data/vocab.csv"
    backup:
      keep: 5
  - id: verbs
    path: "/abs/verbs.tsv"
    delimiter: "\t"
    encoding: "iso-8859-1"
    normalize: casefold_ascii
    english_key: English
    italian_key: Italiano
`

func TestLoad_ValidYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, validYAML)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Addr != "127.0.0.1:9000" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.FinalizeInterval != 10*time.Minute {
		t.Errorf("FinalizeInterval = %v", cfg.FinalizeInterval)
	}
	if cfg.Journal != filepath.Join(dir, "journal.db") {
		t.Errorf("Journal = %q, want relative to config dir", cfg.Journal)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if got := cfg.Enrich.Overrides; len(got) != 1 || got[0] != filepath.Join(dir, "overrides.yaml") {
		t.Errorf("Overrides = %v", got)
	}
	if cfg.Enrich.Tatoeba.MinWords != 6 || cfg.Enrich.Tatoeba.MaxWords != 28 {
		t.Errorf("Tatoeba bounds = %d..%d, want defaults 6..28", cfg.Enrich.Tatoeba.MinWords, cfg.Enrich.Tatoeba.MaxWords)
	}
	if cfg.Enrich.TaxonomyField != "Taxonomy" {
		t.Errorf("TaxonomyField = %q", cfg.Enrich.TaxonomyField)
	}

	if len(cfg.Tables) != 2 {
		t.Fatalf("tables = %d, want 2", len(cfg.Tables))
	}
	vocab, ok := cfg.Table("vocab")
	if !ok {
		t.Fatal("vocab table missing")
	}
	if vocab.Path != filepath.Join(dir, "data/vocab.csv") {
		t.Errorf("vocab.Path = %q", vocab.Path)
	}
	if vocab.EnglishKey != DefaultEnglishKey || vocab.ItalianKey != DefaultItalianKey {
		t.Errorf("vocab keys = %q/%q, want defaults", vocab.EnglishKey, vocab.ItalianKey)
	}
	if vocab.DelimiterRune() != ',' || vocab.Normalize != "casefold" || vocab.Backup.Keep != 5 {
		t.Errorf("vocab defaults not applied: %+v", vocab)
	}

	verbs, _ := cfg.Table("verbs")
	if verbs.Path != "/abs/verbs.tsv" {
		t.Errorf("absolute path rewritten: %q", verbs.Path)
	}
	if verbs.DelimiterRune() != '\t' || verbs.Encoding != "iso-8859-1" || verbs.Normalize != "casefold_ascii" {
		t.Errorf("verbs = %+v", verbs)
	}
	if verbs.EnglishKey != "English" || verbs.ItalianKey != "Italiano" {
		t.Errorf("verbs keys = %q/%q", verbs.EnglishKey, verbs.ItalianKey)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, validYAML)
	t.Setenv("LESSICO_ADDR", ":7000")
	t.Setenv("LESSICO_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":7000" {
		t.Errorf("Addr = %q, want ENV value", cfg.Addr)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want ENV value", cfg.Log.Level)
	}
}

func TestLoad_Translate(t *testing.T) {
	path := writeYAML(t, t.TempDir(), `
enrich:
  translate:
    provider: DeepL
    api_key: secret
    mode: sentences
  espeak:
    enabled: true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	tr := cfg.Enrich.Translate
	if tr.Provider != ProviderDeepL || tr.URL != "https://api-free.deepl.com/v2/translate" {
		t.Errorf("translate = %+v", tr)
	}
	if tr.Terms() || !tr.Sentences() {
		t.Errorf("mode %q: terms=%v sentences=%v", tr.Mode, tr.Terms(), tr.Sentences())
	}
	if tr.Source != "en" || tr.Target != "it" {
		t.Errorf("languages = %s -> %s", tr.Source, tr.Target)
	}
	if got := cfg.Enrich.Espeak.Command; len(got) == 0 || got[0] != "espeak-ng" {
		t.Errorf("espeak command = %q", got)
	}
	if cfg.Enrich.IPAField != "Italian_IPA" || cfg.Enrich.SentenceTranslationField != "Italian_Sentence_Translation" {
		t.Errorf("fields = %q, %q", cfg.Enrich.IPAField, cfg.Enrich.SentenceTranslationField)
	}

	libre := TranslateConfig{Provider: ProviderLibreTranslate}
	if err := libre.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if libre.URL != "http://localhost:8042/translate" || !libre.Terms() || !libre.Sentences() {
		t.Errorf("libretranslate defaults = %+v", libre)
	}
	libre.Source = ""
	if err := libre.Validate(); err == nil {
		t.Error("expected error without a source language")
	}
	deepl := TranslateConfig{Provider: ProviderDeepL, Source: "en", Target: "it"}
	if err := deepl.Validate(); err == nil || !strings.Contains(err.Error(), "api_key") {
		t.Errorf("deepl without key: err = %v", err)
	}
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for explicit missing file")
	}
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LESSICO_CONFIG", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":8421" {
		t.Errorf("Addr = %q, want :8421", cfg.Addr)
	}
	if cfg.FinalizeInterval != 0 {
		t.Errorf("FinalizeInterval = %v, want 0", cfg.FinalizeInterval)
	}
	if len(cfg.Tables) != 0 {
		t.Errorf("tables = %v, want none", cfg.Tables)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing id", "tables:\n  - path: a.csv\n", "id is required"},
		{"missing path", "tables:\n  - id: a\n", "path is required"},
		{"duplicate id", "tables:\n  - id: a\n    path: a.csv\n  - id: a\n    path: b.csv\n", "duplicate id"},
		{"long delimiter", "tables:\n  - id: a\n    path: a.csv\n    delimiter: ';;'\n", "single character"},
		{"quote delimiter", "tables:\n  - id: a\n    path: a.csv\n    delimiter: '\"'\n", "invalid delimiter"},
		{"bad normalize", "tables:\n  - id: a\n    path: a.csv\n    normalize: stem\n", "normalize must be"},
		{"negative keep", "tables:\n  - id: a\n    path: a.csv\n    backup:\n      keep: -1\n", "backup.keep"},
		{"negative interval", "finalize_interval: -1m\n", "finalize_interval"},
		{"tatoeba bounds", "enrich:\n  tatoeba:\n    enabled: true\n    min_words: 10\n    max_words: 5\n", "word bounds"},
		{"unknown provider", "enrich:\n  translate:\n    provider: babelfish\n", "provider must be"},
		{"translate mode", "enrich:\n  translate:\n    provider: libretranslate\n    mode: words\n", "mode must be"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeYAML(t, t.TempDir(), tt.yaml)
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestForTable(t *testing.T) {
	cfg, err := ForTable("/data/words.csv")
	if err != nil {
		t.Fatalf("ForTable: %v", err)
	}
	if len(cfg.Tables) != 1 {
		t.Fatalf("tables = %d, want 1", len(cfg.Tables))
	}
	tbl := cfg.Tables[0]
	if tbl.ID != "words" || tbl.Path != "/data/words.csv" || tbl.EnglishKey != DefaultEnglishKey {
		t.Errorf("table = %+v", tbl)
	}
}

func TestNewLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, LogConfig{Level: "info", Format: "json"}).Info("hello", "k", "v")

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("json handler output not JSON: %v", err)
	}
	if m["msg"] != "hello" || m["k"] != "v" {
		t.Errorf("record = %v", m)
	}

	buf.Reset()
	newLogger(&buf, LogConfig{Level: "warn", Format: "text"}).Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("info logged at warn level: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]string{
		"debug": "DEBUG", "DEBUG": "DEBUG", " warn ": "WARN", "error": "ERROR", "": "INFO", "bogus": "INFO",
	}
	for in, want := range tests {
		if got := parseLevel(in).String(); got != want {
			t.Errorf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
