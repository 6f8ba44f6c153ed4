package enrich

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/hazyhaar/lessico/pkg/dict"
)

var cefrOrder = []string{"A1", "A2", "B1", "B2", "C1", "C2"}

var (
	wordKeys  = []string{"lemma", "word", "headword", "token", "english", "english_translation"}
	levelKeys = []string{"cefr", "level", "cefr_level"}
)

// CanonicalLevel returns v as one of A1..C2, or "" if it is not a CEFR level.
func CanonicalLevel(v string) string {
	v = strings.ToUpper(strings.TrimSpace(v))
	if slices.Contains(cefrOrder, v) {
		return v
	}
	return ""
}

func lowerLevel(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" || slices.Index(cefrOrder, a) <= slices.Index(cefrOrder, b) {
		return a
	}
	return b
}

// LevelMap maps case-folded terms to CEFR levels.
type LevelMap map[string]string

// Label implements Labeler.
func (m LevelMap) Label(_ context.Context, term string) (string, bool, error) {
	l, ok := m[dict.NormalizeCasefold(term)]
	return l, ok, nil
}

// Merge adds o into m; where both know a term the lower level wins.
func (m LevelMap) Merge(o LevelMap) {
	for k, v := range o {
		m[k] = lowerLevel(m[k], v)
	}
}

// LoadLevelMap reads a term -> CEFR CSV. The first header column named like a
// word (lemma, word, headword, token, English, English_Translation) and the
// first named like a level (CEFR, level, CEFR_Level) are used, case-insensitively.
// Rows with an empty term or an unknown level are skipped.
func LoadLevelMap(path string) (LevelMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cefr map %s: %w", path, err)
	}
	defer f.Close()

	t, err := dict.ReadTable(f, dict.Format{})
	if err != nil {
		return nil, fmt.Errorf("read cefr map %s: %w", path, err)
	}
	wordCol, levelCol := pickColumn(t.Schema, wordKeys), pickColumn(t.Schema, levelKeys)
	if wordCol == "" || levelCol == "" {
		return nil, fmt.Errorf("cefr map %s: no word/level columns in %v", path, t.Schema.Fields())
	}

	m := make(LevelMap)
	for _, r := range t.Records {
		term := dict.NormalizeCasefold(r[wordCol])
		level := CanonicalLevel(r[levelCol])
		if term == "" || level == "" {
			continue
		}
		m[term] = lowerLevel(m[term], level)
	}
	return m, nil
}

// LoadLevelMaps merges several maps.
func LoadLevelMaps(paths []string) (LevelMap, error) {
	merged := make(LevelMap)
	for _, p := range paths {
		m, err := LoadLevelMap(p)
		if err != nil {
			return nil, err
		}
		merged.Merge(m)
	}
	return merged, nil
}

func pickColumn(s *dict.Schema, candidates []string) string {
	for _, f := range s.Fields() {
		if slices.Contains(candidates, strings.ToLower(f)) {
			return f
		}
	}
	return ""
}
