// CLAUDE:SUMMARY Enrichment pass: fills empty taxonomy, CEFR level, example sentence, translation and IPA fields from pluggable collaborators.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hazyhaar/lessico/pkg/dict"
)

// Labeler returns a label for an English term. ok is false when the
// collaborator has nothing for the term.
type Labeler interface {
	Label(ctx context.Context, term string) (label string, ok bool, err error)
}

// SentenceSource returns one example sentence for an English term.
type SentenceSource interface {
	Sentence(ctx context.Context, term string) (sentence string, ok bool, err error)
}

// LabelerFunc adapts a function to Labeler.
type LabelerFunc func(ctx context.Context, term string) (string, bool, error)

func (f LabelerFunc) Label(ctx context.Context, term string) (string, bool, error) {
	return f(ctx, term)
}

// Chain asks each labeler in order and returns the first hit.
type Chain []Labeler

func (c Chain) Label(ctx context.Context, term string) (string, bool, error) {
	for _, l := range c {
		label, ok, err := l.Label(ctx, term)
		if err != nil {
			return "", false, err
		}
		if ok {
			return label, true, nil
		}
	}
	return "", false, nil
}

// SentenceChain asks each source in order and returns the first hit.
type SentenceChain []SentenceSource

func (c SentenceChain) Sentence(ctx context.Context, term string) (string, bool, error) {
	for _, s := range c {
		out, ok, err := s.Sentence(ctx, term)
		if err != nil {
			return "", false, err
		}
		if ok {
			return out, true, nil
		}
	}
	return "", false, nil
}

// Stats counts what one pass did.
type Stats struct {
	Rows                 int `json:"rows"`
	Taxonomy             int `json:"taxonomy"`
	Levels               int `json:"levels"`
	Sentences            int `json:"sentences"`
	Translations         int `json:"translations"`
	SentenceTranslations int `json:"sentence_translations"`
	Pronunciations       int `json:"pronunciations"`
	Errors               int `json:"errors"`
}

// Filled is the number of cells written.
func (s Stats) Filled() int {
	return s.Taxonomy + s.Levels + s.Sentences + s.Translations + s.SentenceTranslations + s.Pronunciations
}

// Enricher fills enrichment fields of a table. A nil collaborator disables
// its field. Field names are resolved strictly against the table schema.
//
// Targets run in a fixed order within each row, so a value filled earlier in
// the row feeds the later lookups: the sentence is translated after it is
// found, and the IPA is generated after the Italian key is translated.
type Enricher struct {
	Taxonomy  Labeler        // English key -> TaxonomyField
	Level     Labeler        // English key -> LevelField
	Sentences SentenceSource // English key -> SentenceField

	// Translations fills the Italian key from the English key.
	Translations Translator
	// SentenceTranslations fills SentenceTranslationField from SentenceField.
	SentenceTranslations Translator
	// Pronunciation fills IPAField from the Italian key.
	Pronunciation Labeler

	TaxonomyField            string
	LevelField               string
	SentenceField            string
	SentenceTranslationField string
	IPAField                 string

	// Overwrite replaces non-empty values too.
	Overwrite bool
	Logger    *slog.Logger
}

type target struct {
	name  string
	from  string
	field string
	fetch func(ctx context.Context, text string) (string, bool, error)
	count *int
}

// Apply enriches t in place. keys names the English and Italian key columns.
// Collaborator failures are logged and counted; only cancellation aborts the
// pass. Rows counts records that had a value to look up.
func (e *Enricher) Apply(ctx context.Context, t *dict.Table, keys dict.Keys) (Stats, error) {
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var st Stats
	var targets []target
	for _, tg := range []target{
		{name: "taxonomy", from: keys.English, field: e.TaxonomyField, fetch: labelFetch(e.Taxonomy), count: &st.Taxonomy},
		{name: "level", from: keys.English, field: e.LevelField, fetch: labelFetch(e.Level), count: &st.Levels},
		{name: "sentence", from: keys.English, field: e.SentenceField, fetch: sentenceFetch(e.Sentences), count: &st.Sentences},
		{name: "translation", from: keys.English, field: keys.Italian, fetch: translateFetch(e.Translations), count: &st.Translations},
		{name: "sentence translation", from: e.SentenceField, field: e.SentenceTranslationField, fetch: translateFetch(e.SentenceTranslations), count: &st.SentenceTranslations},
		{name: "ipa", from: keys.Italian, field: e.IPAField, fetch: labelFetch(e.Pronunciation), count: &st.Pronunciations},
	} {
		if tg.fetch == nil {
			continue
		}
		var err error
		if tg.from, err = t.Schema.Resolve(tg.from); err != nil {
			return Stats{}, fmt.Errorf("%s source: %w", tg.name, err)
		}
		if tg.field, err = t.Schema.Resolve(tg.field); err != nil {
			return Stats{}, fmt.Errorf("%s field: %w", tg.name, err)
		}
		targets = append(targets, tg)
	}

	for _, r := range t.Records {
		looked := false
		for _, tg := range targets {
			if err := ctx.Err(); err != nil {
				return st, err
			}
			text := strings.TrimSpace(r[tg.from])
			if text == "" {
				continue
			}
			looked = true
			if !e.Overwrite && strings.TrimSpace(r[tg.field]) != "" {
				continue
			}
			v, ok, err := tg.fetch(ctx, text)
			if err != nil {
				if ctx.Err() != nil {
					return st, ctx.Err()
				}
				st.Errors++
				logger.Warn("enrich lookup failed", "source", tg.name, "text", text, "error", err)
				continue
			}
			v = strings.ReplaceAll(v, "\r\n", "\n")
			if !ok || v == r[tg.field] {
				continue
			}
			r[tg.field] = v
			*tg.count++
		}
		if looked {
			st.Rows++
		}
	}
	logger.Info("enrich pass complete",
		"rows", st.Rows, "taxonomy", st.Taxonomy, "levels", st.Levels,
		"sentences", st.Sentences, "translations", st.Translations,
		"sentence_translations", st.SentenceTranslations, "pronunciations", st.Pronunciations,
		"errors", st.Errors)
	return st, nil
}

func labelFetch(l Labeler) func(context.Context, string) (string, bool, error) {
	if l == nil {
		return nil
	}
	return l.Label
}

func sentenceFetch(s SentenceSource) func(context.Context, string) (string, bool, error) {
	if s == nil {
		return nil
	}
	return s.Sentence
}

func translateFetch(t Translator) func(context.Context, string) (string, bool, error) {
	if t == nil {
		return nil
	}
	return t.Translate
}
