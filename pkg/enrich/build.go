package enrich

import (
	"fmt"
	"log/slog"

	"github.com/hazyhaar/lessico/pkg/config"
)

// FromConfig assembles an Enricher from configuration:
//   - taxonomy: every override file, in order;
//   - level: the merged CEFR maps;
//   - sentences: the offline corpus, then Tatoeba when enabled;
//   - translations: the configured provider, for terms and/or sentences, with
//     the offline corpus consulted first for sentences;
//   - IPA: pronunciation dictionaries, then eSpeak NG when enabled.
func FromConfig(cfg config.EnrichConfig, logger *slog.Logger) (*Enricher, error) {
	e := &Enricher{
		TaxonomyField:            cfg.TaxonomyField,
		LevelField:               cfg.LevelField,
		SentenceField:            cfg.SentenceField,
		SentenceTranslationField: cfg.SentenceTranslationField,
		IPAField:                 cfg.IPAField,
		Overwrite:                cfg.Overwrite,
		Logger:                   logger,
	}

	if len(cfg.Overrides) > 0 {
		var chain Chain
		for _, p := range cfg.Overrides {
			o, err := LoadOverrides(p)
			if err != nil {
				return nil, err
			}
			chain = append(chain, o)
		}
		e.Taxonomy = chain
	}

	if len(cfg.CEFRMaps) > 0 {
		m, err := LoadLevelMaps(cfg.CEFRMaps)
		if err != nil {
			return nil, err
		}
		e.Level = m
	}

	var (
		sentences     SentenceChain
		sentenceTr    TranslatorChain
		pronunciation Chain
	)
	if len(cfg.Corpus) > 0 {
		c, err := LoadCorpus(cfg.Corpus, cfg.Tatoeba.MinWords, cfg.Tatoeba.MaxWords)
		if err != nil {
			return nil, err
		}
		sentences = append(sentences, c)
		sentenceTr = append(sentenceTr, c)
	}
	if cfg.Tatoeba.Enabled {
		t, err := NewTatoeba(cfg.Tatoeba, logger)
		if err != nil {
			return nil, err
		}
		sentences = append(sentences, t)
	}
	if cfg.Translate.Provider != "" {
		tr, err := NewTranslator(cfg.Translate, logger)
		if err != nil {
			return nil, err
		}
		if cfg.Translate.Terms() {
			e.Translations = tr
		}
		if cfg.Translate.Sentences() {
			sentenceTr = append(sentenceTr, tr)
		}
	}
	if len(cfg.Pronunciations) > 0 {
		p, err := LoadPronunciations(cfg.Pronunciations)
		if err != nil {
			return nil, err
		}
		pronunciation = append(pronunciation, p)
	}
	if cfg.Espeak.Enabled {
		es, err := NewEspeak(cfg.Espeak)
		if err != nil {
			return nil, err
		}
		pronunciation = append(pronunciation, es)
	}
	if len(sentences) > 0 {
		e.Sentences = sentences
	}
	if len(sentenceTr) > 0 {
		e.SentenceTranslations = sentenceTr
	}
	if len(pronunciation) > 0 {
		e.Pronunciation = pronunciation
	}

	if e.Taxonomy == nil && e.Level == nil && e.Sentences == nil &&
		e.Translations == nil && e.SentenceTranslations == nil && e.Pronunciation == nil {
		return nil, fmt.Errorf("enrich: no collaborator configured (overrides, cefr_maps, corpus, tatoeba, translate, pronunciations or espeak)")
	}
	return e, nil
}
