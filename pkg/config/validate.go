package config

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Validate fills table defaults and checks business rules.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if c.FinalizeInterval < 0 {
		return fmt.Errorf("finalize_interval must be >= 0 (got %s)", c.FinalizeInterval)
	}

	seen := make(map[string]bool, len(c.Tables))
	for i := range c.Tables {
		t := &c.Tables[i]
		if err := t.validate(); err != nil {
			return fmt.Errorf("tables[%d]: %w", i, err)
		}
		if seen[t.ID] {
			return fmt.Errorf("tables[%d]: duplicate id %q", i, t.ID)
		}
		seen[t.ID] = true
	}

	if err := c.Enrich.Tatoeba.validate(); err != nil {
		return fmt.Errorf("enrich.tatoeba: %w", err)
	}
	if err := c.Enrich.Translate.Validate(); err != nil {
		return fmt.Errorf("enrich.translate: %w", err)
	}
	if c.Enrich.Espeak.Enabled && len(c.Enrich.Espeak.Command) == 0 {
		return fmt.Errorf("enrich.espeak: command is required")
	}
	return nil
}

func (t *TableSpec) validate() error {
	t.ID = strings.TrimSpace(t.ID)
	if t.ID == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(t.Path) == "" {
		return fmt.Errorf("%s: path is required", t.ID)
	}
	if t.EnglishKey == "" {
		t.EnglishKey = DefaultEnglishKey
	}
	if t.ItalianKey == "" {
		t.ItalianKey = DefaultItalianKey
	}
	if t.Delimiter == "" {
		t.Delimiter = ","
	}
	if utf8.RuneCountInString(t.Delimiter) != 1 {
		return fmt.Errorf("%s: delimiter must be a single character (got %q)", t.ID, t.Delimiter)
	}
	if r := t.DelimiterRune(); r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return fmt.Errorf("%s: invalid delimiter %q", t.ID, t.Delimiter)
	}
	switch t.Normalize {
	case "":
		t.Normalize = "casefold"
	case "casefold", "casefold_ascii":
	default:
		return fmt.Errorf("%s: normalize must be casefold or casefold_ascii (got %q)", t.ID, t.Normalize)
	}
	if t.Backup.Keep < 0 {
		return fmt.Errorf("%s: backup.keep must be >= 0 (got %d)", t.ID, t.Backup.Keep)
	}
	return nil
}

// DelimiterRune returns the configured delimiter as a rune.
func (t TableSpec) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(t.Delimiter)
	return r
}

func (t *TatoebaConfig) validate() error {
	if !t.Enabled {
		return nil
	}
	if t.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if strings.TrimSpace(t.UserAgent) == "" {
		return fmt.Errorf("user_agent is required")
	}
	if t.MinWords < 1 || t.MaxWords < t.MinWords {
		return fmt.Errorf("word bounds must satisfy 1 <= min_words <= max_words (got %d..%d)", t.MinWords, t.MaxWords)
	}
	return nil
}

// Validate normalizes the provider name, fills the provider's default URL and
// checks the remaining settings. An empty provider is valid and disables
// translation.
func (t *TranslateConfig) Validate() error {
	t.Provider = strings.ToLower(strings.TrimSpace(t.Provider))
	switch t.Provider {
	case "":
		return nil
	case ProviderLibreTranslate:
		if t.URL == "" {
			t.URL = "http://localhost:8042/translate"
		}
	case ProviderDeepL:
		if t.URL == "" {
			t.URL = "https://api-free.deepl.com/v2/translate"
		}
		if strings.TrimSpace(t.APIKey) == "" {
			return fmt.Errorf("api_key is required for deepl")
		}
	default:
		return fmt.Errorf("provider must be %s or %s (got %q)", ProviderLibreTranslate, ProviderDeepL, t.Provider)
	}
	switch t.Mode {
	case "":
		t.Mode = TranslateBoth
	case TranslateTerms, TranslateSentences, TranslateBoth:
	default:
		return fmt.Errorf("mode must be terms, sentences or both (got %q)", t.Mode)
	}
	if t.Source == "" || t.Target == "" {
		return fmt.Errorf("source and target languages are required")
	}
	return nil
}
