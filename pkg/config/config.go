// CLAUDE:SUMMARY Root configuration (YAML + LESSICO_* env via cleanenv): listen address, journal, finalize interval, logging, enrichment, table specs.
package config

import (
	"time"
)

// Default key columns and the field list written by `lessico init`.
const (
	DefaultEnglishKey = "English_Translation"
	DefaultItalianKey = "Italian_Translation"
)

// DefaultFields is the header of a freshly initialized table.
var DefaultFields = []string{
	"English_Translation",
	"Italian_Translation",
	"Italian_IPA",
	"CEFR_Level",
	"English_Sentence",
	"Italian_Sentence_Translation",
	"Taxonomy",
	"Notes",
	"Tags",
}

// Config is the root configuration.
type Config struct {
	Addr             string        `yaml:"addr"              env:"LESSICO_ADDR"              env-default:":8421"`
	Journal          string        `yaml:"journal"           env:"LESSICO_JOURNAL"`
	FinalizeInterval time.Duration `yaml:"finalize_interval" env:"LESSICO_FINALIZE_INTERVAL" env-default:"0s"`
	Log              LogConfig     `yaml:"log"`
	Enrich           EnrichConfig  `yaml:"enrich"`
	Tables           []TableSpec   `yaml:"tables"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LESSICO_LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LESSICO_LOG_FORMAT" env-default:"text"`
}

// EnrichConfig configures the enrichment collaborators.
type EnrichConfig struct {
	Overrides      []string        `yaml:"overrides"      env:"LESSICO_ENRICH_OVERRIDES"      env-separator:","`
	CEFRMaps       []string        `yaml:"cefr_maps"      env:"LESSICO_ENRICH_CEFR_MAPS"      env-separator:","`
	Corpus         []string        `yaml:"corpus"         env:"LESSICO_ENRICH_CORPUS"         env-separator:","`
	Pronunciations []string        `yaml:"pronunciations" env:"LESSICO_ENRICH_PRONUNCIATIONS" env-separator:","`
	Overwrite      bool            `yaml:"overwrite"      env:"LESSICO_ENRICH_OVERWRITE"`
	Tatoeba        TatoebaConfig   `yaml:"tatoeba"`
	Translate      TranslateConfig `yaml:"translate"`
	Espeak         EspeakConfig    `yaml:"espeak"`

	TaxonomyField            string `yaml:"taxonomy_field"             env:"LESSICO_ENRICH_TAXONOMY_FIELD"             env-default:"Taxonomy"`
	LevelField               string `yaml:"level_field"                env:"LESSICO_ENRICH_LEVEL_FIELD"                env-default:"CEFR_Level"`
	SentenceField            string `yaml:"sentence_field"             env:"LESSICO_ENRICH_SENTENCE_FIELD"             env-default:"English_Sentence"`
	SentenceTranslationField string `yaml:"sentence_translation_field" env:"LESSICO_ENRICH_SENTENCE_TRANSLATION_FIELD" env-default:"Italian_Sentence_Translation"`
	IPAField                 string `yaml:"ipa_field"                  env:"LESSICO_ENRICH_IPA_FIELD"                  env-default:"Italian_IPA"`
}

// TatoebaConfig configures the remote sentence source. It is off unless Enabled.
type TatoebaConfig struct {
	Enabled   bool          `yaml:"enabled"    env:"LESSICO_TATOEBA_ENABLED"`
	BaseURL   string        `yaml:"base_url"   env:"LESSICO_TATOEBA_BASE_URL"   env-default:"https://tatoeba.org/en/api_v0/search"`
	UserAgent string        `yaml:"user_agent" env:"LESSICO_TATOEBA_USER_AGENT" env-default:"lessico/1.0 (vocabulary builder)"`
	MinWords  int           `yaml:"min_words"  env:"LESSICO_TATOEBA_MIN_WORDS"  env-default:"6"`
	MaxWords  int           `yaml:"max_words"  env:"LESSICO_TATOEBA_MAX_WORDS"  env-default:"28"`
	Timeout   time.Duration `yaml:"timeout"    env:"LESSICO_TATOEBA_TIMEOUT"    env-default:"20s"`
	Delay     time.Duration `yaml:"delay"      env:"LESSICO_TATOEBA_DELAY"      env-default:"300ms"`
}

// Translation providers.
const (
	ProviderLibreTranslate = "libretranslate"
	ProviderDeepL          = "deepl"
)

// Translation modes: which English columns are sent for translation.
const (
	TranslateTerms     = "terms"
	TranslateSentences = "sentences"
	TranslateBoth      = "both"
)

// TranslateConfig configures the machine translation client. An empty
// Provider disables it. URL defaults per provider.
type TranslateConfig struct {
	Provider  string        `yaml:"provider"   env:"LESSICO_TRANSLATE_PROVIDER"`
	URL       string        `yaml:"url"        env:"LESSICO_TRANSLATE_URL"`
	APIKey    string        `yaml:"api_key"    env:"LESSICO_TRANSLATE_API_KEY,DEEPL_API_KEY"`
	Mode      string        `yaml:"mode"       env:"LESSICO_TRANSLATE_MODE"       env-default:"both"`
	Source    string        `yaml:"source"     env:"LESSICO_TRANSLATE_SOURCE"     env-default:"en"`
	Target    string        `yaml:"target"     env:"LESSICO_TRANSLATE_TARGET"     env-default:"it"`
	UserAgent string        `yaml:"user_agent" env:"LESSICO_TRANSLATE_USER_AGENT" env-default:"lessico/1.0 (vocabulary builder)"`
	Timeout   time.Duration `yaml:"timeout"    env:"LESSICO_TRANSLATE_TIMEOUT"    env-default:"20s"`
	Delay     time.Duration `yaml:"delay"      env:"LESSICO_TRANSLATE_DELAY"      env-default:"0s"`
}

// Terms reports whether key terms are translated.
func (t TranslateConfig) Terms() bool {
	return t.Provider != "" && t.Mode != TranslateSentences
}

// Sentences reports whether example sentences are translated.
func (t TranslateConfig) Sentences() bool {
	return t.Provider != "" && t.Mode != TranslateTerms
}

// EspeakConfig configures IPA generation through an external eSpeak NG
// binary. The term is written to the command's stdin.
type EspeakConfig struct {
	Enabled bool          `yaml:"enabled" env:"LESSICO_ESPEAK_ENABLED"`
	Command []string      `yaml:"command" env:"LESSICO_ESPEAK_COMMAND" env-separator:"," env-default:"espeak-ng,-v,it,-q,--ipa"`
	Timeout time.Duration `yaml:"timeout" env:"LESSICO_ESPEAK_TIMEOUT" env-default:"10s"`
}

// TableSpec is the explicit handle configuration for one table file.
type TableSpec struct {
	ID         string       `yaml:"id"`
	Path       string       `yaml:"path"`
	EnglishKey string       `yaml:"english_key"`
	ItalianKey string       `yaml:"italian_key"`
	Delimiter  string       `yaml:"delimiter"`
	Encoding   string       `yaml:"encoding"`
	Normalize  string       `yaml:"normalize"`
	Backup     BackupConfig `yaml:"backup"`
}

// BackupConfig controls the timestamped copies taken before every rewrite.
type BackupConfig struct {
	Disabled bool   `yaml:"disabled"`
	Dir      string `yaml:"dir"`
	Keep     int    `yaml:"keep"`
}

// Table returns the spec with the given ID.
func (c *Config) Table(id string) (TableSpec, bool) {
	for _, t := range c.Tables {
		if t.ID == id {
			return t, true
		}
	}
	return TableSpec{}, false
}
