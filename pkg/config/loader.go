package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultPath is used when no -config flag or LESSICO_CONFIG is given.
const DefaultPath = "lessico.yaml"

// Load reads configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults (via env-default tags).
// An empty path falls back to LESSICO_CONFIG, then DefaultPath. If the file
// does not exist and no path was given explicitly, configuration is loaded
// from ENV + defaults only.
func Load(path string) (*Config, error) {
	var cfg Config

	explicitPath := path != ""
	if !explicitPath {
		path = os.Getenv("LESSICO_CONFIG")
		explicitPath = path != ""
	}
	if !explicitPath {
		path = DefaultPath
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		cfg.resolvePaths(filepath.Dir(path))
	} else if explicitPath {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// ForTable builds a one-table configuration from a path, ENV and defaults.
// Used by CLI subcommands given -table instead of a config file.
func ForTable(path string) (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	cfg.Tables = []TableSpec{{ID: id, Path: path}}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// resolvePaths makes relative file paths relative to the config file's directory.
func (c *Config) resolvePaths(base string) {
	rel := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	c.Journal = rel(c.Journal)
	for i := range c.Tables {
		c.Tables[i].Path = rel(c.Tables[i].Path)
		c.Tables[i].Backup.Dir = rel(c.Tables[i].Backup.Dir)
	}
	for i := range c.Enrich.Overrides {
		c.Enrich.Overrides[i] = rel(c.Enrich.Overrides[i])
	}
	for i := range c.Enrich.CEFRMaps {
		c.Enrich.CEFRMaps[i] = rel(c.Enrich.CEFRMaps[i])
	}
	for i := range c.Enrich.Corpus {
		c.Enrich.Corpus[i] = rel(c.Enrich.Corpus[i])
	}
	for i := range c.Enrich.Pronunciations {
		c.Enrich.Pronunciations[i] = rel(c.Enrich.Pronunciations[i])
	}
}
