package enrich

import (
	"context"
	"fmt"
	"os"

	"github.com/hazyhaar/lessico/pkg/dict"
	"gopkg.in/yaml.v3"
)

// Overrides maps exact terms to taxonomy labels. Terms compare by their
// case-folded identity.
type Overrides map[string]string

// LoadOverrides reads a `term: label` mapping. JSON files parse too, as YAML.
func LoadOverrides(path string) (Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read overrides %s: %w", path, err)
	}
	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse overrides %s: %w", path, err)
	}
	out := make(Overrides, len(raw))
	for term, label := range raw {
		id := dict.NormalizeCasefold(term)
		if id == "" || label == "" {
			continue
		}
		out[id] = label
	}
	return out, nil
}

// Label implements Labeler.
func (o Overrides) Label(_ context.Context, term string) (string, bool, error) {
	label, ok := o[dict.NormalizeCasefold(term)]
	return label, ok, nil
}
