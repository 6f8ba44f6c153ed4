// CLAUDE:SUMMARY Identity normalization strategies (case folding, case folding + accent stripping) for key comparison.
package dict

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer turns a raw cell value into its comparison identity.
// An empty result means the value has no identity.
type Normalizer func(string) string

// Casers and transform chains carry state, so each call builds its own.
func stripAccents() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// NormalizeCasefold trims surrounding whitespace and applies Unicode case folding.
// Accents are preserved: "Città" and "citta" are different identities.
func NormalizeCasefold(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return cases.Fold().String(s)
}

// NormalizeCasefoldASCII folds case and strips combining accents (Città -> citta).
func NormalizeCasefoldASCII(s string) string {
	folded := NormalizeCasefold(s)
	if folded == "" {
		return ""
	}
	result, _, _ := transform.String(stripAccents(), folded)
	return result
}

// GetNormalizer returns the normalizer for the given mode.
// Default is casefold.
func GetNormalizer(mode string) Normalizer {
	switch mode {
	case "casefold_ascii":
		return NormalizeCasefoldASCII
	default:
		return NormalizeCasefold
	}
}

// isBlank reports whether a cell counts as empty for merging purposes.
func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
