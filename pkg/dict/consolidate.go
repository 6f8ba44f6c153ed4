// CLAUDE:SUMMARY Four-phase table consolidation: exact dedupe, merge by English identity, merge by Italian identity, canonical sort.
package dict

import (
	"crypto/sha256"
	"encoding/binary"
	"log/slog"
	"slices"
	"strings"
)

// Axis names the key a merge happened on.
type Axis string

const (
	AxisEnglish Axis = "english"
	AxisItalian Axis = "italian"
)

// Conflict is a field where two merged records both held a value and the
// preferred record's value was kept.
type Conflict struct {
	Axis     Axis   `json:"axis"`
	Identity string `json:"identity"`
	Field    string `json:"field"`
	Kept     string `json:"kept"`
	Dropped  string `json:"dropped"`
}

// Report summarizes one consolidation.
type Report struct {
	RowsIn          int        `json:"rows_in"`
	RowsOut         int        `json:"rows_out"`
	ExactDuplicates int        `json:"exact_duplicates"`
	EnglishMerges   int        `json:"english_merges"`
	ItalianMerges   int        `json:"italian_merges"`
	Conflicts       []Conflict `json:"conflicts,omitempty"`
}

// Consolidator reduces a table to one row per English and per Italian identity.
type Consolidator struct {
	Keys      Keys
	Normalize Normalizer
	Logger    *slog.Logger
}

// Consolidate runs a Consolidator with case-fold identities and the default logger.
func Consolidate(t *Table, keys Keys) (*Table, *Report, error) {
	c := &Consolidator{Keys: keys}
	return c.Consolidate(t)
}

// Consolidate returns a new table; t is left untouched. It fails only when
// the key columns are not in the schema or a record's fields disagree with it.
func (c *Consolidator) Consolidate(t *Table) (*Table, *Report, error) {
	if !t.Schema.Has(c.Keys.English) {
		return nil, nil, schemaErr(c.Keys.English, "english key not in schema")
	}
	if !t.Schema.Has(c.Keys.Italian) {
		return nil, nil, schemaErr(c.Keys.Italian, "italian key not in schema")
	}
	if err := t.Validate(); err != nil {
		return nil, nil, err
	}
	normalize := c.Normalize
	if normalize == nil {
		normalize = NormalizeCasefold
	}
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	rep := &Report{RowsIn: len(t.Records)}
	recs := make([]Record, len(t.Records))
	for i, r := range t.Records {
		recs[i] = r.Clone()
	}

	recs = dedupeExact(t.Schema, recs)
	rep.ExactDuplicates = rep.RowsIn - len(recs)

	m := merger{schema: t.Schema, normalize: normalize, report: rep}
	recs = m.mergeBy(recs, AxisEnglish, c.Keys.English, c.Keys.Italian)
	recs = m.mergeBy(recs, AxisItalian, c.Keys.Italian, c.Keys.English)

	sortByIdentity(recs, c.Keys.English, normalize)
	rep.RowsOut = len(recs)

	for _, cf := range rep.Conflicts {
		logger.Warn("merge conflict, keeping first value",
			"axis", cf.Axis,
			"identity", cf.Identity,
			"field", cf.Field,
			"kept", cf.Kept,
			"dropped", cf.Dropped,
		)
	}
	return &Table{Schema: t.Schema, Records: recs}, rep, nil
}

// fingerprint hashes the length-prefixed values in schema order, so no value
// content can collide with a separator.
func fingerprint(s *Schema, r Record) [sha256.Size]byte {
	h := sha256.New()
	var n [8]byte
	for _, f := range s.fields {
		v := r[f]
		binary.BigEndian.PutUint64(n[:], uint64(len(v)))
		h.Write(n[:])
		h.Write([]byte(v))
	}
	var sum [sha256.Size]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

func dedupeExact(s *Schema, recs []Record) []Record {
	seen := make(map[[sha256.Size]byte]struct{}, len(recs))
	out := recs[:0]
	for _, r := range recs {
		fp := fingerprint(s, r)
		if _, dup := seen[fp]; dup {
			continue
		}
		seen[fp] = struct{}{}
		out = append(out, r)
	}
	return out
}

type merger struct {
	schema    *Schema
	normalize Normalizer
	report    *Report
}

// group is either a keyless pass-through record or every record sharing one
// identity, in arrival order.
type group struct {
	identity string
	members  []Record
}

// mergeBy groups records by the identity of key, then folds each group into
// its first position. Records without identity are never grouped.
func (m *merger) mergeBy(recs []Record, axis Axis, key, other string) []Record {
	var groups []*group
	byID := make(map[string]*group)
	for _, r := range recs {
		id := m.normalize(r[key])
		if id == "" {
			groups = append(groups, &group{members: []Record{r}})
			continue
		}
		if g, ok := byID[id]; ok {
			g.members = append(g.members, r)
			continue
		}
		g := &group{identity: id, members: []Record{r}}
		byID[id] = g
		groups = append(groups, g)
	}

	out := make([]Record, 0, len(groups))
	for _, g := range groups {
		survivor := g.members[0]
		for _, in := range g.members[1:] {
			survivor = m.fold(axis, g.identity, key, other, survivor, in)
		}
		if n := len(g.members) - 1; n > 0 {
			if axis == AxisEnglish {
				m.report.EnglishMerges += n
			} else {
				m.report.ItalianMerges += n
			}
		}
		out = append(out, survivor)
	}
	return out
}

// fold merges incoming into survivor. The incoming record becomes preferred
// only when it carries the other key and the survivor does not. Empty fields
// of the preferred record are filled from the other one; non-empty fields
// are never overwritten.
func (m *merger) fold(axis Axis, identity, key, other string, survivor, incoming Record) Record {
	preferred, donor := survivor, incoming
	if !isBlank(incoming[other]) && isBlank(survivor[other]) {
		preferred, donor = incoming, survivor
	}
	merged := preferred.Clone()
	for _, f := range m.schema.fields {
		have, give := merged[f], donor[f]
		switch {
		case give == "":
		case have == "" || (isBlank(have) && !isBlank(give)):
			merged[f] = give
		case f == key || isBlank(give):
		case strings.TrimSpace(have) != strings.TrimSpace(give):
			m.report.Conflicts = append(m.report.Conflicts, Conflict{
				Axis:     axis,
				Identity: identity,
				Field:    f,
				Kept:     have,
				Dropped:  give,
			})
		}
	}
	return merged
}

// sortByIdentity orders records by English identity; keyless records go last
// in their current relative order.
func sortByIdentity(recs []Record, english string, normalize Normalizer) {
	slices.SortStableFunc(recs, func(a, b Record) int {
		ia, ib := normalize(a[english]), normalize(b[english])
		switch {
		case ia == "" && ib == "":
			return 0
		case ia == "":
			return 1
		case ib == "":
			return -1
		}
		return strings.Compare(ia, ib)
	})
}
