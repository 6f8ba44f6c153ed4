package dict

import (
	"strings"
)

const bom = "\ufeff"

// Schema is the ordered, immutable field list read from a table header.
type Schema struct {
	fields []string
	index  map[string]int
}

// NewSchema builds a Schema from raw header cells. Cells are trimmed and a
// leading byte order mark is dropped. The header must be non-empty and its
// names unique and non-blank.
func NewSchema(header []string) (*Schema, error) {
	if len(header) == 0 {
		return nil, schemaErr("", "empty header")
	}
	s := &Schema{
		fields: make([]string, len(header)),
		index:  make(map[string]int, len(header)),
	}
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, bom)
		}
		h = strings.TrimSpace(h)
		if h == "" {
			if len(header) == 1 {
				return nil, schemaErr("", "empty header")
			}
			return nil, schemaErr("", "blank field name at position %d", i+1)
		}
		if _, dup := s.index[h]; dup {
			return nil, schemaErr(h, "duplicate field name")
		}
		s.fields[i] = h
		s.index[h] = i
	}
	return s, nil
}

// Fields returns a copy of the field names in header order.
func (s *Schema) Fields() []string {
	out := make([]string, len(s.fields))
	copy(out, s.fields)
	return out
}

// Len returns the number of fields.
func (s *Schema) Len() int { return len(s.fields) }

// Has reports whether name is a field of the schema, exactly as written.
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Resolve maps a caller-supplied column name onto the schema's own spelling.
// Matching is exact after trimming and case folding; zero or several
// candidates are a SchemaError.
func (s *Schema) Resolve(name string) (string, error) {
	want := NormalizeCasefold(name)
	if want == "" {
		return "", schemaErr(name, "column name is empty")
	}
	var found []string
	for _, f := range s.fields {
		if NormalizeCasefold(f) == want {
			found = append(found, f)
		}
	}
	switch len(found) {
	case 0:
		return "", schemaErr(name, "unknown column, have %s", strings.Join(s.fields, ", "))
	case 1:
		return found[0], nil
	default:
		return "", schemaErr(name, "ambiguous column, matches %s", strings.Join(found, ", "))
	}
}

// Keys identifies the English and Italian key fields of a table.
type Keys struct {
	English string
	Italian string
}

// ResolveKeys resolves both key columns against the schema.
func (s *Schema) ResolveKeys(english, italian string) (Keys, error) {
	en, err := s.Resolve(english)
	if err != nil {
		return Keys{}, err
	}
	it, err := s.Resolve(italian)
	if err != nil {
		return Keys{}, err
	}
	if en == it {
		return Keys{}, schemaErr(it, "english and italian keys name the same column")
	}
	return Keys{English: en, Italian: it}, nil
}
