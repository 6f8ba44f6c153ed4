package dict

import (
	"fmt"
	"slices"
	"strings"
)

// Record maps every schema field to its cell value. Unpopulated fields hold "".
type Record map[string]string

// Clone returns an independent copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is an ordered sequence of records sharing one schema.
type Table struct {
	Schema  *Schema
	Records []Record
}

// NewTable returns an empty table over schema.
func NewTable(schema *Schema) *Table {
	return &Table{Schema: schema}
}

// NewRecord returns a record with every schema field set to "".
func (t *Table) NewRecord() Record {
	r := make(Record, t.Schema.Len())
	for _, f := range t.Schema.fields {
		r[f] = ""
	}
	return r
}

// Row returns the record's values in schema order.
func (t *Table) Row(r Record) []string {
	row := make([]string, t.Schema.Len())
	for i, f := range t.Schema.fields {
		row[i] = r[f]
	}
	return row
}

// Exists reports whether some data row holds value in column, comparing
// trimmed, case-folded forms. A blank value never matches.
func (t *Table) Exists(column, value string) (bool, error) {
	return t.ExistsWith(NormalizeCasefold, column, value)
}

// ExistsWith is Exists with an explicit identity normalizer.
func (t *Table) ExistsWith(normalize Normalizer, column, value string) (bool, error) {
	field, err := t.Schema.Resolve(column)
	if err != nil {
		return false, err
	}
	want := normalize(value)
	if want == "" {
		return false, nil
	}
	for _, r := range t.Records {
		if normalize(r[field]) == want {
			return true, nil
		}
	}
	return false, nil
}

// Append adds a record whose only non-empty field is column, set to value
// verbatim. It does not check for an existing match.
func (t *Table) Append(column, value string) (Record, error) {
	r, err := t.Build(column, value)
	if err != nil {
		return nil, err
	}
	t.Records = append(t.Records, r)
	return r, nil
}

// Build constructs the record Append would add, without adding it.
func (t *Table) Build(column, value string) (Record, error) {
	field, err := t.Schema.Resolve(column)
	if err != nil {
		return nil, err
	}
	if err := CheckValue(field, value); err != nil {
		return nil, err
	}
	r := t.NewRecord()
	r[field] = value
	return r, nil
}

// Validate checks that every record carries exactly the schema's fields.
func (t *Table) Validate() error {
	for i, r := range t.Records {
		if err := t.checkRecord(i+1, r); err != nil {
			return err
		}
	}
	return nil
}

func (t *Table) checkRecord(row int, r Record) error {
	for _, f := range t.Schema.fields {
		if _, ok := r[f]; !ok {
			return mismatchErr(row, "missing field %q", f)
		}
	}
	if len(r) != t.Schema.Len() {
		var extra []string
		for k := range r {
			if !t.Schema.Has(k) {
				extra = append(extra, k)
			}
		}
		slices.Sort(extra)
		return mismatchErr(row, "unknown fields %v", extra)
	}
	return nil
}

// Equal reports whether both tables have the same fields and the same
// records in the same order.
func (t *Table) Equal(o *Table) bool {
	if !slices.Equal(t.Schema.fields, o.Schema.fields) || len(t.Records) != len(o.Records) {
		return false
	}
	for i := range t.Records {
		if !slices.Equal(t.Row(t.Records[i]), o.Row(o.Records[i])) {
			return false
		}
	}
	return true
}

func (t *Table) String() string {
	return fmt.Sprintf("table(%d fields, %d records)", t.Schema.Len(), len(t.Records))
}

// CheckValue rejects values the table file cannot hold exactly: a quoted
// CRLF reads back as a bare LF. Lone CR and LF characters are stored as given.
func CheckValue(field, value string) error {
	if strings.Contains(value, "\r\n") {
		return ValidationErr(field, value, "value contains a CRLF line break, which the table file cannot store")
	}
	return nil
}
