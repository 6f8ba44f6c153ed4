// CLAUDE:SUMMARY Delimited text codec for tables: header -> Schema, rows -> Records, optional non-UTF-8 transcoding.
package dict

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// Format describes the on-disk layout of a table.
type Format struct {
	Delimiter rune   // defaults to ','
	Encoding  string // defaults to utf-8
}

func (f Format) comma() rune {
	if f.Delimiter == 0 {
		return ','
	}
	return f.Delimiter
}

func (f Format) codec() (encoding.Encoding, error) {
	if isUTF8(f.Encoding) {
		return nil, nil
	}
	e, err := htmlindex.Get(f.Encoding)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", f.Encoding, err)
	}
	return e, nil
}

// ReadTable parses a whole table. Short rows are padded with empty fields,
// rows longer than the header are a SchemaMismatch.
func ReadTable(src io.Reader, f Format) (*Table, error) {
	e, err := f.codec()
	if err != nil {
		return nil, schemaErr("", "%v", err)
	}
	if e != nil {
		src = transform.NewReader(src, e.NewDecoder())
	}

	r := csv.NewReader(src)
	r.Comma = f.comma()
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, schemaErr("", "empty header")
	}
	if err != nil {
		return nil, readErr(err)
	}
	schema, err := NewSchema(header)
	if err != nil {
		return nil, err
	}

	t := NewTable(schema)
	for row := 1; ; row++ {
		cells, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, readErr(err)
		}
		if len(cells) > schema.Len() {
			return nil, mismatchErr(row, "%d fields, header has %d", len(cells), schema.Len())
		}
		rec := t.NewRecord()
		for i, v := range cells {
			rec[schema.fields[i]] = v
		}
		t.Records = append(t.Records, rec)
	}
	return t, nil
}

// WriteTable writes the header followed by every record in order.
func WriteTable(dst io.Writer, t *Table, f Format) error {
	if err := t.Validate(); err != nil {
		return err
	}
	e, err := f.codec()
	if err != nil {
		return schemaErr("", "%v", err)
	}
	var tw *transform.Writer
	if e != nil {
		tw = transform.NewWriter(dst, e.NewEncoder())
		dst = tw
	}

	w := csv.NewWriter(dst)
	w.Comma = f.comma()
	if err := w.Write(t.Schema.Fields()); err != nil {
		return err
	}
	for _, rec := range t.Records {
		if err := w.Write(t.Row(rec)); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	if tw != nil {
		return tw.Close()
	}
	return nil
}

// EncodeRow renders one record as a single delimited line, newline included.
func EncodeRow(t *Table, rec Record, f Format) ([]byte, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)
	w.Comma = f.comma()
	if err := w.Write(t.Row(rec)); err != nil {
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	out := []byte(b.String())
	e, err := f.codec()
	if err != nil {
		return nil, schemaErr("", "%v", err)
	}
	if e != nil {
		return e.NewEncoder().Bytes(out)
	}
	return out, nil
}

// readErr classifies csv parse failures: structural damage is a row shape
// problem, anything else comes from the underlying reader.
func readErr(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return mismatchErr(max(pe.Line-1, 0), "%v", pe.Err)
	}
	return &Error{Kind: ErrIO, Msg: "read table", Err: err}
}

func isUTF8(enc string) bool {
	e := strings.ToLower(strings.ReplaceAll(enc, "-", ""))
	return e == "utf8" || e == ""
}
