package wordlist

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/hazyhaar/lessico/pkg/dict"
)

func init() {
	Register(&linesFormat{})
	Register(&csvFormat{})
}

// linesFormat reads one term per line. Lines starting with # are comments.
type linesFormat struct{}

func (linesFormat) ID() string          { return "lines" }
func (linesFormat) Description() string { return "one term per line, # comments" }

func (linesFormat) Read(r io.Reader, _ Options) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var terms []string
	first := true
	for sc.Scan() {
		line := sc.Text()
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		terms = append(terms, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read lines: %w", err)
	}
	return terms, nil
}

// csvFormat reads one column of a delimited file with a header row.
type csvFormat struct{}

func (csvFormat) ID() string          { return "csv" }
func (csvFormat) Description() string { return "a named column of a CSV file with header" }

func (csvFormat) Read(r io.Reader, opts Options) ([]string, error) {
	if opts.Column == "" {
		return nil, dict.ValidationErr("column", "", "csv word lists need a column")
	}
	t, err := dict.ReadTable(r, dict.Format{Delimiter: opts.Delimiter})
	if err != nil {
		return nil, err
	}
	col, err := t.Schema.Resolve(opts.Column)
	if err != nil {
		return nil, err
	}
	var terms []string
	for _, rec := range t.Records {
		if v := strings.TrimSpace(rec[col]); v != "" {
			terms = append(terms, v)
		}
	}
	return terms, nil
}
