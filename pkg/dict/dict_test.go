package dict

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

const testHeader = "English_Translation,Italian_Translation,Italian_IPA,CEFR_Level,Taxonomy,Notes\n"

// readTestTable parses CSV content or fails the test.
func readTestTable(t *testing.T, content string) *Table {
	t.Helper()
	tbl, err := ReadTable(strings.NewReader(content), Format{})
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	return tbl
}

func TestNewSchema(t *testing.T) {
	s, err := NewSchema([]string{"\ufeff English_Translation", "Italian_Translation ", "Notes"})
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	want := []string{"English_Translation", "Italian_Translation", "Notes"}
	got := s.Fields()
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("Fields() = %v, want %v", got, want)
	}
}

func TestNewSchema_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		header []string
	}{
		{"empty", nil},
		{"single blank", []string{"  "}},
		{"blank in middle", []string{"a", "", "b"}},
		{"duplicate after trim", []string{"Notes", " Notes"}},
	}
	for _, tt := range tests {
		_, err := NewSchema(tt.header)
		if !errors.Is(err, ErrSchema) {
			t.Errorf("%s: err = %v, want ErrSchema", tt.name, err)
		}
	}
}

func TestSchemaResolve(t *testing.T) {
	s, _ := NewSchema([]string{"English_Translation", "Italian_Translation", "Notes", "notes"})

	got, err := s.Resolve(" english_translation ")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "English_Translation" {
		t.Errorf("Resolve = %q, want English_Translation", got)
	}

	if _, err := s.Resolve("English"); !errors.Is(err, ErrSchema) {
		t.Errorf("substring match must fail with ErrSchema, got %v", err)
	}
	if _, err := s.Resolve("NOTES"); !errors.Is(err, ErrSchema) {
		t.Errorf("ambiguous column must fail with ErrSchema, got %v", err)
	}
	if _, err := s.Resolve(""); !errors.Is(err, ErrSchema) {
		t.Errorf("empty column must fail with ErrSchema, got %v", err)
	}
}

func TestResolveKeys(t *testing.T) {
	s, _ := NewSchema([]string{"English_Translation", "Italian_Translation"})
	keys, err := s.ResolveKeys("english_translation", "ITALIAN_TRANSLATION")
	if err != nil {
		t.Fatalf("ResolveKeys: %v", err)
	}
	if keys.English != "English_Translation" || keys.Italian != "Italian_Translation" {
		t.Errorf("keys = %+v", keys)
	}
	if _, err := s.ResolveKeys("English_Translation", "Italian"); !errors.Is(err, ErrSchema) {
		t.Errorf("missing italian key: err = %v, want ErrSchema", err)
	}
	if _, err := s.ResolveKeys("English_Translation", "english_translation"); !errors.Is(err, ErrSchema) {
		t.Errorf("same column twice: err = %v, want ErrSchema", err)
	}
}

func TestReadTable(t *testing.T) {
	tbl := readTestTable(t, testHeader+
		"Apple,Mela,,A1,Food,\n"+
		"Dog,Cane\n"+ // short row, padded
		"\"Hello, world\",\"Ciao \"\"mondo\"\"\",,,,\"two\nlines\"\n")

	if len(tbl.Records) != 3 {
		t.Fatalf("records = %d, want 3", len(tbl.Records))
	}
	if tbl.Records[1]["Taxonomy"] != "" || len(tbl.Records[1]) != tbl.Schema.Len() {
		t.Errorf("short row not padded: %v", tbl.Records[1])
	}
	r := tbl.Records[2]
	if r["English_Translation"] != "Hello, world" {
		t.Errorf("English = %q", r["English_Translation"])
	}
	if r["Italian_Translation"] != `Ciao "mondo"` {
		t.Errorf("Italian = %q", r["Italian_Translation"])
	}
	if r["Notes"] != "two\nlines" {
		t.Errorf("Notes = %q", r["Notes"])
	}
}

func TestReadTable_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		kind    error
	}{
		{"empty file", "", ErrSchema},
		{"duplicate header", "a,b,a\n1,2,3\n", ErrSchema},
		{"extra field", "a,b\n1,2\n1,2,3\n", ErrSchemaMismatch},
	}
	for _, tt := range tests {
		_, err := ReadTable(strings.NewReader(tt.content), Format{})
		if !errors.Is(err, tt.kind) {
			t.Errorf("%s: err = %v, want %v", tt.name, err, tt.kind)
		}
	}
}

func TestReadTable_ExtraFieldRow(t *testing.T) {
	_, err := ReadTable(strings.NewReader("a,b\n1,2\n3,4\n5,6,7\n"), Format{})
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if e.Row != 3 {
		t.Errorf("Row = %d, want 3", e.Row)
	}
}

func TestReadTable_Delimiter(t *testing.T) {
	tbl, err := ReadTable(strings.NewReader("term;note\nciao;a,b\n"), Format{Delimiter: ';'})
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if tbl.Records[0]["note"] != "a,b" {
		t.Errorf("note = %q, want a,b", tbl.Records[0]["note"])
	}
}

func TestReadTable_Latin1(t *testing.T) {
	// "Città" in ISO-8859-1.
	content := []byte("English_Translation,Italian_Translation\ncity,Citt\xe0\n")
	tbl, err := ReadTable(bytes.NewReader(content), Format{Encoding: "iso-8859-1"})
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if got := tbl.Records[0]["Italian_Translation"]; got != "Città" {
		t.Errorf("Italian = %q, want Città", got)
	}
}

func TestWriteTable_RoundTrip(t *testing.T) {
	tbl := readTestTable(t, testHeader)
	values := []string{
		`comma, and "quote"`,
		"line\nbreak",
		"x,\"y\"\nz",
		"lone\rreturn",
		"  leading space",
		"trailing space ",
		"plain",
	}
	for _, v := range values {
		if _, err := tbl.Append("Notes", v); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	var buf bytes.Buffer
	if err := WriteTable(&buf, tbl, Format{}); err != nil {
		t.Fatalf("WriteTable: %v", err)
	}
	back := readTestTable(t, buf.String())
	if !tbl.Equal(back) {
		t.Fatalf("round trip mismatch:\n%s", buf.String())
	}
	for i, v := range values {
		if got := back.Records[i]["Notes"]; got != v {
			t.Errorf("value %d = %q, want %q", i, got, v)
		}
	}
}

func TestEncodeRow(t *testing.T) {
	tbl := readTestTable(t, "a,b\n")
	rec, _ := tbl.Build("b", `x,"y"`)
	line, err := EncodeRow(tbl, rec, Format{})
	if err != nil {
		t.Fatalf("EncodeRow: %v", err)
	}
	if string(line) != ",\"x,\"\"y\"\"\"\n" {
		t.Errorf("EncodeRow = %q", line)
	}
}

func TestExists(t *testing.T) {
	tbl := readTestTable(t, testHeader+"Apple,Mela,,,,\n,Cane,,,,\n")

	tests := []struct {
		column, value string
		found         bool
	}{
		{"English_Translation", "apple", true},
		{"English_Translation", "  APPLE ", true},
		{"english_translation", "Apple", true},
		{"English_Translation", "Appl", false},
		{"English_Translation", "", false},
		{"English_Translation", "   ", false},
		{"Italian_Translation", "cane", true},
		{"Italian_Translation", "mela", true},
		{"Notes", "", false},
	}
	for _, tt := range tests {
		got, err := tbl.Exists(tt.column, tt.value)
		if err != nil {
			t.Fatalf("Exists(%q, %q): %v", tt.column, tt.value, err)
		}
		if got != tt.found {
			t.Errorf("Exists(%q, %q) = %v, want %v", tt.column, tt.value, got, tt.found)
		}
	}

	// The header is never a data row.
	if found, _ := tbl.Exists("English_Translation", "English_Translation"); found {
		t.Error("header matched as data")
	}
	if _, err := tbl.Exists("English", "apple"); !errors.Is(err, ErrSchema) {
		t.Errorf("unknown column: err = %v, want ErrSchema", err)
	}
}

func TestAppend(t *testing.T) {
	tbl := readTestTable(t, testHeader)

	rec, err := tbl.Append("English_Translation", "  Apple ")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if rec["English_Translation"] != "  Apple " {
		t.Errorf("value not stored verbatim: %q", rec["English_Translation"])
	}
	for _, f := range tbl.Schema.Fields() {
		if f != "English_Translation" && rec[f] != "" {
			t.Errorf("field %s = %q, want empty", f, rec[f])
		}
	}
	if len(rec) != tbl.Schema.Len() {
		t.Errorf("record has %d fields, want %d", len(rec), tbl.Schema.Len())
	}

	found, _ := tbl.Exists("English_Translation", "Apple")
	if !found {
		t.Error("Exists after Append = false")
	}

	// Append never deduplicates.
	tbl.Append("English_Translation", "apple")
	if len(tbl.Records) != 2 {
		t.Errorf("records = %d, want 2", len(tbl.Records))
	}

	if _, err := tbl.Append("Missing", "x"); !errors.Is(err, ErrSchema) {
		t.Errorf("unknown column: err = %v, want ErrSchema", err)
	}
}

func TestAppend_RejectsCRLF(t *testing.T) {
	tbl := readTestTable(t, testHeader)
	for _, v := range []string{"a\r\nb", "ends\r\n"} {
		if _, err := tbl.Append("Notes", v); !errors.Is(err, ErrValidation) {
			t.Errorf("Append(%q): err = %v, want ErrValidation", v, err)
		}
	}
	if len(tbl.Records) != 0 {
		t.Errorf("rejected values were appended: %v", tbl.Records)
	}
	if err := CheckValue("Notes", "a\rb\nc"); err != nil {
		t.Errorf("lone CR and LF: %v", err)
	}
}

func TestErrorKindName(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{schemaErr("x", "bad"), "SchemaError"},
		{mismatchErr(2, "bad"), "SchemaMismatch"},
		{ValidationErr("term", "", "empty"), "ValidationError"},
		{IOErr("open", "/nope", errors.New("boom")), "IOError"},
		{errors.New("other"), ""},
	}
	for _, tt := range tests {
		if got := KindName(tt.err); got != tt.want {
			t.Errorf("KindName(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
