package dict

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every failure returned by this package and by the ledger
// matches exactly one of them through errors.Is.
var (
	ErrSchema         = errors.New("schema error")
	ErrSchemaMismatch = errors.New("schema mismatch")
	ErrIO             = errors.New("io error")
	ErrValidation     = errors.New("validation error")
)

// Error carries the kind plus the offending column, value or row.
type Error struct {
	Kind  error
	Field string
	Value string
	Row   int // 1-based data row, 0 when not row specific
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Row > 0 {
		fmt.Fprintf(&b, ": row %d", e.Row)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, ": column %q", e.Field)
	}
	if e.Value != "" {
		fmt.Fprintf(&b, ": value %q", e.Value)
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindName returns the short name of the kind err belongs to, or "" if none.
func KindName(err error) string {
	switch {
	case errors.Is(err, ErrSchema):
		return "SchemaError"
	case errors.Is(err, ErrSchemaMismatch):
		return "SchemaMismatch"
	case errors.Is(err, ErrValidation):
		return "ValidationError"
	case errors.Is(err, ErrIO):
		return "IOError"
	}
	return ""
}

func schemaErr(field, format string, args ...any) error {
	return &Error{Kind: ErrSchema, Field: field, Msg: fmt.Sprintf(format, args...)}
}

func mismatchErr(row int, format string, args ...any) error {
	return &Error{Kind: ErrSchemaMismatch, Row: row, Msg: fmt.Sprintf(format, args...)}
}

// IOErr wraps a storage failure.
func IOErr(op, path string, err error) error {
	return &Error{Kind: ErrIO, Msg: op + " " + path, Err: err}
}

// ValidationErr reports a caller-supplied value that is empty or unusable.
func ValidationErr(field, value, msg string) error {
	return &Error{Kind: ErrValidation, Field: field, Value: value, Msg: msg}
}
