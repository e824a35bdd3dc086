package engine

import (
	"errors"
	"fmt"
)

// Load failures. Any of these aborts construction; no partial Definitions is returned.
var (
	ErrSchema       = errors.New("schema error")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrFormat       = errors.New("format error")
)

// Query failures. A correctly used Definitions never produces these.
var (
	ErrUnknownKey      = errors.New("unknown key")
	ErrIndexOutOfRange = errors.New("index out of range")
)

// ColumnError ties a load failure to the column, and row when known, that caused it.
type ColumnError struct {
	Header string
	Row    int // -1 when not row specific
	Err    error
	Detail string
}

func (e *ColumnError) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("column %q row %d: %v: %s", e.Header, e.Row, e.Err, e.Detail)
	}
	return fmt.Sprintf("column %q: %v: %s", e.Header, e.Err, e.Detail)
}

func (e *ColumnError) Unwrap() error { return e.Err }

func columnErr(header string, row int, kind error, format string, args ...any) error {
	return &ColumnError{Header: header, Row: row, Err: kind, Detail: fmt.Sprintf(format, args...)}
}

var errBlank = errors.New("blank value")

func numberErr(raw string) error {
	return fmt.Errorf("cannot parse %q as a finite number", raw)
}

func unknownKey(kind, name string) error {
	return fmt.Errorf("%w: %s %q", ErrUnknownKey, kind, name)
}

func outOfRange(ordinal, n int) error {
	return fmt.Errorf("%w: ordinal %d not in [0, %d)", ErrIndexOutOfRange, ordinal, n)
}
