package model

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Error taxonomy. Concrete failures wrap one of these so callers can use errors.Is.
var (
	ErrInputNotFound     = errors.New("input not found")
	ErrMalformedInput    = errors.New("malformed input")
	ErrMissingColumn     = errors.New("missing column")
	ErrMissingField      = errors.New("missing field")
	ErrTemplateNotFound  = errors.New("template not found")
	ErrTemplateCompile   = errors.New("template compile error")
	ErrUndefinedVariable = errors.New("undefined template variable")
	ErrAuth              = errors.New("authentication failed")
	ErrConnect           = errors.New("connection failed")
	ErrSend              = errors.New("send failed")
	ErrConfig            = errors.New("invalid configuration")
)

// RowError reports a problem with a single row of an input file.
// Row is 1-based with the header counted as row 1.
type RowError struct {
	Row   int
	Field string
	Err   error
}

func (e *RowError) Error() string {
	if errors.Is(e.Err, ErrMissingField) {
		return fmt.Sprintf("row %d: missing %s", e.Row, e.Field)
	}
	return fmt.Sprintf("row %d: invalid %s: %v", e.Row, e.Field, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// RecipientError ties a render or transport failure to the recipient it happened for
type RecipientError struct {
	Email string
	Err   error
}

func (e *RecipientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Email, e.Err)
}

func (e *RecipientError) Unwrap() error { return e.Err }
