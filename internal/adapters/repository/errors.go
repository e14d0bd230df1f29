package repository

import (
	"errors"
	"fmt"
)

// Sentinel kinds for history store errors.
var (
	ErrHistoryNotFound = errors.New("history not found")
	ErrMalformedRecord = errors.New("malformed history record")
	ErrMissingColumn   = errors.New("missing history column")
	ErrStoreClosed     = errors.New("history store closed")
)

// MalformedRecordError reports a numeric field that did not parse. The whole
// load fails on the first one.
type MalformedRecordError struct {
	Line  int
	Field string
	Value string
	Err   error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("line %d: field %q: invalid integer %q", e.Line, e.Field, e.Value)
}

// Unwrap lets errors.Is match ErrMalformedRecord and the parse error.
func (e *MalformedRecordError) Unwrap() []error {
	return []error{ErrMalformedRecord, e.Err}
}
