package model

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrFormat     = errors.New("invalid format")
	ErrNotFound   = errors.New("not found")
)

// ValidationError reports input the caller has to correct: an unknown
// category, an unparsable date or a missing required field. Line is the
// 1-indexed source line for imported rows and 0 otherwise.
type ValidationError struct {
	Field string
	Value string
	Line  int
	Msg   string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return ErrValidation.Error()
	}
	return e.Msg
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// FormatError reports a document that cannot be read at all, such as
// malformed JSON or a JSON value that is not an array.
type FormatError struct {
	Msg string
	Err error
}

func (e *FormatError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *FormatError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrFormat, e.Err}
	}
	return []error{ErrFormat}
}

// NotFoundError reports an operation on an id the store does not hold.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("event %q not found", e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }
