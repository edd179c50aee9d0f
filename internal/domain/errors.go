package domain

import (
	"errors"
	"fmt"
)

// Error kinds.
var (
	ErrScan          = errors.New("scan failed")
	ErrParse         = errors.New("parse failed")
	ErrEmptyContent  = errors.New("no content extracted")
	ErrEmbedding     = errors.New("embedding failed")
	ErrPersistence   = errors.New("persistence failed")
	ErrSummarization = errors.New("summarization failed")

	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrEmptyChunk        = errors.New("chunk text is empty")
	ErrEmptyQuery        = errors.New("query is empty")
)

// Error ties a failure to its kind and the thing it happened to.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.Op, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Wrap returns nil for a nil err, otherwise an *Error of the given kind.
func Wrap(kind error, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}
