package dataset

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidQID        = errors.New("invalid data format: examples must have qid fields")
	ErrMalformedToken    = errors.New("malformed token")
	ErrQueryTooSmall     = errors.New("query must contain at least 2 items")
	ErrEmptyDataset      = errors.New("dataset contains no queries")
	ErrDimensionMismatch = errors.New("feature dimension exceeds model dimension")
)

// ParseError records the input line on which parsing failed.
type ParseError struct {
	Line  int
	Token string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Token)
}

func (e *ParseError) Unwrap() error { return e.Err }
