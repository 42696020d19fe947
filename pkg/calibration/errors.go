package calibration

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed is returned when a value is missing or not a number.
	ErrMalformed = errors.New("calibration: malformed file")

	// ErrDimensions is returned when a matrix size is zero or too large.
	ErrDimensions = errors.New("calibration: invalid matrix dimensions")
)

// FormatError locates a parse failure inside a calibration file.
type FormatError struct {
	// Section is the matrix (and field) being read.
	Section string

	// Index is the element index, or -1 for a dimension field.
	Index int

	Err error
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%v: %s", e.Err, e.Section)
	}
	return fmt.Sprintf("%v: %s element %d", e.Err, e.Section, e.Index)
}

// Unwrap returns the underlying error.
func (e *FormatError) Unwrap() error {
	return e.Err
}
