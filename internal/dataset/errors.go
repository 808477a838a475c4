package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat is returned when the file extension or declared
	// format is not one of the loadable kinds.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrEmptyDataset is returned when parsing yields a header but zero data
	// rows, or no content at all.
	ErrEmptyDataset = errors.New("dataset contains no data rows")

	// ErrNoDataset is returned by callers that need a loaded table when none
	// is resident.
	ErrNoDataset = errors.New("no dataset loaded")
)

// ParseError reports a malformed record with its location. Row is 1-based
// over data rows (the header is row 0). Column is empty when the problem is
// not tied to a single column.
type ParseError struct {
	Row     int
	Column  string
	Message string
}

func (e *ParseError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("parse error at row %d, column %q: %s", e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("parse error at row %d: %s", e.Row, e.Message)
}

// UnknownColumnError reports a reference to a column the table does not have.
type UnknownColumnError struct {
	Column string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown column %q", e.Column)
}
