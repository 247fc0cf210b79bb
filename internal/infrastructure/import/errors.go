package csvimport

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes attached to rejected rows. They end up in the import report
// the operator downloads, so they stay stable.
const (
	ErrCodeInvalidRow   = "ERR_IMPORT_INVALID_ROW"
	ErrCodeMissingValue = "ERR_IMPORT_MISSING_VALUE"
	ErrCodeWrongType    = "ERR_IMPORT_WRONG_TYPE"
	ErrCodeTooLong      = "ERR_IMPORT_TOO_LONG"
	ErrCodeBadPattern   = "ERR_IMPORT_BAD_PATTERN"
	ErrCodeDuplicateRow = "ERR_IMPORT_DUPLICATE_ROW"
)

var (
	// ErrEmptyFile is returned for a zero-length upload
	ErrEmptyFile = errors.New("import file is empty")

	// ErrInvalidEncoding is returned when the file is not UTF-8
	ErrInvalidEncoding = errors.New("import file is not UTF-8 encoded")

	// ErrMissingHeader is returned when the file has no header row
	ErrMissingHeader = errors.New("import file has no header row")
)

// RowError describes why a single row was rejected
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

func (e RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d, column %q: %s", e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// ErrorCollection gathers row errors up to a cap. A master data file with
// thousands of broken rows should not produce a report of the same size.
type ErrorCollection struct {
	errors []RowError
	cap    int
	total  int
}

// NewErrorCollection creates a collection keeping at most cap errors
func NewErrorCollection(cap int) *ErrorCollection {
	if cap <= 0 {
		cap = 100
	}
	return &ErrorCollection{cap: cap}
}

// Add records a row error
func (ec *ErrorCollection) Add(err RowError) {
	ec.total++
	if len(ec.errors) < ec.cap {
		ec.errors = append(ec.errors, err)
	}
}

// AddValidationError records a generic per-column rejection
func (ec *ErrorCollection) AddValidationError(row int, column, code, message string) {
	ec.Add(RowError{Row: row, Column: column, Code: code, Message: message})
}

// AddMissingValue records a required column without a value
func (ec *ErrorCollection) AddMissingValue(row int, column string) {
	ec.Add(RowError{Row: row, Column: column, Code: ErrCodeMissingValue,
		Message: fmt.Sprintf("column %q must not be empty", column)})
}

// AddWrongType records a value that cannot be parsed as the expected type
func (ec *ErrorCollection) AddWrongType(row int, column, expected, value string) {
	ec.Add(RowError{Row: row, Column: column, Code: ErrCodeWrongType,
		Message: fmt.Sprintf("expected %s", expected), Value: value})
}

// AddTooLong records a value over the column's length limit
func (ec *ErrorCollection) AddTooLong(row int, column string, max int) {
	ec.Add(RowError{Row: row, Column: column, Code: ErrCodeTooLong,
		Message: fmt.Sprintf("value is longer than %d characters", max)})
}

// AddBadPattern records a value that does not match the column's format
func (ec *ErrorCollection) AddBadPattern(row int, column, format, value string) {
	ec.Add(RowError{Row: row, Column: column, Code: ErrCodeBadPattern,
		Message: fmt.Sprintf("value does not look like %s", format), Value: value})
}

// AddDuplicate records a key column value already seen earlier in the file
func (ec *ErrorCollection) AddDuplicate(row int, column, value string, firstRow int) {
	ec.Add(RowError{Row: row, Column: column, Code: ErrCodeDuplicateRow,
		Message: fmt.Sprintf("value %q already appears in row %d", value, firstRow), Value: value})
}

// Errors returns the kept errors
func (ec *ErrorCollection) Errors() []RowError {
	return ec.errors
}

// TotalCount returns the number of errors including dropped ones
func (ec *ErrorCollection) TotalCount() int {
	return ec.total
}

// HasErrors reports whether anything was rejected
func (ec *ErrorCollection) HasErrors() bool {
	return ec.total > 0
}

// IsTruncated reports whether errors were dropped over the cap
func (ec *ErrorCollection) IsTruncated() bool {
	return ec.total > ec.cap
}

func (ec *ErrorCollection) String() string {
	if !ec.HasErrors() {
		return "no errors"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d rejected row(s)", ec.total)
	if ec.IsTruncated() {
		fmt.Fprintf(&sb, ", first %d shown", ec.cap)
	}
	sb.WriteString(":\n")
	for _, err := range ec.errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}
