package csvimport

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Reader parses master data exports as they come from the regulator's
// tooling: UTF-8, a single header row, one institution per line. Files
// exported from spreadsheets often carry a BOM and a semicolon delimiter,
// both are handled.
type Reader struct {
	delimiter rune
	trimSpace bool
	headers   []string
	columns   map[string]int
	line      int
	csv       *csv.Reader
}

// Option configures a Reader
type Option func(*Reader)

// WithDelimiter overrides the comma delimiter, e.g. ';' for German
// spreadsheet exports
func WithDelimiter(d rune) Option {
	return func(r *Reader) {
		r.delimiter = d
	}
}

// WithTrimSpace strips surrounding whitespace from headers and values
func WithTrimSpace(trim bool) Option {
	return func(r *Reader) {
		r.trimSpace = trim
	}
}

// NewReader wraps an input stream in a master data reader
func NewReader(in io.Reader, opts ...Option) (*Reader, error) {
	r := &Reader{
		delimiter: ',',
		trimSpace: true,
		columns:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(r)
	}

	buf := bufio.NewReader(in)
	if err := prepareInput(buf); err != nil {
		return nil, err
	}

	r.csv = csv.NewReader(buf)
	r.csv.Comma = r.delimiter
	r.csv.LazyQuotes = true
	r.csv.TrimLeadingSpace = r.trimSpace
	// Master data rows may omit trailing optional columns.
	r.csv.FieldsPerRecord = -1
	return r, nil
}

// ParseBytes builds a reader over an uploaded file
func ParseBytes(data []byte, opts ...Option) (*Reader, error) {
	return NewReader(bytes.NewReader(data), opts...)
}

// prepareInput strips a UTF-8 BOM and rejects files in other encodings
func prepareInput(buf *bufio.Reader) error {
	head, err := buf.Peek(3)
	if err != nil && err != io.EOF {
		return fmt.Errorf("read import file: %w", err)
	}
	if len(head) == 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		_, _ = buf.Discard(3)
	}

	sample, err := buf.Peek(4096)
	if err != nil && err != io.EOF {
		return fmt.Errorf("read import file: %w", err)
	}
	if len(sample) == 0 {
		return ErrEmptyFile
	}
	if !utf8.Valid(sample) {
		return ErrInvalidEncoding
	}
	return nil
}

// ParseHeader consumes the header row. It must be called before reading
// data rows.
func (r *Reader) ParseHeader() error {
	record, err := r.csv.Read()
	if err == io.EOF {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("read header row: %w", err)
	}

	r.headers = make([]string, len(record))
	for i, name := range record {
		if r.trimSpace {
			name = strings.TrimSpace(name)
		}
		r.headers[i] = name
		r.columns[name] = i
	}
	r.line = 1
	return nil
}

// Headers returns the column names in file order
func (r *Reader) Headers() []string {
	return r.headers
}

// ValidateHeaders returns the required column names the file does not carry
func (r *Reader) ValidateHeaders(required []string) []string {
	var missing []string
	for _, name := range required {
		if _, ok := r.columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Row is one institution record keyed by column name. LineNumber is the
// 1-based position in the file, header included, for error reporting.
type Row struct {
	LineNumber int
	Data       map[string]string
}

// Get returns the value of a column, empty when the column is absent
func (row *Row) Get(column string) string {
	return row.Data[column]
}

// GetOrDefault returns the column value, or fallback when it is empty
func (row *Row) GetOrDefault(column, fallback string) string {
	if v := row.Data[column]; v != "" {
		return v
	}
	return fallback
}

// IsEmpty reports whether the row carries no values at all
func (row *Row) IsEmpty() bool {
	for _, v := range row.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// ReadAllRows reads every remaining data row, skipping blank lines
func (r *Reader) ReadAllRows() ([]*Row, error) {
	var rows []*Row
	for {
		record, err := r.csv.Read()
		if err == io.EOF {
			return rows, nil
		}
		r.line++
		if err != nil {
			return rows, fmt.Errorf("read row %d: %w", r.line, err)
		}

		row := &Row{LineNumber: r.line, Data: make(map[string]string, len(r.headers))}
		for i, name := range r.headers {
			var value string
			if i < len(record) {
				value = record[i]
				if r.trimSpace {
					value = strings.TrimSpace(value)
				}
			}
			row.Data[name] = value
		}
		if row.IsEmpty() {
			continue
		}
		rows = append(rows, row)
	}
}
