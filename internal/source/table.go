package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrNoHeader      = errors.New("csv: header row required")
	ErrMissingColumn = errors.New("csv: missing column")
)

// RowError is a single unreadable row. Reading can continue past it.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("csv line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// table reads a CSV with a header row and hands out rows keyed by column name.
type table struct {
	r       *csv.Reader
	columns map[string]int
}

func newTable(r io.Reader) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if name == "" {
			continue
		}
		if _, dup := columns[name]; !dup {
			columns[name] = i
		}
	}
	if len(columns) == 0 {
		return nil, ErrNoHeader
	}
	return &table{r: cr, columns: columns}, nil
}

type row struct {
	fields  []string
	columns map[string]int
}

// get returns the trimmed cell for name, or "" when the column or cell is absent.
func (r row) get(name string) string {
	i, ok := r.columns[name]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

func (t *table) next() (row, error) {
	for {
		fields, err := t.r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return row{}, io.EOF
			}
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return row{}, &RowError{Line: pe.Line, Err: pe.Err}
			}
			return row{}, err
		}
		if blank(fields) {
			continue
		}
		return row{fields: fields, columns: t.columns}, nil
	}
}

func (t *table) has(name string) bool {
	_, ok := t.columns[name]
	return ok
}

func blank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
