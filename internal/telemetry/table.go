package telemetry

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"
)

// ColumnKind is the storage type a column ended up with after validation.
type ColumnKind int

const (
	// KindText holds cells that did not classify as numeric (e.g. payload
	// status strings). Stored verbatim.
	KindText ColumnKind = iota
	// KindNumeric holds float64 cells; missing cells are NaN with Valid=false.
	KindNumeric
	// KindTime is the parsed timestamp column.
	KindTime
)

func (k ColumnKind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindTime:
		return "time"
	default:
		return "text"
	}
}

// Column is one validated, typed column. Exactly one of Times, Floats or
// Strings is populated, matching Kind. Valid marks per-row presence: a numeric
// cell that was empty, unparseable or sentinel-redacted has Valid=false and
// Floats holding NaN.
type Column struct {
	Name    string
	Kind    ColumnKind
	Times   []time.Time
	Floats  []float64
	Strings []string
	Valid   []bool
}

// Value returns the cell at row i rendered as a string, or "" when missing.
func (c *Column) Value(i int) string {
	if !c.Valid[i] {
		return ""
	}
	switch c.Kind {
	case KindTime:
		return c.Times[i].Format(time.RFC3339)
	case KindNumeric:
		return strconv.FormatFloat(c.Floats[i], 'g', -1, 64)
	default:
		return c.Strings[i]
	}
}

// Table is the cleaned, row-consistent output of a successful validation.
// All columns have the same length, every row has a parseable timestamp and a
// complete core set, and no numeric cell holds the redaction sentinel.
type Table struct {
	columns []Column
	byName  map[string]int
}

// NewTable builds a table from pre-populated columns. All columns must have
// equal length.
func NewTable(columns []Column) (*Table, error) {
	byName := make(map[string]int, len(columns))
	rows := -1
	for i, col := range columns {
		if _, dup := byName[col.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", col.Name)
		}
		n := len(col.Valid)
		if rows >= 0 && n != rows {
			return nil, fmt.Errorf("column %q has %d rows, want %d", col.Name, n, rows)
		}
		rows = n
		byName[col.Name] = i
	}
	return &Table{columns: columns, byName: byName}, nil
}

// NumRows returns the row count; zero for an empty (header-only) table.
func (t *Table) NumRows() int {
	if len(t.columns) == 0 {
		return 0
	}
	return len(t.columns[0].Valid)
}

// NumColumns returns the column count.
func (t *Table) NumColumns() int { return len(t.columns) }

// Column returns the named column, or false if absent.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.byName[name]
	if !ok {
		return nil, false
	}
	return &t.columns[i], true
}

// Columns returns all columns in header order.
func (t *Table) Columns() []Column { return t.columns }

// ColumnNames returns the column names in header order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, col := range t.columns {
		names[i] = col.Name
	}
	return names
}

// NumericColumnNames returns the names of numeric columns in header order.
func (t *Table) NumericColumnNames() []string {
	var names []string
	for _, col := range t.columns {
		if col.Kind == KindNumeric {
			names = append(names, col.Name)
		}
	}
	return names
}

// Timestamps returns the parsed timestamp column, if the table has one.
func (t *Table) Timestamps() ([]time.Time, bool) {
	for _, col := range t.columns {
		if col.Kind == KindTime {
			return col.Times, true
		}
	}
	return nil, false
}

// Floats returns the numeric values of the named column. The second return is
// the per-row validity mask.
func (t *Table) Floats(name string) ([]float64, []bool, error) {
	col, ok := t.Column(name)
	if !ok {
		return nil, nil, fmt.Errorf("no such column: %s", name)
	}
	if col.Kind != KindNumeric {
		return nil, nil, fmt.Errorf("column %s is not numeric", name)
	}
	return col.Floats, col.Valid, nil
}

// MinMax returns the smallest and largest valid value of a numeric column.
// ok is false when the column has no valid cells.
func (t *Table) MinMax(name string) (min, max float64, ok bool) {
	floats, valid, err := t.Floats(name)
	if err != nil {
		return 0, 0, false
	}
	min, max = math.Inf(1), math.Inf(-1)
	for i, v := range floats {
		if !valid[i] {
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		ok = true
	}
	return min, max, ok
}

// WriteCSV re-serializes the table as delimited text with a header row.
// Missing cells are written as empty fields; timestamps use RFC 3339. The
// output round-trips through Validate without new redactions or row drops.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.ColumnNames()); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	record := make([]string, len(t.columns))
	for i := 0; i < t.NumRows(); i++ {
		for j := range t.columns {
			record[j] = t.columns[j].Value(i)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
