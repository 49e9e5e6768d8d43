// Package telemetry implements the ingestion and validation pipeline for
// flight telemetry CSV files.
//
// One call to Validator.Validate ingests a raw delimited stream and produces
// a typed, row-consistent Table plus a Report describing everything the
// pipeline repaired or rejected along the way. Structural problems (unreadable
// stream, missing core columns) are fatal and yield a nil table; data-quality
// problems (bad timestamps, redacted cells, incomplete rows) are repaired
// locally and surface only as aggregate warnings.
//
// The pipeline holds no state between invocations; a Validator is safe for
// concurrent use by independent uploads.
package telemetry

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// DefaultSentinel is the reserved numeric value meaning "redacted/classified,
// treat as absent".
const DefaultSentinel = -999.0

// DefaultTimestampColumn is the name of the mandatory time axis column.
const DefaultTimestampColumn = "Timestamp"

// DefaultCoreColumns are the columns whose presence is mandatory for any
// further processing. Their absence fails the whole invocation: downstream
// plotting assumes the geometry columns exist unconditionally, so no partial
// table is ever returned.
func DefaultCoreColumns() []string {
	return []string{
		"Timestamp",
		"POS_Latitude_deg",
		"POS_Longitude_deg",
		"POS_Altitude_ft",
	}
}

// timestampLayouts are tried in order when normalizing the timestamp column.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02 15:04:05",
	"01/02/2006 15:04:05",
	"2006-01-02",
}

// Options configure a Validator. The zero value of any field falls back to
// the package default, so tests can exercise alternate schemas by overriding
// only what they need.
type Options struct {
	// CoreColumns must all be present (exact, case-sensitive match) or the
	// invocation fails closed.
	CoreColumns []string

	// TimestampColumn is parsed into time values; rows whose cell does not
	// parse are dropped.
	TimestampColumn string

	// Sentinel is the redaction marker replaced with an explicit missing cell.
	Sentinel float64

	// NumericSampleSize bounds how many non-empty cells are inspected when
	// deciding whether a column is numeric or text.
	NumericSampleSize int
}

// DefaultOptions returns the production schema configuration.
func DefaultOptions() Options {
	return Options{
		CoreColumns:       DefaultCoreColumns(),
		TimestampColumn:   DefaultTimestampColumn,
		Sentinel:          DefaultSentinel,
		NumericSampleSize: 32,
	}
}

// Validator runs the ingestion and validation pipeline.
type Validator struct {
	opts Options
}

// NewValidator builds a Validator, filling unset options from the defaults.
func NewValidator(opts Options) *Validator {
	def := DefaultOptions()
	if opts.CoreColumns == nil {
		opts.CoreColumns = def.CoreColumns
	}
	if opts.TimestampColumn == "" {
		opts.TimestampColumn = def.TimestampColumn
	}
	if opts.Sentinel == 0 {
		opts.Sentinel = def.Sentinel
	}
	if opts.NumericSampleSize <= 0 {
		opts.NumericSampleSize = def.NumericSampleSize
	}
	return &Validator{opts: opts}
}

// Validate ingests one telemetry CSV stream. On failure the table is nil and
// the report's warnings carry the reason; on success the table satisfies the
// invariants documented on Table and the report lists every repair made.
func (v *Validator) Validate(r io.Reader) (table *Table, report Report) {
	report = newReport()

	// Any unexpected internal failure is fatal for the invocation but must
	// not escape to the caller as a panic.
	defer func() {
		if rec := recover(); rec != nil {
			table = nil
			report.Status = StatusFailure
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("validation aborted by internal error: %v", rec))
		}
	}()

	data, err := io.ReadAll(r)
	if err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("failed to read file: %v", err))
		return nil, report
	}
	data = sanitizeUTF8(stripBOM(data))
	if len(bytes.TrimSpace(data)) == 0 {
		report.Warnings = append(report.Warnings, "file is empty")
		return nil, report
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("failed to parse file: %v", err))
		return nil, report
	}
	if len(records) == 0 {
		report.Warnings = append(report.Warnings, "no header row found")
		return nil, report
	}

	header := records[0]
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if dup := firstDuplicate(header); dup != "" {
		report.Warnings = append(report.Warnings, fmt.Sprintf("duplicate column name: %s", dup))
		return nil, report
	}

	// Fail closed when any core column is absent.
	var missing []string
	for _, core := range v.opts.CoreColumns {
		if !slices.Contains(header, core) {
			missing = append(missing, core)
		}
	}
	if len(missing) > 0 {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("data is missing essential columns: %s", strings.Join(missing, ", ")))
		return nil, report
	}

	rows := records[1:]
	tsIdx := slices.Index(header, v.opts.TimestampColumn)

	// Timestamp normalization: rows that do not parse are dropped, reported
	// as one aggregate warning rather than per row.
	times := make([]time.Time, 0, len(rows))
	kept := make([][]string, 0, len(rows))
	for _, row := range rows {
		ts, ok := parseTimestamp(row[tsIdx])
		if !ok {
			continue
		}
		times = append(times, ts)
		kept = append(kept, row)
	}
	if len(kept) < len(rows) {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("some timestamps were invalid; removed %d rows", len(rows)-len(kept)))
	}

	columns := make([]Column, len(header))
	for j, name := range header {
		if j == tsIdx {
			columns[j] = Column{
				Name:  name,
				Kind:  KindTime,
				Times: times,
				Valid: trueMask(len(kept)),
			}
			continue
		}
		// Core columns are numeric by contract: a stray textual cell becomes
		// missing and its row is dropped below, never a text reclassification.
		if slices.Contains(v.opts.CoreColumns, name) || v.classifyNumeric(kept, j) {
			columns[j] = v.buildNumericColumn(name, kept, j, &report)
		} else {
			columns[j] = buildTextColumn(name, kept, j)
		}
	}

	// Core-completeness enforcement: after redaction masking, rows still
	// missing a core value are dropped with a single aggregate count.
	keep := make([]bool, len(kept))
	for i := range keep {
		keep[i] = true
	}
	dropped := 0
	for _, core := range v.opts.CoreColumns {
		j := slices.Index(header, core)
		for i := range keep {
			if keep[i] && !columns[j].Valid[i] {
				keep[i] = false
				dropped++
			}
		}
	}
	if dropped > 0 {
		for j := range columns {
			columns[j] = filterColumn(columns[j], keep)
		}
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("dropped %d rows due to missing core data", dropped))
	}

	table, err = NewTable(columns)
	if err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("failed to assemble table: %v", err))
		return nil, report
	}

	report.Subsystems, report.Payloads = Discover(header)
	report.Status = StatusSuccess
	return table, report
}

// classifyNumeric decides whether a column holds numbers by sampling cell
// values, instead of coercing every cell and relying on textual columns
// happening to fail wholesale. Columns with no non-empty cells count as
// numeric (all-missing), matching how an empty sensor column behaves.
func (v *Validator) classifyNumeric(rows [][]string, j int) bool {
	sampled := 0
	for _, row := range rows {
		cell := strings.TrimSpace(row[j])
		if cell == "" {
			continue
		}
		if _, err := strconv.ParseFloat(cell, 64); err != nil {
			return false
		}
		sampled++
		if sampled >= v.opts.NumericSampleSize {
			break
		}
	}
	return true
}

// buildNumericColumn coerces cells to float64. Empty and unparseable cells
// become missing; sentinel-valued cells become missing and put the column on
// the redacted list exactly once.
func (v *Validator) buildNumericColumn(name string, rows [][]string, j int, report *Report) Column {
	col := Column{
		Name:   name,
		Kind:   KindNumeric,
		Floats: make([]float64, len(rows)),
		Valid:  make([]bool, len(rows)),
	}
	redacted := false
	for i, row := range rows {
		cell := strings.TrimSpace(row[j])
		val, err := strconv.ParseFloat(cell, 64)
		if cell == "" || err != nil {
			col.Floats[i] = math.NaN()
			continue
		}
		if val == v.opts.Sentinel {
			col.Floats[i] = math.NaN()
			redacted = true
			continue
		}
		col.Floats[i] = val
		col.Valid[i] = true
	}
	if redacted {
		report.RedactedColumns = append(report.RedactedColumns, name)
	}
	return col
}

func buildTextColumn(name string, rows [][]string, j int) Column {
	col := Column{
		Name:    name,
		Kind:    KindText,
		Strings: make([]string, len(rows)),
		Valid:   make([]bool, len(rows)),
	}
	for i, row := range rows {
		cell := strings.TrimSpace(row[j])
		col.Strings[i] = cell
		col.Valid[i] = cell != ""
	}
	return col
}

func parseTimestamp(cell string) (time.Time, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, cell); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func filterColumn(col Column, keep []bool) Column {
	out := Column{Name: col.Name, Kind: col.Kind}
	for i, k := range keep {
		if !k {
			continue
		}
		switch col.Kind {
		case KindTime:
			out.Times = append(out.Times, col.Times[i])
		case KindNumeric:
			out.Floats = append(out.Floats, col.Floats[i])
		default:
			out.Strings = append(out.Strings, col.Strings[i])
		}
		out.Valid = append(out.Valid, col.Valid[i])
	}
	if out.Valid == nil {
		out.Valid = []bool{}
		switch col.Kind {
		case KindTime:
			out.Times = []time.Time{}
		case KindNumeric:
			out.Floats = []float64{}
		default:
			out.Strings = []string{}
		}
	}
	return out
}

func trueMask(n int) []bool {
	mask := make([]bool, n)
	for i := range mask {
		mask[i] = true
	}
	return mask
}

func firstDuplicate(names []string) string {
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			return name
		}
		seen[name] = true
	}
	return ""
}
