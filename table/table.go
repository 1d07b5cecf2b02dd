// Package table renders fixed-width column listings for terminal output,
// accounting for ANSI color sequences when computing widths.
package table

import (
	"fmt"
	"io"
	"strings"

	"memscan/coloransi"
)

// ColumnSpec defines a column's properties
type ColumnSpec struct {
	Header     string
	BlankValue string // Value shown for empty cells (default: "-")
	MinWidth   int
}

// Table represents a formatted table
type Table struct {
	columns []ColumnSpec
	rows    [][]string
	widths  []int
}

// New creates a table with the given column specifications
func New(cols ...ColumnSpec) *Table {
	t := &Table{
		columns: cols,
		widths:  make([]int, len(cols)),
	}

	for i, col := range cols {
		t.widths[i] = col.MinWidth
		if w := len(col.Header); w > t.widths[i] {
			t.widths[i] = w
		}
		if t.columns[i].BlankValue == "" {
			t.columns[i].BlankValue = "-"
		}
	}

	return t
}

// AddRow adds a row of data to the table. Missing cells get the column's
// blank value.
func (t *Table) AddRow(data ...string) {
	row := make([]string, len(t.columns))
	for i := range row {
		if i < len(data) && data[i] != "" {
			row[i] = data[i]
		} else {
			row[i] = t.columns[i].BlankValue
		}

		if w := coloransi.VisibleLength(row[i]); w > t.widths[i] {
			t.widths[i] = w
		}
	}

	t.rows = append(t.rows, row)
}

// Len returns the number of data rows added so far
func (t *Table) Len() int { return len(t.rows) }

// Render writes the table to the given writer
func (t *Table) Render(w io.Writer) error {
	headers := make([]string, len(t.columns))
	for i, col := range t.columns {
		headers[i] = t.pad(col.Header, t.widths[i])
	}
	if _, err := fmt.Fprintln(w, strings.Join(headers, "  ")); err != nil {
		return err
	}

	sep := make([]string, len(t.columns))
	for i := range sep {
		sep[i] = strings.Repeat("-", t.widths[i])
	}
	if _, err := fmt.Fprintln(w, strings.Join(sep, "  ")); err != nil {
		return err
	}

	for _, row := range t.rows {
		cells := make([]string, len(row))
		for i, val := range row {
			cells[i] = t.pad(val, t.widths[i])
		}
		if _, err := fmt.Fprintln(w, strings.Join(cells, "  ")); err != nil {
			return err
		}
	}

	return nil
}

// pad pads a string to the given visible width
func (t *Table) pad(s string, width int) string {
	visible := coloransi.VisibleLength(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}
