// Package ingest reads uploaded spreadsheets into an in-memory table of string cells
package ingest

import (
	"strings"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// naMarkers are the cell values treated as missing, matching the spreadsheet conventions
// of common data tools
var naMarkers = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

// IsNA reports whether a raw cell value marks a missing value
func IsNA(v string) bool {
	_, exists := naMarkers[strings.TrimSpace(v)]
	return exists
}

// Table is a raw tabular dataset. Every row has exactly one cell per column and missing
// cells are stored as the empty string.
type Table struct {
	Format Format

	// Date1904 is set for workbooks using the 1904 date system
	Date1904 bool

	Columns []string
	Rows    [][]string
}

// NewTable builds a table from a header and rows, padding short rows and normalizing
// missing markers to the empty string
func NewTable(format Format, columns []string, rows [][]string) *Table {
	t := &Table{
		Format:  format,
		Columns: columns,
		Rows:    make([][]string, 0, len(rows)),
	}
	for _, row := range rows {
		t.Rows = append(t.Rows, t.normalizeRow(row))
	}
	return t
}

func (t *Table) normalizeRow(row []string) []string {
	res := make([]string, len(t.Columns))
	for i := 0; i < len(res) && i < len(row); i++ {
		if IsNA(row[i]) {
			continue
		}
		res[i] = row[i]
	}
	return res
}

// ColumnIndex returns the position of the first column with exactly the given name
func (t *Table) ColumnIndex(name string) (int, bool) {
	if t == nil {
		return -1, false
	}
	for i, col := range t.Columns {
		if col == name {
			return i, true
		}
	}
	return -1, false
}

// Len returns the number of data rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// IsNull reports whether the cell at row i and column j is missing
func (t *Table) IsNull(i, j int) bool {
	return t.Rows[i][j] == ""
}
