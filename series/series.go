// Package series validates a raw table and normalizes it into a dated revenue series
package series

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/aouyang1/revforecast/ingest"
	"github.com/xuri/excelize/v2"
)

const (
	ColumnDate    = "Date"
	ColumnRevenue = "Revenue"
)

var (
	ErrMissingColumns    = errors.New("missing required columns")
	ErrUnparseableDate   = errors.New("unable to parse date")
	ErrNonNumericValue   = errors.New("non-numeric revenue value")
	ErrNoRows            = errors.New("no complete rows")
	ErrSeriesLenMismatch = errors.New("series times and values have different lengths")
)

// dateLayouts are tried in order for text dates
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"2006-01",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// MissingColumnsError names every required column absent from a table
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingColumns, strings.Join(e.Columns, ", "))
}

func (e *MissingColumnsError) Is(target error) bool {
	return target == ErrMissingColumns
}

// TimeSeries is a dated revenue series in input order. Every point has a non-zero UTC
// time and a finite value. Times need not be unique or sorted.
type TimeSeries struct {
	T []time.Time
	Y []float64
}

// New builds a time series from parallel time and value slices
func New(t []time.Time, y []float64) (*TimeSeries, error) {
	if len(t) != len(y) {
		return nil, fmt.Errorf("%d times and %d values, %w", len(t), len(y), ErrSeriesLenMismatch)
	}
	if len(t) == 0 {
		return nil, ErrNoRows
	}
	ts := &TimeSeries{
		T: make([]time.Time, len(t)),
		Y: make([]float64, len(y)),
	}
	for i := range t {
		if t[i].IsZero() {
			return nil, fmt.Errorf("row %d has no date, %w", i+1, ErrUnparseableDate)
		}
		if math.IsNaN(y[i]) || math.IsInf(y[i], 0) {
			return nil, fmt.Errorf("row %d has value %f, %w", i+1, y[i], ErrNonNumericValue)
		}
		ts.T[i] = t[i].UTC()
		ts.Y[i] = y[i]
	}
	return ts, nil
}

// Len returns the number of points
func (s *TimeSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.T)
}

// Table renders the series back into a raw table with canonical Date and Revenue columns.
// Normalizing the result reproduces the series.
func (s *TimeSeries) Table() *ingest.Table {
	rows := make([][]string, 0, s.Len())
	for i := 0; i < s.Len(); i++ {
		rows = append(rows, []string{
			s.T[i].Format(time.RFC3339Nano),
			strconv.FormatFloat(s.Y[i], 'g', -1, 64),
		})
	}
	return ingest.NewTable(ingest.FormatCSV, []string{ColumnDate, ColumnRevenue}, rows)
}

// Normalize checks that the table has the Date and Revenue columns, drops rows missing
// either value and parses the remaining rows. Other columns are ignored.
func Normalize(t *ingest.Table) (*TimeSeries, error) {
	dateIdx, hasDate := t.ColumnIndex(ColumnDate)
	revIdx, hasRevenue := t.ColumnIndex(ColumnRevenue)

	var missing []string
	if !hasDate {
		missing = append(missing, ColumnDate)
	}
	if !hasRevenue {
		missing = append(missing, ColumnRevenue)
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	ts := &TimeSeries{
		T: make([]time.Time, 0, t.Len()),
		Y: make([]float64, 0, t.Len()),
	}
	for i := 0; i < t.Len(); i++ {
		if t.IsNull(i, dateIdx) || t.IsNull(i, revIdx) {
			continue
		}

		// data rows are numbered after the header row
		rowNum := i + 2

		date, err := ParseDate(t.Rows[i][dateIdx], t.Format == ingest.FormatXLSX, t.Date1904)
		if err != nil {
			return nil, fmt.Errorf("row %d, %w", rowNum, err)
		}
		val, err := ParseValue(t.Rows[i][revIdx])
		if err != nil {
			return nil, fmt.Errorf("row %d, %w", rowNum, err)
		}
		ts.T = append(ts.T, date)
		ts.Y = append(ts.Y, val)
	}

	if ts.Len() == 0 {
		return nil, ErrNoRows
	}
	return ts, nil
}

// ParseDate parses a date cell into UTC. Workbook cells holding a number are Excel serial
// dates.
func ParseDate(v string, serial, date1904 bool) (time.Time, error) {
	v = strings.TrimSpace(v)
	if serial {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			t, err := excelize.ExcelDateToTime(f, date1904)
			if err != nil {
				return time.Time{}, fmt.Errorf("%q, %w: %w", v, ErrUnparseableDate, err)
			}
			return t.UTC(), nil
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil && !t.IsZero() {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%q, %w", v, ErrUnparseableDate)
}

// currencySymbols may lead or trail a revenue cell
const currencySymbols = "$€£¥"

// ParseValue parses a revenue cell allowing currency symbols and thousands separators.
// Commas must group thousands, so a decimal comma such as 1,5 is rejected.
func ParseValue(v string) (float64, error) {
	clean := strings.TrimSpace(v)
	sign := ""
	if strings.HasPrefix(clean, "-") {
		sign = "-"
		clean = clean[1:]
	}
	clean = strings.TrimSpace(strings.Trim(clean, currencySymbols))
	if strings.Contains(clean, ",") {
		if !thousandsGrouped(clean) {
			return 0, fmt.Errorf("%q, commas must separate thousands, %w", v, ErrNonNumericValue)
		}
		clean = strings.ReplaceAll(clean, ",", "")
	}
	f, err := strconv.ParseFloat(sign+clean, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q, %w", v, ErrNonNumericValue)
	}
	return f, nil
}

func thousandsGrouped(v string) bool {
	intPart, frac, _ := strings.Cut(v, ".")
	if strings.Contains(frac, ",") {
		return false
	}
	groups := strings.Split(intPart, ",")
	if len(groups[0]) == 0 || len(groups[0]) > 3 {
		return false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return false
		}
	}
	return true
}
