package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrCorruptFile       = errors.New("unable to read file as a table")
	ErrNoHeader          = errors.New("file has no header row")
)

var zipMagic = []byte("PK\x03\x04")

// DetectFormat chooses the table format from the file name extension. Files without an
// extension are sniffed: zip archives are workbooks, anything else is read as csv.
func DetectFormat(name string, r *bufio.Reader) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv", ".txt":
		return FormatCSV, nil
	case "":
		magic, _ := r.Peek(len(zipMagic))
		if bytes.Equal(magic, zipMagic) {
			return FormatXLSX, nil
		}
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%q, %w", ext, ErrUnsupportedFormat)
	}
}

// Read parses an uploaded file into a table. The name is only used to choose the format.
func Read(name string, r io.Reader) (*Table, error) {
	br := bufio.NewReader(r)
	format, err := DetectFormat(name, br)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatXLSX:
		return readXLSX(br)
	default:
		return readCSV(br)
	}
}

func readCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("unable to read csv, %w: %w", ErrCorruptFile, err)
	}

	header, body := splitHeader(records)
	if header == nil {
		return nil, ErrNoHeader
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	for i, row := range body {
		if extra := trailingCells(row, len(header)); extra != "" {
			return nil, fmt.Errorf("row %d has %d fields but the header has %d, %w",
				i+2, len(row), len(header), ErrCorruptFile)
		}
	}
	return NewTable(FormatCSV, header, body), nil
}

func readXLSX(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("unable to open workbook, %w: %w", ErrCorruptFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets, %w", ErrCorruptFile)
	}

	// dates are kept as serial numbers and converted during normalization
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("unable to read sheet %q, %w: %w", sheets[0], ErrCorruptFile, err)
	}

	header, body := splitHeader(rows)
	if header == nil {
		return nil, ErrNoHeader
	}

	t := NewTable(FormatXLSX, header, body)
	props, err := f.GetWorkbookProps()
	if err == nil && props.Date1904 != nil {
		t.Date1904 = *props.Date1904
	}
	return t, nil
}

// splitHeader returns the first row with a non-empty cell as the header and every row
// after it as the body
func splitHeader(records [][]string) ([]string, [][]string) {
	for i, row := range records {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				return row, records[i+1:]
			}
		}
	}
	return nil, nil
}

// trailingCells returns the first non-empty cell past the header width
func trailingCells(row []string, width int) string {
	for i := width; i < len(row); i++ {
		if strings.TrimSpace(row[i]) != "" {
			return row[i]
		}
	}
	return ""
}
