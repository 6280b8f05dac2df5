package engine

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Format is a recognized table file format.
type Format uint8

const (
	FormatCSV Format = iota + 1
	FormatTSV
	FormatXLSX
	FormatArrow
)

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatTSV:
		return "tsv"
	case FormatXLSX:
		return "xlsx"
	case FormatArrow:
		return "arrow"
	default:
		return "unknown"
	}
}

// DetectFormat maps a path's extension to a Format.
func DetectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv":
		return FormatCSV, nil
	case ".tsv", ".tab":
		return FormatTSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".arrow", ".ipc":
		return FormatArrow, nil
	}
	return 0, &UnsupportedFormatError{Path: path, Ext: ext}
}

// LoadFile reads a local table file.
func LoadFile(path string) (*Table, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ReadTable(content, format)
}

// ReadTable decodes a table from raw file content.
func ReadTable(content []byte, format Format) (*Table, error) {
	switch format {
	case FormatCSV:
		return readDelimited(content, ',')
	case FormatTSV:
		return readDelimited(content, '\t')
	case FormatXLSX:
		return readSpreadsheet(content)
	case FormatArrow:
		return ReadArrow(bytes.NewReader(content))
	}
	return nil, fmt.Errorf("unknown format %d", format)
}

func readDelimited(content []byte, sep rune) (*Table, error) {
	r := csv.NewReader(bytes.NewReader(content))
	r.Comma = sep
	r.FieldsPerRecord = -1
	// Leading-space trimming would swallow empty tab-separated fields.
	r.TrimLeadingSpace = sep != '\t'

	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read delimited text: %w", err)
		}
		rows = append(rows, rec)
	}
	return fromCells(rows)
}

func readSpreadsheet(content []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: spreadsheet has no sheets", ErrTableShape)
	}
	sheet := sheets[0]
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if err := convertDateCells(f, sheet, rows); err != nil {
		return nil, err
	}
	return fromCells(rows)
}

// convertDateCells rewrites raw serial numbers in date-formatted cells as
// timestamps inferColumn can parse.
func convertDateCells(f *excelize.File, sheet string, rows [][]string) error {
	dateStyles := make(map[int]bool)
	for r, row := range rows {
		for c, cell := range row {
			serial, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				continue
			}
			axis, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			styleID, err := f.GetCellStyle(sheet, axis)
			if err != nil {
				return fmt.Errorf("failed to read style of %s: %w", axis, err)
			}
			isDate, ok := dateStyles[styleID]
			if !ok {
				isDate = isDateStyle(f, styleID)
				dateStyles[styleID] = isDate
			}
			if !isDate {
				continue
			}
			t, err := excelize.ExcelDateToTime(serial, false)
			if err != nil {
				continue
			}
			rows[r][c] = formatCellTime(t)
		}
	}
	return nil
}

func isDateStyle(f *excelize.File, styleID int) bool {
	style, err := f.GetStyle(styleID)
	if err != nil || style == nil {
		return false
	}
	if style.CustomNumFmt != nil {
		return isDateFormat(*style.CustomNumFmt)
	}
	switch {
	case style.NumFmt >= 14 && style.NumFmt <= 22, style.NumFmt >= 45 && style.NumFmt <= 47:
		return true
	}
	return false
}

// isDateFormat reports whether a custom number format code has date or time
// tokens outside quoted literals and bracketed sections.
func isDateFormat(code string) bool {
	var b strings.Builder
	quoted, bracketed := false, false
	for _, r := range code {
		switch {
		case r == '"':
			quoted = !quoted
		case quoted:
		case r == '[':
			bracketed = true
		case r == ']':
			bracketed = false
		case bracketed:
		default:
			b.WriteRune(r)
		}
	}
	return strings.ContainsAny(strings.ToLower(b.String()), "ydmhs")
}

func formatCellTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339Nano)
}

// fromCells turns a header row plus data rows into typed columns.
func fromCells(rows [][]string) (*Table, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no header row", ErrTableShape)
	}
	header := rows[0]
	body := rows[1:]

	// Drop fully blank trailing rows that spreadsheets tend to keep.
	for len(body) > 0 && blank(body[len(body)-1]) {
		body = body[:len(body)-1]
	}

	raw := make([][]string, len(header))
	for c := range header {
		raw[c] = make([]string, len(body))
	}
	for r, row := range body {
		if len(row) > len(header) {
			return nil, fmt.Errorf("%w: row %d has %d fields, header has %d", ErrTableShape, r+2, len(row), len(header))
		}
		for c, cell := range row {
			raw[c][r] = strings.TrimSpace(cell)
		}
	}

	cols := make([]*Column, len(header))
	for c, name := range header {
		cols[c] = inferColumn(strings.TrimSpace(name), raw[c])
	}
	return NewTable(cols...)
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// inferColumn picks Float when every non-empty cell is numeric, then Time,
// falling back to String.
func inferColumn(name string, cells []string) *Column {
	isFloat, isTime, seen := true, true, false
	for _, s := range cells {
		if s == "" {
			continue
		}
		seen = true
		if isFloat {
			if _, err := strconv.ParseFloat(s, 64); err != nil {
				isFloat = false
			}
		}
		if isTime {
			if _, ok := parseTime(s); !ok {
				isTime = false
			}
		}
		if !isFloat && !isTime {
			break
		}
	}

	switch {
	case seen && isFloat:
		vals := make([]float64, len(cells))
		for i, s := range cells {
			if s == "" {
				vals[i] = math.NaN()
				continue
			}
			vals[i], _ = strconv.ParseFloat(s, 64)
		}
		return NewFloatColumn(name, vals)
	case seen && isTime:
		vals := make([]time.Time, len(cells))
		for i, s := range cells {
			if s != "" {
				vals[i], _ = parseTime(s)
			}
		}
		return NewTimeColumn(name, vals)
	default:
		return NewStringColumn(name, cells)
	}
}

var timeLayouts = []string{
	time.DateOnly,
	time.RFC3339Nano,
	time.DateTime,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"01/02/2006",
	"1/2/2006",
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
