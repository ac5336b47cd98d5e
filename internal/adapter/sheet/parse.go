// Package sheet decodes tabular case files (XLSX, CSV, JSON) into raw rows.
package sheet

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/couchcryptid/disease-map-service/internal/domain"
	"github.com/xuri/excelize/v2"
)

// Format identifies a supported source encoding.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ErrUnsupportedFormat is returned for file extensions with no decoder.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ErrUnexpectedShape is returned for well-formed JSON that is not an array of
// objects. It wraps domain.ErrEmptyDataset: the file arrived but holds no rows.
var ErrUnexpectedShape = fmt.Errorf("unexpected shape: %w", domain.ErrEmptyDataset)

// DetectFormat picks a decoder from the file name extension.
func DetectFormat(name string) (Format, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, path.Ext(name))
	}
}

// Parse decodes data according to the extension of name. A file that decodes
// but has no data rows returns an empty table and a nil error; deciding whether
// that is a problem is up to the caller.
func Parse(name string, data []byte) (*domain.RawTable, error) {
	format, err := DetectFormat(name)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatXLSX:
		return ParseXLSX(bytes.NewReader(data))
	case FormatCSV:
		return ParseCSV(bytes.NewReader(data))
	default:
		return ParseJSON(data)
	}
}

// Decoder adapts Parse to the pipeline's decode stage.
type Decoder struct{}

func (Decoder) Decode(name string, data []byte) (*domain.RawTable, error) {
	return Parse(name, data)
}

// ParseXLSX reads the first worksheet. The first row is the header; blank
// cells are left out of the row, the way spreadsheet-to-JSON converters do.
func ParseXLSX(r io.Reader) (*domain.RawTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &domain.RawTable{}, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return fromGrid(rows), nil
}

// ParseCSV reads a comma-separated table with a header row. Rows may have
// fewer or more fields than the header.
func ParseCSV(r io.Reader) (*domain.RawTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return fromGrid(rows), nil
}

// fromGrid turns a header-first string grid into a RawTable. Blank header
// cells and blank values are skipped. A repeated header keeps only its first
// column.
func fromGrid(grid [][]string) *domain.RawTable {
	if len(grid) == 0 {
		return &domain.RawTable{}
	}
	header := make([]string, len(grid[0]))
	columns := make([]string, 0, len(grid[0]))
	seen := make(map[string]bool, len(grid[0]))
	for i, h := range grid[0] {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		header[i] = h
		columns = append(columns, h)
	}

	table := &domain.RawTable{Columns: columns, Rows: make([]domain.RawRow, 0, len(grid)-1)}
	for _, line := range grid[1:] {
		row := make(domain.RawRow, len(columns))
		for i, cell := range line {
			if i >= len(header) || header[i] == "" || strings.TrimSpace(cell) == "" {
				continue
			}
			row[header[i]] = cell
		}
		if len(row) == 0 {
			continue
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

// ParseJSON reads an array of flat objects. Numbers are kept as json.Number
// and the column order follows first appearance across objects.
func ParseJSON(data []byte) (*domain.RawTable, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, fmt.Errorf("read json: expected an array of objects: %w", ErrUnexpectedShape)
	}

	table := &domain.RawTable{}
	seen := make(map[string]bool)
	for dec.More() {
		row, order, err := decodeObject(dec)
		if err != nil {
			return nil, fmt.Errorf("read json row %d: %w", len(table.Rows)+1, err)
		}
		for _, k := range order {
			if !seen[k] {
				seen[k] = true
				table.Columns = append(table.Columns, k)
			}
		}
		table.Rows = append(table.Rows, row)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}
	return table, nil
}

// decodeObject reads one object token by token so key order survives.
func decodeObject(dec *json.Decoder) (domain.RawRow, []string, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("expected an object: %w", ErrUnexpectedShape)
	}

	row := make(domain.RawRow)
	var order []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, nil, errors.New("expected an object key")
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, nil, err
		}
		if _, dup := row[key]; dup {
			continue
		}
		order = append(order, key)
		row[key] = v
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return row, order, nil
}
