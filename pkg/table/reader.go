package table

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadOptions tune how inputs are read.
type ReadOptions struct {
	// Sheet selects the workbook sheet. Empty picks the first sheet that is
	// not a metadata sheet.
	Sheet string
	// Language is recorded on every table read.
	Language string
}

// metadataSheets are skipped when no sheet is configured.
var metadataSheets = map[string]bool{
	"info":     true,
	"metadata": true,
	"about":    true,
	"readme":   true,
	"notes":    true,
}

// IsSupported reports whether path has an extension ReadFile understands.
func IsSupported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".csv", ".tsv":
		return true
	default:
		return false
	}
}

// ReadFile reads an .xlsx, .csv or .tsv file.
func ReadFile(path string, options ReadOptions) (*Table, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	var table *Table
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		table, err = ReadExcel(bytes.NewReader(content), options.Sheet)
	case ".csv":
		table, err = ReadDelimited(bytes.NewReader(content), ',')
	case ".tsv":
		table, err = ReadDelimited(bytes.NewReader(content), '\t')
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedInput, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	table.Source = path
	table.Language = options.Language
	return table, nil
}

// ReadFolder reads every supported file of dir in lexical order. Other files
// and subdirectories are ignored.
func ReadFolder(dir string, options ReadOptions) ([]*Table, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list input folder: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), "~$") || !IsSupported(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	tables := make([]*Table, 0, len(names))
	for _, name := range names {
		table, err := ReadFile(filepath.Join(dir, name), options)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	return tables, nil
}

// ReadExcel reads one sheet of a workbook.
func ReadExcel(reader io.Reader, sheet string) (*Table, error) {
	workbook, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyTable
	}

	if sheet == "" {
		for _, candidate := range sheets {
			if !metadataSheets[strings.ToLower(candidate)] {
				sheet = candidate
				break
			}
		}
		if sheet == "" {
			sheet = sheets[len(sheets)-1]
		}
	}

	records, err := workbook.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return fromRecords(records)
}

// ReadDelimited reads CSV-like content with the given separator.
func ReadDelimited(reader io.Reader, separator rune) (*Table, error) {
	csvReader := csv.NewReader(reader)
	csvReader.Comma = separator
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse delimited input: %w", err)
	}
	return fromRecords(records)
}

// fromRecords treats the first record as the header row. Cells are trimmed.
// Blank rows inside the sheet stay as empty placeholders so row indexes match
// across files of the same layout; trailing blank rows are dropped.
func fromRecords(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, ErrEmptyTable
	}

	headers := make([]string, len(records[0]))
	for index, header := range records[0] {
		headers[index] = strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
	}

	rows := make([][]string, 0, len(records)-1)
	filled := 0
	for _, record := range records[1:] {
		for index := range record {
			record[index] = strings.TrimSpace(record[index])
			if record[index] != "" {
				filled = len(rows) + 1
			}
		}
		rows = append(rows, record)
	}

	return New(headers, rows[:filled]), nil
}
