// Package table reads tabular taxonomy inputs into header-addressed rows.
package table

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedInput is returned for files that are not .xlsx, .csv or .tsv.
	ErrUnsupportedInput = errors.New("unsupported input file")

	// ErrEmptyTable is returned when an input has no header row.
	ErrEmptyTable = errors.New("input has no header row")

	// ErrMissingColumn is returned when a column is addressed that the table lacks.
	ErrMissingColumn = errors.New("missing column")
)

// Table is a header row plus data rows, all padded to the header width.
type Table struct {
	// Source is the path the table was read from, if any.
	Source string
	// Language is the language of the labels in this table.
	Language string

	headers []string
	index   map[string]int
	rows    [][]string
}

// New builds a table. Rows shorter than headers are padded with empty cells
// and longer rows are truncated. When a header repeats, lookups resolve to
// its first occurrence.
func New(headers []string, rows [][]string) *Table {
	table := &Table{
		headers: append([]string(nil), headers...),
		rows:    make([][]string, 0, len(rows)),
	}
	table.reindex()

	for _, row := range rows {
		cells := make([]string, len(headers))
		copy(cells, row)
		table.rows = append(table.rows, cells)
	}

	return table
}

func (table *Table) reindex() {
	table.index = make(map[string]int, len(table.headers))
	for position, header := range table.headers {
		if _, exists := table.index[header]; !exists {
			table.index[header] = position
		}
	}
}

// Headers returns the column names in sheet order.
func (table *Table) Headers() []string {
	return append([]string(nil), table.headers...)
}

// Len returns the number of data rows.
func (table *Table) Len() int {
	return len(table.rows)
}

// HasColumn reports whether a column with that exact name exists.
func (table *Table) HasColumn(name string) bool {
	_, exists := table.index[name]
	return exists
}

// Row returns the data row at index.
func (table *Table) Row(index int) Row {
	return Row{Index: index, table: table, cells: table.rows[index]}
}

// Rows returns every data row in order.
func (table *Table) Rows() []Row {
	rows := make([]Row, len(table.rows))
	for index := range table.rows {
		rows[index] = table.Row(index)
	}
	return rows
}

// Column returns every value of the named column.
func (table *Table) Column(name string) ([]string, error) {
	position, exists := table.index[name]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
	}

	values := make([]string, len(table.rows))
	for index, cells := range table.rows {
		values[index] = cells[position]
	}
	return values, nil
}

// RenameColumns renames headers found in renames (old name to new name) and
// returns how many were renamed.
func (table *Table) RenameColumns(renames map[string]string) int {
	renamed := 0
	for position, header := range table.headers {
		if target, ok := renames[header]; ok && target != header {
			table.headers[position] = target
			renamed++
		}
	}
	if renamed > 0 {
		table.reindex()
	}
	return renamed
}

// UniqueBy returns the rows with distinct values in column, keeping the first
// occurrence in row order.
func (table *Table) UniqueBy(column string) ([]Row, error) {
	position, exists := table.index[column]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, column)
	}

	seen := make(map[string]bool, len(table.rows))
	unique := make([]Row, 0, len(table.rows))
	for index, cells := range table.rows {
		key := cells[position]
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, table.Row(index))
	}
	return unique, nil
}

// Row is one data record. Index is its position in the table.
type Row struct {
	Index int
	table *Table
	cells []string
}

// Get returns the cell under column, or "" when the column does not exist.
func (row Row) Get(column string) string {
	value, _ := row.Lookup(column)
	return value
}

// Lookup returns the cell under column and whether the column exists.
func (row Row) Lookup(column string) (string, bool) {
	if row.table == nil {
		return "", false
	}
	position, exists := row.table.index[column]
	if !exists {
		return "", false
	}
	return row.cells[position], true
}
