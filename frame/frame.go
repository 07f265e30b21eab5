// Package frame provides the native tabular representation used by the
// meschooldata client.
//
// A Frame is an ordered set of named columns, each holding a slice of cell
// values. The package imposes no schema: whatever columns the external
// package returns are passed through unchanged. Cell values are limited to
// the types that cross the language bridge (int, float64, string, bool, nil).
package frame

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrDuplicateColumn indicates a column name is already present in the frame.
var ErrDuplicateColumn = errors.New("column already exists")

// ErrLengthMismatch indicates a column length differs from the frame's rows.
var ErrLengthMismatch = errors.New("column length does not match frame")

// ErrUnknownColumn indicates a requested column is not in the frame.
var ErrUnknownColumn = errors.New("unknown column")

// Column is a named sequence of cell values.
type Column struct {
	Name   string
	Values []any
}

// Frame is an ordered collection of named columns of equal length.
type Frame struct {
	columns []Column
	index   map[string]int
}

// New creates an empty frame.
func New() *Frame {
	return &Frame{index: map[string]int{}}
}

// FromColumns creates a frame from the given columns, preserving order.
func FromColumns(columns []Column) (*Frame, error) {
	f := New()
	for _, col := range columns {
		if err := f.AddColumn(col.Name, col.Values); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// AddColumn appends a column to the frame. The column must have a unique name
// and, unless it is the first column, the same length as the existing ones.
func (f *Frame) AddColumn(name string, values []any) error {
	if _, ok := f.index[name]; ok {
		return fmt.Errorf("add column %q: %w", name, ErrDuplicateColumn)
	}
	if len(f.columns) > 0 && len(values) != f.NumRows() {
		return fmt.Errorf("add column %q: %w (got %d, want %d)",
			name, ErrLengthMismatch, len(values), f.NumRows())
	}
	f.index[name] = len(f.columns)
	f.columns = append(f.columns, Column{Name: name, Values: values})
	return nil
}

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	names := make([]string, len(f.columns))
	for i, col := range f.columns {
		names[i] = col.Name
	}
	return names
}

// Column returns the values of the named column.
func (f *Frame) Column(name string) ([]any, error) {
	i, ok := f.index[name]
	if !ok {
		return nil, fmt.Errorf("column %q: %w", name, ErrUnknownColumn)
	}
	return f.columns[i].Values, nil
}

// NumRows returns the number of rows in the frame.
func (f *Frame) NumRows() int {
	if len(f.columns) == 0 {
		return 0
	}
	return len(f.columns[0].Values)
}

// NumColumns returns the number of columns in the frame.
func (f *Frame) NumColumns() int {
	return len(f.columns)
}

// Row returns the i-th row as a column-name-to-value map.
func (f *Frame) Row(i int) map[string]any {
	row := make(map[string]any, len(f.columns))
	for _, col := range f.columns {
		row[col.Name] = col.Values[i]
	}
	return row
}

// Equal reports whether two frames have the same columns, in the same order,
// with the same values.
func (f *Frame) Equal(other *Frame) bool {
	if f == nil || other == nil {
		return f == other
	}
	if len(f.columns) != len(other.columns) {
		return false
	}
	for i, col := range f.columns {
		if col.Name != other.columns[i].Name {
			return false
		}
		if !reflect.DeepEqual(col.Values, other.columns[i].Values) {
			return false
		}
	}
	return true
}
