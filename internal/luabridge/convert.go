package luabridge

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/Shopify/go-lua"

	"github.com/maine-ed-data/meschooldata-go/frame"
)

// ErrFrame marks a tabular value that could not be converted across the
// boundary.
var ErrFrame = errors.New("data frame")

// pushFrame pushes f as a {columns = {...}, rows = n, data = {...}} table.
// The explicit row count lets nil cells survive the crossing; a nil leaves a
// hole in the Lua array, so array length alone cannot recover the column.
func (b *Bridge) pushFrame(f *frame.Frame) {
	l := b.state
	names := f.Columns()

	l.CreateTable(0, 3)

	l.PushInteger(f.NumRows())
	l.SetField(-2, "rows")

	l.CreateTable(len(names), 0)
	for i, name := range names {
		l.PushString(name)
		l.RawSetInt(-2, i+1)
	}
	l.SetField(-2, "columns")

	l.CreateTable(0, len(names))
	for _, name := range names {
		values, err := f.Column(name)
		if err != nil {
			// Columns() just reported the name; this cannot happen.
			panic(err)
		}
		l.CreateTable(len(values), 0)
		for i, v := range values {
			pushCell(l, v)
			l.RawSetInt(-2, i+1)
		}
		l.SetField(-2, name)
	}
	l.SetField(-2, "data")
}

// toFrame converts the table at index into a native frame. Both the explicit
// {columns, data} form and a bare column map are accepted.
func (b *Bridge) toFrame(index int) (*frame.Frame, error) {
	l := b.state
	index = l.AbsIndex(index)
	if l.TypeOf(index) != lua.TypeTable {
		return nil, fmt.Errorf("%w: expected table, got %s", ErrFrame, typeName(l, index))
	}

	l.Field(index, "data")
	if l.TypeOf(-1) != lua.TypeTable {
		l.Pop(1)
		return b.columnsToFrame(index, stringKeys(l, index), -1)
	}
	dataIndex := l.AbsIndex(-1)

	names := b.columnOrder(index)
	if names == nil {
		names = stringKeys(l, dataIndex)
	}
	f, err := b.columnsToFrame(dataIndex, names, b.rowCount(index))
	l.Pop(1)
	return f, err
}

// rowCount reads the rows field, or returns -1 when it is absent.
func (b *Bridge) rowCount(index int) int {
	l := b.state
	l.Field(index, "rows")
	defer l.Pop(1)
	if l.TypeOf(-1) != lua.TypeNumber {
		return -1
	}
	value, ok := l.ToInteger(-1)
	if !ok || value < 0 {
		return -1
	}
	return value
}

// columnOrder reads the columns field, or returns nil when it is absent.
func (b *Bridge) columnOrder(index int) []string {
	l := b.state
	l.Field(index, "columns")
	if l.TypeOf(-1) != lua.TypeTable {
		l.Pop(1)
		return nil
	}
	tableIndex := l.AbsIndex(-1)

	var names []string
	for i := 1; ; i++ {
		l.RawGetInt(tableIndex, i)
		if l.TypeOf(-1) == lua.TypeNil {
			l.Pop(1)
			break
		}
		name, ok := l.ToString(-1)
		l.Pop(1)
		if !ok {
			break
		}
		names = append(names, name)
	}
	l.Pop(1)
	return names
}

// columnsToFrame reads the named array-valued fields of the table at index
// into a frame, in the given column order. rows is the declared row count, or
// -1 when the table carries none; short columns are then padded with nil up
// to it (trailing nil cells), while overlong columns stay an error.
func (b *Bridge) columnsToFrame(index int, names []string, rows int) (*frame.Frame, error) {
	l := b.state
	f := frame.New()
	for _, name := range names {
		l.Field(index, name)
		if l.TypeOf(-1) != lua.TypeTable {
			observed := typeName(l, -1)
			l.Pop(1)
			return nil, fmt.Errorf("%w: column %q is %s, not an array", ErrFrame, name, observed)
		}
		length := b.arrayLength(-1)
		if rows >= 0 {
			if length > rows {
				l.Pop(1)
				return nil, fmt.Errorf("%w: column %q has %d values, want %d", ErrFrame, name, length, rows)
			}
			length = rows
		}
		values := b.toCells(-1, length)
		l.Pop(1)
		if err := f.AddColumn(name, values); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFrame, err)
		}
	}
	return f, nil
}

// arrayLength returns the largest positive integer key of the table at
// index. Unlike the length operator, it sees past holes left by nil cells.
func (b *Bridge) arrayLength(index int) int {
	l := b.state
	index = l.AbsIndex(index)
	maxIndex := 0
	l.PushNil()
	for l.Next(index) {
		if l.TypeOf(-2) == lua.TypeNumber {
			if i, ok := l.ToInteger(-2); ok && i > maxIndex {
				maxIndex = i
			}
		}
		l.Pop(1)
	}
	return maxIndex
}

// toCells reads the first n array slots of the table at index; absent slots
// become nil cells.
func (b *Bridge) toCells(index, n int) []any {
	l := b.state
	index = l.AbsIndex(index)
	values := make([]any, 0, n)
	for i := 1; i <= n; i++ {
		l.RawGetInt(index, i)
		values = append(values, toCell(l, -1))
		l.Pop(1)
	}
	return values
}

// stringKeys returns the sorted string keys of the table at index.
func stringKeys(l *lua.State, index int) []string {
	index = l.AbsIndex(index)
	var keys []string
	l.PushNil()
	for l.Next(index) {
		if l.TypeOf(-2) == lua.TypeString {
			key, _ := l.ToString(-2)
			keys = append(keys, key)
		}
		l.Pop(1)
	}
	sort.Strings(keys)
	return keys
}

func pushCell(l *lua.State, v any) {
	switch value := v.(type) {
	case nil:
		l.PushNil()
	case bool:
		l.PushBoolean(value)
	case int:
		l.PushInteger(value)
	case float64:
		l.PushNumber(value)
	case string:
		l.PushString(value)
	default:
		l.PushString(fmt.Sprint(value))
	}
}

func toCell(l *lua.State, index int) any {
	switch l.TypeOf(index) {
	case lua.TypeString:
		value, _ := l.ToString(index)
		return value
	case lua.TypeNumber:
		value, _ := l.ToNumber(index)
		return normalizeNumber(value)
	case lua.TypeBoolean:
		return l.ToBoolean(index)
	default:
		return nil
	}
}

// normalizeNumber collapses integral Lua numbers to int so enrollment counts
// and years round-trip as integers.
func normalizeNumber(value float64) any {
	if math.Mod(value, 1) == 0 {
		return int(value)
	}
	return value
}

func typeName(l *lua.State, index int) string {
	switch l.TypeOf(index) {
	case lua.TypeNil:
		return "nil"
	case lua.TypeBoolean:
		return "boolean"
	case lua.TypeNumber:
		return "number"
	case lua.TypeString:
		return "string"
	case lua.TypeTable:
		return "table"
	case lua.TypeFunction:
		return "function"
	case lua.TypeUserData, lua.TypeLightUserData:
		return "userdata"
	case lua.TypeThread:
		return "thread"
	default:
		return "unknown"
	}
}

// pushIntSequence pushes the slice as a 1-based Lua array.
func (b *Bridge) pushIntSequence(values []int) {
	l := b.state
	l.CreateTable(len(values), 0)
	for i, v := range values {
		l.PushInteger(v)
		l.RawSetInt(-2, i+1)
	}
}
