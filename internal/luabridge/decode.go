package luabridge

import (
	"strconv"
	"strings"

	"github.com/Shopify/go-lua"
)

// YearRange is the normalized result of the range-query entry point.
type YearRange struct {
	Min int
	Max int
}

// ShapeError reports a range-query return value matching none of the known
// shapes. It carries the observed Lua type for diagnostics.
type ShapeError struct {
	LuaType string
}

func (e *ShapeError) Error() string {
	return "unexpected return shape from get_available_years: " + e.LuaType
}

// yearRangeDecoder attempts to read a YearRange from the table at index,
// declining with ok=false when the shape does not match.
type yearRangeDecoder func(l *lua.State, index int) (r YearRange, ok bool)

// yearRangeDecoders is the fixed priority order for shape decoding: a plain
// mapping first, then name-indexed vectors, then a parallel names/values
// layout.
var yearRangeDecoders = []yearRangeDecoder{
	decodeScalarFields,
	decodeVectorFields,
	decodeParallelNames,
}

// decodeYearRange normalizes the value at index into a YearRange, trying each
// known shape in order.
func (b *Bridge) decodeYearRange(index int) (YearRange, error) {
	l := b.state
	index = l.AbsIndex(index)
	if l.TypeOf(index) == lua.TypeTable {
		for _, decode := range yearRangeDecoders {
			if r, ok := decode(l, index); ok {
				return r, nil
			}
		}
	}
	return YearRange{}, &ShapeError{LuaType: typeName(l, index)}
}

// decodeScalarFields handles { min_year = 2015, max_year = 2025 }.
func decodeScalarFields(l *lua.State, index int) (YearRange, bool) {
	min, ok := fieldInt(l, index, "min_year")
	if !ok {
		return YearRange{}, false
	}
	max, ok := fieldInt(l, index, "max_year")
	if !ok {
		return YearRange{}, false
	}
	return YearRange{Min: min, Max: max}, true
}

// decodeVectorFields handles { min_year = {2015}, max_year = {2025} },
// extracting each field by name and taking its first element.
func decodeVectorFields(l *lua.State, index int) (YearRange, bool) {
	min, ok := fieldFirstInt(l, index, "min_year")
	if !ok {
		return YearRange{}, false
	}
	max, ok := fieldFirstInt(l, index, "max_year")
	if !ok {
		return YearRange{}, false
	}
	return YearRange{Min: min, Max: max}, true
}

// decodeParallelNames handles { names = {"min_year", "max_year"}, 2015, 2025 },
// scanning positions and matching each name against its parallel value.
func decodeParallelNames(l *lua.State, index int) (YearRange, bool) {
	l.Field(index, "names")
	if l.TypeOf(-1) != lua.TypeTable {
		l.Pop(1)
		return YearRange{}, false
	}
	namesIndex := l.AbsIndex(-1)

	var r YearRange
	var haveMin, haveMax bool
	for i := 1; ; i++ {
		l.RawGetInt(namesIndex, i)
		if l.TypeOf(-1) == lua.TypeNil {
			l.Pop(1)
			break
		}
		name, _ := l.ToString(-1)
		l.Pop(1)

		if name != "min_year" && name != "max_year" {
			continue
		}
		l.RawGetInt(index, i)
		value, ok := toInt(l, -1)
		l.Pop(1)
		if !ok {
			continue
		}
		switch name {
		case "min_year":
			r.Min, haveMin = value, true
		case "max_year":
			r.Max, haveMax = value, true
		}
	}
	l.Pop(1)

	return r, haveMin && haveMax
}

// fieldInt reads an integer-coercible scalar field by name.
func fieldInt(l *lua.State, index int, name string) (int, bool) {
	l.Field(index, name)
	defer l.Pop(1)
	return toInt(l, -1)
}

// fieldFirstInt reads the first element of an array-valued field by name.
func fieldFirstInt(l *lua.State, index int, name string) (int, bool) {
	l.Field(index, name)
	if l.TypeOf(-1) != lua.TypeTable {
		l.Pop(1)
		return 0, false
	}
	l.RawGetInt(l.AbsIndex(-1), 1)
	value, ok := toInt(l, -1)
	l.Pop(2)
	return value, ok
}

// toInt coerces the value at index to an integer, accepting Lua numbers and
// numeric strings.
func toInt(l *lua.State, index int) (int, bool) {
	switch l.TypeOf(index) {
	case lua.TypeNumber:
		value, ok := l.ToNumber(index)
		if !ok {
			return 0, false
		}
		return int(value), true
	case lua.TypeString:
		s, _ := l.ToString(index)
		value, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0, false
		}
		return value, true
	default:
		return 0, false
	}
}
