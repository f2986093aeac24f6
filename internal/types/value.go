// Package types defines the runtime values of the target engine.
package types

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind represents the type of an engine value.
type Kind uint8

const (
	KindNull  Kind = iota // Unset cell
	KindNum               // Numeric value
	KindStr               // String value
	KindArray             // Array of values
)

// String returns a string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindNum:
		return "num"
	case KindStr:
		return "str"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// Value represents an engine runtime value.
// Uses tagged union pattern. Arrays have value semantics: every
// mutation returns a new Value and leaves the receiver untouched.
type Value struct {
	kind Kind
	num  float64
	str  string
	arr  []Value
}

// Constructors

// Null returns the null value.
func Null() Value {
	return Value{kind: KindNull}
}

// Num creates a numeric value.
func Num(n float64) Value {
	return Value{kind: KindNum, num: n}
}

// Str creates a string value.
func Str(s string) Value {
	return Value{kind: KindStr, str: s}
}

// Bool creates a numeric value from a boolean (1 for true, 0 for false).
func Bool(b bool) Value {
	if b {
		return Num(1)
	}
	return Num(0)
}

// Array creates an array holding a copy of elems.
func Array(elems ...Value) Value {
	arr := make([]Value, len(elems))
	copy(arr, elems)
	return Value{kind: KindArray, arr: arr}
}

// Accessors

// Kind returns the value's type.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull returns true if the value is null.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// IsNum returns true if the value is a number.
func (v Value) IsNum() bool {
	return v.kind == KindNum
}

// IsStr returns true if the value is a string.
func (v Value) IsStr() bool {
	return v.kind == KindStr
}

// IsArray returns true if the value is an array.
func (v Value) IsArray() bool {
	return v.kind == KindArray
}

// Conversions

// AsNum returns the numeric representation of the value.
// Strings that do not parse as a number and arrays are 0.
func (v Value) AsNum() float64 {
	switch v.kind {
	case KindNum:
		return v.num
	case KindStr:
		n, err := ParseNum(v.str)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// AsStr returns the string representation of the value.
func (v Value) AsStr() string {
	switch v.kind {
	case KindNum:
		return FormatNum(v.num)
	case KindStr:
		return v.str
	case KindArray:
		parts := make([]string, len(v.arr))
		for i, e := range v.arr {
			parts[i] = e.AsStr()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return "null"
	}
}

// AsBool returns the boolean representation.
// Numbers: 0 is false. Strings: empty is false. Arrays: empty is false.
// Null is false.
func (v Value) AsBool() bool {
	switch v.kind {
	case KindNum:
		return v.num != 0
	case KindStr:
		return v.str != ""
	case KindArray:
		return len(v.arr) > 0
	default:
		return false
	}
}

// String returns a debug representation of the value.
func (v Value) String() string {
	switch v.kind {
	case KindNum:
		return fmt.Sprintf("Num(%s)", FormatNum(v.num))
	case KindStr:
		return fmt.Sprintf("Str(%q)", v.str)
	case KindArray:
		parts := make([]string, len(v.arr))
		for i, e := range v.arr {
			parts[i] = e.String()
		}
		return "Array(" + strings.Join(parts, ", ") + ")"
	default:
		return "Null()"
	}
}

// Arrays

// Len returns the number of elements of an array value. Any other
// value has length 0.
func (v Value) Len() int {
	return len(v.arr)
}

// Elems returns a copy of the array elements.
func (v Value) Elems() []Value {
	if v.kind != KindArray {
		return nil
	}
	out := make([]Value, len(v.arr))
	copy(out, v.arr)
	return out
}

// Index returns element i, or null when i is out of range or v is
// not an array.
func (v Value) Index(i int) Value {
	if v.kind != KindArray || i < 0 || i >= len(v.arr) {
		return Null()
	}
	return v.arr[i]
}

// SetIndex returns a copy of v with element i replaced by elem. A
// non-array value is treated as an empty array; missing elements up
// to i are filled with null. Negative indices leave v unchanged.
func (v Value) SetIndex(i int, elem Value) Value {
	if i < 0 {
		return v
	}
	n := len(v.arr)
	if i >= n {
		n = i + 1
	}
	arr := make([]Value, n)
	copy(arr, v.arr)
	arr[i] = elem
	return Value{kind: KindArray, arr: arr}
}

// Append returns v with elem appended. Appending an array appends each
// of its elements.
func (v Value) Append(elem Value) Value {
	arr := make([]Value, 0, len(v.arr)+1+elem.Len())
	arr = append(arr, v.arr...)
	if elem.kind == KindArray {
		arr = append(arr, elem.arr...)
	} else {
		arr = append(arr, elem)
	}
	return Value{kind: KindArray, arr: arr}
}

// Comparison

// Equal reports whether a and b are the same value. Null equals 0 and
// the empty array; arrays compare element-wise.
func Equal(a, b Value) bool {
	if a.kind == KindArray || b.kind == KindArray {
		if a.Len() != b.Len() {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	}
	return Compare(a, b) == 0
}

// Compare orders two values. Numbers and null compare numerically;
// otherwise both sides compare as strings.
// Returns -1 if a < b, 0 if a == b, 1 if a > b.
func Compare(a, b Value) int {
	if a.numeric() && b.numeric() {
		an, bn := a.AsNum(), b.AsNum()
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a.AsStr(), b.AsStr())
}

func (v Value) numeric() bool {
	return v.kind == KindNum || v.kind == KindNull
}

// Number Parsing and Formatting

// ParseNum parses a string as a number (strict parsing).
func ParseNum(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	// Go accepts underscore separators and hex floats; the engine does not
	if strings.ContainsAny(s, "_xXpP") {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseFloat(s, 64)
}

// FormatNum formats a number the way the engine displays it: integers
// without a decimal point, everything else in shortest form.
func FormatNum(n float64) string {
	switch {
	case math.IsNaN(n):
		return "nan"
	case math.IsInf(n, 1):
		return "inf"
	case math.IsInf(n, -1):
		return "-inf"
	case n == math.Trunc(n) && math.Abs(n) < 1e15:
		return strconv.FormatInt(int64(n), 10)
	default:
		return strconv.FormatFloat(n, 'g', -1, 64)
	}
}
