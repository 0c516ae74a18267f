package expr

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// Value is a scalar or an n-dimensional array of scalars.
type Value struct {
	num   float64
	elems []Value
	array bool
}

// Scalar wraps a float.
func Scalar(f float64) Value { return Value{num: f} }

// Array builds an array value from its elements.
func Array(elems ...Value) Value { return Value{elems: elems, array: true} }

// IsArray reports whether v is an array.
func (v Value) IsArray() bool { return v.array }

// Float returns the scalar value. Arrays return NaN.
func (v Value) Float() float64 {
	if v.array {
		return math.NaN()
	}
	return v.num
}

// Elems returns the elements of an array.
func (v Value) Elems() []Value { return v.elems }

// Shape returns the array dimensions, nil for scalars. Ragged arrays report
// only their outer length.
func (v Value) Shape() []int {
	if !v.array {
		return nil
	}
	shape := []int{len(v.elems)}
	if len(v.elems) == 0 || !v.elems[0].array {
		return shape
	}
	inner := v.elems[0].Shape()
	for _, e := range v.elems[1:] {
		if !sameShape(e.Shape(), inner) {
			return shape
		}
	}
	return append(shape, inner...)
}

// Native converts v to float64 or nested []any for JSON encoding.
func (v Value) Native() any {
	if !v.array {
		return v.num
	}
	out := make([]any, len(v.elems))
	for i, e := range v.elems {
		out[i] = e.Native()
	}
	return out
}

func (v Value) String() string {
	if !v.array {
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	}
	b, _ := json.Marshal(v.Native())
	return string(b)
}

// FromNative converts a decoded JSON value (number or nested array of numbers)
// into a Value.
func FromNative(x any) (Value, error) {
	switch t := x.(type) {
	case float64:
		return Scalar(t), nil
	case float32:
		return Scalar(float64(t)), nil
	case int:
		return Scalar(float64(t)), nil
	case int64:
		return Scalar(float64(t)), nil
	case bool:
		if t {
			return Scalar(1), nil
		}
		return Scalar(0), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("invalid number %q: %w", t, err)
		}
		return Scalar(f), nil
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return Value{}, fmt.Errorf("variable value %q is not numeric", t)
		}
		return Scalar(f), nil
	case []float64:
		elems := make([]Value, len(t))
		for i, f := range t {
			elems[i] = Scalar(f)
		}
		return Array(elems...), nil
	case [][]float64:
		rows := make([]Value, len(t))
		for i, r := range t {
			row, _ := FromNative(r)
			rows[i] = row
		}
		return Array(rows...), nil
	case []any:
		elems := make([]Value, len(t))
		for i, e := range t {
			v, err := FromNative(e)
			if err != nil {
				return Value{}, err
			}
			elems[i] = v
		}
		return rectangular(elems)
	case Value:
		return t, nil
	}
	return Value{}, fmt.Errorf("unsupported variable value of type %T", x)
}

// rectangular builds an array from elems, rejecting ragged nesting: every
// element must be a scalar, or every element an array of the same shape.
func rectangular(elems []Value) (Value, error) {
	for i := 1; i < len(elems); i++ {
		if elems[i].array != elems[0].array || !sameShape(elems[i].Shape(), elems[0].Shape()) {
			return Value{}, fmt.Errorf("%w: ragged nested sequences are not supported", ErrShape)
		}
	}
	return Array(elems...), nil
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// isMatrix reports whether v is a rectangular 2-D array.
func (v Value) isMatrix() bool {
	return len(v.Shape()) == 2
}

// isVector reports whether v is a 1-D array of scalars.
func (v Value) isVector() bool {
	return len(v.Shape()) == 1 && (len(v.elems) == 0 || !v.elems[0].array)
}

// dense converts a matrix or vector to gonum form. Vectors become column
// vectors.
func (v Value) dense() (*mat.Dense, error) {
	switch {
	case v.isMatrix():
		shape := v.Shape()
		if shape[0] == 0 || shape[1] == 0 {
			return nil, fmt.Errorf("%w: empty matrix", ErrShape)
		}
		data := make([]float64, 0, shape[0]*shape[1])
		for _, row := range v.elems {
			for _, e := range row.elems {
				data = append(data, e.num)
			}
		}
		return mat.NewDense(shape[0], shape[1], data), nil
	case v.isVector():
		if len(v.elems) == 0 {
			return nil, fmt.Errorf("%w: empty vector", ErrShape)
		}
		data := make([]float64, len(v.elems))
		for i, e := range v.elems {
			data[i] = e.num
		}
		return mat.NewDense(len(data), 1, data), nil
	}
	return nil, fmt.Errorf("%w: expected a matrix", ErrShape)
}

// fromDense converts a gonum matrix back to a 2-D array.
func fromDense(m mat.Matrix) Value {
	r, c := m.Dims()
	rows := make([]Value, r)
	for i := 0; i < r; i++ {
		row := make([]Value, c)
		for j := 0; j < c; j++ {
			row[j] = Scalar(m.At(i, j))
		}
		rows[i] = Array(row...)
	}
	return Array(rows...)
}

// fromVec converts a gonum column to a 1-D array.
func fromVec(m mat.Matrix) Value {
	r, _ := m.Dims()
	elems := make([]Value, r)
	for i := 0; i < r; i++ {
		elems[i] = Scalar(m.At(i, 0))
	}
	return Array(elems...)
}

// mapScalar applies f element-wise.
func mapScalar(v Value, f func(float64) (float64, error)) (Value, error) {
	if !v.array {
		r, err := f(v.num)
		if err != nil {
			return Value{}, err
		}
		return Scalar(r), nil
	}
	out := make([]Value, len(v.elems))
	for i, e := range v.elems {
		r, err := mapScalar(e, f)
		if err != nil {
			return Value{}, err
		}
		out[i] = r
	}
	return Array(out...), nil
}

// broadcast applies f element-wise over two operands. A scalar operand is
// broadcast against an array; two arrays must have equal length at each level.
func broadcast(a, b Value, f func(x, y float64) (float64, error)) (Value, error) {
	switch {
	case !a.array && !b.array:
		r, err := f(a.num, b.num)
		if err != nil {
			return Value{}, err
		}
		return Scalar(r), nil
	case a.array && b.array && len(a.elems) != len(b.elems):
		return Value{}, fmt.Errorf("%w: %d and %d", ErrShape, len(a.elems), len(b.elems))
	}

	n := len(a.elems)
	if !a.array {
		n = len(b.elems)
	}
	out := make([]Value, n)
	for i := 0; i < n; i++ {
		x, y := a, b
		if a.array {
			x = a.elems[i]
		}
		if b.array {
			y = b.elems[i]
		}
		r, err := broadcast(x, y, f)
		if err != nil {
			return Value{}, err
		}
		out[i] = r
	}
	return Array(out...), nil
}
