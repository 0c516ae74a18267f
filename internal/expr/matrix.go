package expr

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrSingular is returned when inverting or solving with a singular matrix.
var ErrSingular = errors.New("singular matrix")

// MatrixNamespace extends the standard namespace with array construction and
// linear algebra.
func MatrixNamespace() *Namespace {
	ns := StandardNamespace()
	ns.Matrix = true

	for name, fn := range map[string]Function{
		"array":     {MinArgs: 1, MaxArgs: 1, Apply: asArray},
		"matrix":    {MinArgs: 1, MaxArgs: 1, Apply: asArray},
		"det":       {MinArgs: 1, MaxArgs: 1, Apply: det},
		"inv":       {MinArgs: 1, MaxArgs: 1, Apply: inv},
		"transpose": {MinArgs: 1, MaxArgs: 1, Apply: transpose},
		"trace":     {MinArgs: 1, MaxArgs: 1, Apply: trace},
		"solve":     {MinArgs: 2, MaxArgs: 2, Apply: solve},
		"norm":      {MinArgs: 1, MaxArgs: 1, Apply: matrixNorm},
		"rank":      {MinArgs: 1, MaxArgs: 1, Apply: rank},
		"dot":       {MinArgs: 2, MaxArgs: 2, Apply: dot},
		"eye":       {MinArgs: 1, MaxArgs: 1, Apply: eye},
		"zeros":     {MinArgs: 1, MaxArgs: 2, Apply: filled(0)},
		"ones":      {MinArgs: 1, MaxArgs: 2, Apply: filled(1)},
	} {
		ns.Functions[name] = fn
	}
	return ns
}

func asArray(a []Value) (Value, error) {
	if !a[0].IsArray() {
		return Value{}, fmt.Errorf("%w: array() expects a list", ErrShape)
	}
	return a[0], nil
}

func square(v Value, name string) (*mat.Dense, error) {
	if !v.isMatrix() {
		return nil, fmt.Errorf("%w: %s() expects a 2-D matrix", ErrShape, name)
	}
	m, err := v.dense()
	if err != nil {
		return nil, err
	}
	if r, c := m.Dims(); r != c {
		return nil, fmt.Errorf("%w: %s() expects a square matrix, got %dx%d", ErrShape, name, r, c)
	}
	return m, nil
}

func det(a []Value) (Value, error) {
	m, err := square(a[0], "det")
	if err != nil {
		return Value{}, err
	}
	return Scalar(mat.Det(m)), nil
}

func inv(a []Value) (Value, error) {
	m, err := square(a[0], "inv")
	if err != nil {
		return Value{}, err
	}
	var out mat.Dense
	if err := out.Inverse(m); err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	return fromDense(&out), nil
}

func transpose(a []Value) (Value, error) {
	v := a[0]
	if v.isVector() {
		return v, nil
	}
	if !v.isMatrix() {
		return Value{}, fmt.Errorf("%w: transpose() expects a matrix", ErrShape)
	}
	m, err := v.dense()
	if err != nil {
		return Value{}, err
	}
	return fromDense(m.T()), nil
}

func trace(a []Value) (Value, error) {
	m, err := square(a[0], "trace")
	if err != nil {
		return Value{}, err
	}
	return Scalar(mat.Trace(m)), nil
}

func solve(a []Value) (Value, error) {
	m, err := square(a[0], "solve")
	if err != nil {
		return Value{}, err
	}
	b, err := a[1].dense()
	if err != nil {
		return Value{}, err
	}
	if r, _ := m.Dims(); r != b.RawMatrix().Rows {
		return Value{}, fmt.Errorf("%w: solve() dimensions do not match", ErrShape)
	}
	var x mat.Dense
	if err := x.Solve(m, b); err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	if a[1].isVector() {
		return fromVec(&x), nil
	}
	return fromDense(&x), nil
}

// matrixNorm is the Euclidean norm for vectors and the Frobenius norm for matrices.
func matrixNorm(a []Value) (Value, error) {
	if !a[0].IsArray() {
		return Scalar(math.Abs(a[0].Float())), nil
	}
	m, err := a[0].dense()
	if err != nil {
		return Value{}, err
	}
	return Scalar(mat.Norm(m, 2)), nil
}

func rank(a []Value) (Value, error) {
	if !a[0].IsArray() {
		if a[0].Float() == 0 {
			return Scalar(0), nil
		}
		return Scalar(1), nil
	}
	m, err := a[0].dense()
	if err != nil {
		return Value{}, err
	}
	var svd mat.SVD
	if !svd.Factorize(m, mat.SVDNone) {
		return Value{}, errors.New("singular value decomposition failed")
	}
	values := svd.Values(nil)
	if len(values) == 0 {
		return Scalar(0), nil
	}
	r, c := m.Dims()
	tol := values[0] * float64(max(r, c)) * 2.220446049250313e-16
	n := 0
	for _, s := range values {
		if s > tol {
			n++
		}
	}
	return Scalar(float64(n)), nil
}

func dot(a []Value) (Value, error) {
	x, y := a[0], a[1]
	if !x.IsArray() || !y.IsArray() {
		return broadcast(x, y, func(p, q float64) (float64, error) { return p * q, nil })
	}
	if x.isVector() && y.isVector() {
		if len(x.elems) != len(y.elems) {
			return Value{}, fmt.Errorf("%w: %d and %d", ErrShape, len(x.elems), len(y.elems))
		}
		s := 0.0
		for i := range x.elems {
			s += x.elems[i].num * y.elems[i].num
		}
		return Scalar(s), nil
	}
	return matmul(x, y)
}

// matmul multiplies matrices. A vector on the right is treated as a column
// and the product is returned as a vector.
func matmul(x, y Value) (Value, error) {
	xm, err := x.dense()
	if err != nil {
		return Value{}, err
	}
	if x.isVector() {
		xm = mat.DenseCopyOf(xm.T())
	}
	ym, err := y.dense()
	if err != nil {
		return Value{}, err
	}
	_, xc := xm.Dims()
	yr, _ := ym.Dims()
	if xc != yr {
		return Value{}, fmt.Errorf("%w: cannot multiply %v by %v", ErrShape, x.Shape(), y.Shape())
	}
	var out mat.Dense
	out.Mul(xm, ym)
	if x.isVector() || y.isVector() {
		r, c := out.Dims()
		if c == 1 {
			return fromVec(&out), nil
		}
		if r == 1 {
			return fromVec(out.T()), nil
		}
	}
	return fromDense(&out), nil
}

// matpow raises a square matrix to a non-negative integer power.
func matpow(x Value, n float64) (Value, error) {
	m, err := square(x, "matrix power")
	if err != nil {
		return Value{}, err
	}
	if n < 0 || n != math.Trunc(n) {
		return Value{}, fmt.Errorf("%w: matrix powers must be non-negative integers", ErrDomain)
	}
	if n == 0 {
		r, _ := m.Dims()
		return eye([]Value{Scalar(float64(r))})
	}
	var out mat.Dense
	out.Pow(m, int(n))
	return fromDense(&out), nil
}

func dimension(v Value, name string) (int, error) {
	f := v.Float()
	if v.IsArray() || f < 0 || f != math.Trunc(f) || f > 1000 {
		return 0, fmt.Errorf("%w: %s() dimensions must be integers between 0 and 1000", ErrDomain, name)
	}
	return int(f), nil
}

func eye(a []Value) (Value, error) {
	n, err := dimension(a[0], "eye")
	if err != nil {
		return Value{}, err
	}
	rows := make([]Value, n)
	for i := range rows {
		row := make([]Value, n)
		for j := range row {
			if i == j {
				row[j] = Scalar(1)
			} else {
				row[j] = Scalar(0)
			}
		}
		rows[i] = Array(row...)
	}
	return Array(rows...), nil
}

func filled(x float64) func([]Value) (Value, error) {
	return func(a []Value) (Value, error) {
		r, err := dimension(a[0], "zeros")
		if err != nil {
			return Value{}, err
		}
		fill := func(n int) Value {
			elems := make([]Value, n)
			for i := range elems {
				elems[i] = Scalar(x)
			}
			return Array(elems...)
		}
		if len(a) == 1 {
			return fill(r), nil
		}
		c, err := dimension(a[1], "zeros")
		if err != nil {
			return Value{}, err
		}
		rows := make([]Value, r)
		for i := range rows {
			rows[i] = fill(c)
		}
		return Array(rows...), nil
	}
}
