package expr

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evalString(t *testing.T, src string, ns *Namespace, env Env) (Value, error) {
	t.Helper()
	if ns == nil {
		ns = StandardNamespace()
	}
	vars := make([]string, 0, len(env))
	for name := range env {
		vars = append(vars, name)
	}
	n, err := Parse(src, ParseOptions{Namespace: ns, Variables: vars})
	require.NoError(t, err)
	return Evaluate(n, ns, env)
}

func TestEvaluate_Standard(t *testing.T) {
	tests := []struct {
		src  string
		env  Env
		want float64
	}{
		{"2 + 3 * 4", nil, 14},
		{"2^3^2", nil, 512},
		{"-2^2", nil, -4},
		{"2x", Env{"x": Scalar(3)}, 6},
		{"x² + 1", Env{"x": Scalar(3)}, 10},
		{"5!", nil, 120},
		{"factorial(0)", nil, 1},
		{"sin(pi/2)", nil, 1},
		{"2π", nil, 2 * math.Pi},
		{"τ", nil, 2 * math.Pi},
		{"2e", nil, 2 * math.E},
		{"1.5e3", nil, 1500},
		{"log(100)", nil, 2},
		{"ln(e)", nil, 1},
		{"log2(8)", nil, 3},
		{"sqrt(16)", nil, 4},
		{"abs(-3)", nil, 3},
		{"floor(2.7) + ceil(2.1)", nil, 5},
		{"round(2.5)", nil, 2},
		{"round(3.14159, 2)", nil, 3.14},
		{"degrees(pi)", nil, 180},
		{"radians(180)", nil, math.Pi},
		{"pow(2, 10)", nil, 1024},
		{"cosh(0) + tanh(0)", nil, 1},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			v, err := evalString(t, tt.src, nil, tt.env)
			require.NoError(t, err)
			assert.False(t, v.IsArray())
			assert.InDelta(t, tt.want, v.Float(), 1e-9)
		})
	}
}

func TestEvaluate_LogWithBase(t *testing.T) {
	v, err := evalString(t, "log(8, 2)", nil, nil)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, v.Float(), 1e-12)
}

func TestEvaluate_Errors(t *testing.T) {
	tests := []struct {
		src  string
		want error
	}{
		{"1/0", ErrDivisionByZero},
		{"sqrt(-1)", ErrDomain},
		{"ln(0)", ErrDomain},
		{"asin(2)", ErrDomain},
		{"factorial(-1)", ErrDomain},
		{"factorial(2.5)", ErrDomain},
		{"factorial(171)", ErrOverflow},
		{"exp(1000)", ErrOverflow},
		{"(-8)^(1/3)", ErrDomain},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := evalString(t, tt.src, nil, nil)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEvaluate_Matrix(t *testing.T) {
	ns := MatrixNamespace()

	v, err := evalString(t, "[[1, 2], [3, 4]] * [[5, 6], [7, 8]]", ns, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{[]any{19.0, 22.0}, []any{43.0, 50.0}}, v.Native())

	v, err = evalString(t, "det([[1, 2], [3, 4]])", ns, nil)
	require.NoError(t, err)
	assert.InDelta(t, -2.0, v.Float(), 1e-9)

	v, err = evalString(t, "inv([[2, 0], [0, 4]])", ns, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2}, v.Shape())
	assert.InDelta(t, 0.5, v.Elems()[0].Elems()[0].Float(), 1e-12)
	assert.InDelta(t, 0.25, v.Elems()[1].Elems()[1].Float(), 1e-12)

	v, err = evalString(t, "transpose([[1, 2, 3]])", ns, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1}, v.Shape())

	v, err = evalString(t, "[1, 2, 3] * 2", ns, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{2.0, 4.0, 6.0}, v.Native())

	v, err = evalString(t, "dot([1, 2, 3], [4, 5, 6])", ns, nil)
	require.NoError(t, err)
	assert.Equal(t, 32.0, v.Float())

	v, err = evalString(t, "trace(eye(3))", ns, nil)
	require.NoError(t, err)
	assert.Equal(t, 3.0, v.Float())

	v, err = evalString(t, "rank([[1, 2], [2, 4]])", ns, nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v.Float())

	v, err = evalString(t, "norm([3, 4])", ns, nil)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, v.Float(), 1e-12)

	v, err = evalString(t, "solve([[2, 0], [0, 4]], [2, 8])", ns, nil)
	require.NoError(t, err)
	require.Equal(t, []int{2}, v.Shape())
	assert.InDelta(t, 1.0, v.Elems()[0].Float(), 1e-12)
	assert.InDelta(t, 2.0, v.Elems()[1].Float(), 1e-12)

	v, err = evalString(t, "zeros(2, 3)", ns, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, v.Shape())

	v, err = evalString(t, "[[1, 1], [0, 1]]^3", ns, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{[]any{1.0, 3.0}, []any{0.0, 1.0}}, v.Native())
}

func TestEvaluate_MatrixErrors(t *testing.T) {
	ns := MatrixNamespace()

	_, err := evalString(t, "inv([[1, 2], [2, 4]])", ns, nil)
	assert.ErrorIs(t, err, ErrSingular)

	_, err = evalString(t, "det([[1, 2, 3], [4, 5, 6]])", ns, nil)
	assert.ErrorIs(t, err, ErrShape)

	_, err = evalString(t, "[1, 2] + [1, 2, 3]", ns, nil)
	assert.ErrorIs(t, err, ErrShape)
}

func TestEvaluate_MatrixOverflow(t *testing.T) {
	ns := MatrixNamespace()

	for _, src := range []string{
		"det([[1e200, 0], [0, 1e200]])",
		"[[1e200, 0], [0, 1e200]] * [[1e200, 0], [0, 1e200]]",
		"[[1e200, 0], [0, 1e200]]^2",
		"dot([1e200], [1e200])",
	} {
		t.Run(src, func(t *testing.T) {
			_, err := evalString(t, src, ns, nil)
			assert.ErrorIs(t, err, ErrOverflow)
		})
	}
}

func TestEvaluate_RaggedArrays(t *testing.T) {
	ns := MatrixNamespace()

	for _, src := range []string{
		"[[1, 2], [3]]",
		"[[1, 2], [3]] + 1",
		"[1, [2, 3]]",
		"[[[1], [2]], [[3, 4], [5, 6]]]",
	} {
		t.Run(src, func(t *testing.T) {
			_, err := evalString(t, src, ns, nil)
			assert.ErrorIs(t, err, ErrShape)
		})
	}

	_, err := FromNative([]any{[]any{1.0, 2.0}, []any{3.0}})
	assert.ErrorIs(t, err, ErrShape)

	v, err := evalString(t, "[[1, 2], [3, 4]] + 1", ns, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{[]any{2.0, 3.0}, []any{4.0, 5.0}}, v.Native())
}

func TestEvaluate_ArrayVariables(t *testing.T) {
	m, err := FromNative([]any{[]any{1.0, 2.0}, []any{3.0, 4.0}})
	require.NoError(t, err)

	v, err := evalString(t, "det(M)", MatrixNamespace(), Env{"M": m})
	require.NoError(t, err)
	assert.InDelta(t, -2.0, v.Float(), 1e-9)
}

func TestFromNative(t *testing.T) {
	v, err := FromNative(4)
	require.NoError(t, err)
	assert.Equal(t, 4.0, v.Float())

	v, err = FromNative("2.5")
	require.NoError(t, err)
	assert.Equal(t, 2.5, v.Float())

	_, err = FromNative("abc")
	assert.Error(t, err)

	_, err = FromNative(map[string]any{})
	assert.Error(t, err)
}
