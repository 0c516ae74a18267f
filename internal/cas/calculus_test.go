package cas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff(t *testing.T) {
	tests := []struct {
		src   string
		order int
		want  string
	}{
		{"x^2", 1, "2*x"},
		{"x^3 + sin(x)", 1, "3*x^2 + cos(x)"},
		{"x^3", 2, "6*x"},
		{"exp(2*x)", 1, "2*exp(2*x)"},
		{"ln(x)", 1, "1/x"},
		{"x^2 + y", 0, "x^2 + y"},
		{"y^2", 1, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			d, err := Diff(mustParse(t, tt.src), "x", tt.order)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.String())
		})
	}

	_, err := Diff(Symbol("x"), "x", -1)
	assert.Error(t, err)
}

func TestIntegrate(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"x^2", "x^3/3"},
		{"3*x^2", "x^3"},
		{"1/x", "ln(abs(x))"},
		{"cos(x)", "sin(x)"},
		{"x*exp(x)", "x*exp(x) - exp(x)"},
		{"5", "5*x"},
		{"exp(x^2)", "Integral(exp(x^2), x)"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.want, Integrate(mustParse(t, tt.src), "x").String())
		})
	}
}

// The derivative of every antiderivative must match the integrand at sample
// points.
func TestIntegrateDifferentiatesBack(t *testing.T) {
	srcs := []string{
		"x^2 + 3*x", "sin(2*x)", "exp(3*x + 1)", "1/(x + 1)", "x*sin(x)",
		"x^2*exp(x)", "2*x*cos(x^2)", "sin(x)*cos(x)", "1/(x^2 + 1)",
		"1/(x^2 - 1)", "ln(x)", "sqrt(x)", "sin(x)^2", "x*ln(x)",
		"(2*x + 1)/(x^2 + x + 1)", "1/sqrt(1 - x^2)",
	}
	points := []float64{0.3, 0.45, 0.7}
	for _, src := range srcs {
		t.Run(src, func(t *testing.T) {
			e := mustParse(t, src)
			F := Integrate(e, "x")
			f, ok := F.(*Func)
			require.False(t, ok && f.Name == "Integral", "no antiderivative for %s", src)
			dF, err := Diff(F, "x", 1)
			require.NoError(t, err)
			for _, x := range points {
				want, ok1 := EvalAt(e, "x", x)
				got, ok2 := EvalAt(dF, "x", x)
				require.True(t, ok1)
				require.True(t, ok2, "derivative %s", dF)
				assert.InDelta(t, want, got, 1e-9, "F=%s at x=%v", F, x)
			}
		})
	}
}

func TestDefinite(t *testing.T) {
	v, err := Definite(mustParse(t, "x^2"), "x", Int(0), Int(1))
	require.NoError(t, err)
	assert.Equal(t, "1/3", v.String())

	v, err = Definite(mustParse(t, "exp(-x)"), "x", Int(0), Infinity)
	require.NoError(t, err)
	assert.Equal(t, "1", v.String())

	// no closed form: Gauss-Legendre
	v, err = Definite(mustParse(t, "exp(x^2)"), "x", Int(0), Int(1))
	require.NoError(t, err)
	f, ok := Evalf(v)
	require.True(t, ok)
	assert.InDelta(t, 1.4626517459071816, f, 1e-9)

	_, err = Definite(mustParse(t, "1/x"), "x", Int(-1), Int(1))
	assert.ErrorIs(t, err, ErrNotFinite)
}

func TestLimit(t *testing.T) {
	tests := []struct {
		src   string
		point Expr
		dir   string
		want  string
	}{
		{"sin(x)/x", Int(0), "+", "1"},
		{"(x^2 - 1)/(x - 1)", Int(1), "+", "2"},
		{"1/x", Int(0), "+", "oo"},
		{"1/x", Int(0), "-", "-oo"},
		{"1/x", Infinity, "+", "0"},
		{"(2*x + 1)/(x + 3)", Infinity, "+", "2"},
		{"x^2 + 1", Int(2), "+-", "5"},
		{"(1 - cos(x))/x^2", Int(0), "+", "1/2"},
		{"ln(x)", Int(0), "+", "-oo"},
	}
	for _, tt := range tests {
		t.Run(tt.src+tt.dir, func(t *testing.T) {
			l, err := Limit(mustParse(t, tt.src), "x", tt.point, tt.dir)
			require.NoError(t, err)
			assert.Equal(t, tt.want, l.String())
		})
	}
}

func TestLimitErrors(t *testing.T) {
	_, err := Limit(mustParse(t, "1/x"), "x", Int(0), "+-")
	assert.ErrorIs(t, err, ErrNoLimit)

	_, err = Limit(mustParse(t, "x"), "x", Int(0), "up")
	assert.Error(t, err)
}
