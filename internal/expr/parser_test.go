package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"3×4÷2", "3*4/2"},
		{"x²", "x^(2)"},
		{"x⁻¹", "x^(-1)"},
		{"√2", " sqrt(2)"},
		{"√(x+1)", " sqrt(x+1)"},
		{"5 − 3", "5 - 3"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestParse_Structure(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"1+2*3", "1 + 2 * 3"},
		{"(1+2)*3", "(1 + 2) * 3"},
		{"2^3^2", "2^3^2"},
		{"2**3", "2^3"},
		{"-x^2", "-x^2"},
		{"2x", "2 * x"},
		{"3(x+1)", "3 * (x + 1)"},
		{"5!", "5!"},
		{"log(8, 2)", "log(8, 2)"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			n, err := Parse(tt.src, ParseOptions{Variables: []string{"x"}})
			require.NoError(t, err)
			assert.Equal(t, tt.want, n.String())
		})
	}
}

func TestParse_RejectsUnknownIdentifiers(t *testing.T) {
	_, err := Parse("foo + 1", ParseOptions{})
	assert.ErrorIs(t, err, ErrUnknownIdentifier)

	_, err = Parse("system(1)", ParseOptions{})
	assert.ErrorIs(t, err, ErrUnknownFunction)
}

func TestParse_RejectsForeignSyntax(t *testing.T) {
	for _, src := range []string{
		"__import__('os')",
		"x.y",
		"1 +",
		"(1 + 2",
		"",
		"a = 1",
		"sin",
	} {
		t.Run(src, func(t *testing.T) {
			_, err := Parse(src, ParseOptions{Variables: []string{"x", "y", "a"}})
			assert.Error(t, err)
		})
	}

	_, err := Parse("2 $ 3", ParseOptions{})
	var syn *SyntaxError
	require.ErrorAs(t, err, &syn)
	assert.Equal(t, 2, syn.Pos)
	assert.ErrorIs(t, err, ErrSyntax)
}

func TestParse_ArityChecked(t *testing.T) {
	_, err := Parse("sin(1, 2)", ParseOptions{})
	assert.ErrorIs(t, err, ErrSyntax)

	_, err = Parse("pow(2)", ParseOptions{})
	assert.ErrorIs(t, err, ErrSyntax)
}

func TestParse_ArraysOnlyInMatrixMode(t *testing.T) {
	_, err := Parse("[1, 2]", ParseOptions{})
	assert.ErrorIs(t, err, ErrSyntax)

	n, err := Parse("[[1, 2], [3, 4]]", ParseOptions{Namespace: MatrixNamespace()})
	require.NoError(t, err)
	assert.Equal(t, "[[1, 2], [3, 4]]", n.String())
}

func TestParse_FreeSymbols(t *testing.T) {
	n, err := Parse("a*x^2 + b*x + pi", ParseOptions{FreeSymbols: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "x", "b"}, FreeSymbols(n))
}

func TestParse_VariablesShadowConstants(t *testing.T) {
	n, err := Parse("e + 1", ParseOptions{Variables: []string{"e"}})
	require.NoError(t, err)

	id := n.(*Binary).L.(*Ident)
	assert.Equal(t, IdentVariable, id.Kind)

	v, err := Evaluate(n, nil, Env{"e": Scalar(2)})
	require.NoError(t, err)
	assert.Equal(t, 3.0, v.Float())
}
