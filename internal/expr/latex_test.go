package expr

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLaTeX(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"sqrt(x)/2", `\frac{\sqrt{x}}{2}`},
		{"2x", `2 x`},
		{"x^2", `{x}^{2}`},
		{"(x+1)^2", `{\left(x + 1\right)}^{2}`},
		{"abs(x)", `\left|x\right|`},
		{"sin(x) * cos(x)", `\sin\left(x\right) \cdot \cos\left(x\right)`},
		{"asin(x)", `\arcsin\left(x\right)`},
		{"log(x)", `\log_{10}\left(x\right)`},
		{"exp(x)", `e^{x}`},
		{"1.5e3", `1.5 \times 10^{3}`},
		{"pi * x", `\pi \cdot x`},
		{"x - (x + 1)", `x - \left(x + 1\right)`},
		{"5!", `5!`},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			n, err := Parse(tt.src, ParseOptions{Variables: []string{"x"}})
			require.NoError(t, err)
			assert.Equal(t, tt.want, LaTeX(n))
		})
	}
}

func TestLaTeX_Matrix(t *testing.T) {
	n, err := Parse("[[1, 2], [3, 4]]", ParseOptions{Namespace: MatrixNamespace()})
	require.NoError(t, err)
	assert.Equal(t, `\begin{bmatrix}1 & 2 \\ 3 & 4\end{bmatrix}`, LaTeX(n))
}

func TestSymbolLaTeX(t *testing.T) {
	assert.Equal(t, `\theta`, SymbolLaTeX("theta"))
	assert.Equal(t, `x_{1}`, SymbolLaTeX("x1"))
	assert.Equal(t, `\alpha_{2}`, SymbolLaTeX("alpha_2"))
	assert.Equal(t, `\infty`, SymbolLaTeX("oo"))
}

func TestValueLaTeX(t *testing.T) {
	assert.Equal(t, "3", ValueLaTeX(Scalar(3), 15))
	assert.Equal(t, "0.5", ValueLaTeX(Scalar(0.5), 15))
	assert.Equal(t, `1 \times 10^{-20}`, ValueLaTeX(Scalar(1e-20), 15))
	assert.Equal(t, `\begin{bmatrix}1 \\ 2\end{bmatrix}`, ValueLaTeX(Array(Scalar(1), Scalar(2)), 15))
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "42", FormatFloat(42, 15))
	assert.Equal(t, "0.333333", FormatFloat(1.0/3, 6))
	assert.Equal(t, "inf", FormatFloat(math.Inf(1), 15))
}
