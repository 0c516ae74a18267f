package expr

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

var greek = map[string]bool{
	"alpha": true, "beta": true, "gamma": true, "delta": true, "epsilon": true,
	"zeta": true, "eta": true, "theta": true, "iota": true, "kappa": true,
	"lambda": true, "mu": true, "nu": true, "xi": true, "pi": true, "rho": true,
	"sigma": true, "tau": true, "upsilon": true, "phi": true, "chi": true,
	"psi": true, "omega": true,
	"Gamma": true, "Delta": true, "Theta": true, "Lambda": true, "Xi": true,
	"Pi": true, "Sigma": true, "Phi": true, "Psi": true, "Omega": true,
}

var latexFunctions = map[string]string{
	"sin": `\sin`, "cos": `\cos`, "tan": `\tan`,
	"sinh": `\sinh`, "cosh": `\cosh`, "tanh": `\tanh`,
	"asin": `\arcsin`, "acos": `\arccos`, "atan": `\arctan`,
	"ln": `\ln`, "log2": `\log_{2}`, "det": `\det`,
}

// LaTeX renders n as a LaTeX math string.
func LaTeX(n Node) string {
	switch n := n.(type) {
	case *Number:
		return NumberLaTeX(n.String())

	case *Ident:
		return SymbolLaTeX(n.Name)

	case *Unary:
		if n.Op == '-' {
			return "-" + latexWrap(n.X, precMul)
		}
		return latexWrap(n.X, precUnary)

	case *Binary:
		return binaryLaTeX(n)

	case *Call:
		return callLaTeX(n)

	case *List:
		return listLaTeX(n)
	}
	return ""
}

func binaryLaTeX(n *Binary) string {
	switch n.Op {
	case '+':
		return LaTeX(n.L) + " + " + LaTeX(n.R)
	case '-':
		return LaTeX(n.L) + " - " + latexWrap(n.R, precMul)
	case '*':
		l, r := latexWrap(n.L, precMul), latexWrap(n.R, precMul)
		if _, ok := n.L.(*Number); ok {
			if _, num := n.R.(*Number); !num {
				return l + " " + r
			}
		}
		return l + ` \cdot ` + r
	case '/':
		return `\frac{` + LaTeX(n.L) + "}{" + LaTeX(n.R) + "}"
	case '^':
		base := latexWrap(n.L, precAtom)
		if c, ok := n.L.(*Call); ok && !c.Postfix {
			base = paren(LaTeX(n.L))
		}
		return "{" + base + "}^{" + LaTeX(n.R) + "}"
	}
	return ""
}

func callLaTeX(n *Call) string {
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = LaTeX(a)
	}
	if len(args) == 0 {
		return `\operatorname{` + n.Name + `}` + paren("")
	}

	switch n.Name {
	case "sqrt":
		return `\sqrt{` + args[0] + "}"
	case "abs":
		return `\left|` + args[0] + `\right|`
	case "floor":
		return `\left\lfloor ` + args[0] + ` \right\rfloor`
	case "ceil":
		return `\left\lceil ` + args[0] + ` \right\rceil`
	case "factorial":
		return latexWrap(n.Args[0], precAtom) + "!"
	case "exp":
		return "e^{" + args[0] + "}"
	case "log":
		if len(args) == 2 {
			return `\log_{` + args[1] + "}" + paren(args[0])
		}
		return `\log_{10}` + paren(args[0])
	case "transpose":
		return "{" + latexWrap(n.Args[0], precAtom) + "}^{T}"
	case "inv":
		return "{" + latexWrap(n.Args[0], precAtom) + "}^{-1}"
	case "degrees":
		return latexWrap(n.Args[0], precMul) + ` \cdot \frac{180}{\pi}`
	case "radians":
		return latexWrap(n.Args[0], precMul) + ` \cdot \frac{\pi}{180}`
	}

	name, ok := latexFunctions[n.Name]
	if !ok {
		name = `\operatorname{` + n.Name + `}`
	}
	return name + paren(strings.Join(args, ", "))
}

func listLaTeX(n *List) string {
	if len(n.Elems) == 0 {
		return `\left[\right]`
	}
	var rows []string
	for _, e := range n.Elems {
		if row, ok := e.(*List); ok {
			cells := make([]string, len(row.Elems))
			for i, c := range row.Elems {
				cells[i] = LaTeX(c)
			}
			rows = append(rows, strings.Join(cells, " & "))
			continue
		}
		rows = append(rows, LaTeX(e))
	}
	return `\begin{bmatrix}` + strings.Join(rows, ` \\ `) + `\end{bmatrix}`
}

func paren(s string) string {
	return `\left(` + s + `\right)`
}

func latexWrap(n Node, min int) string {
	if precedence(n) < min {
		return paren(LaTeX(n))
	}
	return LaTeX(n)
}

// SymbolLaTeX renders an identifier: greek names become commands and a
// trailing index becomes a subscript (x_1, x1 -> x_{1}).
func SymbolLaTeX(name string) string {
	if name == "oo" {
		return `\infty`
	}
	base, sub := name, ""
	if i := strings.Index(name, "_"); i > 0 && i < len(name)-1 {
		base, sub = name[:i], name[i+1:]
	} else {
		j := len(name)
		for j > 0 && unicode.IsDigit(rune(name[j-1])) {
			j--
		}
		if j > 0 && j < len(name) {
			base, sub = name[:j], name[j:]
		}
	}
	if greek[base] {
		base = `\` + base
	} else if len([]rune(base)) > 1 {
		base = `\operatorname{` + base + `}`
	}
	if sub != "" {
		return base + "_{" + sub + "}"
	}
	return base
}

// NumberLaTeX renders a numeric literal, turning exponent notation into a
// power of ten.
func NumberLaTeX(s string) string {
	i := strings.IndexAny(s, "eE")
	if i < 0 {
		return s
	}
	mant, exp := s[:i], strings.TrimPrefix(s[i+1:], "+")
	exp = strings.TrimLeft(exp, "0")
	if strings.HasPrefix(exp, "-") {
		exp = "-" + strings.TrimLeft(exp[1:], "0")
	}
	if exp == "" || exp == "-" {
		return mant
	}
	return mant + ` \times 10^{` + exp + "}"
}

// FormatFloat formats f with at most precision significant digits. Integral
// values print without a fraction.
func FormatFloat(f float64, precision int) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case f == math.Trunc(f) && math.Abs(f) < 1e15:
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	if precision <= 0 {
		precision = -1
	}
	return strconv.FormatFloat(f, 'g', precision, 64)
}

// ValueLaTeX renders an evaluated value. Arrays become bmatrix environments,
// 1-D arrays as column vectors.
func ValueLaTeX(v Value, precision int) string {
	if !v.IsArray() {
		return NumberLaTeX(FormatFloat(v.Float(), precision))
	}
	if len(v.elems) == 0 {
		return `\left[\right]`
	}
	rows := make([]string, len(v.elems))
	for i, e := range v.elems {
		if !e.IsArray() {
			rows[i] = ValueLaTeX(e, precision)
			continue
		}
		cells := make([]string, len(e.elems))
		for j, c := range e.elems {
			cells[j] = ValueLaTeX(c, precision)
		}
		rows[i] = strings.Join(cells, " & ")
	}
	return `\begin{bmatrix}` + strings.Join(rows, ` \\ `) + `\end{bmatrix}`
}
