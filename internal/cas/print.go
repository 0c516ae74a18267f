package cas

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/aescanero/dago-node-calculator/internal/expr"
)

func (n *Num) String() string {
	if n.approx {
		return strconv.FormatFloat(n.Float64(), 'g', -1, 64)
	}
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	return n.val.RatString()
}

func (n *Num) LaTeX() string {
	if n.approx {
		return expr.NumberLaTeX(n.String())
	}
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	sign := ""
	v := new(big.Rat).Set(n.val)
	if v.Sign() < 0 {
		sign = "-"
		v.Neg(v)
	}
	return sign + `\frac{` + v.Num().String() + "}{" + v.Denom().String() + "}"
}

func (s *Sym) String() string { return s.Name }
func (s *Sym) LaTeX() string  { return expr.SymbolLaTeX(s.Name) }

func (c *Const) String() string { return c.Name }

func (c *Const) LaTeX() string {
	switch c {
	case Pi:
		return `\pi`
	case E:
		return "e"
	case I:
		return "i"
	case Infinity:
		return `\infty`
	}
	return `\text{NaN}`
}

// isNegative reports whether a term prints with a leading minus sign.
func isNegative(e Expr) bool {
	c, _ := splitCoeff(e)
	return c.sign() < 0
}

func (a *Add) String() string {
	var b strings.Builder
	for i, t := range a.Terms {
		switch {
		case i == 0:
			b.WriteString(t.String())
		case isNegative(t):
			b.WriteString(" - ")
			b.WriteString(Neg(t).String())
		default:
			b.WriteString(" + ")
			b.WriteString(t.String())
		}
	}
	return b.String()
}

func (a *Add) LaTeX() string {
	var b strings.Builder
	for i, t := range a.Terms {
		switch {
		case i == 0:
			b.WriteString(t.LaTeX())
		case isNegative(t):
			b.WriteString(" - ")
			b.WriteString(Neg(t).LaTeX())
		default:
			b.WriteString(" + ")
			b.WriteString(t.LaTeX())
		}
	}
	return b.String()
}

// fraction splits a product into sign, numerator and denominator factors.
// Numeric coefficients contribute their numerator and denominator.
func (m *Mul) fraction() (neg bool, num, den []Expr) {
	coeff, rest := splitCoeff(m)
	factors := []Expr{rest}
	if rm, ok := rest.(*Mul); ok {
		factors = rm.Factors
	}

	neg = coeff.sign() < 0
	c := numAbs(coeff)
	switch {
	case c.approx:
		if !(c.Float64() == 1) {
			num = append(num, c)
		}
	default:
		if p := c.val.Num(); p.Cmp(big.NewInt(1)) != 0 {
			num = append(num, &Num{val: new(big.Rat).SetInt(p)})
		}
		if q := c.val.Denom(); q.Cmp(big.NewInt(1)) != 0 {
			den = append(den, &Num{val: new(big.Rat).SetInt(q)})
		}
	}

	for _, f := range factors {
		if p, ok := f.(*Pow); ok {
			if e, ok := p.Exp.(*Num); ok && e.sign() < 0 {
				den = append(den, Power(p.Base, numNeg(e)))
				continue
			}
		}
		num = append(num, f)
	}
	return neg, num, den
}

func (m *Mul) String() string {
	neg, num, den := m.fraction()

	var b strings.Builder
	if neg {
		b.WriteString("-")
	}
	b.WriteString(joinFactors(num))
	if len(den) > 0 {
		b.WriteString("/")
		d := joinFactors(den)
		if len(den) > 1 || !atomic(den[0]) {
			d = "(" + d + ")"
		}
		b.WriteString(d)
	}
	return b.String()
}

func joinFactors(fs []Expr) string {
	if len(fs) == 0 {
		return "1"
	}
	parts := make([]string, len(fs))
	for i, f := range fs {
		s := f.String()
		if _, ok := f.(*Add); ok {
			s = "(" + s + ")"
		}
		parts[i] = s
	}
	return strings.Join(parts, "*")
}

// atomic reports whether e prints without operators at the top level.
func atomic(e Expr) bool {
	switch v := e.(type) {
	case *Sym, *Const, *Func:
		return true
	case *Num:
		return v.approx || v.isInt() && v.sign() >= 0
	case *Pow:
		return true
	}
	return false
}

func (m *Mul) LaTeX() string {
	neg, num, den := m.fraction()

	prefix := ""
	if neg {
		prefix = "-"
	}
	n := latexFactors(num)
	if len(den) == 0 {
		return prefix + n
	}
	return prefix + `\frac{` + n + "}{" + latexFactors(den) + "}"
}

func latexFactors(fs []Expr) string {
	if len(fs) == 0 {
		return "1"
	}
	var b strings.Builder
	for i, f := range fs {
		s := f.LaTeX()
		if _, ok := f.(*Add); ok {
			s = `\left(` + s + `\right)`
		}
		if i > 0 {
			_, prevNum := fs[i-1].(*Num)
			_, curNum := f.(*Num)
			if prevNum && curNum {
				b.WriteString(` \cdot `)
			} else {
				b.WriteString(" ")
			}
		}
		b.WriteString(s)
	}
	return b.String()
}

func (p *Pow) String() string {
	if e, ok := p.Exp.(*Num); ok && !e.approx {
		switch {
		case e.val.Cmp(big.NewRat(1, 2)) == 0:
			return "sqrt(" + p.Base.String() + ")"
		case e.sign() < 0:
			inv := Power(p.Base, numNeg(e))
			s := inv.String()
			if !atomic(inv) {
				s = "(" + s + ")"
			}
			return "1/" + s
		}
	}

	base := p.Base.String()
	if !powBaseAtomic(p.Base) {
		base = "(" + base + ")"
	}
	exp := p.Exp.String()
	if !powExpAtomic(p.Exp) {
		exp = "(" + exp + ")"
	}
	return base + "^" + exp
}

func powBaseAtomic(e Expr) bool {
	switch v := e.(type) {
	case *Sym, *Const, *Func:
		return true
	case *Num:
		return v.isInt() && v.sign() >= 0 || v.approx && v.sign() >= 0
	}
	return false
}

func powExpAtomic(e Expr) bool {
	switch v := e.(type) {
	case *Sym, *Const:
		return true
	case *Num:
		return v.isInt() && v.sign() >= 0 || v.approx && v.sign() >= 0
	}
	return false
}

func (p *Pow) LaTeX() string {
	if e, ok := p.Exp.(*Num); ok && !e.approx {
		switch {
		case e.val.Cmp(big.NewRat(1, 2)) == 0:
			return `\sqrt{` + p.Base.LaTeX() + "}"
		case e.val.Num().Cmp(big.NewInt(1)) == 0 && e.val.Denom().IsInt64() && e.val.Denom().Int64() > 2:
			return `\sqrt[` + e.val.Denom().String() + "]{" + p.Base.LaTeX() + "}"
		case e.sign() < 0:
			return `\frac{1}{` + Power(p.Base, numNeg(e)).LaTeX() + "}"
		}
		if f, ok := p.Base.(*Func); ok && e.isInt() && e.sign() > 0 {
			if name, ok := latexTrig[f.Name]; ok {
				return name + "^{" + e.String() + `}\left(` + f.Args[0].LaTeX() + `\right)`
			}
		}
	}

	base := p.Base.LaTeX()
	if !powBaseAtomic(p.Base) {
		base = `\left(` + base + `\right)`
	} else if f, ok := p.Base.(*Func); ok && f.Name != "abs" {
		base = `\left(` + base + `\right)`
	}
	return "{" + base + "}^{" + p.Exp.LaTeX() + "}"
}

var latexTrig = map[string]string{
	"sin": `\sin`, "cos": `\cos`, "tan": `\tan`,
	"sinh": `\sinh`, "cosh": `\cosh`, "tanh": `\tanh`,
}

var latexNamed = map[string]string{
	"asin": `\arcsin`, "acos": `\arccos`, "atan": `\arctan`,
	"ln": `\ln`,
}

func (f *Func) String() string {
	args := make([]string, len(f.Args))
	for i, a := range f.Args {
		args[i] = a.String()
	}
	return f.Name + "(" + strings.Join(args, ", ") + ")"
}

func (f *Func) LaTeX() string {
	args := make([]string, len(f.Args))
	for i, a := range f.Args {
		args[i] = a.LaTeX()
	}

	switch f.Name {
	case "exp":
		return "e^{" + args[0] + "}"
	case "abs":
		return `\left|` + args[0] + `\right|`
	case "floor":
		return `\left\lfloor ` + args[0] + ` \right\rfloor`
	case "ceil":
		return `\left\lceil ` + args[0] + ` \right\rceil`
	case "factorial":
		if atomic(f.Args[0]) {
			return args[0] + "!"
		}
		return `\left(` + args[0] + `\right)!`
	case "Derivative":
		order := "1"
		if len(args) > 2 {
			order = args[2]
		}
		if order == "1" {
			return `\frac{d}{d ` + args[1] + `} ` + wrapLaTeX(f.Args[0])
		}
		return `\frac{d^{` + order + `}}{d ` + args[1] + `^{` + order + `}} ` + wrapLaTeX(f.Args[0])
	case "Integral":
		if len(args) == 4 {
			return `\int\limits_{` + args[2] + `}^{` + args[3] + `} ` + args[0] + `\, d` + args[1]
		}
		return `\int ` + args[0] + `\, d` + args[1]
	}

	name, ok := latexTrig[f.Name]
	if !ok {
		name, ok = latexNamed[f.Name]
	}
	if !ok {
		name = `\operatorname{` + f.Name + `}`
	}
	return name + `\left(` + strings.Join(args, ", ") + `\right)`
}

func wrapLaTeX(e Expr) string {
	if _, ok := e.(*Add); ok {
		return `\left(` + e.LaTeX() + `\right)`
	}
	return e.LaTeX()
}
