package cas

import (
	"math/big"
	"sort"
)

// Expr is an immutable symbolic expression. Values are built through the
// constructors (Sum, Product, Power, Call), which keep them in canonical form.
type Expr interface {
	// String renders the expression in calculator syntax with ^ powers.
	String() string
	// LaTeX renders the expression as a LaTeX math string.
	LaTeX() string
	exprNode()
}

// Num is a rational number. Approximate numbers come from decimal literals
// and floating point evaluation; arithmetic with them stays approximate.
type Num struct {
	val    *big.Rat
	approx bool
}

// Sym is a free symbol.
type Sym struct {
	Name string
}

// Const is a named constant: pi, e, I (imaginary unit), oo (infinity) or nan.
type Const struct {
	Name string
}

// Add is a sum of at least two terms.
type Add struct {
	Terms []Expr
}

// Mul is a product of at least two factors. A numeric coefficient, if any,
// comes first.
type Mul struct {
	Factors []Expr
}

// Pow is Base^Exp.
type Pow struct {
	Base, Exp Expr
}

// Func is a function application, including the unevaluated markers
// Derivative and Integral.
type Func struct {
	Name string
	Args []Expr
}

func (*Num) exprNode()   {}
func (*Sym) exprNode()   {}
func (*Const) exprNode() {}
func (*Add) exprNode()   {}
func (*Mul) exprNode()   {}
func (*Pow) exprNode()   {}
func (*Func) exprNode()  {}

var (
	Pi       = &Const{Name: "pi"}
	E        = &Const{Name: "e"}
	I        = &Const{Name: "I"}
	Infinity = &Const{Name: "oo"}
	NaN      = &Const{Name: "nan"}
)

// Int returns the exact integer n.
func Int(n int64) *Num { return &Num{val: new(big.Rat).SetInt64(n)} }

// Frac returns the exact fraction p/q.
func Frac(p, q int64) *Num { return &Num{val: big.NewRat(p, q)} }

// Rat wraps r exactly. r is copied.
func Rat(r *big.Rat) *Num { return &Num{val: new(big.Rat).Set(r)} }

// Float returns an approximate number.
func Float(f float64) *Num {
	r := new(big.Rat)
	if r.SetFloat64(f) == nil {
		r.SetInt64(0)
	}
	return &Num{val: r, approx: true}
}

// Symbol returns the free symbol name.
func Symbol(name string) *Sym { return &Sym{Name: name} }

// Neg returns -e.
func Neg(e Expr) Expr { return Product(Int(-1), e) }

// Minus returns a - b.
func Minus(a, b Expr) Expr { return Sum(a, Neg(b)) }

// Div returns a / b.
func Div(a, b Expr) Expr { return Product(a, Power(b, Int(-1))) }

// Sqrt returns e^(1/2).
func Sqrt(e Expr) Expr { return Power(e, Frac(1, 2)) }

// Float64 returns the float value of n.
func (n *Num) Float64() float64 {
	f, _ := n.val.Float64()
	return f
}

// Rat returns a copy of the rational value.
func (n *Num) Rat() *big.Rat { return new(big.Rat).Set(n.val) }

// Approx reports whether n is a floating point approximation.
func (n *Num) Approx() bool { return n.approx }

func (n *Num) isZero() bool     { return n.val.Sign() == 0 }
func (n *Num) isOne() bool      { return !n.approx && n.val.Cmp(ratOne) == 0 }
func (n *Num) isMinusOne() bool { return !n.approx && n.val.Cmp(ratMinusOne) == 0 }
func (n *Num) isInt() bool      { return n.val.IsInt() }
func (n *Num) sign() int        { return n.val.Sign() }

var (
	ratOne      = big.NewRat(1, 1)
	ratMinusOne = big.NewRat(-1, 1)
)

func isNum(e Expr, v int64) bool {
	n, ok := e.(*Num)
	return ok && n.val.Cmp(new(big.Rat).SetInt64(v)) == 0
}

// Equal reports structural equality of canonical expressions.
func Equal(a, b Expr) bool {
	return a.String() == b.String()
}

// Children returns the direct operands of e.
func Children(e Expr) []Expr {
	switch v := e.(type) {
	case *Add:
		return v.Terms
	case *Mul:
		return v.Factors
	case *Pow:
		return []Expr{v.Base, v.Exp}
	case *Func:
		return v.Args
	}
	return nil
}

// rebuild reconstructs e with new operands through the canonical constructors.
func rebuild(e Expr, args []Expr) Expr {
	switch v := e.(type) {
	case *Add:
		return Sum(args...)
	case *Mul:
		return Product(args...)
	case *Pow:
		return Power(args[0], args[1])
	case *Func:
		return Call(v.Name, args...)
	}
	return e
}

// Transform rebuilds e bottom-up, applying f to every node after its operands.
func Transform(e Expr, f func(Expr) Expr) Expr {
	kids := Children(e)
	if len(kids) > 0 {
		args := make([]Expr, len(kids))
		for i, k := range kids {
			args[i] = Transform(k, f)
		}
		e = rebuild(e, args)
	}
	return f(e)
}

// Subs replaces every occurrence of the symbol name with value.
func Subs(e Expr, name string, value Expr) Expr {
	return Transform(e, func(x Expr) Expr {
		if s, ok := x.(*Sym); ok && s.Name == name {
			return value
		}
		return x
	})
}

// FreeSymbols returns the sorted names of the free symbols of e.
func FreeSymbols(e Expr) []string {
	seen := map[string]bool{}
	var walk func(Expr)
	walk = func(e Expr) {
		if s, ok := e.(*Sym); ok {
			seen[s.Name] = true
		}
		for _, k := range Children(e) {
			walk(k)
		}
	}
	walk(e)
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Has reports whether the symbol name occurs in e.
func Has(e Expr, name string) bool {
	if s, ok := e.(*Sym); ok {
		return s.Name == name
	}
	for _, k := range Children(e) {
		if Has(k, name) {
			return true
		}
	}
	return false
}

// Size counts the nodes of e. Simplify prefers smaller results.
func Size(e Expr) int {
	n := 1
	for _, k := range Children(e) {
		n += Size(k)
	}
	return n
}
