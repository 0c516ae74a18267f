package cas

import (
	"context"
	"math"
	"math/big"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/mat"
)

const (
	scanMin   = -100.0
	scanMax   = 100.0
	scanSteps = 4000
)

// Solve returns the solutions of e = 0 for x: exact roots for polynomials up
// to degree two and rational roots of any degree, eigenvalue approximations
// for the remaining polynomial factor, inverse-function isolation and a
// numeric scan as a last resort. Solutions where the denominator of e
// vanishes are discarded.
func Solve(e Expr, x string) []Expr {
	return solve(nil, e, x)
}

// SolveContext is Solve that stops with the context's error once ctx is
// done.
func SolveContext(ctx context.Context, e Expr, x string) (sols []Expr, err error) {
	h := newHalt(ctx)
	defer h.recover(&err)
	return solve(h, e, x), nil
}

func solve(h *halt, e Expr, x string) []Expr {
	n, d := together(e)
	n = (&expander{halt: h}).run(n)
	if !Has(n, x) {
		return nil
	}

	sols, ok := solvePolynomial(n, x)
	if !ok {
		sols, ok = isolate(n, Int(0), x, 0)
	}
	if !ok {
		sols = scan(h, n, x)
	}

	var out []Expr
	seen := map[string]bool{}
	for _, s := range sols {
		if Has(d, x) {
			if v := Simplify(Subs(d, x, s)); isNum(v, 0) {
				continue
			}
		}
		if !satisfies(n, x, s) {
			continue
		}
		k := s.String()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, s)
	}
	sortSolutions(out)
	return out
}

// satisfies rejects numeric candidates that do not make n vanish, such as
// the extraneous roots introduced by squaring.
func satisfies(n Expr, x string, s Expr) bool {
	c, ok := EvalComplex(s)
	if !ok {
		return true
	}
	env := map[string]complex128{x: c}
	var sum complex128
	scale := 0.0
	for _, t := range terms(n) {
		v, ok := evalComplex(t, env)
		if !ok {
			return true
		}
		sum += v
		scale += cmplx.Abs(v)
	}
	return cmplx.Abs(sum) <= 1e-8*math.Max(1, scale)
}

func solvePolynomial(n Expr, x string) ([]Expr, bool) {
	if p, approx, ok := toPoly(n, x); ok {
		if approx {
			return eigenRoots(p), true
		}
		return rationalPolyRoots(p), true
	}

	cs, ok := symCoeffs(n, x)
	if !ok {
		return nil, false
	}
	switch len(cs) {
	case 2:
		return []Expr{Simplify(Neg(Div(cs[0], cs[1])))}, true
	case 3:
		return quadratic(cs[2], cs[1], cs[0]), true
	}
	return nil, false
}

func rationalPolyRoots(p poly) []Expr {
	roots, _, rem := p.rationalRoots()
	out := make([]Expr, 0, len(roots)+rem.degree())
	for _, r := range roots {
		out = append(out, Rat(r))
	}
	return append(out, residualRoots(rem)...)
}

// residualRoots solves the factor left after removing rational roots.
func residualRoots(p poly) []Expr {
	switch p.degree() {
	case -1, 0:
		return nil
	case 1:
		return []Expr{Rat(new(big.Rat).Neg(new(big.Rat).Quo(p[0], p[1])))}
	case 2:
		return quadratic(Rat(p[2]), Rat(p[1]), Rat(p[0]))
	case 4:
		if p[1].Sign() == 0 && p[3].Sign() == 0 {
			// biquadratic: solve for y = x^2
			var out []Expr
			for _, y := range quadratic(Rat(p[4]), Rat(p[2]), Rat(p[0])) {
				r := Sqrt(y)
				out = append(out, Neg(r), r)
			}
			return out
		}
	}
	return eigenRoots(p)
}

// quadratic applies the quadratic formula with exact surds and complex
// conjugate pairs.
func quadratic(a, b, c Expr) []Expr {
	disc := Expand(Minus(Power(b, Int(2)), Product(Int(4), a, c)))
	s := Sqrt(disc)
	den := Power(Product(Int(2), a), Int(-1))
	r1 := Expand(Product(Minus(Neg(b), s), den))
	r2 := Expand(Product(Sum(Neg(b), s), den))
	if Equal(r1, r2) {
		return []Expr{r1}
	}
	return []Expr{r1, r2}
}

// eigenRoots approximates polynomial roots as eigenvalues of the companion
// matrix.
func eigenRoots(p poly) []Expr {
	p = p.trim()
	n := len(p) - 1
	if n < 1 {
		return nil
	}
	lead, _ := p[n].Float64()
	c := mat.NewDense(n, n, nil)
	for i := 1; i < n; i++ {
		c.Set(i, i-1, 1)
	}
	for i := 0; i < n; i++ {
		f, _ := p[i].Float64()
		c.Set(i, n-1, -f/lead)
	}

	var eig mat.Eigen
	if !eig.Factorize(c, mat.EigenNone) {
		return nil
	}
	vals := eig.Values(nil)
	out := make([]Expr, 0, len(vals))
	for _, v := range vals {
		re, im := cleanFloat(real(v)), cleanFloat(imag(v))
		if math.Abs(im) < 1e-10*math.Max(1, math.Abs(re)) {
			out = append(out, Float(re))
			continue
		}
		out = append(out, Sum(Float(re), Product(Float(im), I)))
	}
	return out
}

func cleanFloat(f float64) float64 {
	if math.Abs(f) < 1e-12 {
		return 0
	}
	return f
}

// isolate inverts the outermost operation of lhs = rhs until x stands
// alone.
func isolate(lhs, rhs Expr, x string, depth int) ([]Expr, bool) {
	if depth > 16 {
		return nil, false
	}
	switch v := lhs.(type) {
	case *Sym:
		if v.Name == x {
			return []Expr{Simplify(rhs)}, true
		}

	case *Add:
		var dep, rest []Expr
		for _, t := range v.Terms {
			if Has(t, x) {
				dep = append(dep, t)
			} else {
				rest = append(rest, t)
			}
		}
		if len(dep) == 1 {
			return isolate(dep[0], Minus(rhs, Sum(rest...)), x, depth+1)
		}

	case *Mul:
		var dep, consts []Expr
		for _, f := range v.Factors {
			if Has(f, x) {
				dep = append(dep, f)
			} else {
				consts = append(consts, f)
			}
		}
		if len(consts) > 0 {
			return isolate(Product(dep...), Div(rhs, Product(consts...)), x, depth+1)
		}
		if isNum(rhs, 0) {
			// a product vanishes where any factor does
			var out []Expr
			for _, f := range dep {
				out = append(out, Solve(f, x)...)
			}
			return out, true
		}

	case *Pow:
		if !Has(v.Exp, x) {
			switch {
			case isNum(v.Exp, 2):
				r := Sqrt(rhs)
				return isolateAll(v.Base, []Expr{Neg(r), r}, x, depth)
			case isNum(rhs, 0):
				if n, ok := v.Exp.(*Num); ok && n.sign() < 0 {
					return nil, true
				}
				return isolate(v.Base, rhs, x, depth+1)
			}
			return isolate(v.Base, Power(rhs, Power(v.Exp, Int(-1))), x, depth+1)
		}
		if !Has(v.Base, x) {
			return isolate(v.Exp, Div(Call("ln", rhs), Call("ln", v.Base)), x, depth+1)
		}

	case *Func:
		if len(v.Args) != 1 {
			return nil, false
		}
		u := v.Args[0]
		switch v.Name {
		case "exp":
			if n, ok := rhs.(*Num); ok && n.sign() <= 0 {
				return nil, true
			}
			return isolate(u, Call("ln", rhs), x, depth+1)
		case "ln":
			return isolate(u, Call("exp", rhs), x, depth+1)
		case "sin":
			a := Call("asin", rhs)
			return isolateAll(u, []Expr{a, Minus(Pi, a)}, x, depth)
		case "cos":
			a := Call("acos", rhs)
			return isolateAll(u, []Expr{a, Minus(Product(Int(2), Pi), a)}, x, depth)
		case "tan":
			return isolate(u, Call("atan", rhs), x, depth+1)
		case "sinh":
			return isolate(u, Call("asinh", rhs), x, depth+1)
		case "cosh":
			a := Call("acosh", rhs)
			return isolateAll(u, []Expr{Neg(a), a}, x, depth)
		case "tanh":
			return isolate(u, Call("atanh", rhs), x, depth+1)
		case "asin":
			return isolate(u, Call("sin", rhs), x, depth+1)
		case "acos":
			return isolate(u, Call("cos", rhs), x, depth+1)
		case "atan":
			return isolate(u, Call("tan", rhs), x, depth+1)
		case "abs":
			return isolateAll(u, []Expr{Neg(rhs), rhs}, x, depth)
		}
	}
	return nil, false
}

func isolateAll(u Expr, rhss []Expr, x string, depth int) ([]Expr, bool) {
	var out []Expr
	for _, r := range rhss {
		s, ok := isolate(u, r, x, depth+1)
		if !ok {
			return nil, false
		}
		out = append(out, s...)
	}
	return out, true
}

// scan looks for sign changes of a univariate function on a fixed window
// and refines each by bisection.
func scan(h *halt, e Expr, x string) []Expr {
	if len(FreeSymbols(e)) != 1 {
		return nil
	}
	f := func(t float64) (float64, bool) { return EvalAt(e, x, t) }

	var out []Expr
	step := (scanMax - scanMin) / scanSteps
	prev, prevOK := f(scanMin)
	for i := 1; i <= scanSteps; i++ {
		h.check()
		t := scanMin + float64(i)*step
		cur, ok := f(t)
		switch {
		case ok && cur == 0:
			out = append(out, snapRoot(t))
		case ok && prevOK && prev != 0 && math.Signbit(prev) != math.Signbit(cur):
			if r, ok := bisect(f, t-step, t); ok {
				out = append(out, snapRoot(r))
			}
		}
		prev, prevOK = cur, ok
	}
	return out
}

func bisect(f func(float64) (float64, bool), a, b float64) (float64, bool) {
	fa, _ := f(a)
	for i := 0; i < 100; i++ {
		m := (a + b) / 2
		fm, ok := f(m)
		if !ok {
			return 0, false
		}
		if fm == 0 || b-a < 1e-14 {
			a, b = m, m
			break
		}
		if math.Signbit(fm) == math.Signbit(fa) {
			a, fa = m, fm
		} else {
			b = m
		}
	}
	r := (a + b) / 2
	// a sign change across a pole is not a root
	if v, ok := f(r); !ok || math.Abs(v) > 1e-6 {
		return 0, false
	}
	return r, true
}

func snapRoot(r float64) Expr {
	if math.Abs(r-math.Round(r)) < 1e-10 {
		return Int(int64(math.Round(r)))
	}
	return Float(r)
}

// sortSolutions orders numeric solutions by real then imaginary part;
// symbolic ones follow in their original order.
func sortSolutions(sols []Expr) {
	type keyed struct {
		e       Expr
		c       complex128
		numeric bool
	}
	ks := make([]keyed, len(sols))
	for i, s := range sols {
		c, ok := EvalComplex(s)
		ks[i] = keyed{e: s, c: c, numeric: ok}
	}
	sort.SliceStable(ks, func(i, j int) bool {
		a, b := ks[i], ks[j]
		if a.numeric != b.numeric {
			return a.numeric
		}
		if !a.numeric {
			return false
		}
		if real(a.c) != real(b.c) {
			return real(a.c) < real(b.c)
		}
		return imag(a.c) < imag(b.c)
	})
	for i := range ks {
		sols[i] = ks[i].e
	}
}
