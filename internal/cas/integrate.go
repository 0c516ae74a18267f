package cas

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"gonum.org/v1/gonum/integrate/quad"
)

// ErrNotFinite is returned when a definite integral has no finite value.
var ErrNotFinite = errors.New("integral does not converge")

const (
	subsVar        = "_u"
	maxIntegrDepth = 4
	quadPoints     = 128
)

// Integrate returns an antiderivative of e with respect to x, without the
// constant of integration. Integrands outside the rule set come back as an
// unevaluated Integral.
func Integrate(e Expr, x string) Expr {
	if f, ok := integrate(e, x, 0); ok {
		return f
	}
	return &Func{Name: "Integral", Args: []Expr{e, Symbol(x)}}
}

// Definite evaluates the integral of e over [a, b]. It uses the
// antiderivative when one is found, rejecting integrands that are not finite
// on the open interval, and falls back to Gauss-Legendre quadrature for
// finite bounds otherwise.
func Definite(e Expr, x string, a, b Expr) (Expr, error) {
	af, aok := bound(a)
	bf, bok := bound(b)
	if !aok || !bok {
		return nil, fmt.Errorf("integration limits must be numeric")
	}

	if F, ok := integrate(e, x, 0); ok {
		if !finiteOn(e, x, af, bf) {
			return nil, ErrNotFinite
		}
		upper, err := boundValue(F, x, b, bf, "-")
		if err != nil {
			return nil, err
		}
		lower, err := boundValue(F, x, a, af, "+")
		if err != nil {
			return nil, err
		}
		v := Simplify(Minus(upper, lower))
		if v == NaN || v == Infinity || isNegInf(v) {
			return nil, ErrNotFinite
		}
		return v, nil
	}

	if math.IsInf(af, 0) || math.IsInf(bf, 0) {
		return nil, ErrNotFinite
	}
	f := func(t float64) float64 {
		v, ok := EvalAt(e, x, t)
		if !ok {
			return math.NaN()
		}
		return v
	}
	r := quad.Fixed(f, af, bf, quadPoints, quad.Legendre{}, 0)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return nil, ErrNotFinite
	}
	return Float(r), nil
}

func bound(e Expr) (float64, bool) {
	switch {
	case e == Infinity:
		return math.Inf(1), true
	case isNegInf(e):
		return math.Inf(-1), true
	}
	return Evalf(e)
}

func boundValue(F Expr, x string, at Expr, f float64, dir string) (Expr, error) {
	if math.IsInf(f, 0) {
		return Limit(F, x, at, dir)
	}
	return Subs(F, x, at), nil
}

// finiteOn samples the integrand on the open interval.
func finiteOn(e Expr, x string, a, b float64) bool {
	if math.IsInf(a, 0) || math.IsInf(b, 0) {
		// map onto a finite window
		lo, hi := a, b
		if math.IsInf(lo, -1) {
			lo = math.Min(-1e3, hi-1e3)
		}
		if math.IsInf(hi, 1) {
			hi = math.Max(1e3, lo+1e3)
		}
		a, b = lo, hi
	}
	const samples = 200
	for i := 1; i < samples; i++ {
		t := a + (b-a)*float64(i)/samples
		if _, ok := EvalAt(e, x, t); !ok {
			return false
		}
	}
	return true
}

func integrate(e Expr, x string, depth int) (Expr, bool) {
	if !Has(e, x) {
		return Product(e, Symbol(x)), true
	}
	if depth > maxIntegrDepth {
		return nil, false
	}

	switch v := e.(type) {
	case *Sym:
		return Product(Frac(1, 2), Power(v, Int(2))), true

	case *Add:
		out := make([]Expr, len(v.Terms))
		for i, t := range v.Terms {
			f, ok := integrate(t, x, depth)
			if !ok {
				return nil, false
			}
			out[i] = f
		}
		return Sum(out...), true

	case *Mul:
		var consts, deps []Expr
		for _, f := range v.Factors {
			if Has(f, x) {
				deps = append(deps, f)
			} else {
				consts = append(consts, f)
			}
		}
		if len(consts) > 0 {
			f, ok := integrate(Product(deps...), x, depth)
			if !ok {
				return nil, false
			}
			return Product(append(consts, f)...), true
		}
		return integrateProduct(v, x, depth)

	case *Pow:
		return integratePow(v, x, depth)

	case *Func:
		if len(v.Args) != 1 {
			return nil, false
		}
		if a, b, ok := linear(v.Args[0], x); ok {
			if f, ok := linearTable(v.Name, v.Args[0], a, b); ok {
				return f, true
			}
		}
		return substitute(e, x, depth)
	}
	return nil, false
}

// linear matches u = a*x + b.
func linear(u Expr, x string) (Expr, Expr, bool) {
	cs, ok := symCoeffs(u, x)
	if !ok || len(cs) != 2 || isNum(cs[1], 0) {
		return nil, nil, false
	}
	return cs[1], cs[0], true
}

// linearTable integrates f(u) for linear u = a*x + b.
func linearTable(name string, u, a, _ Expr) (Expr, bool) {
	inv := Power(a, Int(-1))
	one := Int(1)
	var F Expr
	switch name {
	case "sin":
		F = Neg(Call("cos", u))
	case "cos":
		F = Call("sin", u)
	case "tan":
		F = Neg(Call("ln", Call("abs", Call("cos", u))))
	case "exp":
		F = Call("exp", u)
	case "sinh":
		F = Call("cosh", u)
	case "cosh":
		F = Call("sinh", u)
	case "tanh":
		F = Call("ln", Call("cosh", u))
	case "ln":
		F = Minus(Product(u, Call("ln", u)), u)
	case "asin":
		F = Sum(Product(u, Call("asin", u)), Sqrt(Minus(one, Power(u, Int(2)))))
	case "acos":
		F = Minus(Product(u, Call("acos", u)), Sqrt(Minus(one, Power(u, Int(2)))))
	case "atan":
		F = Minus(Product(u, Call("atan", u)), Product(Frac(1, 2), Call("ln", Sum(Power(u, Int(2)), one))))
	case "asinh":
		F = Minus(Product(u, Call("asinh", u)), Sqrt(Sum(Power(u, Int(2)), one)))
	default:
		return nil, false
	}
	return Product(inv, F), true
}

func integratePow(p *Pow, x string, depth int) (Expr, bool) {
	// b^u with constant base
	if !Has(p.Base, x) {
		a, _, ok := linear(p.Exp, x)
		if !ok {
			return substitute(p, x, depth)
		}
		return Product(p, Power(Product(a, Call("ln", p.Base)), Int(-1))), true
	}
	if Has(p.Exp, x) {
		return nil, false
	}

	// u^n with linear u
	if a, _, ok := linear(p.Base, x); ok {
		if isNum(p.Exp, -1) {
			return Product(Power(a, Int(-1)), Call("ln", Call("abs", p.Base))), true
		}
		n1 := Sum(p.Exp, Int(1))
		return Product(Power(p.Base, n1), Power(Product(a, n1), Int(-1))), true
	}

	// sin(u)^2, cos(u)^2
	if f, ok := p.Base.(*Func); ok && isNum(p.Exp, 2) && (f.Name == "sin" || f.Name == "cos") {
		if a, _, ok := linear(f.Args[0], x); ok {
			u := f.Args[0]
			half := Product(Frac(1, 2), u)
			quarter := Product(Frac(1, 4), Call("sin", Product(Int(2), u)))
			if f.Name == "sin" {
				return Product(Power(a, Int(-1)), Minus(half, quarter)), true
			}
			return Product(Power(a, Int(-1)), Sum(half, quarter)), true
		}
	}

	if n, ok := p.Exp.(*Num); ok && !n.approx {
		if _, isAdd := p.Base.(*Add); isAdd {
			switch {
			case n.isInt() && n.sign() < 0:
				if f, ok := integrateRational(p, x); ok {
					return f, true
				}
			case n.isInt() && n.sign() > 0:
				if ex := Expand(p); !Equal(ex, p) {
					return integrate(ex, x, depth+1)
				}
			case isRat(n, -1, 2):
				if f, ok := inverseSqrtQuadratic(p.Base, x); ok {
					return f, true
				}
			}
		}
	}
	return substitute(p, x, depth)
}

// inverseSqrtQuadratic integrates (c - a*x^2)^(-1/2) and (a*x^2 + c)^(-1/2)
// for positive a and c.
func inverseSqrtQuadratic(q Expr, x string) (Expr, bool) {
	p, approx, ok := toPoly(q, x)
	if !ok || approx || len(p) != 3 || p[1].Sign() != 0 || p[0].Sign() <= 0 {
		return nil, false
	}
	a := Rat(p[2])
	c := Rat(p[0])
	scale := Sqrt(Product(numAbs(a), Power(c, Int(-1))))
	arg := Product(scale, Symbol(x))
	k := Power(Sqrt(numAbs(a)), Int(-1))
	if a.sign() < 0 {
		return Product(k, Call("asin", arg)), true
	}
	return Product(k, Call("asinh", arg)), true
}

func integrateProduct(m *Mul, x string, depth int) (Expr, bool) {
	if f, ok := integrateRational(m, x); ok {
		return f, true
	}
	if f, ok := byParts(m, x, depth); ok {
		return f, true
	}
	if f, ok := substitute(m, x, depth); ok {
		return f, true
	}
	if ex := Expand(m); !Equal(ex, m) {
		return integrate(ex, x, depth+1)
	}
	return nil, false
}

// byParts handles polynomial * {exp, sin, cos, sinh, cosh}(linear) by
// repeated integration by parts, and polynomial * ln(linear).
func byParts(m *Mul, x string, depth int) (Expr, bool) {
	var polys []Expr
	var other Expr
	for _, f := range m.Factors {
		if isPolyIn(f, x) {
			polys = append(polys, f)
			continue
		}
		if other != nil {
			return nil, false
		}
		other = f
	}
	if other == nil || len(polys) == 0 {
		return nil, false
	}
	p := Product(polys...)

	fn, ok := other.(*Func)
	if !ok {
		if pw, isPow := other.(*Pow); isPow && !Has(pw.Base, x) {
			return tabular(p, other, x, depth)
		}
		return nil, false
	}
	if _, _, ok := linear(fn.Args[0], x); !ok {
		return nil, false
	}
	switch fn.Name {
	case "exp", "sin", "cos", "sinh", "cosh":
		return tabular(p, other, x, depth)
	case "ln", "atan", "asin":
		// ∫ p f = P f - ∫ P f'
		P, ok := integrate(p, x, depth+1)
		if !ok {
			return nil, false
		}
		rest, ok := integrate(Cancel(Product(P, diff(other, x))), x, depth+1)
		if !ok {
			return nil, false
		}
		return Minus(Product(P, other), rest), true
	}
	return nil, false
}

func isPolyIn(e Expr, x string) bool {
	if !Has(e, x) {
		return false
	}
	cs, ok := symCoeffs(e, x)
	return ok && len(cs) > 1
}

// tabular computes ∫ p*f = Σ (-1)^k p^(k) F_(k+1) for polynomial p.
func tabular(p, f Expr, x string, depth int) (Expr, bool) {
	var out []Expr
	F := f
	sign := int64(1)
	for k := 0; k < 32; k++ {
		if isNum(p, 0) {
			return Sum(out...), true
		}
		next, ok := integrate(F, x, depth+1)
		if !ok {
			return nil, false
		}
		F = next
		out = append(out, Product(Int(sign), p, F))
		p = diff(p, x)
		sign = -sign
	}
	return nil, false
}

// substitute tries u-substitution with u taken from the inner arguments and
// the factors of e.
func substitute(e Expr, x string, depth int) (Expr, bool) {
	if depth >= maxIntegrDepth || Has(e, subsVar) {
		return nil, false
	}
	for _, u := range substitutionCandidates(e, x) {
		du := diff(u, x)
		if isNum(du, 0) {
			continue
		}
		g := Cancel(Div(e, du))
		h := replace(g, u, Symbol(subsVar))
		if Has(h, x) {
			continue
		}
		F, ok := integrate(h, subsVar, depth+1)
		if !ok {
			continue
		}
		return replace(F, Symbol(subsVar), u), true
	}
	return nil, false
}

func substitutionCandidates(e Expr, x string) []Expr {
	var inner, whole []Expr
	seen := map[string]bool{}
	add := func(list *[]Expr, u Expr) {
		if u == nil || !Has(u, x) {
			return
		}
		if s, ok := u.(*Sym); ok && s.Name == x {
			return
		}
		if k := u.String(); !seen[k] {
			seen[k] = true
			*list = append(*list, u)
		}
	}
	factors := []Expr{e}
	if m, ok := e.(*Mul); ok {
		factors = m.Factors
	}
	for _, f := range factors {
		switch v := f.(type) {
		case *Func:
			if len(v.Args) == 1 {
				add(&inner, v.Args[0])
			}
			add(&whole, v)
		case *Pow:
			if Has(v.Base, x) {
				add(&inner, v.Base)
				if fn, ok := v.Base.(*Func); ok && len(fn.Args) == 1 {
					add(&inner, fn.Args[0])
				}
			} else {
				add(&inner, v.Exp)
			}
		}
	}
	return append(inner, whole...)
}

// replace substitutes every subtree structurally equal to target.
func replace(e, target, with Expr) Expr {
	key := target.String()
	var walk func(Expr) Expr
	walk = func(n Expr) Expr {
		if n.String() == key {
			return with
		}
		kids := Children(n)
		if len(kids) == 0 {
			return n
		}
		args := make([]Expr, len(kids))
		for i, k := range kids {
			args[i] = walk(k)
		}
		return rebuild(n, args)
	}
	return walk(e)
}

// integrateRational integrates n(x)/d(x) with rational coefficients whose
// denominator splits into rational linear factors and at most one
// irreducible quadratic.
func integrateRational(e Expr, x string) (Expr, bool) {
	n, d := together(e)
	np, a1, ok1 := toPoly(n, x)
	dp, a2, ok2 := toPoly(d, x)
	if !ok1 || !ok2 || a1 || a2 || len(dp) < 2 {
		return nil, false
	}
	if g := np.gcd(dp); len(g) > 1 {
		np, _ = np.divmod(g)
		dp, _ = dp.divmod(g)
	}
	if len(dp) < 2 {
		return integratePoly(Div(np.expr(x), Rat(dp[0])), x), true
	}

	q, r := np.divmod(dp)
	out := []Expr{integratePoly(q.expr(x), x)}
	if len(r) == 0 {
		return Sum(out...), true
	}

	roots, mult, rem := dp.rationalRoots()
	if rem.degree() > 2 {
		return nil, false
	}
	X := Symbol(x)
	R := r.expr(x)
	D := dp.expr(x)

	var linearParts []Expr
	for i, root := range roots {
		rr := Rat(root)
		others := Product(D, Power(Minus(X, rr), Int(int64(-mult[i]))))
		g := Cancel(Div(R, others))
		fact := big.NewInt(1)
		for j := 0; j < mult[i]; j++ {
			// coefficient of 1/(x-r)^(m-j) is g^(j)(r)/j!
			dj, _ := Diff(g, x, j)
			if j > 0 {
				fact.Mul(fact, big.NewInt(int64(j)))
			}
			c := Product(Simplify(Subs(dj, x, rr)), &Num{val: new(big.Rat).SetFrac(big.NewInt(1), fact)})
			if _, isNum := c.(*Num); !isNum {
				return nil, false
			}
			k := mult[i] - j
			linearParts = append(linearParts, Product(c, Power(Minus(X, rr), Int(int64(-k)))))
			if k == 1 {
				out = append(out, Product(c, Call("ln", Call("abs", Minus(X, rr)))))
			} else {
				out = append(out, Product(c, Power(Minus(X, rr), Int(int64(1-k))), Frac(1, int64(1-k))))
			}
		}
	}

	if rem.degree() < 1 {
		return Sum(out...), true
	}

	// what is left is (alpha x + beta)/quadratic
	left := Cancel(Minus(Div(R, D), Sum(linearParts...)))
	ln, ld := together(left)
	lp, _, ok3 := toPoly(ln, x)
	qp, _, ok4 := toPoly(Expand(ld), x)
	if !ok3 || !ok4 || qp.degree() != 2 || lp.degree() > 1 {
		return nil, false
	}
	out = append(out, integrateQuadratic(lp, qp, x))
	return Sum(out...), true
}

// integrateQuadratic integrates (alpha x + beta)/(a x^2 + b x + c) with no
// rational roots in the denominator.
func integrateQuadratic(num, den poly, x string) Expr {
	at := func(p poly, i int) *big.Rat {
		if i < len(p) {
			return p[i]
		}
		return new(big.Rat)
	}
	alpha, beta := Rat(at(num, 1)), Rat(at(num, 0))
	a, b, c := Rat(den[2]), Rat(den[1]), Rat(den[0])
	X := Symbol(x)
	Q := den.expr(x)

	// alpha/(2a) * ln|Q| + (beta - alpha b/(2a)) * ∫ 1/Q
	k1 := Product(alpha, Power(Product(Int(2), a), Int(-1)))
	k2 := Minus(beta, Product(alpha, b, Power(Product(Int(2), a), Int(-1))))
	var out []Expr
	if !isNum(k1, 0) {
		out = append(out, Product(k1, Call("ln", Call("abs", Q))))
	}
	if !isNum(k2, 0) {
		disc := Minus(Product(Int(4), a, c), Power(b, Int(2))).(*Num)
		lin := Sum(Product(Int(2), a, X), b)
		if disc.sign() > 0 {
			s := Sqrt(disc)
			out = append(out, Product(k2, Int(2), Power(s, Int(-1)), Call("atan", Product(lin, Power(s, Int(-1))))))
		} else {
			s := Sqrt(numNeg(disc))
			ratio := Product(Minus(lin, s), Power(Sum(lin, s), Int(-1)))
			out = append(out, Product(k2, Power(s, Int(-1)), Call("ln", Call("abs", ratio))))
		}
	}
	return Sum(out...)
}

// integratePoly integrates a polynomial term by term.
func integratePoly(p Expr, x string) Expr {
	f, ok := integrate(Expand(p), x, 0)
	if !ok {
		return &Func{Name: "Integral", Args: []Expr{p, Symbol(x)}}
	}
	return f
}
