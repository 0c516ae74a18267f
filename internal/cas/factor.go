package cas

import (
	"math/big"
	"sort"
)

// Factor writes e as a product of irreducible factors over the rationals.
// Rational functions are factored in numerator and denominator separately.
func Factor(e Expr) Expr {
	if len(FreeSymbols(e)) == 0 {
		return e
	}
	n, d := together(e)
	if isNum(d, 1) {
		return factorExpr(n)
	}
	return Div(factorExpr(n), factorExpr(Expand(d)))
}

func factorExpr(e Expr) Expr {
	switch v := e.(type) {
	case *Mul:
		out := make([]Expr, len(v.Factors))
		for i, f := range v.Factors {
			out[i] = factorExpr(f)
		}
		return Product(out...)
	case *Pow:
		if _, ok := v.Base.(*Add); ok {
			return Power(factorExpr(v.Base), v.Exp)
		}
		return e
	case *Add:
		return factorSum(Expand(v))
	}
	return e
}

func factorSum(e Expr) Expr {
	a, ok := e.(*Add)
	if !ok {
		return factorExpr(e)
	}

	content, rest := commonContent(a.Terms)
	if !isNum(content, 1) {
		return Product(content, factorSum(rest))
	}

	syms := FreeSymbols(a)
	if len(syms) == 1 {
		if f, ok := factorUnivariate(a, syms[0]); ok {
			return f
		}
	}
	if f, ok := differenceOfSquares(a); ok {
		return f
	}
	return a
}

// commonContent pulls out the rational content and the monomial gcd shared by
// every term.
func commonContent(ts []Expr) (Expr, Expr) {
	var g *big.Rat
	minExp := map[string]*big.Rat{}
	bases := map[string]Expr{}
	for i, t := range ts {
		c, rest := splitCoeff(t)
		if c.approx {
			return Int(1), Sum(ts...)
		}
		if g == nil {
			g = new(big.Rat).Abs(c.val)
		} else {
			g = ratGCD(g, c.val)
		}

		exps := map[string]*big.Rat{}
		factors := []Expr{rest}
		if m, ok := rest.(*Mul); ok {
			factors = m.Factors
		}
		for _, f := range factors {
			base, exp := asPower(f)
			n, numExp := exp.(*Num)
			if _, isSym := base.(*Sym); !isSym || !numExp || n.approx || n.sign() <= 0 {
				continue
			}
			exps[base.String()] = n.val
			bases[base.String()] = base
		}
		if i == 0 {
			minExp = exps
			continue
		}
		for k, v := range minExp {
			ev, ok := exps[k]
			switch {
			case !ok:
				delete(minExp, k)
			case ev.Cmp(v) < 0:
				minExp[k] = ev
			}
		}
	}

	if lc, _ := splitCoeff(ts[0]); lc.sign() < 0 && g != nil {
		g.Neg(g)
	}
	parts := []Expr{Rat(g)}
	keys := make([]string, 0, len(minExp))
	for k := range minExp {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, Power(bases[k], Rat(minExp[k])))
	}
	content := Product(parts...)
	if isNum(content, 1) {
		return content, Sum(ts...)
	}
	inv := Power(content, Int(-1))
	out := make([]Expr, len(ts))
	for i, t := range ts {
		out[i] = Product(t, inv)
	}
	return content, Sum(out...)
}

// ratGCD is the gcd of two rationals: gcd of numerators over lcm of
// denominators.
func ratGCD(a, b *big.Rat) *big.Rat {
	num := new(big.Int).GCD(nil, nil, new(big.Int).Abs(a.Num()), new(big.Int).Abs(b.Num()))
	da, db := a.Denom(), b.Denom()
	g := new(big.Int).GCD(nil, nil, da, db)
	lcm := new(big.Int).Mul(da, new(big.Int).Quo(db, g))
	if num.Sign() == 0 {
		return new(big.Rat).SetFrac(big.NewInt(1), lcm)
	}
	return new(big.Rat).SetFrac(num, lcm)
}

// factorUnivariate splits off the linear factors of the rational roots and
// factors what remains as a polynomial in x^k when possible.
func factorUnivariate(e Expr, x string) (Expr, bool) {
	p, approx, ok := toPoly(e, x)
	if !ok || approx || len(p) < 3 {
		return nil, false
	}

	roots, mult, rem := p.rationalRoots()
	c, ints := rem.primitive()
	factors := []Expr{Rat(c)}
	for i, r := range roots {
		q := new(big.Rat).SetInt(r.Denom())
		lin := poly{new(big.Rat).Neg(new(big.Rat).SetInt(r.Num())), q}
		factors = append(factors, Power(lin.expr(x), Int(int64(mult[i]))))
		// (q x - p) = q (x - p/q)
		qm := new(big.Rat).SetInt(new(big.Int).Exp(r.Denom(), big.NewInt(int64(mult[i])), nil))
		factors[0] = Rat(new(big.Rat).Quo(factors[0].(*Num).val, qm))
	}

	residual := make(poly, len(ints))
	for i, v := range ints {
		residual[i] = new(big.Rat).SetInt(v)
	}
	if len(residual) > 1 {
		factors = append(factors, factorResidual(residual, x))
	}
	if len(roots) == 0 && len(factors) == 2 {
		if _, isMul := factors[1].(*Mul); !isMul {
			return nil, false
		}
	}
	return Product(factors...), true
}

// factorResidual tries the substitution y = x^k for polynomials whose
// exponents share a common factor k.
func factorResidual(p poly, x string) Expr {
	k := 0
	for i, c := range p {
		if c.Sign() != 0 && i > 0 {
			k = gcdInt(k, i)
		}
	}
	if k < 2 {
		return p.expr(x)
	}
	sub := make(poly, (len(p)-1)/k+1)
	for i := range sub {
		sub[i] = p[i*k]
	}
	const y = "_y"
	f, ok := factorUnivariate(sub.expr(y), y)
	if !ok {
		return p.expr(x)
	}
	return Subs(f, y, Power(Symbol(x), Int(int64(k))))
}

func gcdInt(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// differenceOfSquares factors a^2 - b^2 as (a - b)(a + b).
func differenceOfSquares(a *Add) (Expr, bool) {
	if len(a.Terms) != 2 {
		return nil, false
	}
	t1, t2 := a.Terms[0], a.Terms[1]
	if isNegative(t1) == isNegative(t2) {
		return nil, false
	}
	if isNegative(t1) {
		t1, t2 = t2, t1
	}
	r1, ok1 := exactSqrt(t1)
	r2, ok2 := exactSqrt(Neg(t2))
	if !ok1 || !ok2 {
		return nil, false
	}
	return Product(factorSum(Minus(r1, r2)), factorSum(Sum(r1, r2))), true
}

// exactSqrt returns the square root of a monomial with a rational square
// coefficient and even exponents.
func exactSqrt(t Expr) (Expr, bool) {
	c, rest := splitCoeff(t)
	if c.approx || c.sign() <= 0 {
		return nil, false
	}
	num, ok1 := intRoot(c.val.Num(), 2)
	den, ok2 := intRoot(c.val.Denom(), 2)
	if !ok1 || !ok2 {
		return nil, false
	}
	out := []Expr{&Num{val: new(big.Rat).SetFrac(num, den)}}
	factors := []Expr{rest}
	if m, ok := rest.(*Mul); ok {
		factors = m.Factors
	}
	for _, f := range factors {
		if isNum(f, 1) {
			continue
		}
		base, exp := asPower(f)
		n, ok := exp.(*Num)
		if !ok || n.approx || !n.isInt() || new(big.Int).Mod(n.val.Num(), big.NewInt(2)).Sign() != 0 {
			return nil, false
		}
		out = append(out, Power(base, &Num{val: new(big.Rat).Quo(n.val, big.NewRat(2, 1))}))
	}
	return Product(out...), true
}
