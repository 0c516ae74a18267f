package cas

import (
	"math/big"
	"sort"
)

// poly is a univariate polynomial with rational coefficients; index i holds
// the coefficient of x^i.
type poly []*big.Rat

// toPoly extracts rational coefficients of e in x. approx is set when any
// coefficient is a floating point approximation.
func toPoly(e Expr, x string) (p poly, approx bool, ok bool) {
	coeffs, ok := symCoeffs(e, x)
	if !ok {
		return nil, false, false
	}
	p = make(poly, len(coeffs))
	for i, c := range coeffs {
		n, isNum := c.(*Num)
		if !isNum {
			return nil, false, false
		}
		approx = approx || n.approx
		p[i] = n.Rat()
	}
	return p.trim(), approx, true
}

// symCoeffs returns coefficients (free of x) of the expanded polynomial e in x.
func symCoeffs(e Expr, x string) ([]Expr, bool) {
	ex := Expand(e)
	terms := []Expr{ex}
	if a, ok := ex.(*Add); ok {
		terms = a.Terms
	}

	byDeg := map[int][]Expr{}
	maxDeg := 0
	for _, t := range terms {
		deg, coeff, ok := monomial(t, x)
		if !ok {
			return nil, false
		}
		byDeg[deg] = append(byDeg[deg], coeff)
		maxDeg = max(maxDeg, deg)
	}
	out := make([]Expr, maxDeg+1)
	for d := range out {
		out[d] = Sum(byDeg[d]...)
	}
	return out, true
}

// monomial splits a term into coeff * x^deg with coeff free of x.
func monomial(t Expr, x string) (int, Expr, bool) {
	factors := []Expr{t}
	if m, ok := t.(*Mul); ok {
		factors = m.Factors
	}
	deg := 0
	var rest []Expr
	for _, f := range factors {
		if d, ok := xPower(f, x); ok {
			deg += d
			continue
		}
		if Has(f, x) {
			return 0, nil, false
		}
		rest = append(rest, f)
	}
	return deg, Product(rest...), true
}

func xPower(f Expr, x string) (int, bool) {
	switch v := f.(type) {
	case *Sym:
		if v.Name == x {
			return 1, true
		}
	case *Pow:
		s, ok := v.Base.(*Sym)
		n, isNum := v.Exp.(*Num)
		if ok && s.Name == x && isNum && n.isInt() && n.sign() > 0 && !n.approx && n.val.Num().IsInt64() {
			return int(n.val.Num().Int64()), true
		}
	}
	return 0, false
}

func (p poly) trim() poly {
	n := len(p)
	for n > 0 && p[n-1].Sign() == 0 {
		n--
	}
	return p[:n]
}

func (p poly) degree() int { return len(p.trim()) - 1 }

func (p poly) lead() *big.Rat { return p[len(p)-1] }

func (p poly) eval(x *big.Rat) *big.Rat {
	r := new(big.Rat)
	for i := len(p) - 1; i >= 0; i-- {
		r.Mul(r, x)
		r.Add(r, p[i])
	}
	return r
}

func (p poly) evalFloat(x float64) float64 {
	r := 0.0
	for i := len(p) - 1; i >= 0; i-- {
		f, _ := p[i].Float64()
		r = r*x + f
	}
	return r
}

func (p poly) derivative() poly {
	if len(p) <= 1 {
		return poly{}
	}
	out := make(poly, len(p)-1)
	for i := 1; i < len(p); i++ {
		out[i-1] = new(big.Rat).Mul(p[i], new(big.Rat).SetInt64(int64(i)))
	}
	return out
}

// divmod divides p by d, d non-zero.
func (p poly) divmod(d poly) (q, r poly) {
	d = d.trim()
	r = make(poly, len(p))
	for i := range p {
		r[i] = new(big.Rat).Set(p[i])
	}
	r = r.trim()
	if len(r) < len(d) {
		return poly{}, r
	}
	q = make(poly, len(r)-len(d)+1)
	for i := range q {
		q[i] = new(big.Rat)
	}
	for len(r) >= len(d) && len(r) > 0 {
		shift := len(r) - len(d)
		c := new(big.Rat).Quo(r.lead(), d.lead())
		q[shift] = c
		for i := range d {
			t := new(big.Rat).Mul(c, d[i])
			r[i+shift].Sub(r[i+shift], t)
		}
		r = r.trim()
	}
	return q.trim(), r
}

// gcd returns the monic greatest common divisor.
func (p poly) gcd(o poly) poly {
	a, b := p.trim(), o.trim()
	for len(b) > 0 {
		_, r := a.divmod(b)
		a, b = b, r
	}
	if len(a) == 0 {
		return a
	}
	lead := new(big.Rat).Set(a.lead())
	out := make(poly, len(a))
	for i := range a {
		out[i] = new(big.Rat).Quo(a[i], lead)
	}
	return out
}

// primitive scales p to integer coefficients with gcd 1 and positive leading
// coefficient, returning the scale factor c with p = c * primitive.
func (p poly) primitive() (*big.Rat, []*big.Int) {
	p = p.trim()
	lcm := big.NewInt(1)
	for _, c := range p {
		d := c.Denom()
		g := new(big.Int).GCD(nil, nil, lcm, d)
		lcm.Mul(lcm, new(big.Int).Quo(d, g))
	}
	ints := make([]*big.Int, len(p))
	g := new(big.Int)
	for i, c := range p {
		v := new(big.Int).Mul(c.Num(), new(big.Int).Quo(lcm, c.Denom()))
		ints[i] = v
		g.GCD(nil, nil, g, new(big.Int).Abs(v))
	}
	if g.Sign() == 0 {
		g.SetInt64(1)
	}
	if ints[len(ints)-1].Sign() < 0 {
		g.Neg(g)
	}
	for i := range ints {
		ints[i].Quo(ints[i], g)
	}
	return new(big.Rat).SetFrac(g, lcm), ints
}

// expr converts p back to a canonical expression in x.
func (p poly) expr(x string) Expr {
	terms := make([]Expr, 0, len(p))
	for i, c := range p {
		if c.Sign() == 0 {
			continue
		}
		terms = append(terms, Product(Rat(c), Power(Symbol(x), Int(int64(i)))))
	}
	return Sum(terms...)
}

// rationalRoots finds the rational roots of p with their multiplicities,
// deflating p as it goes. It returns the roots in ascending order and the
// remaining factor.
func (p poly) rationalRoots() ([]*big.Rat, []int, poly) {
	p = p.trim()
	var roots []*big.Rat
	var mult []int

	// zero roots
	zeros := 0
	for len(p) > 1 && p[0].Sign() == 0 {
		p = p[1:]
		zeros++
	}
	if zeros > 0 {
		roots = append(roots, new(big.Rat))
		mult = append(mult, zeros)
	}
	if len(p) <= 1 {
		return roots, mult, p
	}

	_, ints := p.primitive()
	a0 := new(big.Int).Abs(ints[0])
	an := new(big.Int).Abs(ints[len(ints)-1])
	ps, ok1 := divisors(a0)
	qs, ok2 := divisors(an)
	if !ok1 || !ok2 {
		return roots, mult, p
	}

	seen := map[string]bool{}
	var candidates []*big.Rat
	for _, a := range ps {
		for _, b := range qs {
			for _, s := range []int64{1, -1} {
				r := new(big.Rat).SetFrac(new(big.Int).Mul(a, big.NewInt(s)), b)
				k := r.RatString()
				if !seen[k] {
					seen[k] = true
					candidates = append(candidates, r)
				}
			}
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Cmp(candidates[j]) < 0 })

	for _, r := range candidates {
		m := 0
		for len(p) > 1 && p.eval(r).Sign() == 0 {
			lin := poly{new(big.Rat).Neg(r), big.NewRat(1, 1)}
			p, _ = p.divmod(lin)
			m++
		}
		if m > 0 {
			roots = append(roots, r)
			mult = append(mult, m)
		}
	}

	sortRoots(roots, mult)
	return roots, mult, p
}

func sortRoots(roots []*big.Rat, mult []int) {
	idx := make([]int, len(roots))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return roots[idx[a]].Cmp(roots[idx[b]]) < 0 })
	r2 := make([]*big.Rat, len(roots))
	m2 := make([]int, len(mult))
	for i, j := range idx {
		r2[i], m2[i] = roots[j], mult[j]
	}
	copy(roots, r2)
	copy(mult, m2)
}

// divisors lists positive divisors of n, refusing numbers too large to
// enumerate quickly.
func divisors(n *big.Int) ([]*big.Int, bool) {
	if n.Sign() == 0 {
		return nil, false
	}
	if !n.IsInt64() || n.Int64() > 1_000_000_000_000 {
		return nil, false
	}
	v := n.Int64()
	var out []*big.Int
	for d := int64(1); d*d <= v; d++ {
		if v%d == 0 {
			out = append(out, big.NewInt(d))
			if d*d != v {
				out = append(out, big.NewInt(v/d))
			}
		}
		if d > 1_000_000 {
			return nil, false
		}
	}
	return out, true
}
