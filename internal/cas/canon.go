package cas

import (
	"math"
	"math/big"
	"sort"
)

// Sum returns the canonical sum of terms: nested sums flattened, numbers
// folded, like terms collected and terms ordered by descending degree.
func Sum(terms ...Expr) Expr {
	var flat []Expr
	for _, t := range terms {
		if a, ok := t.(*Add); ok {
			flat = append(flat, a.Terms...)
		} else {
			flat = append(flat, t)
		}
	}

	constant := Int(0)
	type group struct {
		coeff *Num
		rest  Expr
	}
	groups := map[string]*group{}
	var order []string
	posInf, negInf := false, false

	for _, t := range flat {
		if n, ok := t.(*Num); ok {
			constant = numAdd(constant, n)
			continue
		}
		coeff, rest := splitCoeff(t)
		if rest == Infinity {
			if coeff.sign() > 0 {
				posInf = true
			} else if coeff.sign() < 0 {
				negInf = true
			}
			continue
		}
		if rest == NaN {
			return NaN
		}
		key := rest.String()
		g, ok := groups[key]
		if !ok {
			g = &group{coeff: Int(0), rest: rest}
			groups[key] = g
			order = append(order, key)
		}
		g.coeff = numAdd(g.coeff, coeff)
	}

	switch {
	case posInf && negInf:
		return NaN
	case posInf:
		return Infinity
	case negInf:
		return Neg(Infinity)
	}

	out := make([]Expr, 0, len(order)+1)
	for _, key := range order {
		g := groups[key]
		if g.coeff.isZero() {
			continue
		}
		out = append(out, withCoeff(g.coeff, g.rest))
	}
	sortTerms(out)
	if !constant.isZero() {
		out = append(out, constant)
	}

	switch len(out) {
	case 0:
		if constant.approx {
			return Float(0)
		}
		return Int(0)
	case 1:
		return out[0]
	}
	return &Add{Terms: out}
}

// splitCoeff separates the numeric coefficient of a term.
func splitCoeff(e Expr) (*Num, Expr) {
	switch v := e.(type) {
	case *Num:
		return v, Int(1)
	case *Mul:
		if c, ok := v.Factors[0].(*Num); ok {
			rest := v.Factors[1:]
			if len(rest) == 1 {
				return c, rest[0]
			}
			return c, &Mul{Factors: rest}
		}
	}
	return Int(1), e
}

// withCoeff multiplies an already canonical non-numeric term by c.
func withCoeff(c *Num, rest Expr) Expr {
	if c.isOne() {
		return rest
	}
	if m, ok := rest.(*Mul); ok {
		return &Mul{Factors: append([]Expr{c}, m.Factors...)}
	}
	return &Mul{Factors: []Expr{c, rest}}
}

// Product returns the canonical product of factors: nested products
// flattened, numbers folded into a leading coefficient and like bases
// combined by adding exponents.
func Product(factors ...Expr) Expr {
	return product(factors, 0)
}

func product(factors []Expr, depth int) Expr {
	var flat []Expr
	for _, f := range factors {
		if m, ok := f.(*Mul); ok {
			flat = append(flat, m.Factors...)
		} else {
			flat = append(flat, f)
		}
	}

	coeff := Int(1)
	type group struct {
		base Expr
		exps []Expr
	}
	groups := map[string]*group{}
	var order []string
	hasInf := false

	for _, f := range flat {
		switch v := f.(type) {
		case *Num:
			coeff = numMul(coeff, v)
			continue
		case *Const:
			if v == NaN {
				return NaN
			}
			if v == Infinity {
				hasInf = true
				continue
			}
		}
		base, exp := asPower(f)
		key := base.String()
		g, ok := groups[key]
		if !ok {
			g = &group{base: base}
			groups[key] = g
			order = append(order, key)
		}
		g.exps = append(g.exps, exp)
	}

	if coeff.isZero() {
		if hasInf {
			return NaN
		}
		return coeff
	}

	var out []Expr
	regroup := false
	for _, key := range order {
		g := groups[key]
		p := Power(g.base, Sum(g.exps...))
		switch v := p.(type) {
		case *Num:
			coeff = numMul(coeff, v)
		case *Mul:
			out = append(out, v.Factors...)
			regroup = true
		default:
			out = append(out, p)
		}
	}

	if regroup && depth < 4 {
		return product(append([]Expr{coeff}, append(out, infFactor(hasInf)...)...), depth+1)
	}

	if hasInf {
		// magnitude of the coefficient is irrelevant next to infinity
		if coeff.sign() < 0 {
			coeff = Int(-1)
		} else {
			coeff = Int(1)
		}
		out = append(out, Infinity)
	}

	sortFactors(out)
	switch {
	case len(out) == 0:
		return coeff
	case len(out) == 1 && coeff.isOne():
		return out[0]
	case coeff.isOne():
		return &Mul{Factors: out}
	}
	return &Mul{Factors: append([]Expr{coeff}, out...)}
}

func infFactor(has bool) []Expr {
	if has {
		return []Expr{Infinity}
	}
	return nil
}

// asPower splits e into base and exponent.
func asPower(e Expr) (Expr, Expr) {
	if p, ok := e.(*Pow); ok {
		return p.Base, p.Exp
	}
	return e, Int(1)
}

// Power returns the canonical form of b^e.
func Power(b, e Expr) Expr {
	if en, ok := e.(*Num); ok {
		if en.isZero() {
			return Int(1)
		}
		if en.isOne() {
			return b
		}
	}
	if b == NaN || e == NaN {
		return NaN
	}

	switch bv := b.(type) {
	case *Num:
		if en, ok := e.(*Num); ok {
			return numPow(bv, en)
		}
		if bv.isOne() {
			return Int(1)
		}
		if bv.isZero() {
			return &Pow{Base: b, Exp: e}
		}

	case *Const:
		switch bv {
		case E:
			return Call("exp", e)
		case I:
			if en, ok := e.(*Num); ok && en.isInt() && !en.approx {
				return imagPow(en)
			}
		case Infinity:
			if en, ok := e.(*Num); ok {
				if en.sign() > 0 {
					return Infinity
				}
				return Int(0)
			}
		}

	case *Pow:
		if en, ok := e.(*Num); ok && en.isInt() {
			return Power(bv.Base, Product(bv.Exp, en))
		}

	case *Mul:
		en, ok := e.(*Num)
		if ok && en.isInt() {
			out := make([]Expr, len(bv.Factors))
			for i, f := range bv.Factors {
				out[i] = Power(f, e)
			}
			return Product(out...)
		}
		if c, isNum := bv.Factors[0].(*Num); isNum && c.sign() > 0 {
			rest := &Mul{Factors: bv.Factors[1:]}
			if len(bv.Factors) == 2 {
				return Product(Power(c, e), Power(bv.Factors[1], e))
			}
			return Product(Power(c, e), &Pow{Base: rest, Exp: e})
		}

	case *Func:
		if bv.Name == "exp" {
			if en, ok := e.(*Num); ok && en.isInt() {
				return Call("exp", Product(bv.Args[0], en))
			}
		}
	}
	return &Pow{Base: b, Exp: e}
}

// imagPow reduces I^n.
func imagPow(n *Num) Expr {
	m := new(big.Int).Mod(n.val.Num(), big.NewInt(4)).Int64()
	switch m {
	case 0:
		return Int(1)
	case 1:
		return I
	case 2:
		return Int(-1)
	}
	return &Mul{Factors: []Expr{Int(-1), I}}
}

// numPow evaluates a numeric power, exactly where the result is rational
// or a reducible radical.
func numPow(b, e *Num) Expr {
	if b.approx || e.approx {
		bf, ef := b.Float64(), e.Float64()
		if bf < 0 && ef != math.Trunc(ef) {
			return &Pow{Base: b, Exp: e}
		}
		r := math.Pow(bf, ef)
		if math.IsInf(r, 0) || math.IsNaN(r) {
			return &Pow{Base: b, Exp: e}
		}
		return Float(r)
	}

	if b.isZero() {
		if e.sign() > 0 {
			return Int(0)
		}
		return Infinity
	}
	if b.isOne() {
		return Int(1)
	}

	if e.isInt() {
		if r, ok := ratPowInt(b.val, e.val.Num()); ok {
			return &Num{val: r}
		}
		return &Pow{Base: b, Exp: e}
	}

	// rational exponent p/q: split off the integer part so the remaining
	// exponent lies in (0, 1)
	p, q := e.val.Num(), e.val.Denom()
	if !q.IsInt64() || q.Int64() > 12 || p.BitLen() > 32 {
		return &Pow{Base: b, Exp: e}
	}
	whole := new(big.Int).Div(p, q) // floor for positive q
	frac := new(big.Rat).Sub(e.val, new(big.Rat).SetInt(whole))

	intPart, ok := ratPowInt(b.val, whole)
	if !ok {
		return &Pow{Base: b, Exp: e}
	}

	if b.sign() < 0 {
		if q.Int64() != 2 {
			return &Pow{Base: b, Exp: e}
		}
		// (-n)^(k/2) = I^k * n^(k/2)
		abs := new(big.Rat).Neg(b.val)
		return Product(imagPow(&Num{val: new(big.Rat).SetInt(p)}), numPow(&Num{val: abs}, e))
	}

	coeff, radicand, ok := extractRoot(b.val, frac)
	if !ok {
		return &Pow{Base: b, Exp: e}
	}
	if radicand.Cmp(ratOne) == 0 {
		return &Num{val: coeff.Mul(coeff, intPart)}
	}

	var rad Expr = &Pow{Base: &Num{val: radicand}, Exp: Frac(1, q.Int64())}
	if coeff.Cmp(ratOne) == 0 {
		// nothing extracted: keep the original base, 2^(2/3) not 4^(1/3)
		rad = &Pow{Base: b, Exp: frac2num(frac)}
	}
	c := &Num{val: coeff.Mul(coeff, intPart)}
	if c.isOne() {
		return rad
	}
	return &Mul{Factors: []Expr{c, rad}}
}

func frac2num(r *big.Rat) *Num { return &Num{val: new(big.Rat).Set(r)} }

// ratPowInt computes r^n for bounded results.
func ratPowInt(r *big.Rat, n *big.Int) (*big.Rat, bool) {
	if !n.IsInt64() {
		return nil, false
	}
	k := n.Int64()
	neg := k < 0
	if neg {
		k = -k
	}
	bits := int64(r.Num().BitLen() + r.Denom().BitLen())
	if k > 1 && bits*k > 1<<16 {
		return nil, false
	}
	num := new(big.Int).Exp(r.Num(), big.NewInt(k), nil)
	den := new(big.Int).Exp(r.Denom(), big.NewInt(k), nil)
	if neg {
		if num.Sign() == 0 {
			return nil, false
		}
		num, den = den, num
	}
	return new(big.Rat).SetFrac(num, den), true
}

// extractRoot writes r^(p/q) for positive r and 0 < p/q < 1 as c * m^(1/q)
// with rational c and an integer radicand m free of q-th powers. The
// denominator is rationalised.
func extractRoot(r *big.Rat, e *big.Rat) (*big.Rat, *big.Rat, bool) {
	p, q := e.Num().Int64(), e.Denom().Int64()

	num := new(big.Int).Exp(r.Num(), big.NewInt(p), nil)
	// 1/d^(p/q) = d^(q-p)/q / d
	den := r.Denom()
	num.Mul(num, new(big.Int).Exp(den, big.NewInt(q-p), nil))
	if num.BitLen() > 4096 {
		return nil, nil, false
	}

	out, in := perfectPowerSplit(num, q)
	coeff := new(big.Rat).SetFrac(out, den)
	return coeff, new(big.Rat).SetInt(in), true
}

// perfectPowerSplit factors n = out^q * in using trial division by small
// primes, then checks whether the cofactor is itself a perfect q-th power.
func perfectPowerSplit(n *big.Int, q int64) (*big.Int, *big.Int) {
	out := big.NewInt(1)
	in := big.NewInt(1)
	rest := new(big.Int).Set(n)

	for p := int64(2); p < 10000; p++ {
		bp := big.NewInt(p)
		pq := new(big.Int).Exp(bp, big.NewInt(q), nil)
		if pq.Cmp(rest) > 0 {
			break
		}
		count := int64(0)
		for new(big.Int).Mod(rest, bp).Sign() == 0 {
			rest.Div(rest, bp)
			count++
		}
		if count == 0 {
			continue
		}
		out.Mul(out, new(big.Int).Exp(bp, big.NewInt(count/q), nil))
		in.Mul(in, new(big.Int).Exp(bp, big.NewInt(count%q), nil))
	}

	if root, ok := intRoot(rest, q); ok {
		out.Mul(out, root)
	} else {
		in.Mul(in, rest)
	}
	return out, in
}

// intRoot returns the exact integer q-th root of n when it exists.
func intRoot(n *big.Int, q int64) (*big.Int, bool) {
	if n.Sign() <= 0 {
		return nil, false
	}
	if q == 2 {
		r := new(big.Int).Sqrt(n)
		return r, new(big.Int).Mul(r, r).Cmp(n) == 0
	}
	f, _ := new(big.Float).SetInt(n).Float64()
	guess := int64(math.Round(math.Pow(f, 1/float64(q))))
	for _, g := range []int64{guess - 1, guess, guess + 1} {
		if g <= 0 {
			continue
		}
		r := big.NewInt(g)
		if new(big.Int).Exp(r, big.NewInt(q), nil).Cmp(n) == 0 {
			return r, true
		}
	}
	return nil, false
}

func numAdd(a, b *Num) *Num {
	return &Num{val: new(big.Rat).Add(a.val, b.val), approx: a.approx || b.approx}
}

func numMul(a, b *Num) *Num {
	return &Num{val: new(big.Rat).Mul(a.val, b.val), approx: a.approx || b.approx}
}

func numNeg(a *Num) *Num {
	return &Num{val: new(big.Rat).Neg(a.val), approx: a.approx}
}

func numAbs(a *Num) *Num {
	return &Num{val: new(big.Rat).Abs(a.val), approx: a.approx}
}

// degree is the total degree of a term in its symbols, used for ordering.
func degree(e Expr) float64 {
	switch v := e.(type) {
	case *Sym:
		return 1
	case *Pow:
		if _, ok := v.Base.(*Sym); ok {
			if n, ok := v.Exp.(*Num); ok {
				return n.Float64()
			}
			return 1
		}
		return degree(v.Base)
	case *Mul:
		d := 0.0
		for _, f := range v.Factors {
			d += degree(f)
		}
		return d
	case *Add:
		d := 0.0
		for _, t := range v.Terms {
			d = math.Max(d, degree(t))
		}
		return d
	}
	return 0
}

func sortTerms(terms []Expr) {
	type keyed struct {
		e   Expr
		deg float64
		key string
	}
	ks := make([]keyed, len(terms))
	for i, t := range terms {
		_, rest := splitCoeff(t)
		ks[i] = keyed{e: t, deg: degree(t), key: rest.String()}
	}
	sort.SliceStable(ks, func(i, j int) bool {
		if ks[i].deg != ks[j].deg {
			return ks[i].deg > ks[j].deg
		}
		return ks[i].key < ks[j].key
	})
	for i := range ks {
		terms[i] = ks[i].e
	}
}

func factorRank(e Expr) int {
	base, _ := asPower(e)
	switch base.(type) {
	case *Num:
		return 0
	case *Const:
		return 1
	case *Sym:
		return 2
	case *Func:
		return 3
	}
	return 4
}

func sortFactors(factors []Expr) {
	type keyed struct {
		e    Expr
		rank int
		key  string
	}
	ks := make([]keyed, len(factors))
	for i, f := range factors {
		base, _ := asPower(f)
		ks[i] = keyed{e: f, rank: factorRank(f), key: base.String()}
	}
	sort.SliceStable(ks, func(i, j int) bool {
		if ks[i].rank != ks[j].rank {
			return ks[i].rank < ks[j].rank
		}
		return ks[i].key < ks[j].key
	})
	for i := range ks {
		factors[i] = ks[i].e
	}
}
