package cas

import (
	"context"
	"errors"
	"math/big"
)

// ErrTooLarge is returned by ExpandContext for a product or power too large
// to multiply out.
var ErrTooLarge = errors.New("expansion too large")

const (
	// maxExpandTerms bounds the size of a distributed product.
	maxExpandTerms = 5000

	// maxExpandPower bounds the exponent of a sum that is multiplied out.
	maxExpandPower = 50
)

// Expand distributes products over sums and multiplies out integer powers
// of sums. Negative powers of sums expand their base only. Products and
// powers beyond the size limits are left as they are.
func Expand(e Expr) Expr {
	return (&expander{}).run(e)
}

// ExpandContext is Expand for a caller-facing expansion: it fails with
// ErrTooLarge rather than leave a term unexpanded, and stops with the
// context's error once ctx is done.
func ExpandContext(ctx context.Context, e Expr) (out Expr, err error) {
	x := &expander{halt: newHalt(ctx)}
	defer x.halt.recover(&err)
	out = x.run(e)
	if x.incomplete {
		return nil, ErrTooLarge
	}
	return out, nil
}

type expander struct {
	halt       *halt
	incomplete bool
}

func (x *expander) run(e Expr) Expr {
	return Transform(e, x.node)
}

func (x *expander) node(e Expr) Expr {
	switch v := e.(type) {
	case *Mul:
		return x.product(v.Factors)
	case *Pow:
		add, ok := v.Base.(*Add)
		n, isNum := v.Exp.(*Num)
		if !ok || !isNum || !n.isInt() || n.approx {
			return e
		}
		if !n.val.Num().IsInt64() {
			x.incomplete = true
			return e
		}
		k := n.val.Num().Int64()
		switch {
		case k >= 2 && k <= maxExpandPower:
			return x.power(add, k, e)
		case k <= -2 && k >= -maxExpandPower:
			return Power(x.power(add, -k, add), Int(-1))
		case k > maxExpandPower || k < -maxExpandPower:
			x.incomplete = true
		}
	}
	return e
}

func (x *expander) power(add *Add, k int64, fallback Expr) Expr {
	acc := Expr(add)
	for i := int64(1); i < k; i++ {
		next, ok := x.distribute(acc, add)
		if !ok {
			return fallback
		}
		acc = next
	}
	return acc
}

func (x *expander) product(factors []Expr) Expr {
	acc := Expr(Int(1))
	for _, f := range factors {
		next, ok := x.distribute(acc, f)
		if !ok {
			return Product(factors...)
		}
		acc = next
	}
	return acc
}

func terms(e Expr) []Expr {
	if a, ok := e.(*Add); ok {
		return a.Terms
	}
	return []Expr{e}
}

// distribute multiplies two expanded expressions term by term.
func (x *expander) distribute(a, b Expr) (Expr, bool) {
	x.halt.check()
	ta, tb := terms(a), terms(b)
	if len(ta)*len(tb) > maxExpandTerms {
		x.incomplete = true
		return nil, false
	}
	out := make([]Expr, 0, len(ta)*len(tb))
	for _, p := range ta {
		for _, q := range tb {
			out = append(out, Product(p, q))
		}
	}
	return Sum(out...), true
}

// numDen splits e into numerator and denominator, taking negative powers and
// the denominator of the numeric coefficient.
func numDen(e Expr) (Expr, Expr) {
	factors := []Expr{e}
	if m, ok := e.(*Mul); ok {
		factors = m.Factors
	}
	var num, den []Expr
	for _, f := range factors {
		switch v := f.(type) {
		case *Num:
			if v.approx || v.isInt() {
				num = append(num, v)
				continue
			}
			num = append(num, &Num{val: new(big.Rat).SetInt(v.val.Num())})
			den = append(den, &Num{val: new(big.Rat).SetInt(v.val.Denom())})
		case *Pow:
			if n, ok := v.Exp.(*Num); ok && n.sign() < 0 {
				den = append(den, Power(v.Base, numNeg(n)))
				continue
			}
			num = append(num, f)
		default:
			num = append(num, f)
		}
	}
	return Product(num...), Product(den...)
}

// together rewrites e as a single fraction n/d. Sums are combined over a
// common denominator at every level.
func together(e Expr) (Expr, Expr) {
	e = Transform(e, func(x Expr) Expr {
		a, ok := x.(*Add)
		if !ok {
			return x
		}
		n, d := combine(a.Terms)
		if isNum(d, 1) {
			return x
		}
		return Div(n, d)
	})
	return numDen(e)
}

// combine puts terms over the product of their distinct denominators, each
// raised to the largest power that occurs.
func combine(ts []Expr) (Expr, Expr) {
	type part struct {
		base Expr
		exp  *Num
	}
	parts := map[string]*part{}
	var order []string
	lcm := big.NewInt(1)

	for _, t := range ts {
		_, d := numDen(t)
		factors := []Expr{d}
		if m, ok := d.(*Mul); ok {
			factors = m.Factors
		}
		for _, f := range factors {
			if n, ok := f.(*Num); ok {
				if n.isInt() && !n.approx {
					g := new(big.Int).GCD(nil, nil, lcm, n.val.Num())
					lcm.Mul(lcm, new(big.Int).Quo(n.val.Num(), g))
				}
				continue
			}
			base, exp := asPower(f)
			en, ok := exp.(*Num)
			if !ok {
				base, en = f, Int(1)
			}
			key := base.String()
			p, seen := parts[key]
			if !seen {
				parts[key] = &part{base: base, exp: en}
				order = append(order, key)
				continue
			}
			if en.val.Cmp(p.exp.val) > 0 {
				p.exp = en
			}
		}
	}

	if len(order) == 0 && lcm.Cmp(big.NewInt(1)) == 0 {
		return Sum(ts...), Int(1)
	}

	dens := []Expr{&Num{val: new(big.Rat).SetInt(lcm)}}
	for _, k := range order {
		dens = append(dens, Power(parts[k].base, parts[k].exp))
	}
	den := Product(dens...)

	nums := make([]Expr, len(ts))
	for i, t := range ts {
		nums[i] = Expand(Product(t, den))
	}
	return Sum(nums...), den
}

// Cancel combines e into one fraction and removes common polynomial factors
// of the numerator and denominator when e has a single free symbol.
func Cancel(e Expr) Expr {
	n, d := together(e)
	if isNum(d, 1) {
		return Expand(n)
	}
	n = Expand(n)
	syms := FreeSymbols(Sum(n, d))
	if len(syms) != 1 {
		return Div(n, d)
	}
	x := syms[0]
	np, approxN, ok1 := toPoly(n, x)
	dp, approxD, ok2 := toPoly(d, x)
	if !ok1 || !ok2 || approxN || approxD || len(dp) == 0 {
		return Div(n, d)
	}

	if g := np.gcd(dp); len(g) > 1 {
		np, _ = np.divmod(g)
		dp, _ = dp.divmod(g)
	}
	if len(dp) == 1 {
		return Expand(Product(np.expr(x), Power(Rat(dp[0]), Int(-1))))
	}
	// make the denominator's leading coefficient positive and integral
	c, _ := dp.primitive()
	scale := new(big.Rat).Inv(c)
	for i := range np {
		np[i] = new(big.Rat).Mul(np[i], scale)
	}
	for i := range dp {
		dp[i] = new(big.Rat).Mul(dp[i], scale)
	}
	return Div(np.expr(x), dp.expr(x))
}
