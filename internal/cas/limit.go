package cas

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
)

var (
	// ErrNoLimit is returned when the one-sided limits differ or the
	// function oscillates.
	ErrNoLimit = errors.New("limit does not exist")
	// ErrLimitUnknown is returned when no method determines the limit.
	ErrLimitUnknown = errors.New("limit could not be determined")
)

const (
	limitVar      = "_t"
	maxLHopital   = 4
	divergeThresh = 1e6
)

// generic values bound to symbols other than the limit variable when
// checking whether direct substitution is safe
var genericValues = []float64{0.7390851332, 1.3247179572, 0.5671432904, 1.6180339887, 2.7182818285}

// Limit computes the limit of e as x approaches point from direction dir:
// "+" (from above), "-" (from below) or "+-" (both sides must agree).
func Limit(e Expr, x string, point Expr, dir string) (Expr, error) {
	switch dir {
	case "+", "-":
	case "+-":
		r, err := Limit(e, x, point, "+")
		if err != nil {
			return nil, err
		}
		l, err := Limit(e, x, point, "-")
		if err != nil {
			return nil, err
		}
		if !Equal(r, l) {
			return nil, ErrNoLimit
		}
		return r, nil
	default:
		return nil, fmt.Errorf("invalid direction %q, expected \"+\" or \"-\"", dir)
	}

	// limits at infinity become one-sided limits at zero through x = ±1/t
	t := Symbol(limitVar)
	switch {
	case point == Infinity:
		return limitAt(Subs(e, x, Power(t, Int(-1))), limitVar, Int(0), 1, 0)
	case isNegInf(point):
		return limitAt(Subs(e, x, Neg(Power(t, Int(-1)))), limitVar, Int(0), 1, 0)
	}

	if _, ok := Evalf(point); !ok {
		return nil, fmt.Errorf("limit point must be a real number or oo")
	}
	side := 1.0
	if dir == "-" {
		side = -1
	}
	return limitAt(e, x, point, side, 0)
}

func limitAt(e Expr, x string, point Expr, side float64, depth int) (Expr, error) {
	p, _ := Evalf(point)

	if substitutable(e, x, p) {
		return Simplify(Subs(e, x, point)), nil
	}

	c := Cancel(e)
	if substitutable(c, x, p) {
		return Simplify(Subs(c, x, point)), nil
	}

	if depth < maxLHopital {
		if r, ok, err := lHopital(c, x, point, side, depth); ok || err != nil {
			return r, err
		}
	}

	if others := len(FreeSymbols(e)); others > 1 || others == 1 && !Has(e, x) {
		return nil, ErrLimitUnknown
	}
	return numericLimit(e, x, p, side)
}

// substitutable reports whether e and all its subexpressions evaluate to
// finite values at x = p with generic values for other symbols, and e
// contains no step functions.
func substitutable(e Expr, x string, p float64) bool {
	if hasStep(e) {
		return false
	}
	env := map[string]complex128{x: complex(p, 0)}
	for i, s := range FreeSymbols(e) {
		if s != x {
			env[s] = complex(genericValues[i%len(genericValues)], 0)
		}
	}
	return finiteTree(e, env)
}

// finiteTree requires every subexpression to be finite, so that exp(-1/x)
// at 0 is not mistaken for continuous.
func finiteTree(e Expr, env map[string]complex128) bool {
	c, ok := evalComplex(e, env)
	if !ok || cmplx.IsNaN(c) || cmplx.IsInf(c) {
		return false
	}
	for _, k := range Children(e) {
		if !finiteTree(k, env) {
			return false
		}
	}
	return true
}

func hasStep(e Expr) bool {
	if f, ok := e.(*Func); ok {
		switch f.Name {
		case "floor", "ceil", "round", "sign":
			return true
		}
	}
	for _, k := range Children(e) {
		if hasStep(k) {
			return true
		}
	}
	return false
}

// lHopital applies L'Hopital's rule to a quotient of the indeterminate form
// 0/0 or oo/oo.
func lHopital(e Expr, x string, point Expr, side float64, depth int) (Expr, bool, error) {
	n, d := together(e)
	if !Has(d, x) {
		return nil, false, nil
	}
	ln, err := limitAt(n, x, point, side, depth+1)
	if err != nil {
		return nil, false, nil
	}
	ld, err := limitAt(d, x, point, side, depth+1)
	if err != nil {
		return nil, false, nil
	}
	zero := isNum(ln, 0) && isNum(ld, 0)
	inf := isInfinite(ln) && isInfinite(ld)
	if !zero && !inf {
		return nil, false, nil
	}
	dn, dd := diff(n, x), diff(d, x)
	if isNum(dd, 0) {
		return nil, false, nil
	}
	r, err := limitAt(Div(dn, dd), x, point, side, depth+1)
	if err != nil {
		return nil, false, nil
	}
	return r, true, nil
}

func isInfinite(e Expr) bool {
	return e == Infinity || isNegInf(e)
}

// numericLimit approaches p from one side along h = 10^-2 .. 10^-9 and
// recognises convergence or divergence.
func numericLimit(e Expr, x string, p, side float64) (Expr, error) {
	var vals []float64
	for k := 2; k <= 9; k++ {
		h := math.Pow(10, -float64(k)) * math.Max(1, math.Abs(p))
		vals = append(vals, evalSigned(e, x, p+side*h))
	}

	if sign, ok := diverges(vals); ok {
		if sign < 0 {
			return Neg(Infinity), nil
		}
		return Infinity, nil
	}

	best, bestDiff := -1, math.Inf(1)
	for i := 0; i+1 < len(vals); i++ {
		a, b := vals[i], vals[i+1]
		if math.IsNaN(a) || math.IsNaN(b) || math.IsInf(a, 0) || math.IsInf(b, 0) {
			continue
		}
		if d := math.Abs(a - b); d < bestDiff {
			best, bestDiff = i+1, d
		}
	}
	if best < 0 {
		return nil, ErrLimitUnknown
	}
	v := vals[best]
	if bestDiff > 1e-6*math.Max(1, math.Abs(v)) {
		return nil, ErrNoLimit
	}
	return snap(v), nil
}

// diverges reports a run of same-signed values of strictly growing
// magnitude that ends beyond the divergence threshold or at infinity.
func diverges(vals []float64) (float64, bool) {
	last := vals[len(vals)-1]
	if math.IsNaN(last) {
		return 0, false
	}
	sign := math.Copysign(1, last)
	if math.IsInf(last, 0) {
		return sign, true
	}
	if math.Abs(last) < divergeThresh {
		// slow divergence such as ln(x): monotone growth over every step
		for i := 1; i < len(vals); i++ {
			a, b := vals[i-1], vals[i]
			if math.IsNaN(a) || math.Copysign(1, a) != sign || math.Abs(b)-math.Abs(a) < 1 {
				return 0, false
			}
		}
		return sign, true
	}
	for i := len(vals) - 3; i < len(vals)-1; i++ {
		a, b := vals[i], vals[i+1]
		if math.IsNaN(a) || math.Copysign(1, a) != sign || math.Abs(b) <= math.Abs(a) {
			return 0, false
		}
	}
	return sign, true
}

// snap recognises small rationals and rational multiples of common
// constants in a numeric limit.
func snap(v float64) Expr {
	if r, ok := smallRational(v, 12, 1e-7); ok {
		return r
	}
	consts := []Expr{Pi, E, Sqrt(Int(2)), Sqrt(Int(3)), Call("ln", Int(2))}
	for _, c := range consts {
		cf, _ := Evalf(c)
		if r, ok := smallRational(v/cf, 12, 1e-7); ok {
			return Product(r, c)
		}
	}
	if r, ok := smallRational(v, 1000, 1e-10); ok {
		return r
	}
	return Float(v)
}

func smallRational(v float64, maxDen int64, tol float64) (*Num, bool) {
	for q := int64(1); q <= maxDen; q++ {
		p := math.Round(v * float64(q))
		if math.Abs(p) > 1e12 {
			return nil, false
		}
		if math.Abs(v-p/float64(q)) < tol*math.Max(1, math.Abs(v)) {
			return Frac(int64(p), q), true
		}
	}
	return nil, false
}
