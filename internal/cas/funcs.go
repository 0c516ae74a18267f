package cas

import (
	"math"
	"math/big"
)

var oddFunctions = map[string]bool{
	"sin": true, "tan": true, "asin": true, "atan": true,
	"sinh": true, "tanh": true, "asinh": true, "atanh": true,
}

var evenFunctions = map[string]bool{
	"cos": true, "cosh": true, "abs": true,
}

// Call returns the canonical form of a function application.
func Call(name string, args ...Expr) Expr {
	if len(args) != 1 {
		return &Func{Name: name, Args: args}
	}
	arg := args[0]
	if arg == NaN {
		return NaN
	}

	if c, rest := splitCoeff(arg); c.sign() < 0 && !isNum(arg, 0) {
		pos := withCoeff(numNeg(c), rest)
		if n, ok := arg.(*Num); ok {
			pos = numNeg(n)
		}
		switch {
		case oddFunctions[name]:
			return Neg(Call(name, pos))
		case evenFunctions[name]:
			return Call(name, pos)
		}
	}

	if v, ok := special(name, arg); ok {
		return v
	}

	if n, ok := arg.(*Num); ok && n.approx {
		if f, ok := applyReal(name, n.Float64()); ok {
			return Float(f)
		}
	}
	return &Func{Name: name, Args: []Expr{arg}}
}

// special folds exact values: trig functions at rational multiples of pi,
// inverse functions of their inverses and the usual fixed points.
func special(name string, arg Expr) (Expr, bool) {
	switch name {
	case "sin", "cos", "tan":
		r, ok := piMultiple(arg)
		if !ok {
			return nil, false
		}
		switch name {
		case "sin":
			return sinPi(r)
		case "cos":
			return sinPi(new(big.Rat).Add(r, big.NewRat(1, 2)))
		}
		s, ok1 := sinPi(r)
		c, ok2 := sinPi(new(big.Rat).Add(r, big.NewRat(1, 2)))
		if !ok1 || !ok2 || isNum(c, 0) {
			return nil, false
		}
		return Div(s, c), true

	case "asin":
		switch {
		case isNum(arg, 0):
			return Int(0), true
		case isNum(arg, 1):
			return Product(Frac(1, 2), Pi), true
		case isRat(arg, 1, 2):
			return Product(Frac(1, 6), Pi), true
		}
	case "acos":
		switch {
		case isNum(arg, 1):
			return Int(0), true
		case isNum(arg, 0):
			return Product(Frac(1, 2), Pi), true
		case isNum(arg, -1):
			return Pi, true
		case isRat(arg, 1, 2):
			return Product(Frac(1, 3), Pi), true
		}
	case "atan":
		switch {
		case isNum(arg, 0):
			return Int(0), true
		case isNum(arg, 1):
			return Product(Frac(1, 4), Pi), true
		case arg == Infinity:
			return Product(Frac(1, 2), Pi), true
		}
	case "sinh", "tanh", "asinh", "atanh":
		if isNum(arg, 0) {
			return Int(0), true
		}
	case "cosh":
		if isNum(arg, 0) {
			return Int(1), true
		}
	case "acosh":
		if isNum(arg, 1) {
			return Int(0), true
		}

	case "exp":
		switch {
		case isNum(arg, 0):
			return Int(1), true
		case isNum(arg, 1):
			return E, true
		case arg == Infinity:
			return Infinity, true
		}
		if f, ok := arg.(*Func); ok && f.Name == "ln" {
			return f.Args[0], true
		}
		if c, rest := splitCoeff(arg); !c.isOne() && !c.approx {
			if f, ok := rest.(*Func); ok && f.Name == "ln" {
				return Power(f.Args[0], c), true
			}
		}
		if isNegInf(arg) {
			return Int(0), true
		}

	case "ln":
		switch {
		case isNum(arg, 1):
			return Int(0), true
		case arg == E:
			return Int(1), true
		case arg == Infinity:
			return Infinity, true
		}
		if f, ok := arg.(*Func); ok && f.Name == "exp" {
			return f.Args[0], true
		}
		if p, ok := arg.(*Pow); ok && p.Base == E {
			return p.Exp, true
		}

	case "abs":
		switch v := arg.(type) {
		case *Num:
			return numAbs(v), true
		case *Const:
			switch v {
			case Pi, E, Infinity:
				return v, true
			case I:
				return Int(1), true
			}
		case *Func:
			if v.Name == "abs" || v.Name == "exp" {
				return v, true
			}
		}

	case "floor", "ceil", "round", "sign", "factorial":
		n, ok := arg.(*Num)
		if !ok || n.approx {
			return nil, false
		}
		return exactInteger(name, n)
	}
	return nil, false
}

func exactInteger(name string, n *Num) (Expr, bool) {
	num, den := n.val.Num(), n.val.Denom()
	switch name {
	case "floor":
		q := new(big.Int)
		q.Div(num, den) // Euclidean division floors for positive divisors
		return &Num{val: new(big.Rat).SetInt(q)}, true
	case "ceil":
		q := new(big.Int).Neg(num)
		q.Div(q, den)
		q.Neg(q)
		return &Num{val: new(big.Rat).SetInt(q)}, true
	case "sign":
		return Int(int64(n.sign())), true
	case "round":
		f := math.RoundToEven(n.Float64())
		return Int(int64(f)), true
	case "factorial":
		if !n.isInt() || n.sign() < 0 || !num.IsInt64() || num.Int64() > 1000 {
			return nil, false
		}
		return &Num{val: new(big.Rat).SetInt(new(big.Int).MulRange(1, max(num.Int64(), 1)))}, true
	}
	return nil, false
}

func isRat(e Expr, p, q int64) bool {
	n, ok := e.(*Num)
	return ok && !n.approx && n.val.Cmp(big.NewRat(p, q)) == 0
}

func isNegInf(e Expr) bool {
	c, rest := splitCoeff(e)
	return rest == Infinity && c.sign() < 0
}

// piMultiple recognises r*pi for exact rational r.
func piMultiple(e Expr) (*big.Rat, bool) {
	if n, ok := e.(*Num); ok && n.isZero() && !n.approx {
		return new(big.Rat), true
	}
	c, rest := splitCoeff(e)
	if rest != Pi || c.approx {
		return nil, false
	}
	return c.Rat(), true
}

// sinPi returns sin(r*pi) for r with denominator 1, 2, 3, 4 or 6.
func sinPi(r *big.Rat) (Expr, bool) {
	// reduce r into [0, 2)
	two := big.NewRat(2, 1)
	m := new(big.Rat).Set(r)
	q := new(big.Rat).Quo(m, two)
	fl := new(big.Int).Div(q.Num(), q.Denom())
	m.Sub(m, new(big.Rat).Mul(two, new(big.Rat).SetInt(fl)))

	neg := false
	if m.Cmp(ratOne) >= 0 {
		m.Sub(m, ratOne)
		neg = true
	}
	// sin((1-m)pi) = sin(m pi) folds m into [0, 1/2]
	if m.Cmp(big.NewRat(1, 2)) > 0 {
		m.Sub(ratOne, m)
	}

	var v Expr
	switch m.RatString() {
	case "0":
		v = Int(0)
	case "1/6":
		v = Frac(1, 2)
	case "1/4":
		v = Product(Frac(1, 2), Sqrt(Int(2)))
	case "1/3":
		v = Product(Frac(1, 2), Sqrt(Int(3)))
	case "1/2":
		v = Int(1)
	default:
		return nil, false
	}
	if neg {
		v = Neg(v)
	}
	return v, true
}

// applyReal evaluates a known unary function on a real argument.
func applyReal(name string, x float64) (float64, bool) {
	var r float64
	switch name {
	case "sin":
		r = math.Sin(x)
	case "cos":
		r = math.Cos(x)
	case "tan":
		r = math.Tan(x)
	case "asin":
		r = math.Asin(x)
	case "acos":
		r = math.Acos(x)
	case "atan":
		r = math.Atan(x)
	case "sinh":
		r = math.Sinh(x)
	case "cosh":
		r = math.Cosh(x)
	case "tanh":
		r = math.Tanh(x)
	case "asinh":
		r = math.Asinh(x)
	case "acosh":
		r = math.Acosh(x)
	case "atanh":
		r = math.Atanh(x)
	case "exp":
		r = math.Exp(x)
	case "ln":
		if x <= 0 {
			return 0, false
		}
		r = math.Log(x)
	case "abs":
		r = math.Abs(x)
	case "floor":
		r = math.Floor(x)
	case "ceil":
		r = math.Ceil(x)
	case "round":
		r = math.RoundToEven(x)
	case "sign":
		switch {
		case x > 0:
			r = 1
		case x < 0:
			r = -1
		}
	case "factorial":
		if x < 0 || x != math.Trunc(x) {
			return 0, false
		}
		r = math.Gamma(x + 1)
	default:
		return 0, false
	}
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, false
	}
	return r, true
}
