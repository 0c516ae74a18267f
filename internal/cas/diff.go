package cas

import "fmt"

// Diff returns the order-th derivative of e with respect to x.
func Diff(e Expr, x string, order int) (Expr, error) {
	if order < 0 {
		return nil, fmt.Errorf("derivative order must be non-negative, got %d", order)
	}
	for i := 0; i < order; i++ {
		e = diff(e, x)
	}
	return e, nil
}

func diff(e Expr, x string) Expr {
	if !Has(e, x) {
		return Int(0)
	}
	switch v := e.(type) {
	case *Sym:
		return Int(1)

	case *Add:
		out := make([]Expr, len(v.Terms))
		for i, t := range v.Terms {
			out[i] = diff(t, x)
		}
		return Sum(out...)

	case *Mul:
		// product rule
		var out []Expr
		for i := range v.Factors {
			if !Has(v.Factors[i], x) {
				continue
			}
			fs := make([]Expr, len(v.Factors))
			copy(fs, v.Factors)
			fs[i] = diff(v.Factors[i], x)
			out = append(out, Product(fs...))
		}
		return Sum(out...)

	case *Pow:
		if !Has(v.Exp, x) {
			// n*u^(n-1)*u'
			return Product(v.Exp, Power(v.Base, Sum(v.Exp, Int(-1))), diff(v.Base, x))
		}
		// u^w * (w' ln u + w u'/u)
		return Product(e, Sum(
			Product(diff(v.Exp, x), Call("ln", v.Base)),
			Product(v.Exp, diff(v.Base, x), Power(v.Base, Int(-1))),
		))

	case *Func:
		if len(v.Args) != 1 {
			return &Func{Name: "Derivative", Args: []Expr{e, Symbol(x)}}
		}
		u := v.Args[0]
		outer, ok := funcDerivative(v.Name, u)
		if !ok {
			return &Func{Name: "Derivative", Args: []Expr{e, Symbol(x)}}
		}
		return Product(outer, diff(u, x))
	}
	return &Func{Name: "Derivative", Args: []Expr{e, Symbol(x)}}
}

// funcDerivative returns f'(u) for the known unary functions.
func funcDerivative(name string, u Expr) (Expr, bool) {
	one := Int(1)
	switch name {
	case "sin":
		return Call("cos", u), true
	case "cos":
		return Neg(Call("sin", u)), true
	case "tan":
		return Sum(one, Power(Call("tan", u), Int(2))), true
	case "asin":
		return Power(Minus(one, Power(u, Int(2))), Frac(-1, 2)), true
	case "acos":
		return Neg(Power(Minus(one, Power(u, Int(2))), Frac(-1, 2))), true
	case "atan":
		return Power(Sum(Power(u, Int(2)), one), Int(-1)), true
	case "sinh":
		return Call("cosh", u), true
	case "cosh":
		return Call("sinh", u), true
	case "tanh":
		return Minus(one, Power(Call("tanh", u), Int(2))), true
	case "asinh":
		return Power(Sum(Power(u, Int(2)), one), Frac(-1, 2)), true
	case "acosh":
		return Power(Sum(Power(u, Int(2)), Int(-1)), Frac(-1, 2)), true
	case "atanh":
		return Power(Minus(one, Power(u, Int(2))), Int(-1)), true
	case "exp":
		return Call("exp", u), true
	case "ln":
		return Power(u, Int(-1)), true
	case "abs":
		return Call("sign", u), true
	case "floor", "ceil", "round", "sign":
		return Int(0), true
	}
	return nil, false
}
