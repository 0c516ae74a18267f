package cas

import (
	"math"
	"math/cmplx"
)

// Evalf evaluates an expression without free symbols to a real number.
// It reports false for symbolic, complex, infinite or undefined values.
func Evalf(e Expr) (float64, bool) {
	c, ok := evalComplex(e, nil)
	return realPart(c, ok)
}

// EvalAt evaluates e with the symbol name bound to x.
func EvalAt(e Expr, name string, x float64) (float64, bool) {
	c, ok := evalComplex(e, map[string]complex128{name: complex(x, 0)})
	return realPart(c, ok)
}

// EvalComplex evaluates e to a complex number.
func EvalComplex(e Expr) (complex128, bool) {
	c, ok := evalComplex(e, nil)
	if !ok || cmplx.IsNaN(c) || cmplx.IsInf(c) {
		return 0, false
	}
	return c, true
}

func realPart(c complex128, ok bool) (float64, bool) {
	if !ok || cmplx.IsNaN(c) || cmplx.IsInf(c) {
		return 0, false
	}
	if math.Abs(imag(c)) > 1e-12*math.Max(1, math.Abs(real(c))) {
		return 0, false
	}
	return real(c), true
}

// evalSigned is like EvalAt but keeps signed infinities, which limits use to
// detect divergence.
func evalSigned(e Expr, name string, x float64) float64 {
	c, ok := evalComplex(e, map[string]complex128{name: complex(x, 0)})
	if !ok {
		return math.NaN()
	}
	if math.Abs(imag(c)) > 1e-9*math.Max(1, math.Abs(real(c))) {
		return math.NaN()
	}
	return real(c)
}

func evalComplex(e Expr, env map[string]complex128) (complex128, bool) {
	switch v := e.(type) {
	case *Num:
		return complex(v.Float64(), 0), true

	case *Sym:
		c, ok := env[v.Name]
		return c, ok

	case *Const:
		switch v {
		case Pi:
			return complex(math.Pi, 0), true
		case E:
			return complex(math.E, 0), true
		case I:
			return 1i, true
		case Infinity:
			return complex(math.Inf(1), 0), true
		}
		return 0, false

	case *Add:
		var s complex128
		for _, t := range v.Terms {
			c, ok := evalComplex(t, env)
			if !ok {
				return 0, false
			}
			s += c
		}
		return s, true

	case *Mul:
		p := complex(1, 0)
		for _, f := range v.Factors {
			c, ok := evalComplex(f, env)
			if !ok {
				return 0, false
			}
			p = mulInf(p, c)
		}
		return p, true

	case *Pow:
		b, ok := evalComplex(v.Base, env)
		if !ok {
			return 0, false
		}
		x, ok := evalComplex(v.Exp, env)
		if !ok {
			return 0, false
		}
		return powComplex(b, x), true

	case *Func:
		if len(v.Args) != 1 {
			return 0, false
		}
		a, ok := evalComplex(v.Args[0], env)
		if !ok {
			return 0, false
		}
		return applyComplex(v.Name, a)
	}
	return 0, false
}

// mulInf multiplies keeping real infinities real: cmplx multiplication of
// (inf+0i)(2+0i) would produce a NaN imaginary part.
func mulInf(a, b complex128) complex128 {
	if imag(a) == 0 && imag(b) == 0 {
		return complex(real(a)*real(b), 0)
	}
	return a * b
}

func powComplex(b, x complex128) complex128 {
	if imag(b) == 0 && imag(x) == 0 {
		br, xr := real(b), real(x)
		if br >= 0 || xr == math.Trunc(xr) {
			return complex(math.Pow(br, xr), 0)
		}
	}
	// negative bases with fractional exponents take the principal branch
	if b == 0 {
		if real(x) > 0 {
			return 0
		}
		return cmplx.Inf()
	}
	return cmplx.Pow(b, x)
}

func applyComplex(name string, a complex128) (complex128, bool) {
	if imag(a) == 0 {
		x := real(a)
		switch name {
		case "ln":
			switch {
			case x > 0:
				return complex(math.Log(x), 0), true
			case x == 0:
				return complex(math.Inf(-1), 0), true
			}
			return cmplx.Log(a), true
		case "asin", "acos":
			if x < -1 || x > 1 {
				return complexFn(name, a)
			}
		case "acosh":
			if x < 1 {
				return complexFn(name, a)
			}
		case "atanh":
			if x <= -1 || x >= 1 {
				return complexFn(name, a)
			}
		}
		if r, ok := applyReal(name, x); ok {
			return complex(r, 0), true
		}
		switch name {
		case "exp":
			if math.IsInf(x, -1) {
				return 0, true
			}
			return complex(math.Exp(x), 0), true
		case "tan":
			return complex(math.Tan(x), 0), true
		case "atan":
			return complex(math.Atan(x), 0), true
		}
		return complexFn(name, a)
	}
	return complexFn(name, a)
}

func complexFn(name string, a complex128) (complex128, bool) {
	switch name {
	case "sin":
		return cmplx.Sin(a), true
	case "cos":
		return cmplx.Cos(a), true
	case "tan":
		return cmplx.Tan(a), true
	case "asin":
		return cmplx.Asin(a), true
	case "acos":
		return cmplx.Acos(a), true
	case "atan":
		return cmplx.Atan(a), true
	case "sinh":
		return cmplx.Sinh(a), true
	case "cosh":
		return cmplx.Cosh(a), true
	case "tanh":
		return cmplx.Tanh(a), true
	case "asinh":
		return cmplx.Asinh(a), true
	case "acosh":
		return cmplx.Acosh(a), true
	case "atanh":
		return cmplx.Atanh(a), true
	case "exp":
		return cmplx.Exp(a), true
	case "ln":
		return cmplx.Log(a), true
	case "abs":
		return complex(cmplx.Abs(a), 0), true
	}
	return 0, false
}
