package expr

import (
	"fmt"
	"math"
	"strconv"
)

// Function is a namespace entry. Scalar functions are lifted element-wise
// over arrays. Apply, when set, receives the raw operands instead.
type Function struct {
	MinArgs int
	MaxArgs int // -1 for variadic
	Scalar  func(args []float64) (float64, error)
	Apply   func(args []Value) (Value, error)
}

func (f Function) arity() string {
	switch {
	case f.MinArgs == f.MaxArgs && f.MinArgs == 1:
		return "1 argument"
	case f.MinArgs == f.MaxArgs:
		return fmt.Sprintf("%d arguments", f.MinArgs)
	case f.MaxArgs < 0:
		return fmt.Sprintf("at least %d arguments", f.MinArgs)
	}
	return fmt.Sprintf("%d to %d arguments", f.MinArgs, f.MaxArgs)
}

// Namespace is the closed set of names an expression may reference besides
// the caller's variables.
type Namespace struct {
	Functions map[string]Function
	Constants map[string]float64

	// Matrix enables array literals and makes '*' between two matrices a
	// matrix product.
	Matrix bool
}

func (ns *Namespace) hasConstant(name string) bool {
	_, ok := ns.Constants[name]
	return ok
}

func unary(f func(float64) (float64, error)) Function {
	return Function{MinArgs: 1, MaxArgs: 1, Scalar: func(a []float64) (float64, error) { return f(a[0]) }}
}

func total(f func(float64) float64) Function {
	return unary(func(x float64) (float64, error) { return f(x), nil })
}

func domain(name string, ok func(float64) bool, f func(float64) float64) Function {
	return unary(func(x float64) (float64, error) {
		if !ok(x) {
			return 0, fmt.Errorf("%w: %s(%s)", ErrDomain, name, formatArg(x))
		}
		return f(x), nil
	})
}

func formatArg(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}

// StandardNamespace returns the elementary functions and the constants pi and e.
func StandardNamespace() *Namespace {
	return &Namespace{
		Functions: standardFunctions(),
		Constants: map[string]float64{
			"pi": math.Pi,
			"e":  math.E,
		},
	}
}

func standardFunctions() map[string]Function {
	positive := func(x float64) bool { return x > 0 }
	unit := func(x float64) bool { return x >= -1 && x <= 1 }

	return map[string]Function{
		"sin":   total(math.Sin),
		"cos":   total(math.Cos),
		"tan":   total(math.Tan),
		"asin":  domain("asin", unit, math.Asin),
		"acos":  domain("acos", unit, math.Acos),
		"atan":  total(math.Atan),
		"sinh":  total(math.Sinh),
		"cosh":  total(math.Cosh),
		"tanh":  total(math.Tanh),
		"asinh": total(math.Asinh),
		"acosh": domain("acosh", func(x float64) bool { return x >= 1 }, math.Acosh),
		"atanh": domain("atanh", func(x float64) bool { return x > -1 && x < 1 }, math.Atanh),
		"ln":    domain("ln", positive, math.Log),
		"log2":  domain("log2", positive, math.Log2),
		"exp":   total(math.Exp),
		"sqrt":  domain("sqrt", func(x float64) bool { return x >= 0 }, math.Sqrt),
		"abs":   total(math.Abs),
		"floor": total(math.Floor),
		"ceil":  total(math.Ceil),
		"degrees": total(func(x float64) float64 {
			return x * 180 / math.Pi
		}),
		"radians": total(func(x float64) float64 {
			return x * math.Pi / 180
		}),
		"factorial": unary(factorial),
		"log": {MinArgs: 1, MaxArgs: 2, Scalar: func(a []float64) (float64, error) {
			if a[0] <= 0 {
				return 0, fmt.Errorf("%w: log(%s)", ErrDomain, formatArg(a[0]))
			}
			if len(a) == 1 {
				return math.Log10(a[0]), nil
			}
			if a[1] <= 0 {
				return 0, fmt.Errorf("%w: log base %s", ErrDomain, formatArg(a[1]))
			}
			if a[1] == 1 {
				return 0, ErrDivisionByZero
			}
			return math.Log(a[0]) / math.Log(a[1]), nil
		}},
		"round": {MinArgs: 1, MaxArgs: 2, Scalar: func(a []float64) (float64, error) {
			digits := 0
			if len(a) == 2 {
				if a[1] != math.Trunc(a[1]) {
					return 0, fmt.Errorf("%w: round digits must be an integer", ErrDomain)
				}
				digits = int(a[1])
			}
			return roundHalfEven(a[0], digits), nil
		}},
		"pow": {MinArgs: 2, MaxArgs: 2, Scalar: func(a []float64) (float64, error) {
			return power(a[0], a[1])
		}},
	}
}

// factorial accepts non-negative integral values only.
func factorial(x float64) (float64, error) {
	if x < 0 || x != math.Trunc(x) || math.IsInf(x, 0) {
		return 0, fmt.Errorf("%w: factorial() only accepts non-negative integral values", ErrDomain)
	}
	if x > 170 {
		return 0, fmt.Errorf("%w: factorial(%s)", ErrOverflow, formatArg(x))
	}
	r := 1.0
	for i := 2.0; i <= x; i++ {
		r *= i
	}
	return r, nil
}

// roundHalfEven rounds to the given number of decimal digits using banker's
// rounding on the exact binary value.
func roundHalfEven(x float64, digits int) float64 {
	if math.IsInf(x, 0) || math.IsNaN(x) {
		return x
	}
	if digits == 0 {
		return math.RoundToEven(x)
	}
	if digits < 0 {
		scale := math.Pow(10, float64(-digits))
		return math.RoundToEven(x/scale) * scale
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', digits, 64), 64)
	if err != nil {
		return x
	}
	return r
}

// power follows real exponentiation: negative bases need integral exponents.
func power(x, y float64) (float64, error) {
	if x == 0 && y < 0 {
		return 0, ErrDivisionByZero
	}
	if x < 0 && y != math.Trunc(y) {
		return 0, fmt.Errorf("%w: negative base with fractional exponent", ErrDomain)
	}
	return math.Pow(x, y), nil
}
