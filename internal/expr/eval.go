package expr

import (
	"fmt"
	"math"
)

// Env binds variable names to values.
type Env map[string]Value

// Evaluate computes the numeric value of n. Free symbols cannot be evaluated
// and return ErrUnknownIdentifier.
func Evaluate(n Node, ns *Namespace, env Env) (Value, error) {
	if ns == nil {
		ns = StandardNamespace()
	}
	e := &evaluator{ns: ns, env: env}
	v, err := e.eval(n)
	if err != nil {
		return Value{}, err
	}
	return v, nil
}

type evaluator struct {
	ns  *Namespace
	env Env
}

func (e *evaluator) eval(n Node) (Value, error) {
	switch n := n.(type) {
	case *Number:
		return Scalar(n.Value), nil

	case *Ident:
		if v, ok := e.env[n.Name]; ok && n.Kind != IdentConstant {
			return v, nil
		}
		if c, ok := e.ns.Constants[n.Name]; ok {
			return Scalar(c), nil
		}
		return Value{}, fmt.Errorf("%w %q", ErrUnknownIdentifier, n.Name)

	case *Unary:
		x, err := e.eval(n.X)
		if err != nil {
			return Value{}, err
		}
		if n.Op == '-' {
			return mapScalar(x, func(f float64) (float64, error) { return -f, nil })
		}
		return x, nil

	case *Binary:
		l, err := e.eval(n.L)
		if err != nil {
			return Value{}, err
		}
		r, err := e.eval(n.R)
		if err != nil {
			return Value{}, err
		}
		return e.binary(n.Op, l, r)

	case *Call:
		fn, ok := e.ns.Functions[n.Name]
		if !ok {
			return Value{}, fmt.Errorf("%w %q", ErrUnknownFunction, n.Name)
		}
		args := make([]Value, len(n.Args))
		for i, a := range n.Args {
			v, err := e.eval(a)
			if err != nil {
				return Value{}, err
			}
			args[i] = v
		}
		return call(n.Name, fn, args)

	case *List:
		elems := make([]Value, len(n.Elems))
		for i, el := range n.Elems {
			v, err := e.eval(el)
			if err != nil {
				return Value{}, err
			}
			elems[i] = v
		}
		return rectangular(elems)
	}
	return Value{}, fmt.Errorf("unsupported node %T", n)
}

func (e *evaluator) binary(op byte, l, r Value) (Value, error) {
	if e.ns.Matrix {
		switch {
		case op == '*' && l.IsArray() && r.IsArray() && (l.isMatrix() || r.isMatrix()):
			v, err := matmul(l, r)
			return checkValue(v, err, l, r)
		case op == '^' && l.isMatrix() && !r.IsArray():
			v, err := matpow(l, r.Float())
			return checkValue(v, err, l, r)
		}
	}

	var f func(x, y float64) (float64, error)
	switch op {
	case '+':
		f = func(x, y float64) (float64, error) { return x + y, nil }
	case '-':
		f = func(x, y float64) (float64, error) { return x - y, nil }
	case '*':
		f = func(x, y float64) (float64, error) { return x * y, nil }
	case '/':
		f = func(x, y float64) (float64, error) {
			if y == 0 {
				return 0, ErrDivisionByZero
			}
			return x / y, nil
		}
	case '^':
		f = power
	default:
		return Value{}, fmt.Errorf("unsupported operator %q", op)
	}
	return broadcast(l, r, checked(f))
}

// checked turns NaN results into domain errors and infinite results from
// finite operands into overflow errors.
func checked(f func(x, y float64) (float64, error)) func(x, y float64) (float64, error) {
	return func(x, y float64) (float64, error) {
		r, err := f(x, y)
		if err != nil {
			return 0, err
		}
		return checkResult(r, x, y)
	}
}

func checkResult(r float64, in ...float64) (float64, error) {
	for _, x := range in {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return r, nil
		}
	}
	switch {
	case math.IsNaN(r):
		return 0, ErrDomain
	case math.IsInf(r, 0):
		return 0, ErrOverflow
	}
	return r, nil
}

// checkValue applies checkResult to every element of a whole-array result.
// Inputs that already hold NaN or infinities pass through unchecked.
func checkValue(v Value, err error, in ...Value) (Value, error) {
	if err != nil {
		return Value{}, err
	}
	for _, x := range in {
		if !finite(x) {
			return v, nil
		}
	}
	return mapScalar(v, func(f float64) (float64, error) { return checkResult(f) })
}

func finite(v Value) bool {
	if !v.array {
		return !math.IsNaN(v.num) && !math.IsInf(v.num, 0)
	}
	for _, e := range v.elems {
		if !finite(e) {
			return false
		}
	}
	return true
}

func call(name string, fn Function, args []Value) (Value, error) {
	if fn.Apply != nil {
		v, err := fn.Apply(args)
		return checkValue(v, err, args...)
	}

	scalar := func(a []float64) (float64, error) {
		r, err := fn.Scalar(a)
		if err != nil {
			return 0, err
		}
		return checkResult(r, a...)
	}

	switch len(args) {
	case 1:
		return mapScalar(args[0], func(x float64) (float64, error) { return scalar([]float64{x}) })
	case 2:
		return broadcast(args[0], args[1], func(x, y float64) (float64, error) { return scalar([]float64{x, y}) })
	}

	floats := make([]float64, len(args))
	for i, a := range args {
		if a.IsArray() {
			return Value{}, fmt.Errorf("%w: %s() expects scalar arguments", ErrShape, name)
		}
		floats[i] = a.Float()
	}
	r, err := scalar(floats)
	if err != nil {
		return Value{}, err
	}
	return Scalar(r), nil
}
