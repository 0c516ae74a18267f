package cas

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/aescanero/dago-node-calculator/internal/expr"
)

// ErrArray is returned for array literals, which have no symbolic meaning.
var ErrArray = errors.New("arrays are not supported in symbolic mode")

// Parse parses src with free symbols allowed and converts it to canonical form.
func Parse(src string) (Expr, error) {
	n, err := expr.Parse(src, expr.ParseOptions{FreeSymbols: true})
	if err != nil {
		return nil, err
	}
	return FromNode(n)
}

// FromNode converts a parsed expression tree into a symbolic expression.
// Integer literals are exact; decimal literals are approximate.
func FromNode(n expr.Node) (Expr, error) {
	switch v := n.(type) {
	case *expr.Number:
		text := v.String()
		if strings.ContainsAny(text, ".eE") {
			return Float(v.Value), nil
		}
		r, ok := new(big.Rat).SetString(text)
		if !ok {
			return Float(v.Value), nil
		}
		return &Num{val: r}, nil

	case *expr.Ident:
		if v.Kind == expr.IdentConstant {
			switch v.Name {
			case "pi":
				return Pi, nil
			case "e":
				return E, nil
			}
		}
		switch v.Name {
		case "oo":
			return Infinity, nil
		case "I":
			return I, nil
		}
		return Symbol(v.Name), nil

	case *expr.Unary:
		x, err := FromNode(v.X)
		if err != nil {
			return nil, err
		}
		if v.Op == '-' {
			return Neg(x), nil
		}
		return x, nil

	case *expr.Binary:
		l, err := FromNode(v.L)
		if err != nil {
			return nil, err
		}
		r, err := FromNode(v.R)
		if err != nil {
			return nil, err
		}
		switch v.Op {
		case '+':
			return Sum(l, r), nil
		case '-':
			return Minus(l, r), nil
		case '*':
			return Product(l, r), nil
		case '/':
			return Div(l, r), nil
		case '^':
			return Power(l, r), nil
		}
		return nil, fmt.Errorf("unsupported operator %q", v.Op)

	case *expr.Call:
		args := make([]Expr, len(v.Args))
		for i, a := range v.Args {
			x, err := FromNode(a)
			if err != nil {
				return nil, err
			}
			args[i] = x
		}
		return callFromName(v.Name, args), nil

	case *expr.List:
		return nil, ErrArray
	}
	return nil, fmt.Errorf("unsupported node %T", n)
}

func callFromName(name string, args []Expr) Expr {
	switch name {
	case "sqrt":
		return Sqrt(args[0])
	case "log":
		base := Expr(Int(10))
		if len(args) == 2 {
			base = args[1]
		}
		return Div(Call("ln", args[0]), Call("ln", base))
	case "log2":
		return Div(Call("ln", args[0]), Call("ln", Int(2)))
	case "pow":
		return Power(args[0], args[1])
	case "degrees":
		return Product(args[0], Int(180), Power(Pi, Int(-1)))
	case "radians":
		return Product(args[0], Pi, Frac(1, 180))
	}
	return Call(name, args...)
}
