package expr

import (
	"strconv"
	"strings"
)

// Node is a parsed expression.
type Node interface {
	// String renders the node back into the input grammar.
	String() string
	node()
}

// IdentKind says how an identifier was resolved at parse time.
type IdentKind int

const (
	// IdentVariable is bound by the caller.
	IdentVariable IdentKind = iota
	// IdentConstant is a namespace constant such as pi.
	IdentConstant
	// IdentSymbol is a free symbol, only produced in symbolic mode.
	IdentSymbol
)

// Number is a numeric literal. Text keeps the literal as written so symbolic
// consumers can convert it exactly.
type Number struct {
	Value float64
	Text  string
}

// Ident is a variable, constant or free symbol reference.
type Ident struct {
	Name string
	Kind IdentKind
}

// Unary is a prefix sign.
type Unary struct {
	Op byte // '+' or '-'
	X  Node
}

// Binary is an infix arithmetic operation.
type Binary struct {
	Op   byte // '+', '-', '*', '/', '^'
	L, R Node
}

// Call is a function application. Postfix marks factorials written as n!.
type Call struct {
	Name    string
	Args    []Node
	Postfix bool
}

// List is an array literal, only produced in matrix mode.
type List struct {
	Elems []Node
}

func (*Number) node() {}
func (*Ident) node()  {}
func (*Unary) node()  {}
func (*Binary) node() {}
func (*Call) node()   {}
func (*List) node()   {}

func (n *Number) String() string {
	if n.Text != "" {
		return n.Text
	}
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}

func (n *Ident) String() string { return n.Name }

func (n *Unary) String() string {
	return string(n.Op) + wrap(n.X, precUnary)
}

func (n *Binary) String() string {
	p := precedence(n)
	if n.Op == '^' {
		// right associative
		return wrap(n.L, p+1) + "^" + wrap(n.R, p)
	}
	return wrap(n.L, p) + " " + string(n.Op) + " " + wrap(n.R, p+1)
}

func (n *Call) String() string {
	if n.Postfix && len(n.Args) == 1 {
		return wrap(n.Args[0], precPostfix) + "!"
	}
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = a.String()
	}
	return n.Name + "(" + strings.Join(args, ", ") + ")"
}

func (n *List) String() string {
	elems := make([]string, len(n.Elems))
	for i, e := range n.Elems {
		elems[i] = e.String()
	}
	return "[" + strings.Join(elems, ", ") + "]"
}

const (
	precAdd = iota + 1
	precMul
	precUnary
	precPow
	precPostfix
	precAtom
)

func precedence(n Node) int {
	switch v := n.(type) {
	case *Binary:
		switch v.Op {
		case '+', '-':
			return precAdd
		case '*', '/':
			return precMul
		case '^':
			return precPow
		}
	case *Unary:
		return precUnary
	case *Number:
		if v.Value < 0 {
			return precUnary
		}
	case *Call:
		if v.Postfix {
			return precPostfix
		}
	}
	return precAtom
}

func wrap(n Node, min int) string {
	if precedence(n) < min {
		return "(" + n.String() + ")"
	}
	return n.String()
}

// Walk calls fn for every node in pre-order.
func Walk(n Node, fn func(Node)) {
	fn(n)
	switch v := n.(type) {
	case *Unary:
		Walk(v.X, fn)
	case *Binary:
		Walk(v.L, fn)
		Walk(v.R, fn)
	case *Call:
		for _, a := range v.Args {
			Walk(a, fn)
		}
	case *List:
		for _, e := range v.Elems {
			Walk(e, fn)
		}
	}
}

// FreeSymbols returns the distinct free symbols of n in order of appearance.
func FreeSymbols(n Node) []string {
	seen := map[string]bool{}
	var out []string
	Walk(n, func(n Node) {
		if id, ok := n.(*Ident); ok && id.Kind == IdentSymbol && !seen[id.Name] {
			seen[id.Name] = true
			out = append(out, id.Name)
		}
	})
	return out
}
