package expr

import (
	"fmt"
	"strconv"
)

// ParseOptions control identifier resolution.
type ParseOptions struct {
	// Namespace supplies functions and constants. Defaults to StandardNamespace.
	Namespace *Namespace

	// Variables are caller bindings. They shadow constants of the same name.
	Variables []string

	// FreeSymbols accepts unknown identifiers as symbols (symbolic mode).
	FreeSymbols bool
}

// Parse normalises src and parses it into a Node.
func Parse(src string, opts ParseOptions) (Node, error) {
	if opts.Namespace == nil {
		opts.Namespace = StandardNamespace()
	}

	tokens, err := tokenize(Normalize(src))
	if err != nil {
		return nil, err
	}

	p := &parser{
		tokens: tokens,
		ns:     opts.Namespace,
		vars:   make(map[string]bool, len(opts.Variables)),
		free:   opts.FreeSymbols,
	}
	for _, v := range opts.Variables {
		p.vars[v] = true
	}

	if p.peek().kind == tokEOF {
		return nil, &SyntaxError{Pos: 0, Message: "empty expression"}
	}

	n, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, &SyntaxError{Pos: t.pos, Message: fmt.Sprintf("unexpected %s", t)}
	}
	return n, nil
}

type parser struct {
	tokens []token
	pos    int
	ns     *Namespace
	vars   map[string]bool
	free   bool
	depth  int
}

// maxDepth bounds recursion for pathological nesting.
const maxDepth = 256

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isOp(text string) bool {
	t := p.peek()
	return t.kind == tokOp && t.text == text
}

func (p *parser) expect(text string) error {
	t := p.next()
	if t.kind != tokOp || t.text != text {
		return &SyntaxError{Pos: t.pos, Message: fmt.Sprintf("expected %q, found %s", text, t)}
	}
	return nil
}

// expr := term (('+' | '-') term)*
func (p *parser) parseExpr() (Node, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxDepth {
		return nil, &SyntaxError{Pos: p.peek().pos, Message: "expression nested too deeply"}
	}

	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.isOp("+") || p.isOp("-") {
		op := p.next().text[0]
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, L: left, R: right}
	}
	return left, nil
}

// term := unary (('*' | '/') unary | implicit unary)*
//
// Implicit multiplication applies when an identifier or '(' directly follows a
// complete factor: 2x, 3(x+1), (a)(b).
func (p *parser) parseTerm() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.isOp("*") || p.isOp("/"):
			op := p.next().text[0]
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = &Binary{Op: op, L: left, R: right}
		case p.peek().kind == tokIdent || p.isOp("("):
			right, err := p.parsePower()
			if err != nil {
				return nil, err
			}
			left = &Binary{Op: '*', L: left, R: right}
		default:
			return left, nil
		}
	}
}

// unary := ('+' | '-') unary | power
func (p *parser) parseUnary() (Node, error) {
	if p.isOp("+") || p.isOp("-") {
		op := p.next().text[0]
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: op, X: x}, nil
	}
	return p.parsePower()
}

// power := postfix ('^' unary)?
func (p *parser) parsePower() (Node, error) {
	base, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if p.isOp("^") {
		p.next()
		exp, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Binary{Op: '^', L: base, R: exp}, nil
	}
	return base, nil
}

// postfix := primary '!'*
func (p *parser) parsePostfix() (Node, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.isOp("!") {
		p.next()
		x = &Call{Name: "factorial", Args: []Node{x}, Postfix: true}
	}
	return x, nil
}

func (p *parser) parsePrimary() (Node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, &SyntaxError{Pos: t.pos, Message: fmt.Sprintf("invalid number %q", t.text)}
		}
		return &Number{Value: v, Text: t.text}, nil

	case tokIdent:
		return p.parseIdent(t)

	case tokOp:
		switch t.text {
		case "(":
			x, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expect(")"); err != nil {
				return nil, err
			}
			return x, nil
		case "[":
			if !p.ns.Matrix {
				return nil, &SyntaxError{Pos: t.pos, Message: "array literals are only available in matrix mode"}
			}
			return p.parseList()
		}
	}
	return nil, &SyntaxError{Pos: t.pos, Message: fmt.Sprintf("unexpected %s", t)}
}

func (p *parser) parseIdent(t token) (Node, error) {
	name := t.text

	if p.isOp("(") {
		if _, ok := p.ns.Functions[name]; ok {
			return p.parseCall(t)
		}
		if !p.vars[name] && !p.ns.hasConstant(name) {
			return nil, fmt.Errorf("%w %q at position %d", ErrUnknownFunction, name, t.pos)
		}
		// bound name followed by '(' is an implicit product, picked up by parseTerm
	}

	switch {
	case p.vars[name]:
		return &Ident{Name: name, Kind: IdentVariable}, nil
	case p.ns.hasConstant(name):
		return &Ident{Name: name, Kind: IdentConstant}, nil
	}
	if _, ok := p.ns.Functions[name]; ok {
		return nil, &SyntaxError{Pos: t.pos, Message: fmt.Sprintf("function %q requires arguments", name)}
	}
	if p.free {
		return &Ident{Name: name, Kind: IdentSymbol}, nil
	}
	return nil, fmt.Errorf("%w %q at position %d", ErrUnknownIdentifier, name, t.pos)
}

func (p *parser) parseCall(t token) (Node, error) {
	fn := p.ns.Functions[t.text]
	p.next() // (

	var args []Node
	if !p.isOp(")") {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.isOp(",") {
				break
			}
			p.next()
		}
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}

	if len(args) < fn.MinArgs || (fn.MaxArgs >= 0 && len(args) > fn.MaxArgs) {
		return nil, &SyntaxError{Pos: t.pos, Message: fmt.Sprintf("%s() takes %s, got %d", t.text, fn.arity(), len(args))}
	}
	return &Call{Name: t.text, Args: args}, nil
}

func (p *parser) parseList() (Node, error) {
	var elems []Node
	if !p.isOp("]") {
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
			if !p.isOp(",") {
				break
			}
			p.next()
		}
	}
	if err := p.expect("]"); err != nil {
		return nil, err
	}
	return &List{Elems: elems}, nil
}
