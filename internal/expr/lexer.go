package expr

import (
	"fmt"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokOp
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of input"
	case tokNumber:
		return fmt.Sprintf("number %s", t.text)
	case tokIdent:
		return fmt.Sprintf("identifier %q", t.text)
	}
	return fmt.Sprintf("%q", t.text)
}

// tokenize splits normalised input into tokens. Positions are rune offsets.
func tokenize(src string) ([]token, error) {
	runes := []rune(src)
	var tokens []token

	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++

		case unicode.IsDigit(r) || (r == '.' && i+1 < len(runes) && unicode.IsDigit(runes[i+1])):
			start := i
			for i < len(runes) && unicode.IsDigit(runes[i]) {
				i++
			}
			if i < len(runes) && runes[i] == '.' {
				i++
				for i < len(runes) && unicode.IsDigit(runes[i]) {
					i++
				}
			}
			// exponent only when digits follow, so "2e" stays 2 followed by e
			if i < len(runes) && (runes[i] == 'e' || runes[i] == 'E') {
				j := i + 1
				if j < len(runes) && (runes[j] == '+' || runes[j] == '-') {
					j++
				}
				if j < len(runes) && unicode.IsDigit(runes[j]) {
					i = j
					for i < len(runes) && unicode.IsDigit(runes[i]) {
						i++
					}
				}
			}
			tokens = append(tokens, token{kind: tokNumber, text: string(runes[start:i]), pos: start})

		case unicode.IsLetter(r) || r == '_':
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}
			tokens = append(tokens, token{kind: tokIdent, text: string(runes[start:i]), pos: start})

		case r == '*' && i+1 < len(runes) && runes[i+1] == '*':
			tokens = append(tokens, token{kind: tokOp, text: "^", pos: i})
			i += 2

		case isOperator(r):
			tokens = append(tokens, token{kind: tokOp, text: string(r), pos: i})
			i++

		default:
			return nil, &SyntaxError{Pos: i, Message: fmt.Sprintf("unexpected character %q", r)}
		}
	}

	tokens = append(tokens, token{kind: tokEOF, pos: len(runes)})
	return tokens, nil
}

func isOperator(r rune) bool {
	switch r {
	case '+', '-', '*', '/', '^', '!', '(', ')', '[', ']', ',':
		return true
	}
	return false
}
