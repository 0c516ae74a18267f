package expr

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var superscripts = map[rune]rune{
	'⁰': '0', '¹': '1', '²': '2', '³': '3', '⁴': '4',
	'⁵': '5', '⁶': '6', '⁷': '7', '⁸': '8', '⁹': '9',
	'⁻': '-',
}

// Constants are padded with spaces so 2πx tokenizes as 2 pi x.
var symbolReplacer = strings.NewReplacer(
	"π", " pi ",
	"τ", " (2*pi) ",
	"×", "*",
	"·", "*",
	"⋅", "*",
	"÷", "/",
	"−", "-",
)

// Normalize rewrites typographic input into the ASCII grammar accepted by Parse.
// Runs of superscript digits become an explicit exponent (x² -> x^(2)) before
// NFKC folding would turn them into plain digits. A radical without
// parentheses applies to the following operand: √2x -> sqrt(2)x.
func Normalize(src string) string {
	var b strings.Builder
	b.Grow(len(src))

	runes := []rune(src)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '√' {
			i = writeRadical(&b, runes, i+1) - 1
			continue
		}
		if _, ok := superscripts[r]; !ok {
			b.WriteRune(r)
			continue
		}
		b.WriteString("^(")
		for ; i < len(runes); i++ {
			d, ok := superscripts[runes[i]]
			if !ok {
				break
			}
			b.WriteRune(d)
		}
		b.WriteByte(')')
		i--
	}

	s := symbolReplacer.Replace(b.String())
	return norm.NFKC.String(s)
}

// writeRadical emits sqrt for the operand starting at i and returns the index
// after it.
func writeRadical(b *strings.Builder, runes []rune, i int) int {
	b.WriteString(" sqrt")
	if i < len(runes) && runes[i] == '(' {
		return i
	}
	j := i
	if j < len(runes) && (unicode.IsDigit(runes[j]) || runes[j] == '.') {
		for j < len(runes) && (unicode.IsDigit(runes[j]) || runes[j] == '.') {
			j++
		}
	} else {
		for j < len(runes) && (unicode.IsLetter(runes[j]) || runes[j] == '_' || runes[j] == 'π') {
			j++
		}
	}
	b.WriteByte('(')
	b.WriteString(string(runes[i:j]))
	b.WriteByte(')')
	return j
}
