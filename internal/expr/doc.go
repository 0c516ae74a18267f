// Package expr parses and evaluates calculator expressions.
//
// Input is first normalised (Unicode compatibility folding, π and τ, typographic
// operators, superscript exponents) and then parsed by a recursive-descent parser
// into an explicit tree. The grammar is closed: numeric literals, the operators
// + - * / ^ (also **) and postfix !, parentheses, calls to functions of the active
// Namespace, its constants and the caller's variables. Any other identifier is
// rejected at parse time unless free symbols are enabled (symbolic mode).
//
// Example usage:
//
//	ns := expr.StandardNamespace()
//
//	node, err := expr.Parse("sin(pi/2) + x^2", expr.ParseOptions{
//	    Namespace: ns,
//	    Variables: []string{"x"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	v, err := expr.Evaluate(node, ns, expr.Env{"x": expr.Scalar(3)})
//	// v.Float() == 10
//
//	display := expr.LaTeX(node)
//	// \sin\left(\frac{\pi}{2}\right) + {x}^{2}
//
// Matrix mode uses MatrixNamespace, which enables [..] literals and the linear
// algebra functions (det, inv, transpose, trace, solve, norm, rank, dot, eye,
// zeros, ones). Arrays flowing through scalar functions are mapped element-wise.
package expr
