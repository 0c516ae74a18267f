// Package cas is a small computer algebra system over exact rationals.
//
// Expressions are immutable trees kept in canonical form by their
// constructors: sums and products are flattened, numbers folded, like terms
// and like bases collected. On top of that the package offers:
//
//   - Expand, Factor, Cancel and Simplify
//   - Diff for derivatives of any order
//   - Integrate and Definite for antiderivatives and definite integrals
//   - Limit, one-sided or two-sided, including limits at infinity
//   - Solve for polynomial and elementary transcendental equations
//
// Input is parsed by the expr package with free symbols allowed:
//
//	e, err := cas.Parse("x^2 + 2*x + 1")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cas.Simplify(e))           // (x + 1)^2
//	d, _ := cas.Diff(e, "x", 1)
//	fmt.Println(d, d.LaTeX())              // 2*x + 2  2 x + 2
//	fmt.Println(cas.Solve(e, "x"))         // [-1]
//
// String output uses ^ for powers and parses back to the same expression.
package cas
