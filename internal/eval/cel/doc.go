// Package cel provides a CEL (Common Expression Language) evaluator for
// calculator mode rules.
//
// Rules see a single variable, request, holding the facts of an evaluation
// request: expr, variables, free_symbols and has_brackets.
//
// Example usage:
//
//	evaluator, err := cel.NewEvaluator()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	vars := map[string]interface{}{
//	    "request": map[string]interface{}{
//	        "expr":         "x^2 + 1",
//	        "free_symbols": []interface{}{"x"},
//	        "has_brackets": false,
//	    },
//	}
//
//	matched, err := evaluator.EvaluateBool(ctx, "size(request.free_symbols) > 0", vars)
//	// matched == true
//
// Compiled programs are cached per expression.
package cel
