// Package calc is the calculator facade used by the HTTP API, the job worker
// and the CLI.
//
// An Evaluator turns a Request into a Result in one of three modes:
//   - standard: numeric evaluation over the closed function namespace
//   - cas: symbolic parse, substitution of the caller's bindings, numeric
//     evaluation when no free symbols remain
//   - matrix: standard namespace plus array literals and linear algebra
//
// A fourth mode, auto, asks a ModeResolver to pick one of the three.
//
// Evaluation failures never surface as Go errors from Evaluate: they become a
// Result of type "error" carrying the message. RunCAS is stricter and returns
// a ClientError for anything the caller got wrong.
//
// Example usage:
//
//	ev := calc.NewEvaluator(calc.DefaultOptions(), nil, logger)
//	res := ev.Evaluate(ctx, calc.Request{Expr: "sin(pi/2)", Mode: calc.ModeStandard})
//	// res.Result == 1.0, res.Type == calc.TypeNumber
//
//	res, err := ev.RunCAS(ctx, calc.OpSolve, calc.CASRequest{Expr: "x^2 - 4 = 0"})
//	// res.Result == []string{"-2", "2"}, res.Display == "x = -2, x = 2"
package calc
