// Package router picks evaluation modes and turns natural language into
// expressions.
//
// Requests sent with mode "auto" are routed by CEL rules evaluated in order
// over the request facts (see calc.Describe), bound to the variable request:
//
//	cfg := router.Config{
//	    Rules: []router.Rule{
//	        {Condition: "request.has_brackets", Target: calc.ModeMatrix},
//	        {Condition: "size(request.free_symbols) > 0", Target: calc.ModeCAS},
//	    },
//	    Fallback: calc.ModeStandard,
//	}
//	r, err := router.NewRouter(cfg, nil, logger)
//	ev := calc.NewEvaluator(calc.DefaultOptions(), r, logger)
//
// A rule that fails to evaluate is logged and skipped; when nothing matches
// the fallback mode is used.
//
// Natural language requests are rendered into a Handlebars prompt listing
// the vocabulary, sent to an LLM through a CompletionFunc and validated by
// parsing the reply:
//
//	r, err := router.NewRouter(cfg, router.LLMCompletion(client, model, 30*time.Second), logger)
//	in, err := r.Interpret(ctx, "the square root of two times pi")
//	// in.Expr == "sqrt(2*pi)", in.Mode == calc.ModeStandard
package router
