// Package api serves the calculator over HTTP.
//
// Routes live under /api: compute (evaluate, cas/{op}, translate, jobs),
// units, stats, graph and sessions. Errors are returned as {"detail": "..."}
// with 400 for bad input, 401 when the principal header is missing on
// session routes, 404 for unknown or foreign records, 422 for untranslatable
// text, 503 for disabled features and 504 for symbolic timeouts. Evaluation
// failures are not HTTP errors: /api/compute/evaluate answers 200 with a
// result of type "error".
//
// The caller is identified by a trusted header (X-User-ID by default) set by
// the fronting proxy. When a principal names a session in settings, history
// and graph rows are queued on the Recorder without delaying the response.
//
//	srv := api.NewServer(api.Deps{
//	    Evaluator: evaluator,
//	    Router:    rt,
//	    Converter: converter,
//	    Sampler:   plot.NewSampler(cfg.PlotMaxPoints, logger),
//	    Store:     store,
//	    Recorder:  recorder,
//	}, api.Options{CORSOrigins: cfg.CORSOrigins, PrincipalHeader: cfg.PrincipalHeader}, logger)
//	http.ListenAndServe(cfg.HTTPAddr(), srv.Handler())
package api
