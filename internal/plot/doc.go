// Package plot samples expressions for the graphing endpoint.
//
// Four plot types are supported: 2d plots y = f(x), parametric curves
// x(t), y(t), polar curves r(theta) and 3d surfaces z = f(x, y). Sampling
// returns raw points; rendering is left to the client. Points where the
// expression is undefined are reported as nil so a renderer can break the
// line there.
//
//	s := plot.NewSampler(5000, logger)
//	data, err := s.Sample(ctx, plot.Request{Expr: "sin(x)/x", Type: plot.Type2D})
package plot
