package plot

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/aescanero/dago-node-calculator/internal/expr"
	"go.uber.org/zap"
)

// Type selects the kind of plot.
type Type string

const (
	Type2D         Type = "2d"
	TypeParametric Type = "parametric"
	TypePolar      Type = "polar"
	Type3D         Type = "3d"
)

var (
	// ErrInvalidPlot matches every error caused by the caller's request.
	ErrInvalidPlot = errors.New("invalid plot request")

	// ErrUnsupportedType is returned for plot types other than 2d, parametric, polar and 3d.
	ErrUnsupportedType = fmt.Errorf("%w: unsupported plot type", ErrInvalidPlot)
)

const (
	defaultPoints   = 1000
	defaultPoints3D = 100
)

// Domain bounds the sampled variables. Nil bounds take the defaults of the
// plot type.
type Domain struct {
	XMin     *float64 `json:"x_min,omitempty"`
	XMax     *float64 `json:"x_max,omitempty"`
	YMin     *float64 `json:"y_min,omitempty"`
	YMax     *float64 `json:"y_max,omitempty"`
	TMin     *float64 `json:"t_min,omitempty"`
	TMax     *float64 `json:"t_max,omitempty"`
	ThetaMin *float64 `json:"theta_min,omitempty"`
	ThetaMax *float64 `json:"theta_max,omitempty"`

	NumPoints int `json:"num_points,omitempty"`
}

// Request is a plot to sample.
type Request struct {
	Expr   string `json:"expr"`
	Type   Type   `json:"type"`
	Domain Domain `json:"domain"`
}

// Data holds sampled points. A nil entry is a point where evaluation failed.
type Data struct {
	Type   Type   `json:"type"`
	Expr   string `json:"expr"`
	Domain Domain `json:"domain"`

	T     []any   `json:"t,omitempty"`
	Theta []any   `json:"theta,omitempty"`
	R     []any   `json:"r,omitempty"`
	X     []any   `json:"x,omitempty"`
	Y     []any   `json:"y,omitempty"`
	Z     [][]any `json:"z,omitempty"`
}

// Sampler evaluates expressions over a grid.
type Sampler struct {
	maxPoints int
	logger    *zap.Logger
}

// NewSampler returns a Sampler that samples at most maxPoints values per
// axis. maxPoints <= 0 removes the cap.
func NewSampler(maxPoints int, logger *zap.Logger) *Sampler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sampler{maxPoints: maxPoints, logger: logger}
}

// Sample evaluates req over its domain.
func (s *Sampler) Sample(ctx context.Context, req Request) (*Data, error) {
	if strings.TrimSpace(req.Expr) == "" {
		return nil, fmt.Errorf("%w: expression is required", ErrInvalidPlot)
	}
	kind := req.Type
	if kind == "" {
		kind = Type2D
	}

	var (
		data *Data
		err  error
	)
	switch kind {
	case Type2D:
		data, err = s.sample2D(ctx, req)
	case TypeParametric:
		data, err = s.sampleParametric(ctx, req)
	case TypePolar:
		data, err = s.samplePolar(ctx, req)
	case Type3D:
		data, err = s.sample3D(ctx, req)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, kind)
	}
	if err != nil {
		return nil, err
	}
	data.Type = kind
	data.Expr = req.Expr
	return data, nil
}

func (s *Sampler) points(n, def int) int {
	if n <= 0 {
		n = def
	}
	if s.maxPoints > 0 && n > s.maxPoints {
		n = s.maxPoints
	}
	return n
}

func (s *Sampler) sample2D(ctx context.Context, req Request) (*Data, error) {
	f, err := compile(req.Expr, "x")
	if err != nil {
		return nil, err
	}
	d := req.Domain
	d.XMin, d.XMax = bound(d.XMin, -10), bound(d.XMax, 10)
	d.NumPoints = s.points(d.NumPoints, defaultPoints)

	xs := linspace(*d.XMin, *d.XMax, d.NumPoints)
	ys := make([]any, len(xs))
	for i, x := range xs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ys[i] = f(x)
	}
	return &Data{Domain: d, X: floats(xs), Y: ys}, nil
}

func (s *Sampler) sampleParametric(ctx context.Context, req Request) (*Data, error) {
	parts := splitTopLevel(req.Expr)
	if len(parts) != 2 {
		return nil, fmt.Errorf("%w: parametric plots need two expressions x(t), y(t)", ErrInvalidPlot)
	}
	fx, err := compile(parts[0], "t")
	if err != nil {
		return nil, err
	}
	fy, err := compile(parts[1], "t")
	if err != nil {
		return nil, err
	}
	d := req.Domain
	d.TMin, d.TMax = bound(d.TMin, 0), bound(d.TMax, 2*math.Pi)
	d.NumPoints = s.points(d.NumPoints, defaultPoints)

	ts := linspace(*d.TMin, *d.TMax, d.NumPoints)
	xs := make([]any, len(ts))
	ys := make([]any, len(ts))
	for i, t := range ts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		xs[i], ys[i] = f2(fx(t), fy(t))
	}
	return &Data{Domain: d, T: floats(ts), X: xs, Y: ys}, nil
}

func (s *Sampler) samplePolar(ctx context.Context, req Request) (*Data, error) {
	f, err := compile(req.Expr, "theta")
	if err != nil {
		return nil, err
	}
	d := req.Domain
	d.ThetaMin, d.ThetaMax = bound(d.ThetaMin, 0), bound(d.ThetaMax, 2*math.Pi)
	d.NumPoints = s.points(d.NumPoints, defaultPoints)

	thetas := linspace(*d.ThetaMin, *d.ThetaMax, d.NumPoints)
	rs := make([]any, len(thetas))
	xs := make([]any, len(thetas))
	ys := make([]any, len(thetas))
	for i, theta := range thetas {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rs[i] = f(theta)
		if r, ok := rs[i].(float64); ok {
			xs[i] = finite(r * math.Cos(theta))
			ys[i] = finite(r * math.Sin(theta))
		}
	}
	return &Data{Domain: d, Theta: floats(thetas), R: rs, X: xs, Y: ys}, nil
}

func (s *Sampler) sample3D(ctx context.Context, req Request) (*Data, error) {
	node, err := parse(req.Expr, "x", "y")
	if err != nil {
		return nil, err
	}
	d := req.Domain
	d.XMin, d.XMax = bound(d.XMin, -5), bound(d.XMax, 5)
	d.YMin, d.YMax = bound(d.YMin, -5), bound(d.YMax, 5)
	d.NumPoints = s.points(d.NumPoints, defaultPoints3D)

	xs := linspace(*d.XMin, *d.XMax, d.NumPoints)
	ys := linspace(*d.YMin, *d.YMax, d.NumPoints)
	env := expr.Env{}
	failed := 0

	// z[i][j] is the value at (xs[j], ys[i])
	z := make([][]any, len(ys))
	for i, y := range ys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		env["y"] = expr.Scalar(y)
		row := make([]any, len(xs))
		for j, x := range xs {
			env["x"] = expr.Scalar(x)
			row[j] = evalAt(node, env)
			if row[j] == nil {
				failed++
			}
		}
		z[i] = row
	}
	if failed > 0 {
		s.logger.Debug("3d plot has undefined points",
			zap.String("expr", req.Expr),
			zap.Int("failed", failed))
	}
	return &Data{Domain: d, X: floats(xs), Y: floats(ys), Z: z}, nil
}

func parse(src string, vars ...string) (expr.Node, error) {
	node, err := expr.Parse(src, expr.ParseOptions{Variables: vars})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPlot, err)
	}
	return node, nil
}

// compile parses src as a function of one variable.
func compile(src, variable string) (func(float64) any, error) {
	node, err := parse(src, variable)
	if err != nil {
		return nil, err
	}
	env := expr.Env{}
	return func(v float64) any {
		env[variable] = expr.Scalar(v)
		return evalAt(node, env)
	}, nil
}

func evalAt(node expr.Node, env expr.Env) any {
	v, err := expr.Evaluate(node, nil, env)
	if err != nil || v.IsArray() {
		return nil
	}
	return finite(v.Float())
}

func f2(x, y any) (any, any) {
	if x == nil || y == nil {
		return nil, nil
	}
	return x, y
}

func finite(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

func floats(fs []float64) []any {
	out := make([]any, len(fs))
	for i, f := range fs {
		out[i] = f
	}
	return out
}

func bound(v *float64, def float64) *float64 {
	if v != nil {
		return v
	}
	return &def
}

// linspace returns n evenly spaced values from lo to hi inclusive.
func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = lo
		return out
	}
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}

// splitTopLevel splits s on commas outside parentheses and brackets.
func splitTopLevel(s string) []string {
	var (
		parts []string
		depth int
		start int
	)
	for i, r := range s {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(parts, strings.TrimSpace(s[start:]))
}
