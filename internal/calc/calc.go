package calc

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/aescanero/dago-node-calculator/internal/cas"
	"github.com/aescanero/dago-node-calculator/internal/expr"
	"go.uber.org/zap"
)

// Mode selects how an expression is interpreted.
type Mode string

const (
	ModeStandard Mode = "standard"
	ModeCAS      Mode = "cas"
	ModeMatrix   Mode = "matrix"

	// ModeAuto delegates the choice to a ModeResolver.
	ModeAuto Mode = "auto"
)

// ResultType tags a Result.
type ResultType string

const (
	TypeNumber     ResultType = "number"
	TypeArray      ResultType = "array"
	TypeMatrix     ResultType = "matrix"
	TypeExpression ResultType = "expression"
	TypeError      ResultType = "error"
)

// Request is a single evaluation. Mode defaults to standard.
type Request struct {
	Expr      string         `json:"expr"`
	Mode      Mode           `json:"mode,omitempty"`
	Variables map[string]any `json:"variables,omitempty"`
}

// Result is the outcome of an evaluation. Result holds a float64, nested
// []any, a string or a list of strings depending on Type.
type Result struct {
	Result  any        `json:"result"`
	Display string     `json:"display"`
	Type    ResultType `json:"type"`
}

// Failed reports whether r is an error result.
func (r Result) Failed() bool { return r.Type == TypeError }

// Options are the evaluator limits.
type Options struct {
	// Precision is the number of significant digits used in displayed values.
	Precision int

	// CASTimeout bounds each symbolic operation. Zero disables the bound.
	CASTimeout time.Duration

	// MaxExprLength rejects longer inputs. Zero disables the check.
	MaxExprLength int
}

// DefaultOptions returns the limits used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Precision:     15,
		CASTimeout:    30 * time.Second,
		MaxExprLength: 2048,
	}
}

// ModeResolver picks a concrete mode for ModeAuto requests.
type ModeResolver interface {
	ResolveMode(ctx context.Context, req Request) (Mode, error)
}

// Evaluator evaluates requests. It holds no per-call state and is safe for
// concurrent use.
type Evaluator struct {
	opts     Options
	resolver ModeResolver
	logger   *zap.Logger
}

// NewEvaluator creates an evaluator. resolver may be nil, in which case auto
// mode uses Infer.
func NewEvaluator(opts Options, resolver ModeResolver, logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{
		opts:     opts,
		resolver: resolver,
		logger:   logger,
	}
}

// Options returns the evaluator limits.
func (e *Evaluator) Options() Options { return e.opts }

// Evaluate computes req. Failures are reported as a TypeError result.
func (e *Evaluator) Evaluate(ctx context.Context, req Request) Result {
	res, err := e.evaluate(ctx, req)
	if err != nil {
		e.logger.Debug("evaluation failed",
			zap.String("expr", req.Expr),
			zap.String("mode", string(req.Mode)),
			zap.Error(err),
		)
		return errorResult(err)
	}
	return res
}

func (e *Evaluator) evaluate(ctx context.Context, req Request) (Result, error) {
	if err := e.checkLength(req.Expr); err != nil {
		return Result{}, err
	}

	mode := req.Mode
	if mode == "" {
		mode = ModeStandard
	}
	if mode == ModeAuto {
		resolved, err := e.resolveMode(ctx, req)
		if err != nil {
			return Result{}, err
		}
		mode = resolved
	}

	switch mode {
	case ModeStandard:
		return e.evalNumeric(req, expr.StandardNamespace())
	case ModeMatrix:
		return e.evalNumeric(req, expr.MatrixNamespace())
	case ModeCAS:
		return e.evalSymbolic(req)
	}
	return Result{}, fmt.Errorf("%w: %s", ErrUnsupportedMode, mode)
}

func (e *Evaluator) resolveMode(ctx context.Context, req Request) (Mode, error) {
	if e.resolver == nil {
		return Infer(req), nil
	}
	mode, err := e.resolver.ResolveMode(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to resolve mode: %w", err)
	}
	e.logger.Debug("resolved auto mode",
		zap.String("expr", req.Expr),
		zap.String("mode", string(mode)),
	)
	return mode, nil
}

func (e *Evaluator) checkLength(src string) error {
	if e.opts.MaxExprLength > 0 && len(src) > e.opts.MaxExprLength {
		return clientErrorf("%w: %d bytes, limit %d", ErrTooLong, len(src), e.opts.MaxExprLength)
	}
	return nil
}

// evalNumeric covers standard and matrix mode; they differ only in namespace.
func (e *Evaluator) evalNumeric(req Request, ns *expr.Namespace) (Result, error) {
	env := make(expr.Env, len(req.Variables))
	names := make([]string, 0, len(req.Variables))
	for name, raw := range req.Variables {
		v, err := expr.FromNative(raw)
		if err != nil {
			return Result{}, fmt.Errorf("variable %s: %w", name, err)
		}
		env[name] = v
		names = append(names, name)
	}
	sort.Strings(names)

	node, err := expr.Parse(req.Expr, expr.ParseOptions{Namespace: ns, Variables: names})
	if err != nil {
		return Result{}, err
	}
	v, err := expr.Evaluate(node, ns, env)
	if err != nil {
		return Result{}, err
	}

	if ns.Matrix {
		if !v.IsArray() {
			return Result{Result: v.Float(), Display: expr.ValueLaTeX(v, e.opts.Precision), Type: TypeNumber}, nil
		}
		return Result{Result: v.Native(), Display: expr.ValueLaTeX(v, e.opts.Precision), Type: TypeMatrix}, nil
	}

	res := Result{Result: v.Native(), Display: expr.LaTeX(node), Type: TypeNumber}
	if v.IsArray() {
		res.Type = TypeArray
	}
	return res, nil
}

// evalSymbolic parses with free symbols, substitutes the bindings and returns
// a number when nothing symbolic is left.
func (e *Evaluator) evalSymbolic(req Request) (Result, error) {
	bindings, err := symbolicBindings(req.Variables)
	if err != nil {
		return Result{}, err
	}
	names := sortedKeys(bindings)
	node, err := expr.Parse(req.Expr, expr.ParseOptions{Variables: names, FreeSymbols: true})
	if err != nil {
		return Result{}, err
	}
	ex, err := cas.FromNode(node)
	if err != nil {
		return Result{}, err
	}
	for _, name := range names {
		ex = cas.Subs(ex, name, bindings[name])
	}

	if f, ok := cas.Evalf(ex); ok {
		return Result{Result: f, Display: ex.LaTeX(), Type: TypeNumber}, nil
	}
	return Result{Result: ex.String(), Display: ex.LaTeX(), Type: TypeExpression}, nil
}

// symbolicBindings converts caller variables to expressions. Integral numbers
// stay exact; strings are parsed as expressions.
func symbolicBindings(vars map[string]any) (map[string]cas.Expr, error) {
	out := make(map[string]cas.Expr, len(vars))
	for name, raw := range vars {
		ex, err := toExpr(raw)
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", name, err)
		}
		out[name] = ex
	}
	return out, nil
}

func toExpr(raw any) (cas.Expr, error) {
	if s, ok := raw.(string); ok {
		return cas.Parse(s)
	}
	v, err := expr.FromNative(raw)
	if err != nil {
		return nil, err
	}
	if v.IsArray() {
		return nil, cas.ErrArray
	}
	f := v.Float()
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return cas.Int(int64(f)), nil
	}
	return cas.Float(f), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func errorResult(err error) Result {
	msg := err.Error()
	return Result{
		Result:  msg,
		Display: `\text{Error: ` + escapeText(msg) + `}`,
		Type:    TypeError,
	}
}

var textEscaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`{`, `\{`,
	`}`, `\}`,
	`_`, `\_`,
	`^`, `\^{}`,
	`%`, `\%`,
	`$`, `\$`,
	`#`, `\#`,
	`&`, `\&`,
)

func escapeText(s string) string { return textEscaper.Replace(s) }

// Facts describes a request for mode selection.
type Facts struct {
	Expr        string
	Variables   []string
	FreeSymbols []string
	HasBrackets bool
}

// Map returns the facts keyed the way routing rules reference them.
func (f Facts) Map() map[string]any {
	vars := make([]any, len(f.Variables))
	for i, v := range f.Variables {
		vars[i] = v
	}
	free := make([]any, len(f.FreeSymbols))
	for i, s := range f.FreeSymbols {
		free[i] = s
	}
	return map[string]any{
		"expr":         f.Expr,
		"variables":    vars,
		"free_symbols": free,
		"has_brackets": f.HasBrackets,
	}
}

// Describe extracts the facts of req. Unparseable input yields no free
// symbols; the chosen mode reports the syntax error later.
func Describe(req Request) Facts {
	names := sortedKeys(req.Variables)
	f := Facts{
		Expr:        req.Expr,
		Variables:   names,
		FreeSymbols: []string{},
		HasBrackets: strings.ContainsAny(req.Expr, "[]"),
	}
	node, err := expr.Parse(req.Expr, expr.ParseOptions{
		Namespace:   expr.MatrixNamespace(),
		Variables:   names,
		FreeSymbols: true,
	})
	if err == nil {
		if syms := expr.FreeSymbols(node); len(syms) > 0 {
			f.FreeSymbols = syms
		}
	}
	return f
}

// Infer is the built-in mode choice: brackets mean matrix, free symbols mean
// cas, anything else is standard.
func Infer(req Request) Mode {
	f := Describe(req)
	switch {
	case f.HasBrackets:
		return ModeMatrix
	case len(f.FreeSymbols) > 0:
		return ModeCAS
	}
	return ModeStandard
}
