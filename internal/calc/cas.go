package calc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aescanero/dago-node-calculator/internal/cas"
	"github.com/aescanero/dago-node-calculator/internal/expr"
	"go.uber.org/zap"
)

// CASOp names a symbolic operation.
type CASOp string

const (
	OpSimplify      CASOp = "simplify"
	OpFactor        CASOp = "factor"
	OpExpand        CASOp = "expand"
	OpSolve         CASOp = "solve"
	OpIntegrate     CASOp = "integrate"
	OpDifferentiate CASOp = "differentiate"
	OpLimit         CASOp = "limit"
)

// CASOps lists the supported operations.
var CASOps = []CASOp{OpSimplify, OpFactor, OpExpand, OpSolve, OpIntegrate, OpDifferentiate, OpLimit}

// ParseCASOp validates an operation name.
func ParseCASOp(name string) (CASOp, error) {
	for _, op := range CASOps {
		if string(op) == name {
			return op, nil
		}
	}
	return "", clientErrorf("%w: %s", ErrUnsupportedOperation, name)
}

// CASRequest carries an expression and the operation parameters. Limits and
// Approach accept numbers or expression strings such as "oo" or "pi/2".
type CASRequest struct {
	Expr      string `json:"expr"`
	Variable  string `json:"variable,omitempty"`
	Order     int    `json:"order,omitempty"`
	Limits    []any  `json:"limits,omitempty"`
	Approach  any    `json:"approach,omitempty"`
	Direction string `json:"direction,omitempty"`
}

func (r *CASRequest) applyDefaults() {
	if r.Variable == "" {
		r.Variable = "x"
	}
	if r.Order == 0 {
		r.Order = 1
	}
	if r.Approach == nil {
		r.Approach = 0.0
	}
	if r.Direction == "" {
		r.Direction = "+"
	}
}

// RunCAS applies one symbolic operation. Input errors are ClientErrors; a
// computation that outlives Options.CASTimeout returns ErrTimeout.
func (e *Evaluator) RunCAS(ctx context.Context, op CASOp, req CASRequest) (Result, error) {
	if err := e.checkLength(req.Expr); err != nil {
		return Result{}, err
	}
	req.applyDefaults()
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	if e.opts.CASTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.CASTimeout)
		defer cancel()
	}

	type outcome struct {
		res Result
		err error
	}
	// Expansion and solving stop once ctx is done; the other routines run
	// to completion and their outcome is dropped.
	done := make(chan outcome, 1)
	go func() {
		res, err := runOp(ctx, op, req)
		done <- outcome{res, err}
	}()

	var (
		out      outcome
		finished bool
	)
	select {
	case out = <-done:
		finished = true
	case <-ctx.Done():
	}
	if ctxErr := ctx.Err(); ctxErr != nil && (!finished || errors.Is(out.err, ctxErr)) {
		e.logger.Warn("cas operation timed out",
			zap.String("op", string(op)),
			zap.String("expr", req.Expr),
			zap.Duration("timeout", e.opts.CASTimeout),
		)
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return Result{}, fmt.Errorf("%w: %s after %s", ErrTimeout, op, e.opts.CASTimeout)
		}
		return Result{}, ctxErr
	}
	if out.err != nil {
		e.logger.Debug("cas operation failed",
			zap.String("op", string(op)),
			zap.String("expr", req.Expr),
			zap.Error(out.err),
		)
		return Result{}, clientError(out.err)
	}
	return out.res, nil
}

func runOp(ctx context.Context, op CASOp, req CASRequest) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s failed: %v", op, r)
		}
	}()

	if op == OpSolve {
		return solve(ctx, req)
	}

	ex, err := cas.Parse(req.Expr)
	if err != nil {
		return Result{}, err
	}

	var out cas.Expr
	switch op {
	case OpSimplify:
		out = cas.Simplify(ex)
	case OpFactor:
		out = cas.Factor(ex)
	case OpExpand:
		out, err = cas.ExpandContext(ctx, ex)
	case OpDifferentiate:
		out, err = cas.Diff(ex, req.Variable, req.Order)
	case OpIntegrate:
		out, err = integrate(ex, req)
	case OpLimit:
		out, err = limit(ex, req)
	default:
		return Result{}, fmt.Errorf("%w: %s", ErrUnsupportedOperation, op)
	}
	if err != nil {
		return Result{}, err
	}
	return expressionResult(out), nil
}

func expressionResult(ex cas.Expr) Result {
	return Result{Result: ex.String(), Display: ex.LaTeX(), Type: TypeExpression}
}

func integrate(ex cas.Expr, req CASRequest) (cas.Expr, error) {
	if len(req.Limits) == 0 {
		return cas.Integrate(ex, req.Variable), nil
	}
	if len(req.Limits) != 2 {
		return nil, fmt.Errorf("limits must be [lower, upper], got %d values", len(req.Limits))
	}
	lo, err := toExpr(req.Limits[0])
	if err != nil {
		return nil, fmt.Errorf("lower limit: %w", err)
	}
	hi, err := toExpr(req.Limits[1])
	if err != nil {
		return nil, fmt.Errorf("upper limit: %w", err)
	}
	return cas.Definite(ex, req.Variable, lo, hi)
}

func limit(ex cas.Expr, req CASRequest) (cas.Expr, error) {
	point, err := toExpr(req.Approach)
	if err != nil {
		return nil, fmt.Errorf("approach: %w", err)
	}
	return cas.Limit(ex, req.Variable, point, req.Direction)
}

// solve accepts either an expression equal to zero or a single equation
// lhs = rhs.
func solve(ctx context.Context, req CASRequest) (Result, error) {
	parts := strings.Split(req.Expr, "=")
	if len(parts) > 2 {
		return Result{}, fmt.Errorf("expected a single '=' in %q", req.Expr)
	}
	ex, err := cas.Parse(parts[0])
	if err != nil {
		return Result{}, err
	}
	if len(parts) == 2 {
		rhs, err := cas.Parse(parts[1])
		if err != nil {
			return Result{}, err
		}
		ex = cas.Minus(ex, rhs)
	}

	sols, err := cas.SolveContext(ctx, ex, req.Variable)
	if err != nil {
		return Result{}, err
	}
	texts := make([]string, len(sols))
	displays := make([]string, len(sols))
	for i, s := range sols {
		texts[i] = s.String()
		displays[i] = expr.SymbolLaTeX(req.Variable) + " = " + s.LaTeX()
	}
	return Result{Result: texts, Display: strings.Join(displays, ", "), Type: TypeExpression}, nil
}
