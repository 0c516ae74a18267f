package calc

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEvaluator(resolver ModeResolver) *Evaluator {
	return NewEvaluator(DefaultOptions(), resolver, nil)
}

func TestEvaluate_Standard(t *testing.T) {
	ev := newTestEvaluator(nil)
	ctx := context.Background()

	res := ev.Evaluate(ctx, Request{Expr: "sin(pi/2)"})
	require.Equal(t, TypeNumber, res.Type)
	assert.InDelta(t, 1.0, res.Result.(float64), 1e-12)
	assert.Equal(t, `\sin\left(\frac{\pi}{2}\right)`, res.Display)

	res = ev.Evaluate(ctx, Request{Expr: "x^2 + 1", Mode: ModeStandard, Variables: map[string]any{"x": 3.0}})
	require.Equal(t, TypeNumber, res.Type)
	assert.Equal(t, 10.0, res.Result)

	res = ev.Evaluate(ctx, Request{Expr: "2*x", Variables: map[string]any{"x": []any{1.0, 2.0, 3.0}}})
	require.Equal(t, TypeArray, res.Type)
	assert.Equal(t, []any{2.0, 4.0, 6.0}, res.Result)
}

func TestEvaluate_ErrorsBecomeResults(t *testing.T) {
	ev := newTestEvaluator(nil)
	ctx := context.Background()

	tests := []struct {
		name string
		req  Request
		msg  string
	}{
		{"division by zero", Request{Expr: "1/0"}, "division by zero"},
		{"unknown identifier", Request{Expr: "foo + 1"}, "unknown identifier"},
		{"domain", Request{Expr: "sqrt(-1)"}, "math domain error"},
		{"syntax", Request{Expr: "2 +"}, "syntax error"},
		{"mode", Request{Expr: "1", Mode: "graphing"}, "unsupported computation mode"},
		{"bad variable", Request{Expr: "x", Variables: map[string]any{"x": map[string]any{}}}, "variable x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ev.Evaluate(ctx, tt.req)
			require.True(t, res.Failed())
			assert.Contains(t, res.Result, tt.msg)
			assert.True(t, strings.HasPrefix(res.Display, `\text{Error: `))
		})
	}
}

func TestEvaluate_TooLong(t *testing.T) {
	ev := NewEvaluator(Options{MaxExprLength: 8}, nil, nil)
	res := ev.Evaluate(context.Background(), Request{Expr: "1+1+1+1+1"})
	require.True(t, res.Failed())
	assert.Contains(t, res.Result, "expression too long")
}

func TestEvaluate_CAS(t *testing.T) {
	ev := newTestEvaluator(nil)
	ctx := context.Background()

	res := ev.Evaluate(ctx, Request{Expr: "x^2 + 2*x + 1", Mode: ModeCAS})
	require.Equal(t, TypeExpression, res.Type)
	assert.Equal(t, "x^2 + 2*x + 1", res.Result)

	res = ev.Evaluate(ctx, Request{Expr: "x^2 + y", Mode: ModeCAS, Variables: map[string]any{"x": 3.0, "y": 1.0}})
	require.Equal(t, TypeNumber, res.Type)
	assert.Equal(t, 10.0, res.Result)

	// expression bindings substitute symbolically
	res = ev.Evaluate(ctx, Request{Expr: "x^2", Mode: ModeCAS, Variables: map[string]any{"x": "a + 1"}})
	require.Equal(t, TypeExpression, res.Type)
	assert.Equal(t, "(a + 1)^2", res.Result)

	// bindings shadow constants
	res = ev.Evaluate(ctx, Request{Expr: "2*e", Mode: ModeCAS, Variables: map[string]any{"e": 2.0}})
	require.Equal(t, TypeNumber, res.Type)
	assert.Equal(t, 4.0, res.Result)
}

func TestEvaluate_Matrix(t *testing.T) {
	ev := newTestEvaluator(nil)
	ctx := context.Background()

	res := ev.Evaluate(ctx, Request{Expr: "det([[1, 2], [3, 4]])", Mode: ModeMatrix})
	require.Equal(t, TypeNumber, res.Type)
	assert.InDelta(t, -2.0, res.Result.(float64), 1e-12)

	res = ev.Evaluate(ctx, Request{Expr: "[[1, 2], [3, 4]] * [[1, 0], [0, 1]]", Mode: ModeMatrix})
	require.Equal(t, TypeMatrix, res.Type)
	assert.Equal(t, []any{[]any{1.0, 2.0}, []any{3.0, 4.0}}, res.Result)
	assert.Equal(t, `\begin{bmatrix}1 & 2 \\ 3 & 4\end{bmatrix}`, res.Display)

	res = ev.Evaluate(ctx, Request{Expr: "[1, 2]", Mode: ModeStandard})
	assert.True(t, res.Failed())
}

type fixedResolver struct {
	mode Mode
	err  error
	seen []Request
}

func (f *fixedResolver) ResolveMode(_ context.Context, req Request) (Mode, error) {
	f.seen = append(f.seen, req)
	return f.mode, f.err
}

func TestEvaluate_Auto(t *testing.T) {
	ctx := context.Background()

	r := &fixedResolver{mode: ModeCAS}
	res := newTestEvaluator(r).Evaluate(ctx, Request{Expr: "x + x", Mode: ModeAuto})
	require.Len(t, r.seen, 1)
	assert.Equal(t, TypeExpression, res.Type)
	assert.Equal(t, "2*x", res.Result)

	r = &fixedResolver{err: errors.New("no rules")}
	res = newTestEvaluator(r).Evaluate(ctx, Request{Expr: "1", Mode: ModeAuto})
	require.True(t, res.Failed())
	assert.Contains(t, res.Result, "failed to resolve mode")

	// no resolver: built-in inference
	res = newTestEvaluator(nil).Evaluate(ctx, Request{Expr: "trace([[1, 0], [0, 5]])", Mode: ModeAuto})
	require.Equal(t, TypeNumber, res.Type)
	assert.Equal(t, 6.0, res.Result)
}

func TestInfer(t *testing.T) {
	tests := []struct {
		req  Request
		want Mode
	}{
		{Request{Expr: "1 + 2"}, ModeStandard},
		{Request{Expr: "x + 2", Variables: map[string]any{"x": 1.0}}, ModeStandard},
		{Request{Expr: "x + 2"}, ModeCAS},
		{Request{Expr: "det([[1]])"}, ModeMatrix},
		{Request{Expr: "2 +"}, ModeStandard},
	}
	for _, tt := range tests {
		t.Run(tt.req.Expr, func(t *testing.T) {
			assert.Equal(t, tt.want, Infer(tt.req))
		})
	}
}

func TestDescribe(t *testing.T) {
	f := Describe(Request{Expr: "a*x + y", Variables: map[string]any{"y": 1.0}})
	assert.Equal(t, []string{"a", "x"}, f.FreeSymbols)
	assert.Equal(t, []string{"y"}, f.Variables)
	assert.False(t, f.HasBrackets)

	m := f.Map()
	assert.Equal(t, []any{"a", "x"}, m["free_symbols"])
	assert.Equal(t, "a*x + y", m["expr"])
}

func TestRunCAS(t *testing.T) {
	ev := newTestEvaluator(nil)
	ctx := context.Background()

	tests := []struct {
		op   CASOp
		req  CASRequest
		want any
	}{
		{OpSimplify, CASRequest{Expr: "x^2 + 2*x + 1"}, "(x + 1)^2"},
		{OpFactor, CASRequest{Expr: "x^2 - 4"}, "(x + 2)*(x - 2)"},
		{OpExpand, CASRequest{Expr: "(x + 1)^2"}, "x^2 + 2*x + 1"},
		{OpDifferentiate, CASRequest{Expr: "x^3"}, "3*x^2"},
		{OpDifferentiate, CASRequest{Expr: "t^3", Variable: "t", Order: 2}, "6*t"},
		{OpIntegrate, CASRequest{Expr: "x^2"}, "x^3/3"},
		{OpIntegrate, CASRequest{Expr: "x^2", Limits: []any{0.0, 1.0}}, "1/3"},
		{OpIntegrate, CASRequest{Expr: "exp(-x)", Limits: []any{0.0, "oo"}}, "1"},
		{OpLimit, CASRequest{Expr: "sin(x)/x"}, "1"},
		{OpLimit, CASRequest{Expr: "1/x", Approach: "oo"}, "0"},
		{OpLimit, CASRequest{Expr: "1/x", Direction: "-"}, "-oo"},
	}
	for _, tt := range tests {
		t.Run(string(tt.op)+" "+tt.req.Expr, func(t *testing.T) {
			res, err := ev.RunCAS(ctx, tt.op, tt.req)
			require.NoError(t, err)
			assert.Equal(t, TypeExpression, res.Type)
			assert.Equal(t, tt.want, res.Result)
			assert.NotEmpty(t, res.Display)
		})
	}
}

func TestRunCAS_Solve(t *testing.T) {
	ev := newTestEvaluator(nil)
	ctx := context.Background()

	res, err := ev.RunCAS(ctx, OpSolve, CASRequest{Expr: "x^2 - 4 = 0"})
	require.NoError(t, err)
	assert.Equal(t, []string{"-2", "2"}, res.Result)
	assert.Equal(t, "x = -2, x = 2", res.Display)

	res, err = ev.RunCAS(ctx, OpSolve, CASRequest{Expr: "2*y = 6", Variable: "y"})
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, res.Result)
	assert.Equal(t, "y = 3", res.Display)

	_, err = ev.RunCAS(ctx, OpSolve, CASRequest{Expr: "x = 1 = 2"})
	require.Error(t, err)
	assert.True(t, IsClientError(err))
}

func TestRunCAS_ClientErrors(t *testing.T) {
	ev := newTestEvaluator(nil)
	ctx := context.Background()

	tests := []struct {
		name string
		op   CASOp
		req  CASRequest
	}{
		{"syntax", OpSimplify, CASRequest{Expr: "x +"}},
		{"negative order", OpDifferentiate, CASRequest{Expr: "x", Order: -1}},
		{"bad limits", OpIntegrate, CASRequest{Expr: "x", Limits: []any{1.0}}},
		{"divergent", OpIntegrate, CASRequest{Expr: "1/x", Limits: []any{-1.0, 1.0}}},
		{"no limit", OpLimit, CASRequest{Expr: "1/x", Direction: "+-"}},
		{"bad direction", OpLimit, CASRequest{Expr: "x", Direction: "up"}},
		{"arrays", OpExpand, CASRequest{Expr: "[1, 2]"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ev.RunCAS(ctx, tt.op, tt.req)
			require.Error(t, err)
			assert.True(t, IsClientError(err), "%v", err)
		})
	}
}

func TestParseCASOp(t *testing.T) {
	op, err := ParseCASOp("factor")
	require.NoError(t, err)
	assert.Equal(t, OpFactor, op)

	_, err = ParseCASOp("plot")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedOperation)
	assert.True(t, IsClientError(err))
}

func TestRunCAS_Timeout(t *testing.T) {
	ev := NewEvaluator(Options{CASTimeout: time.Nanosecond}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// a cancelled parent context wins the race against any computation
	_, err := ev.RunCAS(ctx, OpSimplify, CASRequest{Expr: "(x + 1)^40"})
	require.Error(t, err)
}

func TestRunCAS_ExpandTooLarge(t *testing.T) {
	ev := NewEvaluator(DefaultOptions(), nil, nil)

	_, err := ev.RunCAS(context.Background(), OpExpand, CASRequest{Expr: "(x + y)^200"})
	require.Error(t, err)
	assert.True(t, IsClientError(err))
	assert.Contains(t, err.Error(), "expansion too large")

	res, err := ev.RunCAS(context.Background(), OpExpand, CASRequest{Expr: "(x + 1)^2"})
	require.NoError(t, err)
	assert.Equal(t, "x^2 + 2*x + 1", res.Result)
}
