package router

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aescanero/dago-node-calculator/internal/calc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, complete CompletionFunc) *Router {
	t.Helper()
	r, err := NewRouter(DefaultConfig(), complete, nil)
	require.NoError(t, err)
	return r
}

func TestDecide_DefaultRules(t *testing.T) {
	r := newTestRouter(t, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		req  calc.Request
		want calc.Mode
		path string
	}{
		{"matrix literal", calc.Request{Expr: "det([[1, 2], [3, 4]])"}, calc.ModeMatrix, "fast"},
		{"free symbol", calc.Request{Expr: "x^2 + 2*x + 1"}, calc.ModeCAS, "fast"},
		{"bound variable", calc.Request{Expr: "x^2", Variables: map[string]any{"x": 2.0}}, calc.ModeStandard, "fallback"},
		{"numbers only", calc.Request{Expr: "sin(pi/2)"}, calc.ModeStandard, "fallback"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := r.Decide(ctx, tt.req)
			assert.Equal(t, tt.want, d.Mode)
			assert.Equal(t, tt.path, d.PathTaken)

			mode, err := r.ResolveMode(ctx, tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, mode)
		})
	}
}

func TestDecide_SkipsFailingRules(t *testing.T) {
	cfg := Config{
		Rules: []Rule{
			{Condition: "request.missing == 1", Target: calc.ModeMatrix},
			{Condition: "request.expr.startsWith('d/dx')", Target: calc.ModeCAS},
		},
		Fallback: calc.ModeStandard,
	}
	r, err := NewRouter(cfg, nil, nil)
	require.NoError(t, err)

	d := r.Decide(context.Background(), calc.Request{Expr: "d/dx"})
	assert.Equal(t, calc.ModeCAS, d.Mode)
	assert.Equal(t, "matched rule 1: request.expr.startsWith('d/dx')", d.Reasoning)
}

func TestRouter_WithEvaluator(t *testing.T) {
	r := newTestRouter(t, nil)
	ev := calc.NewEvaluator(calc.DefaultOptions(), r, nil)

	res := ev.Evaluate(context.Background(), calc.Request{Expr: "det([[1, 2], [3, 4]])", Mode: calc.ModeAuto})
	require.Equal(t, calc.TypeNumber, res.Type, res.Result)
	assert.InDelta(t, -2, res.Result, 1e-12)
}

func TestNewRouter_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"bad fallback", Config{Fallback: calc.ModeAuto}},
		{"empty condition", Config{Fallback: calc.ModeStandard, Rules: []Rule{{Target: calc.ModeCAS}}}},
		{"bad target", Config{Fallback: calc.ModeStandard, Rules: []Rule{{Condition: "true", Target: "graph"}}}},
		{"not boolean", Config{Fallback: calc.ModeStandard, Rules: []Rule{{Condition: "1 + 1", Target: calc.ModeCAS}}}},
		{"bad syntax", Config{Fallback: calc.ModeStandard, Rules: []Rule{{Condition: "request.(", Target: calc.ModeCAS}}}},
		{"bad template", Config{Fallback: calc.ModeStandard, PromptTemplate: "{{#if}}"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRouter(tt.cfg, nil, nil)
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader(`
rules:
  - condition: "request.expr.contains('=')"
    target: cas
fallback: matrix
`))
	require.NoError(t, err)
	require.Len(t, cfg.Rules, 1)
	assert.Equal(t, calc.ModeCAS, cfg.Rules[0].Target)
	assert.Equal(t, calc.ModeMatrix, cfg.Fallback)
	assert.Equal(t, defaultPrompt, cfg.PromptTemplate)

	cfg, err = LoadConfig(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	_, err = LoadConfig(strings.NewReader("rulez: []"))
	assert.Error(t, err)
}

func TestTranslate(t *testing.T) {
	var prompt string
	r := newTestRouter(t, func(_ context.Context, p string) (string, error) {
		prompt = p
		return "```\nExpression: sqrt(2*pi)\n```", nil
	})

	tr, err := r.Translate(context.Background(), "root of two pi & more")
	require.NoError(t, err)
	assert.Equal(t, "sqrt(2*pi)", tr.Expr)
	assert.Contains(t, prompt, "Request: root of two pi & more")
	assert.Contains(t, prompt, "sqrt")
	assert.Contains(t, prompt, "det")
	assert.Contains(t, prompt, "Constants: e, pi")
}

func TestTranslate_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := newTestRouter(t, nil).Translate(ctx, "two plus two")
	assert.ErrorIs(t, err, ErrLLMUnavailable)

	r := newTestRouter(t, func(context.Context, string) (string, error) { return "sin(", nil })
	_, err = r.Translate(ctx, "sine of")
	assert.ErrorIs(t, err, ErrUntranslatable)

	_, err = r.Translate(ctx, "  ")
	assert.ErrorIs(t, err, ErrUntranslatable)

	boom := errors.New("provider down")
	r = newTestRouter(t, func(context.Context, string) (string, error) { return "", boom })
	_, err = r.Translate(ctx, "two plus two")
	assert.ErrorIs(t, err, boom)
}

func TestInterpret(t *testing.T) {
	r := newTestRouter(t, func(context.Context, string) (string, error) {
		return "x^2 - 4", nil
	})

	in, err := r.Interpret(context.Background(), "x squared minus four")
	require.NoError(t, err)
	assert.Equal(t, "x^2 - 4", in.Expr)
	assert.Equal(t, calc.ModeCAS, in.Mode)
	assert.Equal(t, "fast", in.PathTaken)
	assert.Contains(t, in.Reasoning, "matched rule 1")
}

func TestExtractExpression(t *testing.T) {
	assert.Equal(t, "1 + 1", extractExpression("1 + 1"))
	assert.Equal(t, "x^2", extractExpression("\n\n`x^2`\nbecause..."))
	assert.Equal(t, "log(100)", extractExpression("answer: log(100)"))
	assert.Equal(t, "", extractExpression("```\n```"))
}
