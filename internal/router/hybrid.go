package router

import (
	"context"
	"fmt"

	"github.com/aescanero/dago-node-calculator/internal/calc"
	"go.uber.org/zap"
)

// Interpretation is a translated request with its resolved mode.
type Interpretation struct {
	Expr      string    `json:"expr"`
	Mode      calc.Mode `json:"mode"`
	Reasoning string    `json:"reasoning"`
	PathTaken string    `json:"path_taken"`
}

// Interpret translates text with the LLM, then resolves the mode of the
// resulting expression with the rules.
func (r *Router) Interpret(ctx context.Context, text string) (*Interpretation, error) {
	tr, err := r.Translate(ctx, text)
	if err != nil {
		return nil, err
	}

	decision := r.Decide(ctx, calc.Request{Expr: tr.Expr})

	r.logger.Info("interpreted natural language request",
		zap.String("expr", tr.Expr),
		zap.String("mode", string(decision.Mode)),
		zap.String("path", decision.PathTaken),
	)

	return &Interpretation{
		Expr:      tr.Expr,
		Mode:      decision.Mode,
		Reasoning: fmt.Sprintf("%s; %s", tr.Reasoning, decision.Reasoning),
		PathTaken: decision.PathTaken,
	}, nil
}
