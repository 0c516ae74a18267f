package router

import (
	"context"
	"fmt"

	"github.com/aescanero/dago-node-calculator/internal/calc"
	"github.com/aescanero/dago-node-calculator/internal/eval/cel"
	"go.uber.org/zap"
)

// Decide evaluates the rules in order against the facts of req and returns
// the first matching target, or the fallback. Rules that fail to evaluate are
// skipped.
func (r *Router) Decide(ctx context.Context, req calc.Request) *Decision {
	vars := map[string]interface{}{
		cel.RequestVar: calc.Describe(req).Map(),
	}

	for i, rule := range r.config.Rules {
		r.logger.Debug("evaluating rule",
			zap.Int("rule_index", i),
			zap.String("condition", rule.Condition),
		)

		matched, err := r.celEvaluator.EvaluateBool(ctx, rule.Condition, vars)
		if err != nil {
			r.logger.Warn("rule evaluation error",
				zap.Int("rule_index", i),
				zap.String("condition", rule.Condition),
				zap.Error(err),
			)
			continue
		}

		if matched {
			r.logger.Debug("rule matched",
				zap.Int("rule_index", i),
				zap.String("condition", rule.Condition),
				zap.String("target", string(rule.Target)),
			)
			return &Decision{
				Mode:      rule.Target,
				Reasoning: fmt.Sprintf("matched rule %d: %s", i, rule.Condition),
				PathTaken: "fast",
			}
		}
	}

	return &Decision{
		Mode:      r.config.Fallback,
		Reasoning: "no rules matched",
		PathTaken: "fallback",
	}
}

// ResolveMode implements calc.ModeResolver.
func (r *Router) ResolveMode(ctx context.Context, req calc.Request) (calc.Mode, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return r.Decide(ctx, req).Mode, nil
}
