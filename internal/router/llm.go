package router

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aescanero/dago-libs/pkg/domain"
	"github.com/aescanero/dago-libs/pkg/ports"
	"github.com/aescanero/dago-node-calculator/internal/expr"
	"go.uber.org/zap"
)

// CompletionFunc sends a prompt to a language model and returns its reply.
type CompletionFunc func(ctx context.Context, prompt string) (string, error)

// LLMCompletion adapts an LLM client. Each call is bounded by timeout when
// it is positive.
func LLMCompletion(client ports.LLMClient, model string, timeout time.Duration) CompletionFunc {
	return func(ctx context.Context, prompt string) (string, error) {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		req := &domain.LLMRequest{
			Model: model,
			Messages: []domain.Message{
				{
					Role:    "user",
					Content: prompt,
				},
			},
			MaxTokens: 1024,
		}

		respInterface, err := client.GenerateCompletion(ctx, req)
		if err != nil {
			return "", fmt.Errorf("llm completion failed: %w", err)
		}

		resp, ok := respInterface.(*domain.LLMResponse)
		if !ok {
			return "", fmt.Errorf("unexpected response type from LLM")
		}
		return resp.Content, nil
	}
}

const defaultPrompt = `You translate requests for a scientific calculator into one expression.

Functions: {{join functions ", "}}
Constants: {{join constants ", "}}
Operators: + - * / ^ and ! for factorials. Matrices are nested lists such as [[1, 2], [3, 4]].
Unknown letters are treated as symbols.

Reply with the expression only, on a single line, without explanation.

Request: {{{text}}}`

// Translation is a natural language request turned into an expression.
type Translation struct {
	Text      string `json:"text"`
	Expr      string `json:"expr"`
	Reasoning string `json:"reasoning"`
}

// Translate asks the LLM for an expression matching text and checks that it
// parses.
func (r *Router) Translate(ctx context.Context, text string) (*Translation, error) {
	if r.complete == nil {
		return nil, ErrLLMUnavailable
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty input", ErrUntranslatable)
	}

	prompt, err := r.renderPrompt(text)
	if err != nil {
		return nil, fmt.Errorf("failed to render prompt: %w", err)
	}

	r.logger.Debug("calling llm for translation",
		zap.String("prompt", prompt),
	)

	response, err := r.complete(ctx, prompt)
	if err != nil {
		r.logger.Error("llm call failed",
			zap.Error(err),
		)
		return nil, err
	}

	r.logger.Debug("llm response received",
		zap.String("response", response),
	)

	candidate := extractExpression(response)
	if candidate == "" {
		return nil, fmt.Errorf("%w: empty reply", ErrUntranslatable)
	}
	if _, err := expr.Parse(candidate, expr.ParseOptions{
		Namespace:   expr.MatrixNamespace(),
		FreeSymbols: true,
	}); err != nil {
		r.logger.Warn("llm reply is not a valid expression",
			zap.String("response", response),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %q: %v", ErrUntranslatable, candidate, err)
	}

	return &Translation{
		Text:      text,
		Expr:      candidate,
		Reasoning: fmt.Sprintf("llm translated %q as %s", text, candidate),
	}, nil
}

// renderPrompt renders the prompt template with the request and vocabulary
func (r *Router) renderPrompt(text string) (string, error) {
	ns := expr.MatrixNamespace()
	data := map[string]interface{}{
		"text":      text,
		"functions": sortedNames(ns.Functions),
		"constants": sortedNames(ns.Constants),
	}
	return r.templateEngine.Render(r.config.PromptTemplate, data)
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// extractExpression takes the first non-empty line of a reply, skipping code
// fences and a leading label such as "Expression:".
func extractExpression(response string) string {
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "```") {
			continue
		}
		if i := strings.Index(line, ":"); i > 0 && isLabel(line[:i]) {
			line = strings.TrimSpace(line[i+1:])
		}
		return strings.Trim(line, "`$ ")
	}
	return ""
}

func isLabel(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "expression", "expr", "answer", "result":
		return true
	}
	return false
}
