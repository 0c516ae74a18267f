package router

import (
	"errors"
	"fmt"
	"io"

	"github.com/aescanero/dago-node-calculator/internal/calc"
	"github.com/aescanero/dago-node-calculator/internal/eval/cel"
	"github.com/aescanero/dago-node-calculator/internal/eval/template"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	// ErrLLMUnavailable is returned by Translate when no LLM is configured.
	ErrLLMUnavailable = errors.New("natural language input is not available")

	// ErrUntranslatable is returned when the LLM reply is not a valid expression.
	ErrUntranslatable = errors.New("could not translate input into an expression")
)

// Rule maps a CEL condition over request facts to a mode.
type Rule struct {
	Condition string    `json:"condition" yaml:"condition"`
	Target    calc.Mode `json:"target" yaml:"target"`
}

// Config is the routing configuration.
type Config struct {
	Rules          []Rule    `json:"rules" yaml:"rules"`
	Fallback       calc.Mode `json:"fallback" yaml:"fallback"`
	PromptTemplate string    `json:"prompt_template,omitempty" yaml:"prompt_template,omitempty"`
}

// Decision is the outcome of resolving a mode.
type Decision struct {
	Mode      calc.Mode `json:"mode"`
	Reasoning string    `json:"reasoning"`
	PathTaken string    `json:"path_taken"` // "fast", "fallback"
}

// DefaultConfig routes bracketed input to matrix mode, input with free
// symbols to cas mode and everything else to standard mode.
func DefaultConfig() Config {
	return Config{
		Rules: []Rule{
			{Condition: "request.has_brackets", Target: calc.ModeMatrix},
			{Condition: "size(request.free_symbols) > 0", Target: calc.ModeCAS},
		},
		Fallback:       calc.ModeStandard,
		PromptTemplate: defaultPrompt,
	}
}

// LoadConfig reads a YAML routing configuration. Missing fields take the
// defaults.
func LoadConfig(r io.Reader) (Config, error) {
	def := DefaultConfig()
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse routing config: %w", err)
	}
	if cfg.Rules == nil {
		cfg.Rules = def.Rules
	}
	if cfg.Fallback == "" {
		cfg.Fallback = def.Fallback
	}
	if cfg.PromptTemplate == "" {
		cfg.PromptTemplate = def.PromptTemplate
	}
	return cfg, nil
}

// Router resolves auto mode requests with CEL rules and translates natural
// language through an LLM.
type Router struct {
	celEvaluator   *cel.Evaluator
	templateEngine *template.Engine
	complete       CompletionFunc
	config         Config
	logger         *zap.Logger
}

// NewRouter validates cfg and creates a router. complete may be nil, in which
// case Translate returns ErrLLMUnavailable.
func NewRouter(cfg Config, complete CompletionFunc, logger *zap.Logger) (*Router, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	celEvaluator, err := cel.NewEvaluator()
	if err != nil {
		return nil, err
	}
	r := &Router{
		celEvaluator:   celEvaluator,
		templateEngine: template.NewEngine(),
		complete:       complete,
		config:         cfg,
		logger:         logger,
	}
	if r.config.PromptTemplate == "" {
		r.config.PromptTemplate = defaultPrompt
	}
	if err := r.validateConfig(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return r, nil
}

func validMode(m calc.Mode) bool {
	switch m {
	case calc.ModeStandard, calc.ModeCAS, calc.ModeMatrix:
		return true
	}
	return false
}

// validateConfig validates the routing configuration
func (r *Router) validateConfig() error {
	if !validMode(r.config.Fallback) {
		return fmt.Errorf("fallback must be standard, cas or matrix, got %q", r.config.Fallback)
	}

	for i, rule := range r.config.Rules {
		if rule.Condition == "" {
			return fmt.Errorf("rule %d: condition is required", i)
		}
		if !validMode(rule.Target) {
			return fmt.Errorf("rule %d: target must be standard, cas or matrix, got %q", i, rule.Target)
		}
		if err := r.celEvaluator.ValidateExpression(rule.Condition); err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
	}

	if err := r.templateEngine.ValidateTemplate(r.config.PromptTemplate); err != nil {
		return fmt.Errorf("prompt_template: %w", err)
	}
	return nil
}

// Translates reports whether an LLM is configured.
func (r *Router) Translates() bool { return r.complete != nil }
