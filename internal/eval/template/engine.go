package template

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/aymerick/raymond"
)

// Engine renders Handlebars templates
type Engine struct {
	cache map[string]*raymond.Template
	mu    sync.RWMutex
}

// raymond keeps helpers in a global registry and panics on duplicates.
var registerOnce sync.Once

// NewEngine creates a new template engine
func NewEngine() *Engine {
	registerOnce.Do(registerHelpers)

	return &Engine{
		cache: make(map[string]*raymond.Template),
	}
}

// Render renders a template with the given data
func (e *Engine) Render(templateStr string, data interface{}) (string, error) {
	tmpl, err := e.getTemplate(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to compile template: %w", err)
	}

	result, err := tmpl.Exec(data)
	if err != nil {
		return "", fmt.Errorf("template execution failed: %w", err)
	}

	return result, nil
}

// getTemplate gets a compiled template from cache or compiles it
func (e *Engine) getTemplate(templateStr string) (*raymond.Template, error) {
	e.mu.RLock()
	if tmpl, ok := e.cache[templateStr]; ok {
		e.mu.RUnlock()
		return tmpl, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	// Check again in case another goroutine compiled it
	if tmpl, ok := e.cache[templateStr]; ok {
		return tmpl, nil
	}

	tmpl, err := raymond.Parse(templateStr)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	e.cache[templateStr] = tmpl

	return tmpl, nil
}

// ValidateTemplate validates a template without rendering it
func (e *Engine) ValidateTemplate(templateStr string) error {
	_, err := raymond.Parse(templateStr)
	return err
}

// ClearCache clears the compiled template cache
func (e *Engine) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = make(map[string]*raymond.Template)
}

func registerHelpers() {
	// spaced: unit identifiers to prose, square_meter -> square meter
	raymond.RegisterHelper("spaced", func(str string) string {
		return strings.ReplaceAll(str, "_", " ")
	})

	// number: shortest float text that still reads as a float, 1000 -> 1000.0
	raymond.RegisterHelper("number", func(value float64) string {
		return FormatNumber(value)
	})

	raymond.RegisterHelper("trim", func(str string) string {
		return strings.TrimSpace(str)
	})

	raymond.RegisterHelper("default", func(value interface{}, defaultValue interface{}) interface{} {
		if value == nil || value == "" {
			return defaultValue
		}
		return value
	})

	raymond.RegisterHelper("eq", func(a, b interface{}) bool {
		return a == b
	})

	raymond.RegisterHelper("join", func(arr []string, sep string) string {
		return strings.Join(arr, sep)
	})
}

// FormatNumber renders f like a float literal: integral values keep a ".0",
// exponent notation is used below 1e-4 and from 1e16 up.
func FormatNumber(f float64) string {
	abs := f
	if abs < 0 {
		abs = -abs
	}
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".nN") {
		s += ".0"
	}
	return s
}
