package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	e := NewEngine()

	out, err := e.Render("1 {{spaced from}} = {{number ratio}} {{spaced to}}", map[string]interface{}{
		"from":  "square_meter",
		"to":    "square_foot",
		"ratio": 10.7639,
	})
	require.NoError(t, err)
	assert.Equal(t, "1 square meter = 10.7639 square foot", out)

	out, err = e.Render("{{join names \", \"}}", map[string]interface{}{
		"names": []string{"sin", "cos"},
	})
	require.NoError(t, err)
	assert.Equal(t, "sin, cos", out)
}

func TestNewEngineTwice(t *testing.T) {
	// helpers are global in raymond; a second engine must not re-register
	assert.NotPanics(t, func() {
		NewEngine()
		NewEngine()
	})
}

func TestTemplateCache(t *testing.T) {
	e := NewEngine()
	_, err := e.Render("{{a}}", map[string]interface{}{"a": 1})
	require.NoError(t, err)
	assert.Len(t, e.cache, 1)

	e.ClearCache()
	assert.Empty(t, e.cache)

	assert.Error(t, e.ValidateTemplate("{{#if}}"))
	_, err = e.Render("{{#if x}}", nil)
	assert.Error(t, err)
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1000, "1000.0"},
		{0.001, "0.001"},
		{3.28084, "3.28084"},
		{1e-05, "1e-05"},
		{6.242e18, "6.242e+18"},
		{-2.5, "-2.5"},
		{0, "0.0"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatNumber(tt.in))
		})
	}
}
