package units

import (
	"fmt"
	"math"

	"github.com/aescanero/dago-node-calculator/internal/eval/template"
)

// Conversion is the outcome of Convert.
type Conversion struct {
	Result   float64 `json:"result"`
	Formula  string  `json:"formula"`
	FromUnit string  `json:"from_unit"`
	ToUnit   string  `json:"to_unit"`
	Value    float64 `json:"value"`
}

// Converter converts values between units of one category. It is read-only
// after construction and safe for concurrent use.
type Converter struct {
	table  *Table
	engine *template.Engine
}

// NewConverter creates a converter over table.
func NewConverter(table *Table, engine *template.Engine) *Converter {
	return &Converter{table: table, engine: engine}
}

// Categories returns category names mapped to their sorted unit names.
func (c *Converter) Categories() map[string][]string {
	return c.table.Names()
}

// Convert converts value from one unit to another within category.
func (c *Converter) Convert(value float64, from, to, category string) (*Conversion, error) {
	if from == "" || to == "" || category == "" {
		return nil, ErrMissingField
	}
	if category == Temperature {
		return c.convertTemperature(value, from, to)
	}

	factors, ok := c.table.Categories[category]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}
	ff, okFrom := factors[from]
	ft, okTo := factors[to]
	if !okFrom || !okTo {
		return nil, fmt.Errorf("%w in category %s: %s or %s", ErrUnknownUnit, category, from, to)
	}

	base := value / ff
	result, err := finite(value, base*ft)
	if err != nil {
		return nil, err
	}
	formula, err := c.engine.Render(c.table.LinearFormula, map[string]interface{}{
		"from":  from,
		"to":    to,
		"ratio": ft / ff,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render formula: %w", err)
	}

	return &Conversion{
		Result:   result,
		Formula:  formula,
		FromUnit: from,
		ToUnit:   to,
		Value:    value,
	}, nil
}

func (c *Converter) convertTemperature(value float64, from, to string) (*Conversion, error) {
	temps := c.table.Temperature
	af, okFrom := temps.Units[from]
	at, okTo := temps.Units[to]
	if !okFrom || !okTo {
		return nil, fmt.Errorf("%w in category %s: %s or %s", ErrUnknownUnit, Temperature, from, to)
	}

	result, err := finite(value, at.fromCelsius(af.toCelsius(value)))
	if err != nil {
		return nil, err
	}

	formula, ok := temps.Formulas[from+">"+to]
	if !ok {
		formula = temps.DefaultFormula
	}

	return &Conversion{
		Result:   result,
		Formula:  formula,
		FromUnit: from,
		ToUnit:   to,
		Value:    value,
	}, nil
}

// finite rejects infinite or NaN results of a finite input.
func finite(value, result float64) (float64, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return result, nil
	}
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0, fmt.Errorf("%w: %v", ErrOverflow, value)
	}
	return result, nil
}
