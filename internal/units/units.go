package units

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed units.yaml
var defaultTable []byte

// Temperature is the category converted through Celsius instead of factors.
const Temperature = "temperature"

var (
	// ErrMissingField is returned when a unit or the category is empty.
	ErrMissingField = errors.New("missing required fields: from_unit, to_unit, category")

	// ErrUnknownCategory is returned for categories outside the table.
	ErrUnknownCategory = errors.New("unknown category")

	// ErrUnknownUnit is returned for units outside their category.
	ErrUnknownUnit = errors.New("unknown unit")

	// ErrOverflow is returned when a finite value converts to an infinite one.
	ErrOverflow = errors.New("conversion result out of range")
)

// Affine maps Celsius to a temperature unit:
// unit = celsius*Scale/Divisor + Offset. A zero Divisor means 1.
type Affine struct {
	Scale   float64 `yaml:"scale"`
	Divisor float64 `yaml:"divisor"`
	Offset  float64 `yaml:"offset"`
}

func (a Affine) divisor() float64 {
	if a.Divisor == 0 {
		return 1
	}
	return a.Divisor
}

func (a Affine) toCelsius(v float64) float64   { return (v - a.Offset) * a.divisor() / a.Scale }
func (a Affine) fromCelsius(c float64) float64 { return c*a.Scale/a.divisor() + a.Offset }

// TemperatureTable holds the temperature units and their fixed formulas,
// keyed "from>to".
type TemperatureTable struct {
	Units          map[string]Affine `yaml:"units"`
	Formulas       map[string]string `yaml:"formulas"`
	DefaultFormula string            `yaml:"default_formula"`
}

// Table is the full unit table. Linear factors are units per base unit.
type Table struct {
	LinearFormula string                        `yaml:"linear_formula"`
	Categories    map[string]map[string]float64 `yaml:"categories"`
	Temperature   TemperatureTable              `yaml:"temperature"`
}

// DefaultTable parses the embedded unit table.
func DefaultTable() (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(defaultTable, &t); err != nil {
		return nil, fmt.Errorf("failed to parse unit table: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadTable reads a table in the embedded table's format.
func LoadTable(r io.Reader) (*Table, error) {
	var t Table
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("failed to parse unit table: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate checks every factor and scale is finite and non-zero.
func (t *Table) Validate() error {
	if t.LinearFormula == "" {
		return fmt.Errorf("unit table: linear_formula is required")
	}
	if _, ok := t.Categories[Temperature]; ok {
		return fmt.Errorf("unit table: %s must not have linear factors", Temperature)
	}
	for cat, units := range t.Categories {
		if len(units) == 0 {
			return fmt.Errorf("unit table: category %s is empty", cat)
		}
		for unit, f := range units {
			if f == 0 || math.IsNaN(f) || math.IsInf(f, 0) {
				return fmt.Errorf("unit table: %s.%s has invalid factor %v", cat, unit, f)
			}
		}
	}
	for unit, a := range t.Temperature.Units {
		if a.Scale == 0 || math.IsNaN(a.Scale) || math.IsInf(a.Scale, 0) {
			return fmt.Errorf("unit table: temperature unit %s has invalid scale %v", unit, a.Scale)
		}
		if a.Divisor < 0 || math.IsNaN(a.Divisor) || math.IsInf(a.Divisor, 0) {
			return fmt.Errorf("unit table: temperature unit %s has invalid divisor %v", unit, a.Divisor)
		}
	}
	return nil
}

// Names returns every category with its unit names sorted.
func (t *Table) Names() map[string][]string {
	out := make(map[string][]string, len(t.Categories)+1)
	for cat, units := range t.Categories {
		out[cat] = sortedNames(units)
	}
	if len(t.Temperature.Units) > 0 {
		out[Temperature] = sortedNames(t.Temperature.Units)
	}
	return out
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
