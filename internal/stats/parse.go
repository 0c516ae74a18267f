package stats

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidInput is matched by every error caused by the caller's data or
// parameters.
var ErrInvalidInput = errors.New("invalid input")

// InputError carries a message for the caller.
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

// Is reports whether target is ErrInvalidInput.
func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

func inputErrorf(format string, args ...any) error {
	return &InputError{Message: fmt.Sprintf(format, args...)}
}

// Result is a JSON-ready statistics result.
type Result map[string]any

// num reports NaN and infinities as nil so results always encode.
func num(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

func nums(fs []float64) []any {
	out := make([]any, len(fs))
	for i, f := range fs {
		out[i] = num(f)
	}
	return out
}

var dataSeparators = strings.NewReplacer(" ", ",", "\t", ",", "\n", ",", "\r", ",")

// ParseData reads numbers separated by commas, spaces, tabs or newlines.
func ParseData(s string) ([]float64, error) {
	var out []float64
	for _, field := range strings.Split(dataSeparators.Replace(s), ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		f, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, inputErrorf("Invalid data format: could not convert %q to a number", field)
		}
		out = append(out, f)
	}
	return out, nil
}

// ParseXY reads x,y pairs separated by semicolons: "1,2; 2,4; 3,6".
func ParseXY(s string) (x, y []float64, err error) {
	for _, pair := range strings.Split(strings.TrimSpace(s), ";") {
		if strings.TrimSpace(pair) == "" {
			continue
		}
		values := strings.Split(pair, ",")
		if len(values) != 2 {
			return nil, nil, inputErrorf("Invalid data format for x,y pairs: each pair must have exactly 2 values: %s", pair)
		}
		xv, err1 := strconv.ParseFloat(strings.TrimSpace(values[0]), 64)
		yv, err2 := strconv.ParseFloat(strings.TrimSpace(values[1]), 64)
		if err1 != nil || err2 != nil {
			return nil, nil, inputErrorf("Invalid data format for x,y pairs: %s", strings.TrimSpace(pair))
		}
		x = append(x, xv)
		y = append(y, yv)
	}
	return x, y, nil
}
