package stats

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// RegressionTypes lists the supported models.
var RegressionTypes = []string{"linear", "quadratic", "exponential", "logarithmic"}

// Regress fits y against x with the named model.
func Regress(x, y []float64, kind string) (Result, error) {
	kind = strings.ToLower(kind)
	if kind == "" {
		kind = "linear"
	}
	if !slices.Contains(RegressionTypes, kind) {
		return nil, inputErrorf("Unsupported regression type: %s", kind)
	}
	if len(x) < 2 || len(y) < 2 {
		return nil, inputErrorf("At least two data pairs are required")
	}
	if len(x) != len(y) {
		return nil, inputErrorf("x and y must have the same length")
	}

	res := Result{
		"type":        kind,
		"n":           len(x),
		"correlation": num(stat.Correlation(x, y, nil)),
	}

	var pred []float64
	switch kind {
	case "linear":
		fit := linregress(x, y)
		res["equation"] = fmt.Sprintf("y = %.6fx + %.6f", fit.slope, fit.intercept)
		res["slope"] = num(fit.slope)
		res["intercept"] = num(fit.intercept)
		res["r_squared"] = num(fit.r * fit.r)
		res["p_value"] = num(fit.pValue)
		res["std_error"] = num(fit.stdErr)
		pred = predict(x, func(v float64) float64 { return fit.slope*v + fit.intercept })

	case "quadratic":
		c, err := polyfit(x, y, 2)
		if err != nil {
			return nil, err
		}
		a, b, k := c[2], c[1], c[0]
		res["equation"] = fmt.Sprintf("y = %.6fx² + %.6fx + %.6f", a, b, k)
		res["a"] = num(a)
		res["b"] = num(b)
		res["c"] = num(k)
		pred = predict(x, func(v float64) float64 { return (a*v+b)*v + k })

	case "exponential":
		keep := positive(y)
		xs, ys := filter(x, keep), filter(y, keep)
		if len(xs) < len(x) {
			res["warning"] = "Some y values were <= 0 and were excluded from exponential regression"
		}
		if len(xs) < 2 {
			return nil, inputErrorf("Not enough positive y values for exponential regression")
		}
		fit := linregress(xs, apply(ys, math.Log))
		a, b := math.Exp(fit.intercept), fit.slope
		res["equation"] = fmt.Sprintf("y = %.6f * e^(%.6fx)", a, b)
		res["a"] = num(a)
		res["b"] = num(b)
		res["r_squared"] = num(fit.r * fit.r)
		pred = make([]float64, len(x))
		for i := range x {
			if keep[i] {
				pred[i] = a * math.Exp(b*x[i])
			}
		}

	case "logarithmic":
		keep := positive(x)
		xs, ys := filter(x, keep), filter(y, keep)
		if len(xs) < len(x) {
			res["warning"] = "Some x values were <= 0 and were excluded from logarithmic regression"
		}
		if len(xs) < 2 {
			return nil, inputErrorf("Not enough positive x values for logarithmic regression")
		}
		fit := linregress(apply(xs, math.Log), ys)
		res["equation"] = fmt.Sprintf("y = %.6f + %.6fln(x)", fit.intercept, fit.slope)
		res["a"] = num(fit.intercept)
		res["b"] = num(fit.slope)
		res["r_squared"] = num(fit.r * fit.r)
		pred = make([]float64, len(x))
		for i := range x {
			if keep[i] {
				pred[i] = fit.intercept + fit.slope*math.Log(x[i])
			}
		}
	}

	var sse float64
	for i := range y {
		d := y[i] - pred[i]
		sse += d * d
	}
	if len(x) > 2 {
		res["standard_error_estimate"] = num(math.Sqrt(sse / float64(len(x)-2)))
	}
	res["sum_squared_error"] = num(sse)
	return res, nil
}

type linearFit struct {
	slope, intercept float64
	r                float64
	pValue, stdErr   float64
}

// linregress is ordinary least squares with the two-sided p-value of the
// slope and its standard error.
func linregress(x, y []float64) linearFit {
	intercept, slope := stat.LinearRegression(x, y, nil, false)
	fit := linearFit{slope: slope, intercept: intercept}

	mx, my := stat.Mean(x, nil), stat.Mean(y, nil)
	var ssxm, ssym, ssxym float64
	for i := range x {
		dx, dy := x[i]-mx, y[i]-my
		ssxm += dx * dx
		ssym += dy * dy
		ssxym += dx * dy
	}
	if ssxm != 0 && ssym != 0 {
		fit.r = math.Max(-1, math.Min(1, ssxym/math.Sqrt(ssxm*ssym)))
	}

	n := len(x)
	if n == 2 {
		// a line through two points fits exactly
		if y[0] == y[1] {
			fit.pValue = 1
		}
		return fit
	}

	df := float64(n - 2)
	t := fit.r * math.Sqrt(df/((1-fit.r)*(1+fit.r)))
	tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	fit.pValue = 2 * tdist.Survival(math.Abs(t))
	if math.IsInf(t, 0) {
		fit.pValue = 0
	}
	if ssxm != 0 {
		fit.stdErr = math.Sqrt((1 - fit.r*fit.r) * ssym / ssxm / df)
	}
	return fit
}

// polyfit returns least squares coefficients, lowest degree first.
func polyfit(x, y []float64, deg int) ([]float64, error) {
	n := len(x)
	a := mat.NewDense(n, deg+1, nil)
	for i, v := range x {
		p := 1.0
		for j := 0; j <= deg; j++ {
			a.Set(i, j, p)
			p *= v
		}
	}
	b := mat.NewVecDense(n, append([]float64(nil), y...))

	var c mat.VecDense
	if err := c.SolveVec(a, b); err != nil {
		// ill-conditioned systems still produce a solution
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, inputErrorf("polynomial fit failed: %v", err)
		}
	}
	out := make([]float64, deg+1)
	for j := range out {
		out[j] = c.AtVec(j)
	}
	return out, nil
}

func predict(x []float64, f func(float64) float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = f(v)
	}
	return out
}

func positive(v []float64) []bool {
	out := make([]bool, len(v))
	for i, f := range v {
		out[i] = f > 0
	}
	return out
}

func filter(v []float64, keep []bool) []float64 {
	var out []float64
	for i, f := range v {
		if keep[i] {
			out = append(out, f)
		}
	}
	return out
}

func apply(v []float64, f func(float64) float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = f(x)
	}
	return out
}
