package stats

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"
)

// DistributionRequest selects a distribution and what to compute. Parameters
// left nil take their defaults; x, k, lower, upper and p are computed only
// when present.
type DistributionRequest struct {
	Type string `json:"type"`

	Mean   *float64 `json:"mean,omitempty"`
	StdDev *float64 `json:"std_dev,omitempty"`
	N      *float64 `json:"n,omitempty"`
	Lambda *float64 `json:"lambda,omitempty"`
	DF     *float64 `json:"df,omitempty"`
	DFN    *float64 `json:"dfn,omitempty"`
	DFD    *float64 `json:"dfd,omitempty"`

	X     *float64 `json:"x,omitempty"`
	K     *float64 `json:"k,omitempty"`
	Lower *float64 `json:"lower,omitempty"`
	Upper *float64 `json:"upper,omitempty"`

	// P is the success probability for binomial and the percentile level
	// for continuous distributions.
	P *float64 `json:"p,omitempty"`
}

func or(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// continuous is what the continuous distributions share.
type continuous interface {
	Prob(x float64) float64
	CDF(x float64) float64
}

// Distribution evaluates a normal, binomial, poisson, t, chi2 or f
// distribution.
func Distribution(req DistributionRequest) (Result, error) {
	kind := strings.ToLower(req.Type)
	if kind == "" {
		return nil, inputErrorf("Distribution type is required")
	}
	res := Result{"type": kind}

	switch kind {
	case "normal":
		mean, sd := or(req.Mean, 0), or(req.StdDev, 1)
		if sd <= 0 {
			return nil, inputErrorf("Standard deviation must be positive")
		}
		d := distuv.Normal{Mu: mean, Sigma: sd}
		if err := continuousValues(res, req, d, d.Quantile, math.Inf(-1)); err != nil {
			return nil, err
		}
		res["mean"] = mean
		res["std_dev"] = sd
		res["variance"] = sd * sd

	case "binomial":
		n, p := math.Trunc(or(req.N, 10)), or(req.P, 0.5)
		if n <= 0 {
			return nil, inputErrorf("Number of trials must be positive")
		}
		if p < 0 || p > 1 {
			return nil, inputErrorf("Probability p must be between 0 and 1")
		}
		d := distuv.Binomial{N: n, P: p}
		if req.K != nil {
			k := math.Trunc(*req.K)
			if k < 0 || k > n {
				return nil, inputErrorf("k must be between 0 and %d", int(n))
			}
			res["pmf"] = num(d.Prob(k))
			res["cdf"] = num(d.CDF(k))
		}
		if req.Lower != nil && req.Upper != nil {
			lo, hi := ordered(math.Trunc(*req.Lower), math.Trunc(*req.Upper))
			if lo < 0 || hi > n {
				return nil, inputErrorf("Interval must be between 0 and %d", int(n))
			}
			res["interval_probability"] = num(discreteInterval(d.CDF, lo, hi))
		}
		res["n"] = int(n)
		res["p"] = p
		res["mean"] = n * p
		res["variance"] = n * p * (1 - p)

	case "poisson":
		lambda := or(req.Lambda, 1)
		if lambda <= 0 {
			return nil, inputErrorf("Lambda must be positive")
		}
		d := distuv.Poisson{Lambda: lambda}
		if req.K != nil {
			k := math.Trunc(*req.K)
			if k < 0 {
				return nil, inputErrorf("k must be non-negative")
			}
			res["pmf"] = num(d.Prob(k))
			res["cdf"] = num(d.CDF(k))
		}
		if req.Lower != nil && req.Upper != nil {
			lo, hi := ordered(math.Trunc(*req.Lower), math.Trunc(*req.Upper))
			if lo < 0 {
				return nil, inputErrorf("Lower bound must be non-negative")
			}
			res["interval_probability"] = num(discreteInterval(d.CDF, lo, hi))
		}
		res["lambda"] = lambda
		res["mean"] = lambda
		res["variance"] = lambda

	case "t":
		df := or(req.DF, 10)
		if df <= 0 {
			return nil, inputErrorf("Degrees of freedom must be positive")
		}
		d := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
		if err := continuousValues(res, req, d, d.Quantile, math.Inf(-1)); err != nil {
			return nil, err
		}
		res["df"] = df
		res["mean"] = nil
		res["variance"] = nil
		if df > 1 {
			res["mean"] = 0.0
		}
		if df > 2 {
			res["variance"] = df / (df - 2)
		}

	case "chi2":
		df := or(req.DF, 1)
		if df <= 0 {
			return nil, inputErrorf("Degrees of freedom must be positive")
		}
		if req.X != nil && *req.X < 0 {
			return nil, inputErrorf("x must be non-negative for chi-squared distribution")
		}
		d := distuv.ChiSquared{K: df}
		if err := continuousValues(res, req, d, d.Quantile, 0); err != nil {
			return nil, err
		}
		res["df"] = df
		res["mean"] = df
		res["variance"] = 2 * df

	case "f":
		dfn, dfd := or(req.DFN, 1), or(req.DFD, 10)
		if dfn <= 0 || dfd <= 0 {
			return nil, inputErrorf("Degrees of freedom must be positive")
		}
		if req.X != nil && *req.X < 0 {
			return nil, inputErrorf("x must be non-negative for F distribution")
		}
		d := distuv.F{D1: dfn, D2: dfd}
		if err := continuousValues(res, req, d, func(p float64) float64 { return quantile(d.CDF, p, 0) }, 0); err != nil {
			return nil, err
		}
		res["dfn"] = dfn
		res["dfd"] = dfd
		res["mean"] = nil
		res["variance"] = nil
		if dfd > 2 {
			res["mean"] = dfd / (dfd - 2)
		}
		if dfd > 4 {
			res["variance"] = 2 * dfd * dfd * (dfn + dfd - 2) / (dfn * (dfd - 2) * (dfd - 2) * (dfd - 4))
		}

	default:
		return nil, inputErrorf("Unsupported distribution type: %s", kind)
	}
	return res, nil
}

// continuousValues fills pdf, cdf, interval_probability and percentile.
// Interval bounds below floor are clamped to it.
func continuousValues(res Result, req DistributionRequest, d continuous, quant func(float64) float64, floor float64) error {
	if req.X != nil {
		res["pdf"] = num(d.Prob(*req.X))
		res["cdf"] = num(d.CDF(*req.X))
	}
	if req.Lower != nil && req.Upper != nil {
		lo, hi := ordered(*req.Lower, *req.Upper)
		lo = math.Max(lo, floor)
		res["interval_probability"] = num(d.CDF(hi) - d.CDF(lo))
	}
	if req.P != nil {
		p := *req.P
		if p < 0 || p > 1 {
			return inputErrorf("Percentile p must be between 0 and 1")
		}
		res["percentile"] = num(quant(p))
	}
	return nil
}

func ordered(a, b float64) (float64, float64) {
	if a > b {
		return b, a
	}
	return a, b
}

// discreteInterval is P(lo <= X <= hi), both ends included.
func discreteInterval(cdf func(float64) float64, lo, hi float64) float64 {
	if lo > 0 {
		return cdf(hi) - cdf(lo-1)
	}
	return cdf(hi)
}

// quantile inverts a continuous CDF on [lo, oo) by bracketing and bisection.
func quantile(cdf func(float64) float64, p, lo float64) float64 {
	switch {
	case p <= 0:
		return lo
	case p >= 1:
		return math.Inf(1)
	}
	hi := math.Max(1, lo+1)
	for cdf(hi) < p {
		hi *= 2
		if math.IsInf(hi, 1) {
			return hi
		}
	}
	for i := 0; i < 200 && hi-lo > 1e-12*math.Max(1, hi); i++ {
		mid := (lo + hi) / 2
		if cdf(mid) < p {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}
