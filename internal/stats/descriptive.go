package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Describe summarises a sample. Quartiles need at least 4 values, skewness and
// kurtosis at least 8; the sample deviation needs 2.
func Describe(data []float64) (Result, error) {
	n := len(data)
	if n < 1 {
		return nil, inputErrorf("At least one data point is required")
	}
	sorted := sortedCopy(data)
	lo, hi := sorted[0], sorted[n-1]

	res := Result{
		"count":    n,
		"mean":     num(stat.Mean(data, nil)),
		"median":   num(percentile(sorted, 50)),
		"mode":     num(mode(sorted)),
		"std_dev":  nil,
		"variance": nil,
		"min":      num(lo),
		"max":      num(hi),
		"range":    num(hi - lo),
		"sum":      num(floats.Sum(data)),
	}
	if n > 1 {
		res["std_dev"] = num(stat.StdDev(data, nil))
		res["variance"] = num(stat.Variance(data, nil))
	}
	if n >= 4 {
		q1, q3 := percentile(sorted, 25), percentile(sorted, 75)
		res["q1"] = num(q1)
		res["q3"] = num(q3)
		res["iqr"] = num(q3 - q1)
	}
	if n >= 8 {
		res["skewness"] = num(skewness(data))
		res["kurtosis"] = num(kurtosis(data))
	}
	return res, nil
}

func sortedCopy(data []float64) []float64 {
	s := make([]float64, len(data))
	copy(s, data)
	sort.Float64s(s)
	return s
}

// percentile interpolates linearly between closest ranks: rank (n-1)*p/100.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	h := float64(n-1) * p / 100
	i := int(math.Floor(h))
	if i >= n-1 {
		return sorted[n-1]
	}
	return sorted[i] + (h-float64(i))*(sorted[i+1]-sorted[i])
}

// mode returns the most frequent value, the smallest one on ties.
func mode(sorted []float64) float64 {
	best, bestCount := math.NaN(), 0
	for i := 0; i < len(sorted); {
		j := i
		for j < len(sorted) && sorted[j] == sorted[i] {
			j++
		}
		if j-i > bestCount {
			best, bestCount = sorted[i], j-i
		}
		i = j
	}
	return best
}

// skewness is the biased sample skewness m3 / m2^1.5.
func skewness(data []float64) float64 {
	m2 := stat.Moment(2, data, nil)
	return stat.Moment(3, data, nil) / math.Pow(m2, 1.5)
}

// kurtosis is the biased excess kurtosis m4 / m2^2 - 3.
func kurtosis(data []float64) float64 {
	m2 := stat.Moment(2, data, nil)
	return stat.Moment(4, data, nil)/(m2*m2) - 3
}
