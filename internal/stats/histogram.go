package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// maxBins bounds the number of bins the auto rule or a caller can ask for.
const maxBins = 1000

// Histogram bins data into equal-width bins. bins is the bin count; zero
// selects it automatically, taking the narrower of the Sturges and
// Freedman-Diaconis widths.
func Histogram(data []float64, bins int) (Result, error) {
	if len(data) < 1 {
		return nil, inputErrorf("At least one data point is required")
	}
	if bins < 0 || bins > maxBins {
		return nil, inputErrorf("Number of bins must be between 1 and %d", maxBins)
	}
	sorted := sortedCopy(data)
	lo, hi := sorted[0], sorted[len(sorted)-1]
	switch {
	case lo == hi:
		lo, hi = lo-0.5, hi+0.5
		if bins == 0 {
			bins = 1
		}
	case bins == 0:
		bins = autoBins(sorted, hi-lo)
	}

	edges := make([]float64, bins+1)
	width := (hi - lo) / float64(bins)
	for i := range edges {
		edges[i] = lo + float64(i)*width
	}
	edges[bins] = hi

	// the last bin is closed on the right
	dividers := append([]float64(nil), edges...)
	dividers[bins] = math.Nextafter(hi, math.Inf(1))
	counts := stat.Histogram(nil, dividers, sorted, nil)

	countsAny := make([]any, len(counts))
	for i, c := range counts {
		countsAny[i] = int(c)
	}
	res := Result{
		"bins":      bins,
		"bin_edges": nums(edges),
		"counts":    countsAny,
		"bin_width": num(width),
		"count":     len(data),
		"mean":      num(stat.Mean(data, nil)),
		"median":    num(percentile(sorted, 50)),
		"std_dev":   nil,
	}
	if len(data) > 1 {
		res["std_dev"] = num(stat.StdDev(data, nil))
	}
	return res, nil
}

func autoBins(sorted []float64, span float64) int {
	n := float64(len(sorted))
	width := span / (math.Log2(n) + 1)
	iqr := percentile(sorted, 75) - percentile(sorted, 25)
	if fd := 2 * iqr / math.Cbrt(n); fd > 0 && fd < width {
		width = fd
	}
	bins := int(math.Ceil(span / width))
	return max(1, min(bins, maxBins))
}
