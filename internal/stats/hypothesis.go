package stats

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// maxGroups is the number of groupN fields read for ANOVA.
const maxGroups = 9

// HypothesisRequest describes a z_test, t_test, chi2_test or anova. Samples
// are strings in the ParseData format.
type HypothesisRequest struct {
	Type    string `json:"type"`
	Subtype string `json:"subtype,omitempty"`

	Sample  string `json:"sample,omitempty"`
	Sample1 string `json:"sample1,omitempty"`
	Sample2 string `json:"sample2,omitempty"`

	PopMean     *float64 `json:"pop_mean,omitempty"`
	PopStd      *float64 `json:"pop_std,omitempty"`
	Alpha       *float64 `json:"alpha,omitempty"`
	Alternative string   `json:"alternative,omitempty"`
	EqualVar    *bool    `json:"equal_var,omitempty"`

	ContingencyTable [][]float64 `json:"contingency_table,omitempty"`
	Observed         string      `json:"observed,omitempty"`
	Expected         string      `json:"expected,omitempty"`

	// Groups are read from the fields group1 to group9.
	Groups []string `json:"-"`
}

// UnmarshalJSON decodes the fixed fields and collects group1..group9.
func (r *HypothesisRequest) UnmarshalJSON(b []byte) error {
	type plain HypothesisRequest
	if err := json.Unmarshal(b, (*plain)(r)); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	r.Groups = nil
	for i := 1; i <= maxGroups; i++ {
		v, ok := raw[fmt.Sprintf("group%d", i)]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return fmt.Errorf("group%d: %w", i, err)
		}
		r.Groups = append(r.Groups, s)
	}
	return nil
}

// Hypothesis runs the requested test.
func Hypothesis(req HypothesisRequest) (Result, error) {
	kind := strings.ToLower(req.Type)
	if kind == "" {
		return nil, inputErrorf("Test type is required")
	}
	alpha := or(req.Alpha, 0.05)
	if alpha <= 0 || alpha >= 1 {
		return nil, inputErrorf("Alpha must be between 0 and 1")
	}

	var (
		res Result
		err error
	)
	switch kind {
	case "z_test":
		res, err = zTest(req, alpha)
	case "t_test":
		res, err = tTest(req, alpha)
	case "chi2_test":
		res, err = chi2Test(req, alpha)
	case "anova":
		res, err = anova(req, alpha)
	default:
		return nil, inputErrorf("Unsupported test type: %s", kind)
	}
	if err != nil {
		return nil, err
	}
	res["type"] = kind
	res["alpha"] = alpha
	return res, nil
}

func alternative(req HypothesisRequest) (string, error) {
	switch req.Alternative {
	case "":
		return "two-sided", nil
	case "two-sided", "less", "greater":
		return req.Alternative, nil
	}
	return "", inputErrorf("Alternative must be 'two-sided', 'less', or 'greater'")
}

// pValue turns a statistic into a p-value for the alternative.
func pValue(cdf, survival func(float64) float64, x float64, alt string) float64 {
	switch alt {
	case "less":
		return cdf(x)
	case "greater":
		return survival(x)
	}
	return 2 * survival(math.Abs(x))
}

func rejects(p, alpha float64) bool {
	return !math.IsNaN(p) && p < alpha
}

func zTest(req HypothesisRequest, alpha float64) (Result, error) {
	sample, err := ParseData(req.Sample1)
	if err != nil {
		return nil, err
	}
	if len(sample) < 1 {
		return nil, inputErrorf("Sample data is required")
	}
	popMean, popStd := or(req.PopMean, 0), or(req.PopStd, 1)
	if popStd <= 0 {
		return nil, inputErrorf("Population standard deviation must be positive")
	}
	alt, err := alternative(req)
	if err != nil {
		return nil, err
	}

	n := float64(len(sample))
	mean := stat.Mean(sample, nil)
	se := popStd / math.Sqrt(n)
	z := (mean - popMean) / se

	norm := distuv.UnitNormal
	p := pValue(norm.CDF, norm.Survival, z, alt)
	margin := norm.Quantile(1-alpha/2) * se

	return Result{
		"sample_mean":         num(mean),
		"sample_size":         len(sample),
		"pop_mean":            popMean,
		"pop_std":             popStd,
		"std_error":           num(se),
		"z_statistic":         num(z),
		"p_value":             num(p),
		"alternative":         alt,
		"reject_null":         rejects(p, alpha),
		"confidence_interval": nums([]float64{mean - margin, mean + margin}),
		"confidence_level":    1 - alpha,
	}, nil
}

func tTest(req HypothesisRequest, alpha float64) (Result, error) {
	subtype := strings.ToLower(req.Subtype)
	if subtype == "" {
		subtype = "one_sample"
	}
	alt, err := alternative(req)
	if err != nil {
		return nil, err
	}

	switch subtype {
	case "one_sample":
		sample, err := ParseData(req.Sample)
		if err != nil {
			return nil, err
		}
		if len(sample) < 2 {
			return nil, inputErrorf("At least two data points are required")
		}
		popMean := or(req.PopMean, 0)
		n := float64(len(sample))
		mean, sd := stat.MeanStdDev(sample, nil)
		se := sd / math.Sqrt(n)
		df := n - 1
		t := (mean - popMean) / se
		td := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
		p := pValue(td.CDF, td.Survival, t, alt)
		margin := td.Quantile(1-alpha/2) * se

		return Result{
			"subtype":             subtype,
			"sample_mean":         num(mean),
			"sample_std":          num(sd),
			"sample_size":         len(sample),
			"pop_mean":            popMean,
			"std_error":           num(se),
			"degrees_freedom":     len(sample) - 1,
			"t_statistic":         num(t),
			"p_value":             num(p),
			"alternative":         alt,
			"reject_null":         rejects(p, alpha),
			"confidence_interval": nums([]float64{mean - margin, mean + margin}),
			"confidence_level":    1 - alpha,
		}, nil

	case "two_sample":
		s1, err := ParseData(req.Sample1)
		if err != nil {
			return nil, err
		}
		s2, err := ParseData(req.Sample2)
		if err != nil {
			return nil, err
		}
		if len(s1) < 2 || len(s2) < 2 {
			return nil, inputErrorf("At least two data points are required for each sample")
		}
		equalVar := req.EqualVar == nil || *req.EqualVar

		n1, n2 := float64(len(s1)), float64(len(s2))
		m1, sd1 := stat.MeanStdDev(s1, nil)
		m2, sd2 := stat.MeanStdDev(s2, nil)
		v1, v2 := sd1*sd1, sd2*sd2

		var df, se float64
		if equalVar {
			df = n1 + n2 - 2
			pooled := math.Sqrt(((n1-1)*v1 + (n2-1)*v2) / df)
			se = pooled * math.Sqrt(1/n1+1/n2)
		} else {
			a, b := v1/n1, v2/n2
			df = (a + b) * (a + b) / (a*a/(n1-1) + b*b/(n2-1))
			se = math.Sqrt(a + b)
		}
		diff := m1 - m2
		t := diff / se
		td := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
		p := pValue(td.CDF, td.Survival, t, alt)
		margin := td.Quantile(1-alpha/2) * se

		return Result{
			"subtype":             subtype,
			"sample1_mean":        num(m1),
			"sample2_mean":        num(m2),
			"sample1_std":         num(sd1),
			"sample2_std":         num(sd2),
			"sample1_size":        len(s1),
			"sample2_size":        len(s2),
			"mean_difference":     num(diff),
			"std_error":           num(se),
			"degrees_freedom":     num(df),
			"equal_variances":     equalVar,
			"t_statistic":         num(t),
			"p_value":             num(p),
			"alternative":         alt,
			"reject_null":         rejects(p, alpha),
			"confidence_interval": nums([]float64{diff - margin, diff + margin}),
			"confidence_level":    1 - alpha,
		}, nil

	case "paired":
		s1, err := ParseData(req.Sample1)
		if err != nil {
			return nil, err
		}
		s2, err := ParseData(req.Sample2)
		if err != nil {
			return nil, err
		}
		if len(s1) != len(s2) {
			return nil, inputErrorf("Paired samples must have the same length")
		}
		if len(s1) < 2 {
			return nil, inputErrorf("At least two pairs are required")
		}
		d := make([]float64, len(s1))
		floats.SubTo(d, s1, s2)
		n := float64(len(d))
		mean, sd := stat.MeanStdDev(d, nil)
		se := sd / math.Sqrt(n)
		t := mean / se
		td := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: n - 1}
		p := pValue(td.CDF, td.Survival, t, alt)
		margin := td.Quantile(1-alpha/2) * se

		return Result{
			"subtype":             subtype,
			"sample1_mean":        num(stat.Mean(s1, nil)),
			"sample2_mean":        num(stat.Mean(s2, nil)),
			"mean_difference":     num(mean),
			"std_difference":      num(sd),
			"sample_size":         len(d),
			"std_error":           num(se),
			"degrees_freedom":     len(d) - 1,
			"t_statistic":         num(t),
			"p_value":             num(p),
			"alternative":         alt,
			"reject_null":         rejects(p, alpha),
			"confidence_interval": nums([]float64{mean - margin, mean + margin}),
			"confidence_level":    1 - alpha,
		}, nil
	}
	return nil, inputErrorf("Subtype must be 'one_sample', 'two_sample', or 'paired'")
}

func chi2Test(req HypothesisRequest, alpha float64) (Result, error) {
	subtype := strings.ToLower(req.Subtype)
	if subtype == "" {
		subtype = "independence"
	}

	switch subtype {
	case "independence":
		observed := req.ContingencyTable
		if len(observed) == 0 || len(observed[0]) == 0 {
			return nil, inputErrorf("Valid contingency table is required")
		}
		rows, cols := len(observed), len(observed[0])
		for _, row := range observed {
			if len(row) != cols {
				return nil, inputErrorf("Valid contingency table is required")
			}
			for _, v := range row {
				if v < 0 {
					return nil, inputErrorf("All values in the contingency table must be non-negative")
				}
			}
		}

		rowSum := make([]float64, rows)
		colSum := make([]float64, cols)
		var total float64
		for i, row := range observed {
			for j, v := range row {
				rowSum[i] += v
				colSum[j] += v
				total += v
			}
		}
		expected := make([][]float64, rows)
		for i := range expected {
			expected[i] = make([]float64, cols)
			for j := range expected[i] {
				expected[i][j] = rowSum[i] * colSum[j] / total
				if expected[i][j] == 0 {
					return nil, inputErrorf("The expected frequencies have a zero element")
				}
			}
		}

		dof := (rows - 1) * (cols - 1)
		chi2, p := 0.0, 1.0
		if dof > 0 {
			for i := range observed {
				for j, o := range observed[i] {
					e := expected[i][j]
					diff := math.Abs(o - e)
					if dof == 1 {
						// Yates continuity correction
						diff = math.Max(0, diff-0.5)
					}
					chi2 += diff * diff / e
				}
			}
			p = distuv.ChiSquared{K: float64(dof)}.Survival(chi2)
		}

		return Result{
			"subtype":         subtype,
			"observed":        matrixAny(observed),
			"expected":        matrixAny(expected),
			"chi2_statistic":  num(chi2),
			"p_value":         num(p),
			"degrees_freedom": dof,
			"reject_null":     rejects(p, alpha),
		}, nil

	case "goodness_of_fit":
		observed, err := ParseData(req.Observed)
		if err != nil {
			return nil, err
		}
		if len(observed) < 2 {
			return nil, inputErrorf("At least two categories are required")
		}
		total := floats.Sum(observed)
		var expected []float64
		if strings.TrimSpace(req.Expected) != "" {
			expected, err = ParseData(req.Expected)
			if err != nil {
				return nil, err
			}
			if len(expected) != len(observed) {
				return nil, inputErrorf("Expected and observed must have the same length")
			}
			// proportions or frequencies with another total are rescaled
			if s := floats.Sum(expected); s > 0 && math.Abs(s-total) > 1e-8*math.Max(1, total) {
				floats.Scale(total/s, expected)
			}
		} else {
			expected = make([]float64, len(observed))
			for i := range expected {
				expected[i] = total / float64(len(observed))
			}
		}

		var chi2 float64
		for i, o := range observed {
			if expected[i] <= 0 {
				return nil, inputErrorf("Expected frequencies must be positive")
			}
			d := o - expected[i]
			chi2 += d * d / expected[i]
		}
		dof := len(observed) - 1
		p := distuv.ChiSquared{K: float64(dof)}.Survival(chi2)

		return Result{
			"subtype":         subtype,
			"observed":        nums(observed),
			"expected":        nums(expected),
			"chi2_statistic":  num(chi2),
			"p_value":         num(p),
			"degrees_freedom": dof,
			"reject_null":     rejects(p, alpha),
		}, nil
	}
	return nil, inputErrorf("Subtype must be 'independence' or 'goodness_of_fit'")
}

func matrixAny(m [][]float64) []any {
	out := make([]any, len(m))
	for i, row := range m {
		out[i] = nums(row)
	}
	return out
}

// anova is the one-way analysis of variance over the non-empty groups.
func anova(req HypothesisRequest, alpha float64) (Result, error) {
	var groups [][]float64
	for _, g := range req.Groups {
		data, err := ParseData(g)
		if err != nil {
			return nil, err
		}
		if len(data) > 0 {
			groups = append(groups, data)
		}
	}
	if len(groups) < 2 {
		return nil, inputErrorf("At least two groups are required")
	}

	k := len(groups)
	means := make([]float64, k)
	stds := make([]float64, k)
	sizes := make([]int, k)
	var all []float64
	for i, g := range groups {
		means[i], stds[i] = stat.MeanStdDev(g, nil)
		sizes[i] = len(g)
		all = append(all, g...)
	}
	grand := stat.Mean(all, nil)

	var ssBetween, ssWithin float64
	for i, g := range groups {
		d := means[i] - grand
		ssBetween += float64(len(g)) * d * d
		for _, v := range g {
			w := v - means[i]
			ssWithin += w * w
		}
	}
	dfBetween := k - 1
	dfWithin := len(all) - k
	msBetween := ssBetween / float64(dfBetween)
	msWithin := ssWithin / float64(dfWithin)
	f := msBetween / msWithin
	p := distuv.F{D1: float64(dfBetween), D2: float64(dfWithin)}.Survival(f)
	if dfWithin <= 0 {
		p = math.NaN()
	}

	sizesAny := make([]any, k)
	for i, s := range sizes {
		sizesAny[i] = s
	}
	return Result{
		"group_means": nums(means),
		"group_stds":  nums(stds),
		"group_sizes": sizesAny,
		"f_statistic": num(f),
		"p_value":     num(p),
		"df_between":  dfBetween,
		"df_within":   dfWithin,
		"df_total":    len(all) - 1,
		"ss_between":  num(ssBetween),
		"ss_within":   num(ssWithin),
		"ss_total":    num(ssBetween + ssWithin),
		"ms_between":  num(msBetween),
		"ms_within":   num(msWithin),
		"eta_squared": num(ssBetween / (ssBetween + ssWithin)),
		"reject_null": rejects(p, alpha),
	}, nil
}
