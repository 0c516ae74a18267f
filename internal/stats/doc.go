// Package stats implements the statistics endpoints: descriptive summaries,
// regression, probability distributions, hypothesis tests and histograms.
//
// Functions are stateless and return a Result, a JSON-ready map whose keys
// follow the public API. Non-finite values are reported as null. Invalid input
// returns an error matching ErrInvalidInput.
//
//	data, err := stats.ParseData("1, 2 3\n4")
//	if err != nil {
//	    return err
//	}
//	res, err := stats.Describe(data)
//	// res["mean"] == 2.5, res["q1"] == 1.75
//
// The numerics come from gonum: stat for moments and regression, distuv for
// distributions, mat for least squares fits.
package stats
