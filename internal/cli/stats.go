package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/aescanero/dago-node-calculator/internal/stats"
	"github.com/spf13/cobra"
)

// NewStatsCommand creates the stats command group.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarise data sets",
	}

	cmd.AddCommand(newStatsDescribeCommand(rootOpts))
	cmd.AddCommand(newStatsRegressCommand(rootOpts))
	cmd.AddCommand(newStatsHistogramCommand(rootOpts))

	return cmd
}

func newStatsDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "describe <data...>",
		Short:         "Descriptive statistics of a sample",
		Example:       `  calcctl stats describe 1 2 3 4 5`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			data, err := stats.ParseData(strings.Join(args, " "))
			if err != nil {
				return f.Error(ExitCommandError, ErrCodeInput, err.Error())
			}
			return statsOutput(f, func() (stats.Result, error) { return stats.Describe(data) })
		},
	}
}

func newStatsRegressCommand(rootOpts *RootOptions) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:           "regress <pairs>",
		Short:         "Fit a regression model to x,y pairs",
		Example:       `  calcctl stats regress "1,2; 2,4; 3,6" --type linear`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			x, y, err := stats.ParseXY(args[0])
			if err != nil {
				return f.Error(ExitCommandError, ErrCodeInput, err.Error())
			}
			return statsOutput(f, func() (stats.Result, error) { return stats.Regress(x, y, kind) })
		},
	}

	cmd.Flags().StringVarP(&kind, "type", "t", "linear", "model ("+strings.Join(stats.RegressionTypes, "|")+")")

	return cmd
}

func newStatsHistogramCommand(rootOpts *RootOptions) *cobra.Command {
	var bins int

	cmd := &cobra.Command{
		Use:           "histogram <data...>",
		Short:         "Bin a sample",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			data, err := stats.ParseData(strings.Join(args, " "))
			if err != nil {
				return f.Error(ExitCommandError, ErrCodeInput, err.Error())
			}
			return statsOutput(f, func() (stats.Result, error) { return stats.Histogram(data, bins) })
		},
	}

	cmd.Flags().IntVar(&bins, "bins", 0, "number of bins (0 picks automatically)")

	return cmd
}

func statsOutput(f *OutputFormatter, run func() (stats.Result, error)) error {
	res, err := run()
	if err != nil {
		return f.Error(ExitFailure, ErrCodeInput, err.Error())
	}

	keys := make([]string, 0, len(res))
	for k := range res {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s: %s", k, valueText(res[k]))
	}
	return f.Success(res, b.String())
}

func valueText(v any) string {
	switch v := v.(type) {
	case nil:
		return "-"
	case string:
		return v
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(raw)
}
