package cli

import (
	"fmt"
	"slices"

	"github.com/aescanero/dago-node-calculator/internal/calc"
	"github.com/aescanero/dago-node-calculator/internal/eval/template"
	"github.com/aescanero/dago-node-calculator/internal/units"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "text" | "json" | "yaml"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// NewRootCommand creates the root command for calcctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "calcctl",
		Short:         "Scientific calculator",
		Long:          "Evaluate expressions, run symbolic operations, convert units and summarise data from the command line.",
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")

	cmd.AddCommand(NewEvalCommand(opts))
	cmd.AddCommand(NewCASCommand(opts))
	cmd.AddCommand(NewConvertCommand(opts))
	cmd.AddCommand(NewUnitsCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))

	return cmd
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

func newEvaluator() *calc.Evaluator {
	return calc.NewEvaluator(calc.DefaultOptions(), nil, nil)
}

func newConverter() (*units.Converter, error) {
	table, err := units.DefaultTable()
	if err != nil {
		return nil, fmt.Errorf("failed to load unit table: %w", err)
	}
	return units.NewConverter(table, template.NewEngine()), nil
}
