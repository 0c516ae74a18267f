package cli

import (
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// NewConvertCommand creates the convert command.
func NewConvertCommand(rootOpts *RootOptions) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:           "convert <value> <from> <to>",
		Short:         "Convert a value between units",
		Example:       `  calcctl convert 100 celsius fahrenheit --category temperature`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)

			value, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return f.Error(ExitCommandError, ErrCodeInput, "value must be a number: "+args[0])
			}

			converter, err := newConverter()
			if err != nil {
				return f.Error(ExitFailure, ErrCodeGeneric, err.Error())
			}

			conv, err := converter.Convert(value, args[1], args[2], category)
			if err != nil {
				return f.Error(ExitCommandError, ErrCodeInput, err.Error())
			}

			text := strconv.FormatFloat(conv.Result, 'g', -1, 64) + " " + conv.ToUnit
			if rootOpts.Verbose {
				text += "\n" + conv.Formula
			}
			return f.Success(conv, text)
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "unit category (length, mass, temperature, ...)")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

// NewUnitsCommand creates the units command.
func NewUnitsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "units",
		Short:         "List unit categories and their units",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)

			converter, err := newConverter()
			if err != nil {
				return f.Error(ExitFailure, ErrCodeGeneric, err.Error())
			}

			categories := converter.Categories()
			names := make([]string, 0, len(categories))
			for name := range categories {
				names = append(names, name)
			}
			sort.Strings(names)

			var b strings.Builder
			for i, name := range names {
				if i > 0 {
					b.WriteByte('\n')
				}
				b.WriteString(name + ": " + strings.Join(categories[name], ", "))
			}
			return f.Success(categories, b.String())
		},
	}
}
