package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/aescanero/dago-node-calculator/internal/calc"
	"github.com/spf13/cobra"
)

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		mode string
		vars []string
	)

	cmd := &cobra.Command{
		Use:   "eval <expr>",
		Short: "Evaluate an expression",
		Long: `Evaluate an expression in standard, cas, matrix or auto mode.

Variables are bound with --var name=value; values that are not numbers are
parsed as expressions in cas mode.`,
		Example:       `  calcctl eval "sin(pi/2) + x" --var x=2`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)

			bindings, err := parseVars(vars)
			if err != nil {
				return f.Error(ExitCommandError, ErrCodeInput, err.Error())
			}

			req := calc.Request{Expr: args[0], Mode: calc.Mode(mode), Variables: bindings}
			f.VerboseLog("evaluating %q in %s mode", req.Expr, mode)

			res := newEvaluator().Evaluate(cmd.Context(), req)
			if res.Failed() {
				return f.Error(ExitFailure, ErrCodeEvaluation, fmt.Sprint(res.Result))
			}
			return f.Success(res, resultText(res))
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", string(calc.ModeStandard), "evaluation mode (standard|cas|matrix|auto)")
	cmd.Flags().StringArrayVar(&vars, "var", nil, "variable binding name=value (repeatable)")

	return cmd
}

// parseVars reads name=value pairs. Numbers become float64, anything else
// stays a string.
func parseVars(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid variable %q: expected name=value", pair)
		}
		value = strings.TrimSpace(value)
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			out[name] = f
			continue
		}
		out[name] = value
	}
	return out, nil
}

// resultText renders a result value for the text format.
func resultText(res calc.Result) string {
	switch v := res.Result.(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, ", ")
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	raw, err := json.Marshal(res.Result)
	if err != nil {
		return fmt.Sprint(res.Result)
	}
	return string(raw)
}
