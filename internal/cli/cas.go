package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aescanero/dago-node-calculator/internal/calc"
	"github.com/spf13/cobra"
)

// NewCASCommand creates the cas command.
func NewCASCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		variable  string
		order     int
		limits    string
		approach  string
		direction string
	)

	ops := make([]string, len(calc.CASOps))
	for i, op := range calc.CASOps {
		ops[i] = string(op)
	}

	cmd := &cobra.Command{
		Use:   "cas <op> <expr>",
		Short: "Run a symbolic operation",
		Long: fmt.Sprintf(`Run a symbolic operation on an expression.

Operations: %s.
Definite integrals take --limits a,b; limits take --approach and --direction (+, - or +-).`,
			strings.Join(ops, ", ")),
		Example: `  calcctl cas factor "x^2 - 1"
  calcctl cas integrate "exp(-x)" --limits 0,oo
  calcctl cas limit "sin(x)/x" --approach 0`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)

			op, err := calc.ParseCASOp(args[0])
			if err != nil {
				return f.Error(ExitCommandError, ErrCodeInput, err.Error())
			}

			req := calc.CASRequest{
				Expr:      args[1],
				Variable:  variable,
				Order:     order,
				Direction: direction,
			}
			if limits != "" {
				lo, hi, ok := strings.Cut(limits, ",")
				if !ok {
					return f.Error(ExitCommandError, ErrCodeInput, "limits must be two values separated by a comma")
				}
				req.Limits = []any{strings.TrimSpace(lo), strings.TrimSpace(hi)}
			}
			if approach != "" {
				req.Approach = approach
			}

			f.VerboseLog("running %s on %q", op, req.Expr)

			res, err := newEvaluator().RunCAS(cmd.Context(), op, req)
			if err != nil {
				if errors.Is(err, calc.ErrTimeout) {
					return f.Error(ExitFailure, ErrCodeTimeout, err.Error())
				}
				return f.Error(ExitFailure, ErrCodeEvaluation, err.Error())
			}
			return f.Success(res, resultText(res))
		},
	}

	cmd.Flags().StringVar(&variable, "var", "x", "variable of the operation")
	cmd.Flags().IntVar(&order, "order", 1, "derivative order")
	cmd.Flags().StringVar(&limits, "limits", "", "definite integral bounds a,b")
	cmd.Flags().StringVar(&approach, "approach", "", "limit point (default 0)")
	cmd.Flags().StringVar(&direction, "direction", "+", "limit direction (+|-|+-)")

	return cmd
}
