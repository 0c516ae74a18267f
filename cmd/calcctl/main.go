package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/aescanero/dago-node-calculator/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		// Command errors are already written by the output formatter.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
