package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "calcctl", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"eval"}, {"cas"}, {"convert"}, {"units"},
		{"stats", "describe"}, {"stats", "regress"}, {"stats", "histogram"},
	}

	for _, path := range commands {
		t.Run(strings.Join(path, " "), func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err)
			require.NotNil(t, subCmd)
			assert.Equal(t, path[len(path)-1], subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()

	evalCmd, _, err := cmd.Find([]string{"eval"})
	require.NoError(t, err)
	modeFlag := evalCmd.Flags().Lookup("mode")
	require.NotNil(t, modeFlag)
	assert.Equal(t, "m", modeFlag.Shorthand)
	assert.Equal(t, "standard", modeFlag.DefValue)

	casCmd, _, err := cmd.Find([]string{"cas"})
	require.NoError(t, err)
	assert.Equal(t, "x", casCmd.Flags().Lookup("var").DefValue)
	assert.Equal(t, "+", casCmd.Flags().Lookup("direction").DefValue)

	convertCmd, _, err := cmd.Find([]string{"convert"})
	require.NoError(t, err)
	categoryFlag := convertCmd.Flags().Lookup("category")
	require.NotNil(t, categoryFlag)
	assert.Equal(t, "", categoryFlag.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "--format", "xml", "eval", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestEval(t *testing.T) {
	out, err := execute(t, "eval", "x^2 + 1", "--var", "x=3")
	require.NoError(t, err)
	assert.Equal(t, "10\n", out)

	out, err = execute(t, "eval", "x^2 + 2*x + 1", "--mode", "cas")
	require.NoError(t, err)
	assert.Equal(t, "x^2 + 2*x + 1\n", out)
}

func TestEvalJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "eval", "2 + 3")
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "number", resp.Data["type"])
	assert.InDelta(t, 5, resp.Data["result"], 1e-12)
}

func TestEvalErrors(t *testing.T) {
	out, err := execute(t, "eval", "1/0")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error ["+ErrCodeEvaluation+"]")

	_, err = execute(t, "eval", "x", "--var", "=3")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestParseVars(t *testing.T) {
	vars, err := parseVars([]string{"x=3", "y = a + 1"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": 3.0, "y": "a + 1"}, vars)

	vars, err = parseVars(nil)
	require.NoError(t, err)
	assert.Nil(t, vars)

	_, err = parseVars([]string{"novalue"})
	assert.Error(t, err)
}

func TestCAS(t *testing.T) {
	out, err := execute(t, "cas", "factor", "x^2 - 4")
	require.NoError(t, err)
	assert.Equal(t, "(x + 2)*(x - 2)\n", out)

	out, err = execute(t, "cas", "integrate", "x^2", "--limits", "0,1")
	require.NoError(t, err)
	assert.Equal(t, "1/3\n", out)

	_, err = execute(t, "cas", "transmute", "x")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "cas", "integrate", "x", "--limits", "0")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestConvert(t *testing.T) {
	out, err := execute(t, "convert", "1", "kilometer", "meter", "--category", "length")
	require.NoError(t, err)
	assert.Equal(t, "1000 meter\n", out)

	_, err = execute(t, "convert", "abc", "kilometer", "meter", "-c", "length")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "convert", "1", "kilometer", "meter")
	require.Error(t, err)
}

func TestUnits(t *testing.T) {
	out, err := execute(t, "units")
	require.NoError(t, err)
	assert.Contains(t, out, "length: ")
	assert.Contains(t, out, "meter")
}

func TestStats(t *testing.T) {
	out, err := execute(t, "stats", "describe", "1", "2", "3", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "mean: 2.5\n")
	assert.Contains(t, out, "count: 4\n")

	out, err = execute(t, "--format", "yaml", "stats", "regress", "1,2; 2,4; 3,6")
	require.NoError(t, err)
	assert.Contains(t, out, "status: ok")

	_, err = execute(t, "stats", "describe", "1", "two")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestOutputFormatterError(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	err := f.Error(ExitCommandError, ErrCodeInput, "bad input")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInput, resp.Error.Code)
}

func TestVerboseLogUsesErrWriter(t *testing.T) {
	var out, errOut bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &out, ErrWriter: &errOut, Verbose: true}
	f.VerboseLog("step %d", 1)
	assert.Empty(t, out.String())
	assert.Equal(t, "step 1\n", errOut.String())
}
