package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // The computation failed (evaluation error, invalid data)
	ExitCommandError = 2 // Command error (bad flags or arguments)
)

// Error codes reported in structured output.
const (
	ErrCodeGeneric    = "E001" // Generic/unknown error
	ErrCodeInput      = "E002" // Invalid arguments
	ErrCodeEvaluation = "E003" // Evaluation produced an error result
	ErrCodeTimeout    = "E004" // Symbolic operation timed out
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter writes results as text, JSON or YAML.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Verbose output, kept off Writer so JSON and YAML stay parseable
	Verbose   bool
}

// CLIResponse is the envelope for structured output.
type CLIResponse struct {
	Status string      `json:"status"`          // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`  // success payload
	Error  *CLIError   `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`    // "E001", "E002", etc.
	Message string `json:"message"` // human-readable message
}

// Success outputs a result. text is used for the text format.
func (f *OutputFormatter) Success(data interface{}, text string) error {
	switch f.Format {
	case "json":
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
	case "yaml":
		return f.writeYAML(CLIResponse{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, text)
	return err
}

// Error outputs an error and returns it as an ExitError with exitCode.
func (f *OutputFormatter) Error(exitCode int, code, message string) error {
	resp := CLIResponse{Status: "error", Error: &CLIError{Code: code, Message: message}}
	var err error
	switch f.Format {
	case "json":
		err = json.NewEncoder(f.Writer).Encode(resp)
	case "yaml":
		err = f.writeYAML(resp)
	default:
		_, err = fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	}
	if err != nil {
		return err
	}
	return NewExitError(exitCode, message)
}

// VerboseLog outputs a message only if verbose mode is enabled.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// writeYAML encodes v through its JSON form so that keys match the JSON
// output.
func (f *OutputFormatter) writeYAML(v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	enc := yaml.NewEncoder(f.Writer)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return enc.Close()
}
