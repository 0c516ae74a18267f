// Package cli implements calcctl, the command-line front end to the
// calculator. Commands print text by default; --format json and --format yaml
// wrap results in a {status, data, error} envelope. Failed commands return an
// ExitError carrying the process exit code.
package cli
