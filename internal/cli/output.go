package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/tioga/internal/check"
	"github.com/roach88/tioga/internal/engine"
	"github.com/roach88/tioga/internal/loader"
	"github.com/roach88/tioga/internal/model"
	"github.com/roach88/tioga/internal/query"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // every query succeeded, model valid, scenarios passed
	ExitFailure      = 1 // a query failed or was inconclusive, a scenario failed
	ExitCommandError = 2 // structural, parse or command error
)

// ErrCodeGeneric is reported for errors that carry no code of their own.
const ErrCodeGeneric = "E000"

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
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

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitSuccess for nil and ExitFailure if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status    string    `json:"status"`               // "ok", "failed" or "error"
	Data      any       `json:"data,omitempty"`       // success payload
	Error     *CLIError `json:"error,omitempty"`      // error details
	ModelHash string    `json:"model_hash,omitempty"` // fingerprint of the checked model
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E110", "E200", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

func (f *OutputFormatter) encode(v any) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// commandError reports err in the configured format and returns the exit
// error for it.
func (f *OutputFormatter) commandError(message string, err error) error {
	_ = f.Error(codeOf(err), err.Error(), detailsOf(err))
	return WrapExitError(ExitCommandError, message, err)
}

// codeOf extracts the code of a load, structural, parse or query error.
func codeOf(err error) string {
	var le *loader.LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	var se *model.StructuralError
	if errors.As(err, &se) {
		return se.Code
	}
	var pe *query.ParseError
	if errors.As(err, &pe) {
		return query.ErrSyntax
	}
	var qe *engine.QueryError
	if errors.As(err, &qe) {
		return qe.Code
	}
	return ErrCodeGeneric
}

// detailsOf returns the individual errors of a multi-error load, or nil.
func detailsOf(err error) any {
	var les loader.LoadErrors
	if errors.As(err, &les) {
		return les
	}
	var ses model.StructuralErrors
	if errors.As(err, &ses) {
		return ses
	}
	return nil
}

// writeResult prints one evaluation in text form.
func writeResult(w io.Writer, r engine.Result, verbose bool) {
	mark := "✓"
	if !r.Success {
		mark = "✗"
	}
	fmt.Fprintf(w, "%s %s\n", mark, r.Query)
	fmt.Fprintf(w, "  %s (%d states, %dms)\n", r.Outcome, r.StatesExplored, r.DurationMS)
	for _, d := range r.Diagnostics {
		fmt.Fprintf(w, "  - %s\n", d)
	}
	if r.Component != nil {
		fmt.Fprintf(w, "  component %s: %d locations, %d edges\n",
			r.Component.Name, len(r.Component.Locations), len(r.Component.Edges))
	}
	if len(r.Witness) == 0 {
		return
	}
	if !verbose {
		fmt.Fprintf(w, "  witness: %d steps, ends in %s\n",
			len(r.Witness), strings.Join(r.Witness[len(r.Witness)-1].Locations, ", "))
		return
	}
	fmt.Fprintln(w, "  witness:")
	for i, s := range r.Witness {
		writeStep(w, i, s)
	}
}

func writeStep(w io.Writer, i int, s check.Step) {
	if s.Action != "" {
		fmt.Fprintf(w, "    %d. --%s--> (%s) %s\n", i, s.Action, strings.Join(s.Locations, ", "), s.Zone)
		return
	}
	fmt.Fprintf(w, "    %d. (%s) %s\n", i, strings.Join(s.Locations, ", "), s.Zone)
}

func marshalIndent(v any) ([]byte, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
