package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/casstore/internal/backend"
	"github.com/roach88/casstore/internal/compiler"
	"github.com/roach88/casstore/internal/digest"
	"github.com/roach88/casstore/internal/store"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Open, parse, read, write or validation failure; missing key
	ExitCommandError = 2 // Command error (invalid flag values, unusable config file)
)

// Error codes reported in JSON output and text error lines.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeInvalidArg  = "E002" // Malformed hash, type tag or flag value
	ErrCodeNotFound    = "E005" // Database or key not found
	ErrCodeReadOnly    = "E008" // Mutation on a read-only database
	ErrCodeCodec       = "E010" // Document could not be parsed or decoded
	ErrCodeEncode      = "E011" // Value has no canonical encoding
	ErrCodeBackend     = "E012" // Storage engine failure
	ErrCodeInvalidDoc  = compiler.ErrSchemaViolation
	ErrCodeConfigError = "E020" // Config file unreadable or invalid
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
	ErrCode string // Error code for output; derived from Err when empty
	Details any    // Structured context for JSON output and --verbose
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

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error. Errors that are not
// ExitErrors come from cobra's flag and argument checks, before any
// command ran, and are usage errors.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// ErrorCode classifies err for output.
func ErrorCode(err error) string {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.ErrCode != "" {
		return exitErr.ErrCode
	}

	var (
		codecErr  *store.CodecError
		encodeErr *digest.EncodeError
		backErr   *backend.Error
	)
	switch {
	case errors.Is(err, backend.ErrReadOnly):
		return ErrCodeReadOnly
	case errors.Is(err, backend.ErrNotExist):
		return ErrCodeNotFound
	case errors.As(err, &codecErr):
		return ErrCodeCodec
	case errors.As(err, &encodeErr):
		return ErrCodeEncode
	case errors.As(err, &backErr):
		return ErrCodeBackend
	}
	return ErrCodeGeneric
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
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E002", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
// In text mode, nil data prints nothing.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetEscapeHTML(false)
		return enc.Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	if data == nil {
		return nil
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Lines outputs one text line per item, or a JSON array of items.
func (f *OutputFormatter) Lines(items []string, data any) error {
	if f.Format == "json" {
		return f.Success(data)
	}
	for _, item := range items {
		if _, err := fmt.Fprintln(f.Writer, item); err != nil {
			return err
		}
	}
	return nil
}

// Error outputs an error in the configured format. JSON errors go to
// Writer, text errors to ErrWriter.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	w := f.GetErrWriter()
	fmt.Fprintf(w, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(w, "Details: %v\n", details)
	}
	return nil
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
