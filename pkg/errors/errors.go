// Package errors provides enhanced error types with context metadata for
// leash. These errors carry suggestions, a context map, and lightweight stack
// traces to improve user diagnostics.
package errors

import (
	"fmt"
	"runtime"
	"strings"
)

// ErrorCode categorizes errors for handling
type ErrorCode string

const (
	// Supervision errors
	ErrSpawnFailed    ErrorCode = "SPAWN_FAILED"
	ErrInvalidTimeout ErrorCode = "INVALID_TIMEOUT"

	// Coverage filter errors
	ErrCoverageParse   ErrorCode = "COVERAGE_PARSE"
	ErrCoveragePattern ErrorCode = "COVERAGE_PATTERN"

	// Filesystem errors
	ErrFileNotFound     ErrorCode = "FILE_NOT_FOUND"
	ErrPermissionDenied ErrorCode = "PERMISSION_DENIED"

	// State errors
	ErrHistoryUnavailable ErrorCode = "HISTORY_UNAVAILABLE"
	ErrInvalidConfig      ErrorCode = "INVALID_CONFIG"

	// Unknown errors
	ErrUnknown ErrorCode = "UNKNOWN"
)

// StackFrame represents a single stack frame
type StackFrame struct {
	Function string `json:"function"`
	File     string `json:"file"`
	Line     int    `json:"line"`
}

// LeashError is the base error type with rich context
type LeashError struct {
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Details    string            `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	Cause      error             `json:"-"`
	Context    map[string]string `json:"context,omitempty"`
	Stack      []StackFrame      `json:"stack,omitempty"`
}

// Error implements the error interface
func (e *LeashError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)
	if e.Details != "" {
		sb.WriteString("\n")
		sb.WriteString(e.Details)
	}
	if e.Cause != nil {
		sb.WriteString("\nCaused by: ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

// Unwrap exposes the underlying cause to errors.Is/As.
func (e *LeashError) Unwrap() error {
	return e.Cause
}

// WithSuggestion adds a suggestion for fixing the error
func (e *LeashError) WithSuggestion(suggestion string) *LeashError {
	e.Suggestion = suggestion
	return e
}

// WithContext adds contextual information
func (e *LeashError) WithContext(key, value string) *LeashError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithCause wraps another error
func (e *LeashError) WithCause(cause error) *LeashError {
	e.Cause = cause
	return e
}

// WithDetails adds detailed information
func (e *LeashError) WithDetails(details string) *LeashError {
	e.Details = details
	return e
}

// New creates a new LeashError
func New(code ErrorCode, message string) *LeashError {
	err := &LeashError{
		Code:    code,
		Message: message,
		Context: make(map[string]string),
	}
	err.captureStack()
	err.Suggestion = getDefaultSuggestion(code)
	return err
}

// Wrap wraps a standard error with LeashError
func Wrap(err error, code ErrorCode, message string) *LeashError {
	if err == nil {
		return nil
	}
	if leashErr, ok := err.(*LeashError); ok {
		// Prepend message context
		if message != "" {
			leashErr.Message = message + ": " + leashErr.Message
		}
		return leashErr
	}
	return New(code, message).WithCause(err)
}

// captureStack captures the current stack trace
func (e *LeashError) captureStack() {
	const maxFrames = 10
	pc := make([]uintptr, maxFrames)
	n := runtime.Callers(3, pc) // Skip runtime.Callers, captureStack, New/Wrap
	frames := runtime.CallersFrames(pc[:n])
	for {
		frame, more := frames.Next()
		if strings.Contains(frame.File, "runtime/") || strings.Contains(frame.File, "testing/") {
			if !more {
				break
			}
			continue
		}
		e.Stack = append(e.Stack, StackFrame{
			Function: frame.Function,
			File:     frame.File,
			Line:     frame.Line,
		})
		if !more {
			break
		}
	}
}

// getDefaultSuggestion provides default fix suggestions
func getDefaultSuggestion(code ErrorCode) string {
	suggestions := map[ErrorCode]string{
		ErrSpawnFailed:        "Check that the command exists and is executable: which <command>",
		ErrInvalidTimeout:     "Timeout must be a whole number of seconds, e.g. leash 30 make test",
		ErrCoverageParse:      "Verify the tracefile was produced by lcov/geninfo",
		ErrCoveragePattern:    "Check the --exclude glob syntax, e.g. --exclude 'vendor/**'",
		ErrFileNotFound:       "Check the path and try again",
		ErrPermissionDenied:   "Check file permissions",
		ErrHistoryUnavailable: "Remove ~/.leash/history.db to start a fresh history",
		ErrInvalidConfig:      "Fix or delete ~/.leash.json",
	}
	if s, ok := suggestions[code]; ok {
		return s
	}
	return "Run 'leash doctor' for diagnostics"
}

// ExitError carries a process exit code from a command handler up to main.
// It signals an exit status to propagate, not a failure to display.
type ExitError struct {
	Code int
}

// Error implements the error interface
func (e ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}
