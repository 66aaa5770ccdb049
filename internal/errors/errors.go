// Package errors provides structured error types for the debug-control
// mediator. Every error carries a machine-readable code plus a hint aimed
// at the calling agent, so a failed tool call tells the caller what to try
// next instead of just why it failed.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a category of error for programmatic handling.
type ErrorCode string

const (
	// Transport errors
	CodeTransportClosed ErrorCode = "TRANSPORT_CLOSED"
	CodeRequestFailed   ErrorCode = "REQUEST_FAILED"

	// Session lifecycle errors
	CodeNotRunning  ErrorCode = "NOT_RUNNING"
	CodeReconnecting ErrorCode = "RECONNECTING"
	CodeSessionNotFound ErrorCode = "SESSION_NOT_FOUND"
	CodeDuplicateID ErrorCode = "SESSION_DUPLICATE_ID"
	CodeSessionLimitReached ErrorCode = "SESSION_LIMIT_REACHED"

	// Configuration errors
	CodeConfiguration ErrorCode = "CONFIGURATION_ERROR"

	// Timeout errors
	CodeTimeout ErrorCode = "TIMEOUT"

	// Parameter errors
	CodeMissingParameter ErrorCode = "MISSING_PARAMETER"
	CodeInvalidParameter ErrorCode = "INVALID_PARAMETER"
	CodeInvalidJSON      ErrorCode = "INVALID_JSON"

	// Runtime errors
	CodeBreakpointFailed   ErrorCode = "BREAKPOINT_FAILED"
	CodeBreakpointNotFound ErrorCode = "BREAKPOINT_NOT_FOUND"
	CodeEvaluationFailed ErrorCode = "EVALUATION_FAILED"
	CodeStepFailed       ErrorCode = "STEP_FAILED"
	CodeNoThreads        ErrorCode = "NO_THREADS"
)

// DebugError is a structured error type that includes helpful information
// for the calling agent to understand what went wrong and how to fix it.
type DebugError struct {
	// Code is a machine-readable error category
	Code ErrorCode `json:"code"`

	// Message is a human/agent-readable description of what went wrong
	Message string `json:"message"`

	// Hint provides actionable guidance on how to fix the error
	Hint string `json:"hint,omitempty"`

	// Details contains additional context (e.g. the invalid value, expected format)
	Details map[string]interface{} `json:"details,omitempty"`

	// Cause is the underlying error, if any
	Cause error `json:"-"`
}

// Error implements the error interface.
func (e *DebugError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)

	if e.Hint != "" {
		sb.WriteString(" | Hint: ")
		sb.WriteString(e.Hint)
	}

	return sb.String()
}

// Unwrap returns the underlying error for error chaining.
func (e *DebugError) Unwrap() error {
	return e.Cause
}

// WithDetails adds a detail key/value to the error.
func (e *DebugError) WithDetails(key string, value interface{}) *DebugError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying cause.
func (e *DebugError) WithCause(err error) *DebugError {
	e.Cause = err
	return e
}

// --- Transport errors ---

// TransportClosed reports that the DAP transport tore down and every
// pending request on it was rejected.
func TransportClosed(cause error) *DebugError {
	return &DebugError{
		Code:    CodeTransportClosed,
		Message: "debug adapter transport closed",
		Hint:    "The netcoredbg process exited or its stdio closed unexpectedly. Check status, then launch or attach a new session.",
		Cause:   cause,
	}
}

// RequestFailed reports a DAP response with success=false.
func RequestFailed(command, message string) *DebugError {
	if message == "" {
		message = fmt.Sprintf("request '%s' failed", command)
	}
	return &DebugError{
		Code:    CodeRequestFailed,
		Message: message,
		Details: map[string]interface{}{
			"command": command,
		},
	}
}

// --- Session lifecycle errors ---

// NotRunning creates an error for a call against a session with no live
// transport and no reconnect in flight.
func NotRunning(sessionID string) *DebugError {
	return &DebugError{
		Code:    CodeNotRunning,
		Message: fmt.Sprintf("session '%s' has no running debugger", sessionID),
		Hint:    "Use launch, attach, or launch_watch to start a debugger for this session.",
		Details: map[string]interface{}{
			"sessionId": sessionID,
		},
	}
}

// Reconnecting creates an error for a call issued during a hot-reload
// reattach window.
func Reconnecting(sessionID string) *DebugError {
	return &DebugError{
		Code:    CodeReconnecting,
		Message: fmt.Sprintf("session '%s' is reconnecting after a hot-reload restart", sessionID),
		Hint:    "Wait briefly and retry; the session will resume once the new process is attached.",
		Details: map[string]interface{}{
			"sessionId": sessionID,
		},
	}
}

// SessionNotFound creates an error for when a session ID doesn't exist,
// listing the ids that do.
func SessionNotFound(sessionID string, available []string) *DebugError {
	hint := "No sessions are active. Use launch, attach, or launch_watch to create one."
	if len(available) > 0 {
		hint = fmt.Sprintf("Active sessions: %s", strings.Join(available, ", "))
	}
	return &DebugError{
		Code:    CodeSessionNotFound,
		Message: fmt.Sprintf("session '%s' not found", sessionID),
		Hint:    hint,
		Details: map[string]interface{}{
			"sessionId": sessionID,
			"available": available,
		},
	}
}

// DuplicateID creates an error for an attempt to create a session under
// an id already in use.
func DuplicateID(sessionID string) *DebugError {
	return &DebugError{
		Code:    CodeDuplicateID,
		Message: fmt.Sprintf("session '%s' already exists", sessionID),
		Hint:    "Choose a different sessionId, or terminate the existing session first.",
		Details: map[string]interface{}{
			"sessionId": sessionID,
		},
	}
}

// SessionLimitReached creates an error when max sessions is reached.
func SessionLimitReached(maxSessions int) *DebugError {
	return &DebugError{
		Code:    CodeSessionLimitReached,
		Message: fmt.Sprintf("maximum number of sessions (%d) reached", maxSessions),
		Hint:    "Terminate an existing session with terminate_session before creating a new one.",
		Details: map[string]interface{}{
			"maxSessions": maxSessions,
		},
	}
}

// --- Configuration errors ---

// Configuration creates an error for a malformed or missing project/launch
// configuration.
func Configuration(message string, cause error) *DebugError {
	return &DebugError{
		Code:    CodeConfiguration,
		Message: message,
		Hint:    "Check the project path and launch-profile name.",
		Cause:   cause,
	}
}

// --- Timeout errors ---

// Timeout creates an error for an operation that exceeded its deadline.
func Timeout(operation string, seconds float64) *DebugError {
	return &DebugError{
		Code:    CodeTimeout,
		Message: fmt.Sprintf("%s timed out after %.0fs", operation, seconds),
		Hint:    "The debuggee may be stuck or the adapter may be unresponsive. Use status to check session state.",
		Details: map[string]interface{}{
			"operation":      operation,
			"timeoutSeconds": seconds,
		},
	}
}

// --- Parameter errors ---

// MissingParameter creates an error for missing required parameters.
func MissingParameter(paramName, hint string) *DebugError {
	return &DebugError{
		Code:    CodeMissingParameter,
		Message: fmt.Sprintf("required parameter '%s' is missing", paramName),
		Hint:    hint,
		Details: map[string]interface{}{
			"parameter": paramName,
		},
	}
}

// InvalidParameter creates an error for invalid parameter values.
func InvalidParameter(paramName string, value interface{}, expected string) *DebugError {
	return &DebugError{
		Code:    CodeInvalidParameter,
		Message: fmt.Sprintf("invalid value for parameter '%s': %v", paramName, value),
		Hint:    fmt.Sprintf("Expected: %s", expected),
		Details: map[string]interface{}{
			"parameter": paramName,
			"value":     value,
			"expected":  expected,
		},
	}
}

// InvalidJSON creates an error for JSON parsing failures.
func InvalidJSON(paramName string, err error, example string) *DebugError {
	return &DebugError{
		Code:    CodeInvalidJSON,
		Message: fmt.Sprintf("invalid JSON in parameter '%s': %v", paramName, err),
		Hint:    fmt.Sprintf("Provide valid JSON. Example: %s", example),
		Cause:   err,
		Details: map[string]interface{}{
			"parameter": paramName,
			"example":   example,
		},
	}
}

// --- Runtime errors ---

// BreakpointFailed creates an error for a setBreakpoints request that the
// debugger rejected for the whole file.
func BreakpointFailed(path string, line int, reason string) *DebugError {
	return &DebugError{
		Code:    CodeBreakpointFailed,
		Message: fmt.Sprintf("could not set breakpoint at %s:%d", path, line),
		Hint:    fmt.Sprintf("Reason: %s. Ensure the path is absolute and matches a source file the debuggee was compiled from.", reason),
		Details: map[string]interface{}{
			"path":   path,
			"line":   line,
			"reason": reason,
		},
	}
}

// BreakpointNotFound creates an error for removing a breakpoint that was
// never set at path:line.
func BreakpointNotFound(path string, line int) *DebugError {
	return &DebugError{
		Code:    CodeBreakpointNotFound,
		Message: fmt.Sprintf("no breakpoint set at %s:%d", path, line),
		Hint:    "Use list_breakpoints to see currently tracked breakpoints.",
		Details: map[string]interface{}{
			"path": path,
			"line": line,
		},
	}
}

// EvaluationFailed creates an error for an evaluate request failure.
func EvaluationFailed(expression string, err error) *DebugError {
	return &DebugError{
		Code:    CodeEvaluationFailed,
		Message: fmt.Sprintf("failed to evaluate '%s': %v", expression, err),
		Hint:    "Check that the expression syntax is valid C# and referenced variables are in scope at the selected frame.",
		Cause:   err,
		Details: map[string]interface{}{
			"expression": expression,
		},
	}
}

// StepFailed creates an error for a step/continue/pause request failure.
func StepFailed(op string, err error) *DebugError {
	return &DebugError{
		Code:    CodeStepFailed,
		Message: fmt.Sprintf("%s failed: %v", op, err),
		Hint:    "Use status to check whether the debuggee is still running.",
		Cause:   err,
		Details: map[string]interface{}{
			"operation": op,
		},
	}
}

// NoThreads creates an error for when no threads are available.
func NoThreads() *DebugError {
	return &DebugError{
		Code:    CodeNoThreads,
		Message: "no threads available",
		Hint:    "The debuggee may have terminated or not stopped yet. Use status to check session state.",
	}
}

// --- Helper for wrapping generic errors ---

// Wrap wraps a generic error with a code, message and hint.
func Wrap(code ErrorCode, message string, hint string, err error) *DebugError {
	return &DebugError{
		Code:    code,
		Message: message,
		Hint:    hint,
		Cause:   err,
	}
}

// FromError extracts a *DebugError from err if one is chained in it,
// otherwise wraps err as an unknown error.
func FromError(err error) *DebugError {
	var de *DebugError
	if stderrors.As(err, &de) {
		return de
	}
	return &DebugError{
		Code:    "UNKNOWN_ERROR",
		Message: err.Error(),
		Hint:    "An unexpected error occurred. Check the message for details.",
		Cause:   err,
	}
}
