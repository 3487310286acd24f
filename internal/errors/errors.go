// Package errors provides structured error types for learnq.
//
// Sentinel errors are matched with errors.Is; LearnqError carries a
// machine-readable code and context for structured logging.
//
// Error code ranges:
// - 1xxx: Configuration errors
// - 3xxx: Query errors (translation, resolution, dispatch)
// - 4xxx: Report errors
// - 5xxx: Communication errors
// - 9xxx: General errors
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a machine-readable error identifier.
type ErrorCode string

// Configuration error codes (1xxx).
const (
	ErrCodeConfigInvalid ErrorCode = "LQ_1001"
	ErrCodeConfigMissing ErrorCode = "LQ_1002"
)

// Query error codes (3xxx).
const (
	ErrCodeTranslationParse        ErrorCode = "LQ_3001"
	ErrCodeCourseNotResolved       ErrorCode = "LQ_3002"
	ErrCodeUnrecognizedInstruction ErrorCode = "LQ_3003"
	ErrCodeInvalidFilter           ErrorCode = "LQ_3004"
	ErrCodeMissingCourse           ErrorCode = "LQ_3005"
	ErrCodeInputTooLong            ErrorCode = "LQ_3006"
)

// Report error codes (4xxx).
const (
	ErrCodeCourseNotFound ErrorCode = "LQ_4001"
	ErrCodeUserNotFound   ErrorCode = "LQ_4002"
)

// Communication error codes (5xxx).
const (
	ErrCodeTransport            ErrorCode = "LQ_5001"
	ErrCodeTranslationTransport ErrorCode = "LQ_5002"
)

// General error codes (9xxx).
const (
	ErrCodeUnknown ErrorCode = "LQ_9999"
)

// Sentinel errors for type checking with errors.Is().
var (
	ErrConfigInvalid = errors.New("invalid configuration")
	ErrConfigMissing = errors.New("configuration value missing")

	ErrTranslationParse        = errors.New("translation response could not be parsed")
	ErrCourseNotResolved       = errors.New("course name could not be resolved")
	ErrUnrecognizedInstruction = errors.New("unrecognized instruction")
	ErrInvalidFilter           = errors.New("invalid filter")
	ErrMissingCourse           = errors.New("course name required")
	ErrInputTooLong            = errors.New("input line too long")

	ErrCourseNotFound = errors.New("course not found")
	ErrUserNotFound   = errors.New("user not found")

	ErrTransport            = errors.New("transport failure")
	ErrTranslationTransport = errors.New("translation request failed")
)

// LearnqError is the base error type with structured information.
type LearnqError struct {
	Code        ErrorCode
	Message     string
	Context     map[string]interface{}
	IsRetryable bool
	Cause       error
	sentinel    error
}

// Error implements the error interface.
func (e *LearnqError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *LearnqError) Unwrap() error {
	return e.Cause
}

// Is matches the error's category sentinel as well as its cause chain.
func (e *LearnqError) Is(target error) bool {
	if e.sentinel != nil && target == e.sentinel {
		return true
	}
	if e.Cause != nil {
		return errors.Is(e.Cause, target)
	}
	return false
}

// WithContext adds context information to the error.
func (e *LearnqError) WithContext(key string, value interface{}) *LearnqError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// ToMap converts the error to a map for structured logging.
func (e *LearnqError) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"error_code":   string(e.Code),
		"message":      e.Message,
		"is_retryable": e.IsRetryable,
	}
	if len(e.Context) > 0 {
		m["context"] = e.Context
	}
	if e.Cause != nil {
		m["cause"] = e.Cause.Error()
	}
	return m
}

func newError(code ErrorCode, sentinel error, message string, cause error) *LearnqError {
	return &LearnqError{
		Code:     code,
		Message:  message,
		Cause:    cause,
		Context:  make(map[string]interface{}),
		sentinel: sentinel,
	}
}

// Configuration Error constructors

// NewConfigInvalidError creates a configuration invalid error.
func NewConfigInvalidError(message string, cause error) *LearnqError {
	return newError(ErrCodeConfigInvalid, ErrConfigInvalid, message, cause)
}

// NewConfigMissingError reports a required configuration key with no value.
func NewConfigMissingError(key string, envVar string) *LearnqError {
	return newError(ErrCodeConfigMissing, ErrConfigMissing,
		fmt.Sprintf("%s is not set (config key or %s)", key, envVar), nil).
		WithContext("key", key).
		WithContext("env", envVar)
}

// Query Error constructors

// NewTranslationParseError reports an LLM reply that does not fit the command schema.
func NewTranslationParseError(reason string, raw string, cause error) *LearnqError {
	truncated := raw
	if len(raw) > 200 {
		truncated = raw[:200] + "..."
	}
	return newError(ErrCodeTranslationParse, ErrTranslationParse,
		fmt.Sprintf("could not understand the model's reply: %s", reason), cause).
		WithContext("raw", truncated).
		WithContext("reason", reason)
}

// NewCourseNotResolvedError reports a candidate that matched nothing in the catalog.
func NewCourseNotResolvedError(candidate string, suggestion string) *LearnqError {
	e := newError(ErrCodeCourseNotResolved, ErrCourseNotResolved,
		fmt.Sprintf("no course matching %q", candidate), nil).
		WithContext("candidate", candidate)
	if suggestion != "" {
		e.WithContext("suggestion", suggestion)
	}
	return e
}

// NewUserNotResolvedError is the learner-name counterpart of
// NewCourseNotResolvedError and shares its code.
func NewUserNotResolvedError(candidate string, suggestion string) *LearnqError {
	e := newError(ErrCodeCourseNotResolved, ErrCourseNotResolved,
		fmt.Sprintf("no learner matching %q", candidate), nil).
		WithContext("candidate", candidate).
		WithContext("subject", "user")
	if suggestion != "" {
		e.WithContext("suggestion", suggestion)
	}
	return e
}

// NewUnrecognizedInstructionError reports an instruction outside the closed set.
func NewUnrecognizedInstructionError(raw string) *LearnqError {
	msg := "unrecognized instruction"
	if raw != "" {
		msg = fmt.Sprintf("unrecognized instruction %q", raw)
	}
	return newError(ErrCodeUnrecognizedInstruction, ErrUnrecognizedInstruction, msg, nil).
		WithContext("instruction", raw)
}

// NewInvalidFilterError reports a filter token outside the vocabulary or not
// applicable to the instruction.
func NewInvalidFilterError(filter string, reason string) *LearnqError {
	return newError(ErrCodeInvalidFilter, ErrInvalidFilter,
		fmt.Sprintf("filter %q %s", filter, reason), nil).
		WithContext("filter", filter)
}

// NewMissingCourseError reports an instruction that needs a course but got none.
func NewMissingCourseError(instruction string) *LearnqError {
	return newError(ErrCodeMissingCourse, ErrMissingCourse,
		fmt.Sprintf("%s needs a course name", instruction), nil).
		WithContext("instruction", instruction)
}

// NewInputTooLongError creates an error for an input line over limit bytes.
func NewInputTooLongError(limit int) *LearnqError {
	return newError(ErrCodeInputTooLong, ErrInputTooLong,
		fmt.Sprintf("input line is longer than %d bytes", limit), nil).
		WithContext("limit", limit)
}

// Report Error constructors

// NewCourseNotFoundError creates a course not found error.
func NewCourseNotFoundError(title string) *LearnqError {
	return newError(ErrCodeCourseNotFound, ErrCourseNotFound,
		fmt.Sprintf("course %q not found", title), nil).
		WithContext("course", title)
}

// NewUserNotFoundError creates a user not found error.
func NewUserNotFoundError(name string) *LearnqError {
	return newError(ErrCodeUserNotFound, ErrUserNotFound,
		fmt.Sprintf("user %q not found", name), nil).
		WithContext("user", name)
}

// Communication Error constructors

// NewTransportError creates an LMS transport error.
func NewTransportError(endpoint string, cause error) *LearnqError {
	e := newError(ErrCodeTransport, ErrTransport,
		fmt.Sprintf("request to %s failed", endpoint), cause).
		WithContext("endpoint", endpoint)
	e.IsRetryable = true
	return e
}

// NewTranslationTransportError creates an LLM transport error.
func NewTranslationTransportError(operation string, cause error) *LearnqError {
	e := newError(ErrCodeTranslationTransport, ErrTranslationTransport,
		fmt.Sprintf("%s request to the model failed", operation), cause).
		WithContext("operation", operation)
	e.IsRetryable = true
	return e
}

// IsRetryableError checks if an error is retryable.
func IsRetryableError(err error) bool {
	var lqErr *LearnqError
	if errors.As(err, &lqErr) {
		return lqErr.IsRetryable
	}
	return false
}

// CodeOf returns the error code of err, or ErrCodeUnknown.
func CodeOf(err error) ErrorCode {
	var lqErr *LearnqError
	if errors.As(err, &lqErr) {
		return lqErr.Code
	}
	return ErrCodeUnknown
}
