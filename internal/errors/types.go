// Package errors provides the structured error type used across stylesync.
//
// Errors carry a category (Type), a stable machine readable Code and an
// optional cause. Callers branch on codes with errors.Is against the
// sentinel values below or with the Is* helpers.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeStyle      ErrorType = "style"
	ErrorTypeTarget     ErrorType = "target"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// StyleError is a structured error type with context.
type StyleError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	Consumer    string
	FilePath    string
	Line        int
	Recoverable bool
}

// Error implements the error interface.
func (e *StyleError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Consumer != "" {
		parts = append(parts, "consumer:"+e.Consumer)
	}

	if e.FilePath != "" {
		location := e.FilePath
		if e.Line > 0 {
			location += fmt.Sprintf(":%d", e.Line)
		}
		parts = append(parts, location)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *StyleError) Unwrap() error {
	return e.Cause
}

// Is matches on type and code, so sentinels like ErrAdoptionMismatch work
// with errors.Is.
func (e *StyleError) Is(target error) bool {
	var t *StyleError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *StyleError) WithContext(key string, value interface{}) *StyleError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithLocation adds file location information.
func (e *StyleError) WithLocation(filePath string, line int) *StyleError {
	e.FilePath = filePath
	e.Line = line

	return e
}

// WithConsumer adds consumer context.
func (e *StyleError) WithConsumer(consumer string) *StyleError {
	e.Consumer = consumer

	return e
}

// Common error codes.
const (
	ErrCodeAdoptionMismatch = "ERR_ADOPTION_MISMATCH"
	ErrCodeTargetWrite      = "ERR_TARGET_WRITE"
	ErrCodeTargetDiscover   = "ERR_TARGET_DISCOVER"
	ErrCodeStyleFile        = "ERR_STYLE_FILE"
	ErrCodeConsumerNotFound = "ERR_CONSUMER_NOT_FOUND"
	ErrCodeConsumerConflict = "ERR_CONSUMER_CONFLICT"
	ErrCodeConfigInvalid    = "ERR_CONFIG_INVALID"
	ErrCodeFileNotFound     = "ERR_FILE_NOT_FOUND"
	ErrCodeInvalidPath      = "ERR_INVALID_PATH"
	ErrCodeInternalError    = "ERR_INTERNAL"
)

// Sentinels for errors.Is.
var (
	ErrAdoptionMismatch = &StyleError{Type: ErrorTypeTarget, Code: ErrCodeAdoptionMismatch}
	ErrTargetWrite      = &StyleError{Type: ErrorTypeTarget, Code: ErrCodeTargetWrite}
	ErrStyleFile        = &StyleError{Type: ErrorTypeStyle, Code: ErrCodeStyleFile}
	ErrConsumerNotFound = &StyleError{Type: ErrorTypeValidation, Code: ErrCodeConsumerNotFound}
	ErrConsumerConflict = &StyleError{Type: ErrorTypeValidation, Code: ErrCodeConsumerConflict}
)

// Error creation functions

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *StyleError {
	return &StyleError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewStyleError creates an error about a style source.
func NewStyleError(code, message string, cause error) *StyleError {
	return &StyleError{
		Type:        ErrorTypeStyle,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewTargetError creates a render target error. Target errors mean the
// bookkeeping and the physical output may have drifted, so they are not
// recoverable.
func NewTargetError(code, message string, cause error) *StyleError {
	return &StyleError{
		Type:        ErrorTypeTarget,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *StyleError {
	return &StyleError{
		Type:        ErrorTypeIO,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *StyleError {
	return &StyleError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *StyleError {
	return &StyleError{
		Type:        ErrorTypeInternal,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var se *StyleError
	if errors.As(err, &se) {
		return se.Recoverable
	}

	return false
}

// IsTargetError checks if an error came from a render target.
func IsTargetError(err error) bool {
	var se *StyleError
	if errors.As(err, &se) {
		return se.Type == ErrorTypeTarget
	}

	return false
}

// IsStyleError checks if an error is about a style source.
func IsStyleError(err error) bool {
	var se *StyleError
	if errors.As(err, &se) {
		return se.Type == ErrorTypeStyle
	}

	return false
}

// ErrorHandler provides centralized error handling.
type ErrorHandler struct {
	logger Logger
}

// Logger interface for error logging.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs err at a level chosen by its type.
func (h *ErrorHandler) Handle(ctx context.Context, err error) {
	if err == nil || h.logger == nil {
		return
	}

	var se *StyleError
	if !errors.As(err, &se) {
		h.logger.Error(ctx, err, "Unhandled error occurred")
		return
	}

	switch se.Type {
	case ErrorTypeStyle, ErrorTypeValidation:
		h.logger.Warn(ctx, err, "Style error occurred",
			"type", se.Type,
			"code", se.Code,
			"consumer", se.Consumer,
			"file", se.FilePath)
	default:
		h.logger.Error(ctx, err, "Error occurred",
			"type", se.Type,
			"code", se.Code,
			"consumer", se.Consumer)
	}
}

// ErrAdoption reports drift between recovered ids and recovered rule text.
func ErrAdoption(container string, ids, segments int) *StyleError {
	return NewTargetError(
		ErrCodeAdoptionMismatch,
		fmt.Sprintf("container %s lists %d rule ids but holds %d rule segments", container, ids, segments),
		nil,
	).WithContext("container", container).WithContext("ids", ids).WithContext("segments", segments)
}

// ErrConsumer reports an unknown consumer name.
func ErrConsumer(name string) *StyleError {
	return NewValidationError(ErrCodeConsumerNotFound, "consumer not found: "+name).WithConsumer(name)
}

// ErrConsumerClash reports a style file whose consumer name is already
// mounted from another file.
func ErrConsumerClash(name, owner, path string) *StyleError {
	return NewValidationError(
		ErrCodeConsumerConflict,
		fmt.Sprintf("consumer %s is already loaded from %s", name, owner),
	).WithConsumer(name).WithLocation(path, 0).WithContext("owner", owner)
}
