package errors

import (
	"errors"
)

// Wrap wraps an error with additional context, creating a StyleError if the input is not already one
func Wrap(err error, errType ErrorType, code, message string) *StyleError {
	if err == nil {
		return nil
	}

	var se *StyleError
	if errors.As(err, &se) {
		return &StyleError{
			Type:        errType,
			Code:        code,
			Message:     message,
			Cause:       se,
			Context:     se.Context,
			Consumer:    se.Consumer,
			FilePath:    se.FilePath,
			Line:        se.Line,
			Recoverable: se.Recoverable,
		}
	}

	return &StyleError{
		Type:        errType,
		Code:        code,
		Message:     message,
		Cause:       err,
		Recoverable: errType == ErrorTypeValidation || errType == ErrorTypeStyle,
	}
}

// WrapStyle wraps an error raised while loading a style source.
func WrapStyle(err error, path string) *StyleError {
	styleErr := Wrap(err, ErrorTypeStyle, ErrCodeStyleFile, "cannot load style file")
	if styleErr != nil {
		styleErr.FilePath = path
	}
	return styleErr
}

// WrapTarget wraps a render target failure (non-recoverable)
func WrapTarget(err error, code, message string) *StyleError {
	styleErr := Wrap(err, ErrorTypeTarget, code, message)
	if styleErr != nil {
		styleErr.Recoverable = false
	}
	return styleErr
}

// WrapIO wraps an error as an I/O error
func WrapIO(err error, code, message string) *StyleError {
	styleErr := Wrap(err, ErrorTypeIO, code, message)
	if styleErr != nil {
		styleErr.Recoverable = false
	}
	return styleErr
}

// WrapConfig wraps an error as a configuration error
func WrapConfig(err error, code, message string) *StyleError {
	styleErr := Wrap(err, ErrorTypeConfig, code, message)
	if styleErr != nil {
		styleErr.Recoverable = false
	}
	return styleErr
}

// FormatError formats an error for user display
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// GetErrorContext extracts context information from a StyleError
func GetErrorContext(err error) map[string]interface{} {
	var se *StyleError
	if errors.As(err, &se) {
		context := make(map[string]interface{})
		for k, v := range se.Context {
			context[k] = v
		}
		if se.Consumer != "" {
			context["consumer"] = se.Consumer
		}
		if se.FilePath != "" {
			context["file"] = se.FilePath
			if se.Line > 0 {
				context["line"] = se.Line
			}
		}
		context["type"] = string(se.Type)
		context["code"] = se.Code
		context["recoverable"] = se.Recoverable
		return context
	}

	return map[string]interface{}{
		"message": err.Error(),
		"type":    "unknown",
	}
}

// IsFatalError checks if an error is fatal and should stop execution
func IsFatalError(err error) bool {
	var se *StyleError
	if errors.As(err, &se) {
		return se.Type == ErrorTypeTarget || se.Type == ErrorTypeInternal
	}
	return false
}

// ExtractCause extracts the root cause from a wrapped error
func ExtractCause(err error) error {
	for err != nil {
		var se *StyleError
		if !errors.As(err, &se) {
			return err
		}
		if se.Cause == nil {
			return se
		}
		err = se.Cause
	}
	return nil
}
