package errors

import (
	"errors"
	"fmt"
)

// Pipeline errors. Failures inside the fetcher and batch executor are
// converted into structured results; these sentinels classify them.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrAccessDenied     = errors.New("access denied")
	ErrInvalidMedia     = errors.New("invalid media response")
	ErrSizeExceeded     = errors.New("media size exceeds limit")
	ErrShuttingDown     = errors.New("shutting down")
	ErrNoCandidates     = errors.New("no candidate urls")
	ErrCacheUnavailable = errors.New("cache directory unavailable")
)

// Error represents a custom error type
type Error struct {
	Code    string
	Message string
	Err     error
}

// Error returns the error message
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new error with a message
func New(message string) error {
	return &Error{
		Message: message,
	}
}

// Wrap wraps an error with additional message
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		Message: message,
		Err:     err,
	}
}

// WrapWithCode wraps an error with a code and message
func WrapWithCode(err error, code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// GetCode returns the error code if it exists
func GetCode(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsAccessDenied returns true if the error is an access denied error
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}

// IsInvalidMedia returns true if the error marks a non-media response
func IsInvalidMedia(err error) bool {
	return errors.Is(err, ErrInvalidMedia)
}

// IsSizeExceeded returns true if the error is a size policy violation
func IsSizeExceeded(err error) bool {
	return errors.Is(err, ErrSizeExceeded)
}

// IsShuttingDown returns true if the error was caused by shutdown
func IsShuttingDown(err error) bool {
	return errors.Is(err, ErrShuttingDown)
}
