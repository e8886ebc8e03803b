package models

import "fmt"

// ErrorType represents different categories of errors
type ErrorType int

const (
	ErrInvalidConfig ErrorType = iota
	ErrNetwork
	ErrNotFound
	ErrUnsupportedFormat
	ErrSubprocess
	ErrFileOp
)

// String returns the string representation of ErrorType
func (e ErrorType) String() string {
	switch e {
	case ErrInvalidConfig:
		return "InvalidConfig"
	case ErrNetwork:
		return "Network"
	case ErrNotFound:
		return "NotFound"
	case ErrUnsupportedFormat:
		return "UnsupportedFormat"
	case ErrSubprocess:
		return "Subprocess"
	case ErrFileOp:
		return "FileOp"
	default:
		return "Unknown"
	}
}

// FetchError represents an error during a fetch run
type FetchError struct {
	Type   ErrorType
	Detail string
	Err    error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Detail, e.Err)
	}
	return fmt.Sprintf("[%s] %v", e.Type, e.Err)
}

// Unwrap returns the wrapped error
func (e *FetchError) Unwrap() error {
	return e.Err
}
