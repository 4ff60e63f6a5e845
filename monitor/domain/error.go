package domain

import (
	"errors"
	"fmt"
)

// ErrValidation is a sentinel error used to indicate validation failures.
// This error should be wrapped with additional context using fmt.Errorf
// to provide specific details about what validation failed.
var ErrValidation = errors.New("validation failed")

var (
	// ErrConnection means the sensor source could not be opened or was lost.
	ErrConnection = errors.New("sensor connection error")
	// ErrLogLoad means the durable log exists but cannot be loaded.
	ErrLogLoad = errors.New("durable log load error")
	// ErrRowCoercion marks a stored value that was replaced by zero on load.
	ErrRowCoercion = errors.New("row value coerced to zero")
	// ErrParse marks a sensor line that could not be turned into a reading.
	ErrParse = errors.New("line parse error")
	// ErrPersistence means a reading could not be appended to the durable log.
	ErrPersistence = errors.New("persistence error")
	// ErrRender means the visualization export failed.
	ErrRender = errors.New("render error")
	// ErrReadTimeout is returned by a LineSource when no complete line arrived in time.
	ErrReadTimeout = errors.New("read timeout")
)

// ParseError describes why a raw sensor line was rejected.
type ParseError struct {
	Line   string
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (line %q): %v", ErrParse, e.Reason, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %s (line %q)", ErrParse, e.Reason, e.Line)
}

// Unwrap returns the underlying conversion error, if any.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is makes every ParseError match ErrParse.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// IsFatal reports whether err belongs to a kind that must stop the process.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConnection) || errors.Is(err, ErrLogLoad)
}
