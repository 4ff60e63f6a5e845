package domain

import (
	"fmt"
	"runtime/debug"
)

// PanicError carries a panic recovered by SafeFunctionRun.
type PanicError struct {
	Value interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// SafeFunctionRun executes fn and turns a panic into a *PanicError, so a broken
// collaborator (such as a renderer) cannot take the process down.
func SafeFunctionRun(fn func() error, logger Logger) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &PanicError{Value: rec}
			logger.Error("panic: %v\n%s", rec, debug.Stack())
		}
	}()
	return fn()
}
