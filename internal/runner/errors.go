package runner

import (
	"errors"
	"fmt"
)

var (
	// ErrToolNotFound is returned when no apollo executable exists under the CLI directory
	ErrToolNotFound = errors.New("apollo executable not found")

	// ErrToolExecutionFailed matches any *ExecutionError
	ErrToolExecutionFailed = errors.New("apollo exited with a non-zero status")

	// ErrToolTimedOut is returned when the tool does not exit before the timeout elapses
	ErrToolTimedOut = errors.New("apollo timed out")
)

// ExecutionError carries the exit code and combined output of a failed run
type ExecutionError struct {
	ExitCode int
	Output   string
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("%s: exit code %d", ErrToolExecutionFailed, e.ExitCode)
	}
	return fmt.Sprintf("%s: exit code %d\n%s", ErrToolExecutionFailed, e.ExitCode, e.Output)
}

// Is reports whether target is ErrToolExecutionFailed
func (e *ExecutionError) Is(target error) bool {
	return target == ErrToolExecutionFailed
}

// TimeoutError carries whatever the tool printed before it was killed
type TimeoutError struct {
	Output string
}

func (e *TimeoutError) Error() string {
	if e.Output == "" {
		return ErrToolTimedOut.Error()
	}
	return ErrToolTimedOut.Error() + "\n" + e.Output
}

func (e *TimeoutError) Unwrap() error {
	return ErrToolTimedOut
}
