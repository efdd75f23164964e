package app

import (
	"errors"
	"fmt"
)

// ErrBusy is returned when a request is already in flight.
var ErrBusy = errors.New("a request is already in progress")

// ConfigurationError stops a request before it starts: no enabled agents
// or no API key for the selected model.
type ConfigurationError struct {
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string { return e.Message }

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ExecutionError is returned when every attempt failed or a failure was
// not retriable.
type ExecutionError struct {
	Attempts int
	Log      []AttemptRecord
	Err      error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("Error after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
