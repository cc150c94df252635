package jobs

import (
	"errors"
	"fmt"
)

// ErrEngineUnavailable is returned when the background runner cannot accept work.
var ErrEngineUnavailable = errors.New("processing engine not available")

// ErrStaleJob is returned when an update targets a job that is no longer current.
var ErrStaleJob = errors.New("job is no longer current")

// ErrInvalidTransition is returned when a status change is not allowed from the current state.
var ErrInvalidTransition = errors.New("invalid transition")

// ErrorKind classifies failures reported to the presentation layer.
type ErrorKind string

const (
	ErrorKindValidation        ErrorKind = "validation"
	ErrorKindExecution         ErrorKind = "execution"
	ErrorKindEngineUnavailable ErrorKind = "engine_unavailable"
)

// ValidationError rejects a submission before any job is created.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error formats the offending field and reason.
func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ExecutionError reports a failure while a job was running.
type ExecutionError struct {
	JobID string `json:"jobId"`
	Err   error  `json:"-"`
}

// Error formats the failed job and its cause.
func (e *ExecutionError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("job %s failed: %v", e.JobID, e.Err)
}

// Unwrap exposes underlying error for errors.Is / errors.As.
func (e *ExecutionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// KindOf maps an error to the kind shown to users.
func KindOf(err error) ErrorKind {
	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr):
		return ErrorKindValidation
	case errors.Is(err, ErrEngineUnavailable):
		return ErrorKindEngineUnavailable
	default:
		return ErrorKindExecution
	}
}
