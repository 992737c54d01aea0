// Package domain defines core types, interfaces, and errors for the price query service.
package domain

import (
	"fmt"
	"time"
)

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// SubmissionError indicates the query engine rejected or failed to accept a job.
type SubmissionError struct {
	Cause error
}

func (e *SubmissionError) Error() string {
	if e.Cause == nil {
		return "submit query: engine returned no job id"
	}
	return fmt.Sprintf("submit query: %v", e.Cause)
}

func (e *SubmissionError) Unwrap() error { return e.Cause }

// PollTerminalFailure indicates the engine reported a terminal state other than success.
type PollTerminalFailure struct {
	JobID  string
	State  QueryJobState
	Reason string
}

func (e *PollTerminalFailure) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("query %s %s", e.JobID, e.State)
	}
	return fmt.Sprintf("query %s %s: %s", e.JobID, e.State, e.Reason)
}

// StatusCheckError indicates the status of a job could not be read after retries.
type StatusCheckError struct {
	JobID string
	Cause error
}

func (e *StatusCheckError) Error() string {
	return fmt.Sprintf("check status of query %s: %v", e.JobID, e.Cause)
}

func (e *StatusCheckError) Unwrap() error { return e.Cause }

// TimeoutError indicates a job did not reach a terminal state before the deadline.
type TimeoutError struct {
	JobID   string
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("query %s timed out after %s", e.JobID, e.Elapsed.Round(time.Millisecond))
}

// FetchError indicates result retrieval failed after the job succeeded.
type FetchError struct {
	JobID string
	Cause error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch results of query %s: %v", e.JobID, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }
