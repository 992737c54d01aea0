package api

import (
	"errors"
	"fmt"
	"net/http"

	"crypto-dash/internal/domain"
)

// httpStatusFromDomainError maps domain errors to HTTP status codes. Failures
// of the query pipeline are server errors regardless of what they wrap.
func httpStatusFromDomainError(err error) int {
	var (
		submission *domain.SubmissionError
		terminal   *domain.PollTerminalFailure
		status     *domain.StatusCheckError
		timeout    *domain.TimeoutError
		fetch      *domain.FetchError
		validation *domain.ValidationError
		notFound   *domain.NotFoundError
	)

	switch {
	case errors.As(err, &submission), errors.As(err, &terminal), errors.As(err, &status),
		errors.As(err, &timeout), errors.As(err, &fetch):
		return http.StatusInternalServerError
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage returns the short message sent to clients. Engine detail
// beyond the terminal state and reason stays in the logs.
func publicMessage(err error) string {
	var (
		submission *domain.SubmissionError
		terminal   *domain.PollTerminalFailure
		status     *domain.StatusCheckError
		timeout    *domain.TimeoutError
		fetch      *domain.FetchError
		validation *domain.ValidationError
	)

	switch {
	case errors.As(err, &submission):
		return "failed to submit query"
	case errors.As(err, &terminal):
		if terminal.Reason == "" {
			return fmt.Sprintf("query %s", terminal.State)
		}
		return fmt.Sprintf("query %s: %s", terminal.State, terminal.Reason)
	case errors.As(err, &timeout):
		return "query timed out"
	case errors.As(err, &status):
		return "failed to check query status"
	case errors.As(err, &fetch):
		return "failed to fetch query results"
	case errors.As(err, &validation):
		return validation.Message
	default:
		return "internal server error"
	}
}
