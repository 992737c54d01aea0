// Package api provides the HTTP handlers of the price dashboard API.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"crypto-dash/internal/domain"
	"crypto-dash/internal/middleware"
)

// PriceFetcher answers daily price queries.
type PriceFetcher interface {
	DailyPrices(ctx context.Context, rawDays string) ([]domain.PriceRow, error)
}

// Handler serves the public endpoints.
type Handler struct {
	prices PriceFetcher
	engine string
	logger *slog.Logger
	responder
}

// NewHandler creates a Handler. engine names the configured query engine and
// is reported by the health endpoint.
func NewHandler(prices PriceFetcher, engine string, logger *slog.Logger, allowAnyOrigin bool) *Handler {
	return &Handler{
		prices:    prices,
		engine:    engine,
		logger:    logger,
		responder: responder{anyOrigin: allowAnyOrigin},
	}
}

// GetCrypto implements GET /crypto?days=N.
func (h *Handler) GetCrypto(w http.ResponseWriter, r *http.Request) {
	rows, err := h.prices.DailyPrices(r.Context(), r.URL.Query().Get("days"))
	if err != nil {
		h.logFailure(r, err)
		h.writeError(w, err)
		return
	}
	h.writeData(w, rows)
}

// GetHealth implements GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "engine": h.engine})
}

func (h *Handler) logFailure(r *http.Request, err error) {
	attrs := []any{
		"request_id", middleware.RequestIDFromContext(r.Context()),
		"days", r.URL.Query().Get("days"),
		"error", err,
	}

	var (
		terminal *domain.PollTerminalFailure
		status   *domain.StatusCheckError
		timeout  *domain.TimeoutError
		fetch    *domain.FetchError
	)
	switch {
	case errors.As(err, &terminal):
		attrs = append(attrs, "job_id", terminal.JobID, "state", terminal.State, "reason", terminal.Reason)
	case errors.As(err, &status):
		attrs = append(attrs, "job_id", status.JobID)
	case errors.As(err, &timeout):
		attrs = append(attrs, "job_id", timeout.JobID, "elapsed_ms", timeout.Elapsed.Milliseconds())
	case errors.As(err, &fetch):
		attrs = append(attrs, "job_id", fetch.JobID)
	}
	h.logger.Error("price query failed", attrs...)
}
