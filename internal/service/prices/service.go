// Package prices answers daily price queries by running them as jobs on the
// remote query engine.
package prices

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"crypto-dash/internal/domain"
	"crypto-dash/internal/metrics"
)

// Settings is the static configuration of a PriceService.
type Settings struct {
	Table              string
	Database           string
	OutputLocation     string
	PollInterval       time.Duration
	QueryTimeout       time.Duration
	StatusCheckRetries int
}

// PriceService runs the validate, build, submit, poll, fetch and map pipeline
// for one request at a time. It holds no per-request state.
type PriceService struct {
	engine   domain.QueryEngine
	settings Settings
	poller   *Poller
	mapper   RowMapper
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewPriceService creates a PriceService. m may be nil.
func NewPriceService(eng domain.QueryEngine, settings Settings, logger *slog.Logger, m *metrics.Metrics) *PriceService {
	s := &PriceService{
		engine:   eng,
		settings: settings,
		poller:   NewPoller(eng, settings.PollInterval, settings.StatusCheckRetries, logger),
		logger:   logger,
		metrics:  m,
		now:      time.Now,
	}
	s.mapper = RowMapper{OnMalformed: s.reportMalformed}
	return s
}

// DailyPrices returns one aggregated row per day for the window named by
// rawDays. Any failure returns no rows.
func (s *PriceService) DailyPrices(ctx context.Context, rawDays string) ([]domain.PriceRow, error) {
	days, defaulted := ResolveRange(rawDays)
	if defaulted {
		s.logger.Debug("range parameter defaulted", "raw", rawDays, "days", days)
	}

	q := PriceQuery{Table: s.settings.Table, Days: days}
	job := &domain.QueryJob{QueryText: q.SQL(), State: domain.QueryJobStateRunning}

	if s.settings.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.settings.QueryTimeout)
		defer cancel()
	}

	id, err := s.engine.SubmitQuery(ctx, domain.QuerySubmission{
		Query:          job.QueryText,
		Database:       s.settings.Database,
		OutputLocation: s.settings.OutputLocation,
	})
	if err != nil || strings.TrimSpace(id) == "" {
		s.metrics.ObserveJob(metrics.OutcomeSubmitFailed, 0)
		return nil, &domain.SubmissionError{Cause: err}
	}
	job.ID = id
	job.SubmittedAt = s.now()

	log := s.logger.With("job_id", job.ID, "days", days)
	log.Info("query submitted", "window_start", q.Threshold(job.SubmittedAt).Format(time.DateOnly))

	if err := s.poller.Wait(ctx, job); err != nil {
		s.metrics.ObserveJob(outcomeOf(err), job.StatusChecks)
		return nil, err
	}

	raw, err := s.engine.GetResults(ctx, job.ID)
	if err != nil {
		s.metrics.ObserveJob(metrics.OutcomeFetchFailed, job.StatusChecks)
		return nil, &domain.FetchError{JobID: job.ID, Cause: err}
	}

	rows := s.mapper.Map(raw)
	s.metrics.ObserveJob(metrics.OutcomeSucceeded, job.StatusChecks)
	log.Info("query completed",
		"status_checks", job.StatusChecks,
		"rows", len(rows),
		"elapsed_ms", s.now().Sub(job.SubmittedAt).Milliseconds(),
	)
	return rows, nil
}

func (s *PriceService) reportMalformed(c MalformedCell) {
	s.logger.Warn("malformed result cell coerced to zero",
		"row", c.Row, "column", c.Column, "value", c.Value, "reason", c.Reason)
	s.metrics.MalformedCell(c.Column, c.Reason)
}

func outcomeOf(err error) string {
	var (
		terminal *domain.PollTerminalFailure
		timeout  *domain.TimeoutError
		status   *domain.StatusCheckError
	)
	switch {
	case errors.As(err, &terminal):
		return metrics.OutcomeTerminalFailure
	case errors.As(err, &timeout):
		return metrics.OutcomeTimedOut
	case errors.As(err, &status):
		return metrics.OutcomeStatusFailed
	default:
		return metrics.OutcomeCanceled
	}
}
