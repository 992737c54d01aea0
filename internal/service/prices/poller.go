package prices

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"crypto-dash/internal/domain"
)

// Poller drives a submitted job to a terminal state.
type Poller struct {
	engine   domain.QueryEngine
	interval time.Duration
	retries  uint64
	logger   *slog.Logger
}

// DefaultPollInterval is used when NewPoller is given a non-positive interval.
const DefaultPollInterval = 500 * time.Millisecond

// NewPoller creates a Poller that waits interval between status checks and
// retries a failing status check up to retries times.
func NewPoller(eng domain.QueryEngine, interval time.Duration, retries int, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if retries < 0 {
		retries = 0
	}
	return &Poller{engine: eng, interval: interval, retries: uint64(retries), logger: logger}
}

// Wait checks the job status until it is terminal. Checks are sequential and
// separated by the poll interval. It returns nil once the job succeeded,
// *domain.PollTerminalFailure for any other terminal state, and
// *domain.TimeoutError when ctx's deadline passes first. The remote job is
// abandoned, not stopped, when Wait returns early.
func (p *Poller) Wait(ctx context.Context, job *domain.QueryJob) error {
	for {
		st, err := p.check(ctx, job.ID)
		if err != nil {
			if ctxErr := abandoned(ctx, job); ctxErr != nil {
				return ctxErr
			}
			return &domain.StatusCheckError{JobID: job.ID, Cause: err}
		}

		job.Observe(st)
		p.logger.Debug("job status", "job_id", job.ID, "state", st.State, "check", job.StatusChecks)

		switch st.State {
		case domain.QueryJobStateSucceeded:
			return nil
		case domain.QueryJobStateRunning:
		default:
			return &domain.PollTerminalFailure{JobID: job.ID, State: st.State, Reason: st.Reason}
		}

		timer := time.NewTimer(p.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return abandoned(ctx, job)
		case <-timer.C:
		}
	}
}

// check reads the job status once, retrying transport failures. An unknown
// job id is not retried.
func (p *Poller) check(ctx context.Context, jobID string) (domain.JobStatus, error) {
	var st domain.JobStatus
	attempt := 0
	backoff := retry.WithMaxRetries(p.retries, retry.NewConstant(p.interval))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		got, err := p.engine.GetJobStatus(ctx, jobID)
		if err == nil {
			st = got
			return nil
		}
		var notFound *domain.NotFoundError
		if errors.As(err, &notFound) || ctx.Err() != nil {
			return err
		}
		p.logger.Warn("job status check failed", "job_id", jobID, "attempt", attempt, "error", err)
		return retry.RetryableError(err)
	})
	return st, err
}

// abandoned converts a finished context into the error Wait reports.
func abandoned(ctx context.Context, job *domain.QueryJob) error {
	switch err := ctx.Err(); {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return &domain.TimeoutError{JobID: job.ID, Elapsed: time.Since(job.SubmittedAt)}
	default:
		return fmt.Errorf("query %s abandoned: %w", job.ID, err)
	}
}
