package prices

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crypto-dash/internal/domain"
	"crypto-dash/internal/testutil"
)

var discard = slog.New(slog.DiscardHandler)

func newJob(id string) *domain.QueryJob {
	return &domain.QueryJob{ID: id, State: domain.QueryJobStateRunning, SubmittedAt: time.Now()}
}

func TestPoller_RunsUntilSucceeded(t *testing.T) {
	t.Parallel()

	eng := &testutil.MockQueryEngine{GetJobStatusFn: testutil.StatusSequence(
		domain.QueryJobStateRunning, domain.QueryJobStateRunning, domain.QueryJobStateSucceeded,
	)}
	interval := 20 * time.Millisecond
	p := NewPoller(eng, interval, 0, discard)

	job := newJob("job-1")
	start := time.Now()
	require.NoError(t, p.Wait(context.Background(), job))

	status, results := eng.Counts()
	assert.Equal(t, 3, status)
	assert.Equal(t, 0, results)
	assert.Equal(t, 3, job.StatusChecks)
	assert.Equal(t, domain.QueryJobStateSucceeded, job.State)
	assert.GreaterOrEqual(t, time.Since(start), 2*interval, "expected a wait between each check")
}

func TestPoller_ImmediateSuccessDoesNotWait(t *testing.T) {
	t.Parallel()

	eng := &testutil.MockQueryEngine{GetJobStatusFn: testutil.StatusSequence(domain.QueryJobStateSucceeded)}
	p := NewPoller(eng, time.Hour, 0, discard)

	job := newJob("job-fast")
	require.NoError(t, p.Wait(context.Background(), job))
	assert.Equal(t, 1, job.StatusChecks)
}

func TestPoller_TerminalFailures(t *testing.T) {
	t.Parallel()

	for _, state := range []domain.QueryJobState{
		domain.QueryJobStateFailed, domain.QueryJobStateCancelled, domain.QueryJobStateUnknown,
	} {
		t.Run(string(state), func(t *testing.T) {
			t.Parallel()

			calls := 0
			eng := &testutil.MockQueryEngine{GetJobStatusFn: func(context.Context, string) (domain.JobStatus, error) {
				calls++
				if calls == 1 {
					return domain.JobStatus{State: domain.QueryJobStateRunning}, nil
				}
				return domain.JobStatus{State: state, Reason: "SYNTAX_ERROR: line 1:8"}, nil
			}}
			p := NewPoller(eng, time.Millisecond, 0, discard)

			job := newJob("job-2")
			err := p.Wait(context.Background(), job)

			var failure *domain.PollTerminalFailure
			require.ErrorAs(t, err, &failure)
			assert.Equal(t, "job-2", failure.JobID)
			assert.Equal(t, state, failure.State)
			assert.Equal(t, "SYNTAX_ERROR: line 1:8", failure.Reason)
			assert.Contains(t, err.Error(), string(state))
			assert.Equal(t, 2, calls)
			assert.Equal(t, state, job.State)
			assert.Equal(t, "SYNTAX_ERROR: line 1:8", job.FailureReason)
		})
	}
}

func TestPoller_DeadlineBecomesTimeout(t *testing.T) {
	t.Parallel()

	eng := &testutil.MockQueryEngine{GetJobStatusFn: testutil.StatusSequence(domain.QueryJobStateRunning)}
	p := NewPoller(eng, 5*time.Millisecond, 0, discard)

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()

	job := newJob("job-stuck")
	err := p.Wait(ctx, job)

	var timeout *domain.TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, "job-stuck", timeout.JobID)
	assert.Greater(t, job.StatusChecks, 1)
}

func TestPoller_CallerCancellationAbandonsJob(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eng := &testutil.MockQueryEngine{GetJobStatusFn: testutil.StatusSequence(domain.QueryJobStateRunning)}
	p := NewPoller(eng, time.Hour, 0, discard)

	done := make(chan error, 1)
	go func() { done <- p.Wait(ctx, newJob("job-3")) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		var timeout *domain.TimeoutError
		assert.False(t, errors.As(err, &timeout))
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after cancellation")
	}
}

func TestPoller_RetriesTransientStatusErrors(t *testing.T) {
	t.Parallel()

	calls := 0
	eng := &testutil.MockQueryEngine{GetJobStatusFn: func(context.Context, string) (domain.JobStatus, error) {
		calls++
		if calls <= 2 {
			return domain.JobStatus{}, errors.New("connection reset by peer")
		}
		return domain.JobStatus{State: domain.QueryJobStateSucceeded}, nil
	}}
	p := NewPoller(eng, time.Millisecond, 2, discard)

	job := newJob("job-4")
	require.NoError(t, p.Wait(context.Background(), job))
	assert.Equal(t, 3, calls)
	assert.Equal(t, 1, job.StatusChecks, "retries are not extra observations")
}

func TestPoller_StatusErrorAfterRetries(t *testing.T) {
	t.Parallel()

	calls := 0
	eng := &testutil.MockQueryEngine{GetJobStatusFn: func(context.Context, string) (domain.JobStatus, error) {
		calls++
		return domain.JobStatus{}, errors.New("throttled")
	}}
	p := NewPoller(eng, time.Millisecond, 2, discard)

	err := p.Wait(context.Background(), newJob("job-5"))

	var statusErr *domain.StatusCheckError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, "job-5", statusErr.JobID)
	assert.Contains(t, err.Error(), "throttled")
	assert.Equal(t, 3, calls)
}

func TestPoller_UnknownJobIsNotRetried(t *testing.T) {
	t.Parallel()

	calls := 0
	eng := &testutil.MockQueryEngine{GetJobStatusFn: func(context.Context, string) (domain.JobStatus, error) {
		calls++
		return domain.JobStatus{}, domain.ErrNotFound("query job %q not found", "job-6")
	}}
	p := NewPoller(eng, time.Millisecond, 5, discard)

	err := p.Wait(context.Background(), newJob("job-6"))

	var statusErr *domain.StatusCheckError
	require.ErrorAs(t, err, &statusErr)
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
	assert.Equal(t, 1, calls)
}

func TestNewPoller_NonPositiveIntervalUsesDefault(t *testing.T) {
	t.Parallel()

	for _, interval := range []time.Duration{0, -time.Second} {
		calls := 0
		eng := &testutil.MockQueryEngine{GetJobStatusFn: func(context.Context, string) (domain.JobStatus, error) {
			calls++
			if calls == 1 {
				return domain.JobStatus{}, errors.New("connection reset by peer")
			}
			return domain.JobStatus{State: domain.QueryJobStateSucceeded}, nil
		}}
		p := NewPoller(eng, interval, 1, discard)
		assert.Equal(t, DefaultPollInterval, p.interval)

		require.NotPanics(t, func() {
			require.NoError(t, p.Wait(context.Background(), newJob("job-default")))
		})
		assert.Equal(t, 2, calls)
	}
}
