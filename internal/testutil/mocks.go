// Package testutil provides shared mock implementations of domain interfaces
// for use in tests across the codebase. This follows the Go convention of a
// shared test utility package (like net/http/httptest).
package testutil

import (
	"context"
	"sync"

	"crypto-dash/internal/domain"
)

// === Query Engine Mock ===

// MockQueryEngine implements domain.QueryEngine for testing. Calls without a
// matching Fn panic so unexpected engine traffic fails the test loudly.
type MockQueryEngine struct {
	SubmitQueryFn  func(ctx context.Context, sub domain.QuerySubmission) (string, error)
	GetJobStatusFn func(ctx context.Context, jobID string) (domain.JobStatus, error)
	GetResultsFn   func(ctx context.Context, jobID string) ([][]string, error)

	mu           sync.Mutex
	Submissions  []domain.QuerySubmission
	StatusCalls  int
	ResultsCalls int
}

// SubmitQuery implements the interface method for testing.
func (m *MockQueryEngine) SubmitQuery(ctx context.Context, sub domain.QuerySubmission) (string, error) {
	m.mu.Lock()
	m.Submissions = append(m.Submissions, sub)
	m.mu.Unlock()
	if m.SubmitQueryFn != nil {
		return m.SubmitQueryFn(ctx, sub)
	}
	panic("unexpected call to MockQueryEngine.SubmitQuery")
}

// GetJobStatus implements the interface method for testing.
func (m *MockQueryEngine) GetJobStatus(ctx context.Context, jobID string) (domain.JobStatus, error) {
	m.mu.Lock()
	m.StatusCalls++
	m.mu.Unlock()
	if m.GetJobStatusFn != nil {
		return m.GetJobStatusFn(ctx, jobID)
	}
	panic("unexpected call to MockQueryEngine.GetJobStatus")
}

// GetResults implements the interface method for testing.
func (m *MockQueryEngine) GetResults(ctx context.Context, jobID string) ([][]string, error) {
	m.mu.Lock()
	m.ResultsCalls++
	m.mu.Unlock()
	if m.GetResultsFn != nil {
		return m.GetResultsFn(ctx, jobID)
	}
	panic("unexpected call to MockQueryEngine.GetResults")
}

// Counts returns the number of status and result calls made so far.
func (m *MockQueryEngine) Counts() (status, results int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.StatusCalls, m.ResultsCalls
}

var _ domain.QueryEngine = (*MockQueryEngine)(nil)

// StatusSequence returns a GetJobStatusFn that reports the given states in
// order and repeats the last one once the script runs out.
func StatusSequence(states ...domain.QueryJobState) func(context.Context, string) (domain.JobStatus, error) {
	var mu sync.Mutex
	i := 0
	return func(_ context.Context, _ string) (domain.JobStatus, error) {
		mu.Lock()
		defer mu.Unlock()
		st := states[min(i, len(states)-1)]
		i++
		return domain.JobStatus{State: st}, nil
	}
}

// PriceResult builds a header-plus-rows result set for the price columns.
func PriceResult(rows ...[]string) [][]string {
	out := [][]string{{"date", "price_usd", "volume_usd"}}
	return append(out, rows...)
}
