package domain

import "time"

// QueryJobState represents the lifecycle state of a remote query job.
type QueryJobState string

// Query job lifecycle states. Engine adapters convert their raw status
// strings into one of these exactly once.
const (
	QueryJobStateRunning   QueryJobState = "RUNNING"
	QueryJobStateSucceeded QueryJobState = "SUCCEEDED"
	QueryJobStateFailed    QueryJobState = "FAILED"
	QueryJobStateCancelled QueryJobState = "CANCELLED"
	QueryJobStateUnknown   QueryJobState = "UNKNOWN"
)

// IsTerminal reports whether no further transition follows this state.
func (s QueryJobState) IsTerminal() bool {
	return s != QueryJobStateRunning
}

// JobStatus is a single observation of a job's state.
type JobStatus struct {
	State  QueryJobState
	Reason string
}

// QueryJob tracks one submitted query for the lifetime of a request.
type QueryJob struct {
	ID            string
	QueryText     string
	State         QueryJobState
	FailureReason string
	StatusChecks  int
	SubmittedAt   time.Time
}

// Observe records a status observation on the job.
func (j *QueryJob) Observe(st JobStatus) {
	j.StatusChecks++
	j.State = st.State
	j.FailureReason = st.Reason
}
