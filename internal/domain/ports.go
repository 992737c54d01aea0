package domain

import "context"

// QuerySubmission carries everything the engine needs to start a job.
type QuerySubmission struct {
	Query          string
	Database       string
	OutputLocation string
}

// QueryEngine is a remote, non-blocking analytical query engine.
//
// GetResults returns the header row followed by data rows, every cell as text.
type QueryEngine interface {
	SubmitQuery(ctx context.Context, sub QuerySubmission) (string, error)
	GetJobStatus(ctx context.Context, jobID string) (JobStatus, error)
	GetResults(ctx context.Context, jobID string) ([][]string, error)
}
