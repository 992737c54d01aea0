// Package athena adapts Amazon Athena to the domain.QueryEngine port.
package athena

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awsathena "github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"crypto-dash/internal/config"
	"crypto-dash/internal/domain"
)

// API is the subset of the Athena client the engine calls.
type API interface {
	StartQueryExecution(ctx context.Context, in *awsathena.StartQueryExecutionInput, optFns ...func(*awsathena.Options)) (*awsathena.StartQueryExecutionOutput, error)
	GetQueryExecution(ctx context.Context, in *awsathena.GetQueryExecutionInput, optFns ...func(*awsathena.Options)) (*awsathena.GetQueryExecutionOutput, error)
	GetQueryResults(ctx context.Context, in *awsathena.GetQueryResultsInput, optFns ...func(*awsathena.Options)) (*awsathena.GetQueryResultsOutput, error)
}

var _ domain.QueryEngine = (*Engine)(nil)

// Engine runs queries on Athena. Results are read page by page through the
// Athena API, or downloaded as CSV from the job's S3 output when an
// ObjectGetter is configured.
type Engine struct {
	api       API
	objects   ObjectGetter
	workGroup string
	pageSize  int32
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkGroup runs every query in the named workgroup.
func WithWorkGroup(name string) Option {
	return func(e *Engine) { e.workGroup = name }
}

// WithS3Results reads finished result sets from S3 instead of GetQueryResults.
func WithS3Results(objects ObjectGetter) Option {
	return func(e *Engine) { e.objects = objects }
}

// WithPageSize sets MaxResults for GetQueryResults calls.
func WithPageSize(n int32) Option {
	return func(e *Engine) { e.pageSize = n }
}

// NewEngine wraps an Athena API client.
func NewEngine(api API, opts ...Option) *Engine {
	e := &Engine{api: api, pageSize: 1000}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// New builds an Engine from configuration using the default AWS credential
// chain, or static keys when both are configured.
func New(ctx context.Context, cfg config.AthenaConfig) (*Engine, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.HasStaticCredentials() {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(*cfg.AccessKeyID, *cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := awsathena.NewFromConfig(awsCfg, func(o *awsathena.Options) {
		if cfg.Endpoint != nil {
			o.BaseEndpoint = aws.String(*cfg.Endpoint)
		}
	})

	opts := []Option{WithWorkGroup(cfg.WorkGroup)}
	if cfg.ResultSource == config.ResultSourceS3 {
		opts = append(opts, WithS3Results(s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.Endpoint != nil {
				o.BaseEndpoint = aws.String(*cfg.Endpoint)
				o.UsePathStyle = true
			}
		})))
	}
	return NewEngine(client, opts...), nil
}

// SubmitQuery starts a query execution and returns its execution id.
func (e *Engine) SubmitQuery(ctx context.Context, sub domain.QuerySubmission) (string, error) {
	in := &awsathena.StartQueryExecutionInput{QueryString: aws.String(sub.Query)}
	if sub.Database != "" {
		in.QueryExecutionContext = &types.QueryExecutionContext{Database: aws.String(sub.Database)}
	}
	if sub.OutputLocation != "" {
		in.ResultConfiguration = &types.ResultConfiguration{OutputLocation: aws.String(sub.OutputLocation)}
	}
	if e.workGroup != "" {
		in.WorkGroup = aws.String(e.workGroup)
	}

	out, err := e.api.StartQueryExecution(ctx, in)
	if err != nil {
		return "", fmt.Errorf("start query execution: %w", err)
	}
	return aws.ToString(out.QueryExecutionId), nil
}

// GetJobStatus reads the execution state. QUEUED counts as running.
func (e *Engine) GetJobStatus(ctx context.Context, jobID string) (domain.JobStatus, error) {
	exec, err := e.execution(ctx, jobID)
	if err != nil {
		return domain.JobStatus{}, err
	}
	if exec.Status == nil {
		return domain.JobStatus{State: domain.QueryJobStateUnknown}, nil
	}
	return domain.JobStatus{
		State:  mapState(exec.Status.State),
		Reason: failureReason(exec.Status),
	}, nil
}

// GetResults returns the header row followed by every data row.
func (e *Engine) GetResults(ctx context.Context, jobID string) ([][]string, error) {
	if e.objects != nil {
		exec, err := e.execution(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if exec.ResultConfiguration == nil || aws.ToString(exec.ResultConfiguration.OutputLocation) == "" {
			return nil, fmt.Errorf("query %s has no output location", jobID)
		}
		return readCSVObject(ctx, e.objects, aws.ToString(exec.ResultConfiguration.OutputLocation))
	}

	var rows [][]string
	in := &awsathena.GetQueryResultsInput{QueryExecutionId: aws.String(jobID)}
	if e.pageSize > 0 {
		in.MaxResults = aws.Int32(e.pageSize)
	}
	pages := awsathena.NewGetQueryResultsPaginator(e.api, in)
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("get query results: %w", notFound(err, jobID))
		}
		if page.ResultSet == nil {
			continue
		}
		for _, r := range page.ResultSet.Rows {
			cells := make([]string, len(r.Data))
			for i, d := range r.Data {
				cells[i] = aws.ToString(d.VarCharValue)
			}
			rows = append(rows, cells)
		}
	}
	return rows, nil
}

func (e *Engine) execution(ctx context.Context, jobID string) (*types.QueryExecution, error) {
	out, err := e.api.GetQueryExecution(ctx, &awsathena.GetQueryExecutionInput{QueryExecutionId: aws.String(jobID)})
	if err != nil {
		return nil, fmt.Errorf("get query execution: %w", notFound(err, jobID))
	}
	if out.QueryExecution == nil {
		return nil, domain.ErrNotFound("query execution %q not found", jobID)
	}
	return out.QueryExecution, nil
}

func mapState(s types.QueryExecutionState) domain.QueryJobState {
	switch s {
	case types.QueryExecutionStateQueued, types.QueryExecutionStateRunning:
		return domain.QueryJobStateRunning
	case types.QueryExecutionStateSucceeded:
		return domain.QueryJobStateSucceeded
	case types.QueryExecutionStateFailed:
		return domain.QueryJobStateFailed
	case types.QueryExecutionStateCancelled:
		return domain.QueryJobStateCancelled
	default:
		return domain.QueryJobStateUnknown
	}
}

func failureReason(st *types.QueryExecutionStatus) string {
	if r := aws.ToString(st.StateChangeReason); r != "" {
		return r
	}
	if st.AthenaError != nil {
		return aws.ToString(st.AthenaError.ErrorMessage)
	}
	return ""
}

// notFound converts Athena's "not found" request errors into domain.NotFoundError
// so the poller stops retrying them.
func notFound(err error, jobID string) error {
	var invalid *types.InvalidRequestException
	if errors.As(err, &invalid) && strings.Contains(strings.ToLower(invalid.ErrorMessage()), "not found") {
		return domain.ErrNotFound("query execution %q not found: %s", jobID, invalid.ErrorMessage())
	}
	return err
}
