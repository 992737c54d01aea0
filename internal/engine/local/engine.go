// Package local runs price queries against an embedded DuckDB database. It
// implements the same asynchronous job contract as the remote engine so the
// service can be run and tested without cloud access.
package local

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // register the duckdb driver
	"github.com/google/uuid"

	"crypto-dash/internal/domain"
)

var _ domain.QueryEngine = (*Engine)(nil)

// DefaultRetention is how long a finished job is kept when nobody fetches it.
const DefaultRetention = 5 * time.Minute

type job struct {
	state      domain.QueryJobState
	reason     string
	rows       [][]string
	finishedAt time.Time
}

// Engine executes each submitted query on a background goroutine. A succeeded
// job is forgotten once its results are fetched; any other finished job is
// dropped after the retention window.
type Engine struct {
	db        *sql.DB
	logger    *slog.Logger
	retention time.Duration
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu   sync.Mutex
	jobs map[string]*job
}

// Open creates an in-memory DuckDB database. When seedPath is set, its
// contents are loaded into table.
func Open(ctx context.Context, seedPath, table string, logger *slog.Logger, opts ...Option) (*Engine, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	e := New(db, logger, opts...)
	if seedPath != "" {
		err = e.LoadTable(ctx, table, seedPath)
	} else {
		err = e.CreateEmptyTable(ctx, table)
	}
	if err != nil {
		_ = e.Close()
		return nil, err
	}
	return e, nil
}

// CreateEmptyTable creates table with the price columns if it does not exist.
func (e *Engine) CreateEmptyTable(ctx context.Context, table string) error {
	if err := e.createSchema(ctx, table); err != nil {
		return err
	}
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s ("date" DATE, price_usd DOUBLE, volume_usd DOUBLE)`, table)
	if _, err := e.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}

func (e *Engine) createSchema(ctx context.Context, table string) error {
	schema, _, ok := strings.Cut(table, ".")
	if !ok {
		return nil
	}
	if _, err := e.db.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+schema); err != nil {
		return fmt.Errorf("create schema %s: %w", schema, err)
	}
	return nil
}

// Option configures an Engine.
type Option func(*Engine)

// WithRetention sets how long finished, unfetched jobs are kept.
func WithRetention(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.retention = d
		}
	}
}

// WithClock replaces time.Now for retention bookkeeping.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New wraps an existing DuckDB handle. Close closes db.
func New(db *sql.DB, logger *slog.Logger, opts ...Option) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		db:        db,
		logger:    logger,
		retention: DefaultRetention,
		now:       time.Now,
		ctx:       ctx,
		cancel:    cancel,
		jobs:      make(map[string]*job),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// LoadTable replaces table with the contents of a CSV or Parquet file.
func (e *Engine) LoadTable(ctx context.Context, table, path string) error {
	reader := "read_csv_auto"
	if strings.EqualFold(filepath.Ext(path), ".parquet") {
		reader = "read_parquet"
	}
	if err := e.createSchema(ctx, table); err != nil {
		return err
	}
	stmt := fmt.Sprintf("CREATE OR REPLACE TABLE %s AS SELECT * FROM %s('%s')",
		table, reader, strings.ReplaceAll(path, "'", "''"))
	if _, err := e.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("load %s into %s: %w", path, table, err)
	}
	e.logger.Info("seed data loaded", "table", table, "path", path)
	return nil
}

// SubmitQuery registers a running job and executes it in the background.
// Database and OutputLocation are ignored.
func (e *Engine) SubmitQuery(_ context.Context, sub domain.QuerySubmission) (string, error) {
	if strings.TrimSpace(sub.Query) == "" {
		return "", domain.ErrValidation("query text is required")
	}
	if e.ctx.Err() != nil {
		return "", fmt.Errorf("local engine is closed")
	}

	id := uuid.NewString()
	e.mu.Lock()
	e.sweepLocked()
	e.jobs[id] = &job{state: domain.QueryJobStateRunning}
	e.mu.Unlock()

	e.wg.Add(1)
	go e.run(id, sub.Query)
	return id, nil
}

// GetJobStatus reports the state of a submitted job.
func (e *Engine) GetJobStatus(_ context.Context, jobID string) (domain.JobStatus, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	j, ok := e.jobs[jobID]
	if !ok {
		return domain.JobStatus{}, domain.ErrNotFound("query job %q not found", jobID)
	}
	return domain.JobStatus{State: j.state, Reason: j.reason}, nil
}

// GetResults returns the header and data rows of a succeeded job and forgets
// the job; a second call reports it as not found.
func (e *Engine) GetResults(_ context.Context, jobID string) ([][]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	j, ok := e.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound("query job %q not found", jobID)
	}
	if j.state != domain.QueryJobStateSucceeded {
		return nil, fmt.Errorf("query job %s is %s", jobID, j.state)
	}
	delete(e.jobs, jobID)
	return j.rows, nil
}

// sweepLocked drops finished jobs older than the retention window. Running
// jobs are never dropped. e.mu must be held.
func (e *Engine) sweepLocked() {
	cutoff := e.now().Add(-e.retention)
	for id, j := range e.jobs {
		if j.state.IsTerminal() && j.finishedAt.Before(cutoff) {
			delete(e.jobs, id)
		}
	}
}

// Close cancels running jobs, waits for them to stop and closes the database.
func (e *Engine) Close() error {
	e.cancel()
	e.wg.Wait()
	return e.db.Close()
}

func (e *Engine) run(id, query string) {
	defer e.wg.Done()
	start := time.Now()

	rows, err := e.execute(e.ctx, query)

	e.mu.Lock()
	defer e.mu.Unlock()
	j := e.jobs[id]
	j.finishedAt = e.now()
	switch {
	case err == nil:
		j.state = domain.QueryJobStateSucceeded
		j.rows = rows
	case e.ctx.Err() != nil:
		j.state = domain.QueryJobStateCancelled
		j.reason = "engine closed"
	default:
		j.state = domain.QueryJobStateFailed
		j.reason = err.Error()
	}
	e.logger.Debug("local query finished", "job_id", id, "state", j.state, "duration_ms", time.Since(start).Milliseconds())
}

func (e *Engine) execute(ctx context.Context, query string) ([][]string, error) {
	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := [][]string{cols}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		cells := make([]string, len(vals))
		for i, v := range vals {
			cells[i] = formatCell(v)
		}
		out = append(out, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// formatCell renders a scanned value the way the remote engine renders it as
// text. DATE values arrive as midnight UTC timestamps.
func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(time.DateOnly)
		}
		return x.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(x)
	}
}
