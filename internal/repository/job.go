package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/transitkit/fare-engine/internal/domain/job"
)

const (
	createJobSQL = `INSERT INTO jobs (id, type, payload, status, enqueued_at)
		VALUES ($1, $2, $3, $4, $5)`

	getJobByIDSQL = `SELECT id, type, payload, status, total, processed, error,
		enqueued_at, started_at, finished_at FROM jobs WHERE id = $1`

	markJobRunningSQL = `UPDATE jobs SET status = 'running', started_at = $2
		WHERE id = $1 AND status = 'queued'`

	setJobTotalSQL = `UPDATE jobs SET total = $2, processed = 0 WHERE id = $1`

	setJobProcessedSQL = `UPDATE jobs SET processed = $2 WHERE id = $1`

	markJobSucceededSQL = `UPDATE jobs SET status = 'succeeded', finished_at = $2
		WHERE id = $1 AND status = 'running'`

	markJobFailedSQL = `UPDATE jobs SET status = 'failed', error = $2, finished_at = $3
		WHERE id = $1 AND status IN ('queued', 'running')`
)

var _ job.Repository = (*JobRepository)(nil)

// JobRepository implements job.Repository backed by PostgreSQL. Every
// mutation is a single UPDATE touching only its own field set; the worker is
// the sole writer after creation, so these cannot lose updates to each
// other. Status mutations carry the legal prior status in their WHERE
// clause, so an out-of-order call can never resurrect a terminal job.
type JobRepository struct {
	pool *pgxpool.Pool
}

// NewJobRepository returns a JobRepository that uses the given pool.
func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

// Create persists a freshly submitted job.
func (r *JobRepository) Create(ctx context.Context, j *job.Job) error {
	_, err := r.pool.Exec(ctx, createJobSQL,
		j.ID, j.Type, j.Payload, j.Status, j.EnqueuedAt,
	)
	if err != nil {
		return fmt.Errorf("creating job %s: %w", j.ID, err)
	}
	return nil
}

// GetByID returns a job by id. Returns job.ErrNotFound when it does not
// exist.
func (r *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (*job.Job, error) {
	rows, err := r.pool.Query(ctx, getJobByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting job %s: %w", id, err)
	}

	j, err := pgx.CollectExactlyOneRow(rows, scanJob)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, job.ErrNotFound
		}
		return nil, fmt.Errorf("getting job %s: %w", id, err)
	}
	return &j, nil
}

// MarkRunning transitions the job to running and stamps its start time.
func (r *JobRepository) MarkRunning(ctx context.Context, id uuid.UUID, startedAt time.Time) error {
	return r.transition(ctx, id, job.StatusRunning, markJobRunningSQL, startedAt)
}

// SetTotal records the job's work size and resets its progress counter.
func (r *JobRepository) SetTotal(ctx context.Context, id uuid.UUID, total int32) error {
	return r.exec(ctx, id, setJobTotalSQL, total)
}

// SetProcessed records how many records the job has completed so far.
func (r *JobRepository) SetProcessed(ctx context.Context, id uuid.UUID, processed int32) error {
	return r.exec(ctx, id, setJobProcessedSQL, processed)
}

// MarkSucceeded transitions the job to succeeded and stamps its finish time.
func (r *JobRepository) MarkSucceeded(ctx context.Context, id uuid.UUID, finishedAt time.Time) error {
	return r.transition(ctx, id, job.StatusSucceeded, markJobSucceededSQL, finishedAt)
}

// MarkFailed transitions the job to failed with a descriptive error message.
func (r *JobRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, finishedAt time.Time) error {
	return r.transition(ctx, id, job.StatusFailed, markJobFailedSQL, errMsg, finishedAt)
}

func (r *JobRepository) exec(ctx context.Context, id uuid.UUID, sql string, arg any) error {
	tag, err := r.pool.Exec(ctx, sql, id, arg)
	if err != nil {
		return fmt.Errorf("updating job %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return job.ErrNotFound
	}
	return nil
}

// transition runs a status UPDATE whose WHERE clause encodes the legal prior
// statuses. When no row is touched, the current row is read back to tell a
// missing job apart from an illegal transition.
func (r *JobRepository) transition(ctx context.Context, id uuid.UUID, next job.Status, sql string, args ...any) error {
	tag, err := r.pool.Exec(ctx, sql, append([]any{id}, args...)...)
	if err != nil {
		return fmt.Errorf("updating job %s: %w", id, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	j, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if j.Status.Terminal() {
		return fmt.Errorf("job %s already finished as %s: %w", id, j.Status, job.ErrInvalidTransition)
	}
	return fmt.Errorf("job %s is %s, cannot become %s: %w", id, j.Status, next, job.ErrInvalidTransition)
}

func scanJob(row pgx.CollectableRow) (job.Job, error) {
	var j job.Job
	err := row.Scan(
		&j.ID, &j.Type, &j.Payload, &j.Status, &j.Total, &j.Processed,
		&j.Error, &j.EnqueuedAt, &j.StartedAt, &j.FinishedAt,
	)
	return j, err
}
