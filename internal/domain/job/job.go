// Package job defines the persisted unit of asynchronous work and its
// lifecycle state machine.
package job

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a job with the requested id does not exist.
	ErrNotFound = errors.New("job not found")
	// ErrInvalidTransition is returned when a lifecycle mutation would
	// violate the status state machine.
	ErrInvalidTransition = errors.New("invalid job status transition")
)

// Status is the lifecycle state of a job. Transitions are one-directional:
// queued -> running -> succeeded | failed, with queued -> failed for jobs
// interrupted before they start. Terminal states are final; a re-submission
// always creates a new job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status is an end state.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// CanTransition reports whether moving from s to next is a legal lifecycle
// step.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusQueued:
		return next == StatusRunning || next == StatusFailed
	case StatusRunning:
		return next == StatusSucceeded || next == StatusFailed
	default:
		return false
	}
}

// TypeBulkPriceUpdate identifies the bulk price-update job type.
const TypeBulkPriceUpdate = "bulk_price_update"

// Job is a persisted unit of asynchronous work. After creation it is mutated
// exclusively by the worker; status readers must treat it as eventually
// consistent.
type Job struct {
	ID         uuid.UUID
	Type       string
	Payload    []byte
	Status     Status
	Total      *int32
	Processed  *int32
	Error      *string
	EnqueuedAt time.Time
	StartedAt  *time.Time
	FinishedAt *time.Time
}

// BulkPriceUpdate is the payload of a bulk price-update job. Percent is
// signed: positive raises every bus's base price, negative discounts it.
type BulkPriceUpdate struct {
	Percent decimal.Decimal `json:"percent"`
}

// NewBulkPriceUpdate builds a queued job carrying a serialized
// BulkPriceUpdate payload.
func NewBulkPriceUpdate(percent decimal.Decimal, now time.Time) (*Job, error) {
	payload, err := json.Marshal(BulkPriceUpdate{Percent: percent})
	if err != nil {
		return nil, errors.Wrap(err, "marshal payload")
	}

	return &Job{
		ID:         uuid.New(),
		Type:       TypeBulkPriceUpdate,
		Payload:    payload,
		Status:     StatusQueued,
		EnqueuedAt: now,
	}, nil
}

// Repository defines persistence operations for jobs. Each mutation updates
// a single field set in one statement so the worker's incremental progress
// writes never clobber each other.
type Repository interface {
	Create(ctx context.Context, j *Job) error
	GetByID(ctx context.Context, id uuid.UUID) (*Job, error)
	MarkRunning(ctx context.Context, id uuid.UUID, startedAt time.Time) error
	// SetTotal records the size of the work and resets processed to zero.
	SetTotal(ctx context.Context, id uuid.UUID, total int32) error
	SetProcessed(ctx context.Context, id uuid.UUID, processed int32) error
	MarkSucceeded(ctx context.Context, id uuid.UUID, finishedAt time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, finishedAt time.Time) error
}
