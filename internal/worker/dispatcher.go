package worker

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/transitkit/fare-engine/internal/domain/job"
)

// Dispatcher is the submission boundary between request handlers and the
// queue: it persists a queued job record, then enqueues the matching task.
// Re-submission always creates a fresh job; terminal jobs are never
// re-queued.
type Dispatcher struct {
	jobs  job.Repository
	queue *Queue
	now   func() time.Time
}

// NewDispatcher creates a Dispatcher writing job records through the given
// repository and tasks into the given queue.
func NewDispatcher(jobs job.Repository, queue *Queue) *Dispatcher {
	return &Dispatcher{jobs: jobs, queue: queue, now: time.Now}
}

// SubmitBulkPriceUpdate creates a queued bulk price-update job and enqueues
// its task. The enqueue blocks under backpressure until the queue has space
// or ctx is cancelled.
func (d *Dispatcher) SubmitBulkPriceUpdate(ctx context.Context, percent decimal.Decimal) (*job.Job, error) {
	j, err := job.NewBulkPriceUpdate(percent, d.now())
	if err != nil {
		return nil, err
	}

	if err := d.jobs.Create(ctx, j); err != nil {
		return nil, errors.Wrap(err, "create job")
	}

	if err := d.queue.Enqueue(ctx, Task{JobID: j.ID, Percent: percent}); err != nil {
		return nil, errors.Wrap(err, "enqueue task")
	}

	return j, nil
}
