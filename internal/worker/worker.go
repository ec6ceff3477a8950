package worker

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// failureBackoff is how long the loop pauses after an executor-level failure
// before picking up the next task, to avoid a tight failure loop.
const failureBackoff = time.Second

// Executor runs one task to completion. Implementations own job-level
// failure isolation: a job whose business logic fails must be recorded as
// failed and Execute must return nil, so a single bad job never disturbs the
// loop. A non-nil error signals an executor-level problem (or cancellation)
// and reaches the worker's outer safety net.
type Executor interface {
	Execute(ctx context.Context, t Task) error
}

// Worker is the sole consumer of a Queue. It runs for the lifetime of the
// process, executing one task at a time; jobs therefore never race on the
// records they mutate.
type Worker struct {
	queue *Queue
	exec  Executor
}

// New creates a Worker draining the given queue into the given executor.
func New(queue *Queue, exec Executor) *Worker {
	return &Worker{queue: queue, exec: exec}
}

// Run loops dequeue-execute until ctx is cancelled. Cancellation ends the
// loop cleanly; any other failure from the dequeue/execute pair is logged,
// followed by a fixed backoff, and the loop continues.
func (w *Worker) Run(ctx context.Context) error {
	lg := zctx.From(ctx)
	lg.Info("background worker started")
	defer lg.Info("background worker stopped")

	for {
		task, err := w.queue.Dequeue(ctx)
		if err != nil {
			// Only cancellation can surface here.
			return nil
		}

		if err := w.exec.Execute(ctx, task); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}

			lg.Error("task execution failed",
				zap.String("job_id", task.JobID.String()),
				zap.Error(err),
			)

			select {
			case <-time.After(failureBackoff):
			case <-ctx.Done():
				return nil
			}
		}
	}
}
