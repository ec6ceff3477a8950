package worker

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/transitkit/fare-engine/internal/domain/bus"
	"github.com/transitkit/fare-engine/internal/domain/job"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// BulkPriceExecutor runs bulk price-update jobs: every bus's base price is
// multiplied by (1 + percent/100) and rounded to 2 decimal places, half away
// from zero. Progress is persisted per record so concurrent status queries
// see real-time progress.
type BulkPriceExecutor struct {
	buses bus.Repository
	jobs  job.Repository
	now   func() time.Time
}

// NewBulkPriceExecutor creates the executor with its persistence
// collaborators.
func NewBulkPriceExecutor(buses bus.Repository, jobs job.Repository) *BulkPriceExecutor {
	return &BulkPriceExecutor{buses: buses, jobs: jobs, now: time.Now}
}

// Execute runs one job with job-level failure isolation. A business failure
// is recorded on the job (status failed, error message, finish time) and
// Execute returns nil so the worker loop moves on. Cancellation is the
// exception: the job is recorded as interrupted on a detached context —
// leaving it stuck at running would make shutdowns lie to status queries —
// and the cancellation is returned so the loop ends.
func (e *BulkPriceExecutor) Execute(ctx context.Context, t Task) error {
	lg := zctx.From(ctx).With(zap.String("job_id", t.JobID.String()))

	err := e.run(ctx, t)
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		detached := context.WithoutCancel(ctx)
		if mErr := e.jobs.MarkFailed(detached, t.JobID, "interrupted: worker shutting down", e.now()); mErr != nil {
			lg.Error("recording interrupted job failed", zap.Error(mErr))
		}
		return err
	}

	lg.Error("job failed", zap.Error(err))
	if mErr := e.jobs.MarkFailed(ctx, t.JobID, err.Error(), e.now()); mErr != nil {
		return errors.Wrap(mErr, "record job failure")
	}
	return nil
}

func (e *BulkPriceExecutor) run(ctx context.Context, t Task) error {
	lg := zctx.From(ctx).With(zap.String("job_id", t.JobID.String()))
	lg.Info("bulk price update started", zap.String("percent", t.Percent.String()))

	if err := e.jobs.MarkRunning(ctx, t.JobID, e.now()); err != nil {
		return errors.Wrap(err, "mark running")
	}

	buses, err := e.buses.List(ctx)
	if err != nil {
		return errors.Wrap(err, "list buses")
	}

	if err := e.jobs.SetTotal(ctx, t.JobID, int32(len(buses))); err != nil {
		return errors.Wrap(err, "set total")
	}

	factor := one.Add(t.Percent.Div(hundred))
	for i, b := range buses {
		if err := ctx.Err(); err != nil {
			return err
		}

		newPrice := b.BasePrice.Mul(factor).Round(2)
		if err := e.buses.UpdateBasePrice(ctx, b.ID, newPrice); err != nil {
			return errors.Wrapf(err, "update bus %d", b.ID)
		}
		if err := e.jobs.SetProcessed(ctx, t.JobID, int32(i+1)); err != nil {
			return errors.Wrap(err, "set processed")
		}
	}

	if err := e.jobs.MarkSucceeded(ctx, t.JobID, e.now()); err != nil {
		return errors.Wrap(err, "mark succeeded")
	}

	lg.Info("bulk price update finished", zap.Int("updated", len(buses)))
	return nil
}
