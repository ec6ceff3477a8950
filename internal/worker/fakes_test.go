package worker

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/transitkit/fare-engine/internal/domain/bus"
	"github.com/transitkit/fare-engine/internal/domain/job"
)

// fakeJobRepo is an in-memory job.Repository recording the same per-field
// mutations the real store performs, including its status-transition guard.
type fakeJobRepo struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*job.Job
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[uuid.UUID]*job.Job)}
}

func (r *fakeJobRepo) get(id uuid.UUID) *job.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	j := *r.jobs[id]
	return &j
}

func (r *fakeJobRepo) Create(_ context.Context, j *job.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *j
	r.jobs[j.ID] = &cp
	return nil
}

func (r *fakeJobRepo) GetByID(_ context.Context, id uuid.UUID) (*job.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, job.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (r *fakeJobRepo) MarkRunning(_ context.Context, id uuid.UUID, startedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j := r.jobs[id]
	if !j.Status.CanTransition(job.StatusRunning) {
		return job.ErrInvalidTransition
	}
	j.Status = job.StatusRunning
	j.StartedAt = &startedAt
	return nil
}

func (r *fakeJobRepo) SetTotal(_ context.Context, id uuid.UUID, total int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j := r.jobs[id]
	zero := int32(0)
	j.Total = &total
	j.Processed = &zero
	return nil
}

func (r *fakeJobRepo) SetProcessed(_ context.Context, id uuid.UUID, processed int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[id].Processed = &processed
	return nil
}

func (r *fakeJobRepo) MarkSucceeded(_ context.Context, id uuid.UUID, finishedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j := r.jobs[id]
	if !j.Status.CanTransition(job.StatusSucceeded) {
		return job.ErrInvalidTransition
	}
	j.Status = job.StatusSucceeded
	j.FinishedAt = &finishedAt
	return nil
}

func (r *fakeJobRepo) MarkFailed(_ context.Context, id uuid.UUID, errMsg string, finishedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j := r.jobs[id]
	if !j.Status.CanTransition(job.StatusFailed) {
		return job.ErrInvalidTransition
	}
	j.Status = job.StatusFailed
	j.Error = &errMsg
	j.FinishedAt = &finishedAt
	return nil
}

// fakeBusRepo is an in-memory bus.Repository. Setting failUpdateID makes
// UpdateBasePrice fail for that bus, simulating a mid-run storage error.
type fakeBusRepo struct {
	mu           sync.Mutex
	buses        []bus.Bus
	failUpdateID int64
}

func newFakeBusRepo(buses ...bus.Bus) *fakeBusRepo {
	return &fakeBusRepo{buses: buses}
}

func (r *fakeBusRepo) List(_ context.Context) ([]bus.Bus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]bus.Bus, len(r.buses))
	copy(out, r.buses)
	return out, nil
}

func (r *fakeBusRepo) ListByDeparture(ctx context.Context) ([]bus.Bus, error) {
	return r.List(ctx)
}

func (r *fakeBusRepo) GetByID(_ context.Context, id int64) (*bus.Bus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.buses {
		if b.ID == id {
			cp := b
			return &cp, nil
		}
	}
	return nil, bus.ErrNotFound
}

func (r *fakeBusRepo) Create(_ context.Context, b *bus.Bus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b.ID = int64(len(r.buses) + 1)
	r.buses = append(r.buses, *b)
	return nil
}

func (r *fakeBusRepo) UpdateSoldSeats(_ context.Context, id int64, soldSeats int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.buses {
		if r.buses[i].ID == id {
			r.buses[i].SoldSeats = soldSeats
			return nil
		}
	}
	return bus.ErrNotFound
}

func (r *fakeBusRepo) UpdateBasePrice(_ context.Context, id int64, price decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id == r.failUpdateID {
		return errors.New("storage unavailable")
	}
	for i := range r.buses {
		if r.buses[i].ID == id {
			r.buses[i].BasePrice = price
			return nil
		}
	}
	return bus.ErrNotFound
}

func (r *fakeBusRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.buses {
		if r.buses[i].ID == id {
			r.buses = append(r.buses[:i], r.buses[i+1:]...)
			return nil
		}
	}
	return bus.ErrNotFound
}
