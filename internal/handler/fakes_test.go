package handler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/transitkit/fare-engine/internal/domain/bus"
	"github.com/transitkit/fare-engine/internal/domain/coupon"
	"github.com/transitkit/fare-engine/internal/domain/job"
)

type fakeCouponRepo struct {
	coupons map[string]coupon.Coupon
	err     error
}

func newFakeCouponRepo(coupons ...coupon.Coupon) *fakeCouponRepo {
	r := &fakeCouponRepo{coupons: make(map[string]coupon.Coupon)}
	for _, c := range coupons {
		r.coupons[c.Code] = c
	}
	return r
}

func (r *fakeCouponRepo) GetByCode(_ context.Context, code string) (*coupon.Coupon, error) {
	if r.err != nil {
		return nil, r.err
	}
	c, ok := r.coupons[coupon.Normalize(code)]
	if !ok {
		return nil, coupon.ErrNotFound
	}
	return &c, nil
}

func (r *fakeCouponRepo) List(_ context.Context) ([]coupon.Coupon, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]coupon.Coupon, 0, len(r.coupons))
	for _, c := range r.coupons {
		out = append(out, c)
	}
	return out, nil
}

func (r *fakeCouponRepo) Create(_ context.Context, c coupon.Coupon) error {
	if r.err != nil {
		return r.err
	}
	if _, ok := r.coupons[c.Code]; ok {
		return coupon.ErrCodeTaken
	}
	r.coupons[c.Code] = c
	return nil
}

func (r *fakeCouponRepo) Delete(_ context.Context, code string) error {
	if _, ok := r.coupons[code]; !ok {
		return coupon.ErrNotFound
	}
	delete(r.coupons, code)
	return nil
}

func (r *fakeCouponRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for code, c := range r.coupons {
		if c.IsExpired(now) {
			delete(r.coupons, code)
			n++
		}
	}
	return n, nil
}

type fakeBusRepo struct {
	buses  []bus.Bus
	nextID int64
}

func newFakeBusRepo(buses ...bus.Bus) *fakeBusRepo {
	r := &fakeBusRepo{buses: buses}
	for _, b := range buses {
		if b.ID > r.nextID {
			r.nextID = b.ID
		}
	}
	return r
}

func (r *fakeBusRepo) List(_ context.Context) ([]bus.Bus, error) {
	out := make([]bus.Bus, len(r.buses))
	copy(out, r.buses)
	return out, nil
}

func (r *fakeBusRepo) ListByDeparture(ctx context.Context) ([]bus.Bus, error) {
	return r.List(ctx)
}

func (r *fakeBusRepo) GetByID(_ context.Context, id int64) (*bus.Bus, error) {
	for _, b := range r.buses {
		if b.ID == id {
			cp := b
			return &cp, nil
		}
	}
	return nil, bus.ErrNotFound
}

func (r *fakeBusRepo) Create(_ context.Context, b *bus.Bus) error {
	r.nextID++
	b.ID = r.nextID
	r.buses = append(r.buses, *b)
	return nil
}

func (r *fakeBusRepo) UpdateSoldSeats(_ context.Context, id int64, soldSeats int) error {
	for i := range r.buses {
		if r.buses[i].ID == id {
			r.buses[i].SoldSeats = soldSeats
			return nil
		}
	}
	return bus.ErrNotFound
}

func (r *fakeBusRepo) UpdateBasePrice(_ context.Context, id int64, p decimal.Decimal) error {
	for i := range r.buses {
		if r.buses[i].ID == id {
			r.buses[i].BasePrice = p
			return nil
		}
	}
	return bus.ErrNotFound
}

func (r *fakeBusRepo) Delete(_ context.Context, id int64) error {
	for i := range r.buses {
		if r.buses[i].ID == id {
			r.buses = append(r.buses[:i], r.buses[i+1:]...)
			return nil
		}
	}
	return bus.ErrNotFound
}

type fakeJobRepo struct {
	jobs map[uuid.UUID]*job.Job
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[uuid.UUID]*job.Job)}
}

func (r *fakeJobRepo) Create(_ context.Context, j *job.Job) error {
	cp := *j
	r.jobs[j.ID] = &cp
	return nil
}

func (r *fakeJobRepo) GetByID(_ context.Context, id uuid.UUID) (*job.Job, error) {
	j, ok := r.jobs[id]
	if !ok {
		return nil, job.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (r *fakeJobRepo) MarkRunning(_ context.Context, id uuid.UUID, startedAt time.Time) error {
	j := r.jobs[id]
	if !j.Status.CanTransition(job.StatusRunning) {
		return job.ErrInvalidTransition
	}
	j.Status = job.StatusRunning
	j.StartedAt = &startedAt
	return nil
}

func (r *fakeJobRepo) SetTotal(_ context.Context, id uuid.UUID, total int32) error {
	zero := int32(0)
	j := r.jobs[id]
	j.Total = &total
	j.Processed = &zero
	return nil
}

func (r *fakeJobRepo) SetProcessed(_ context.Context, id uuid.UUID, processed int32) error {
	r.jobs[id].Processed = &processed
	return nil
}

func (r *fakeJobRepo) MarkSucceeded(_ context.Context, id uuid.UUID, finishedAt time.Time) error {
	j := r.jobs[id]
	if !j.Status.CanTransition(job.StatusSucceeded) {
		return job.ErrInvalidTransition
	}
	j.Status = job.StatusSucceeded
	j.FinishedAt = &finishedAt
	return nil
}

func (r *fakeJobRepo) MarkFailed(_ context.Context, id uuid.UUID, errMsg string, finishedAt time.Time) error {
	j := r.jobs[id]
	if !j.Status.CanTransition(job.StatusFailed) {
		return job.ErrInvalidTransition
	}
	j.Status = job.StatusFailed
	j.Error = &errMsg
	j.FinishedAt = &finishedAt
	return nil
}
