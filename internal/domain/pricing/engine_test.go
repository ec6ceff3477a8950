package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitkit/fare-engine/internal/domain/coupon"
)

func TestEngine_NoRules(t *testing.T) {
	engine := NewEngine()

	resp := engine.Calculate(context.Background(), PriceRequest{
		BasePrice: decimal.NewFromInt(100),
	})

	assert.True(t, decimal.NewFromInt(100).Equal(resp.FinalPrice))
	assert.Empty(t, resp.Steps)
}

func TestEngine_EveryRuleProducesAStep(t *testing.T) {
	// A half-full bus far from the thresholds: every rule is a no-op, yet
	// each still contributes a step to the breakdown.
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	engine := newTestEngine(t, now, &fakeCouponFinder{err: coupon.ErrNotFound})

	resp := engine.Calculate(context.Background(), PriceRequest{
		BasePrice:     decimal.NewFromInt(100),
		Capacity:      50,
		SoldSeats:     25,
		DepartureTime: now.Add(10 * 24 * time.Hour),
	})

	require.Len(t, resp.Steps, 3)
	assert.Equal(t, "occupancy", resp.Steps[0].Rule)
	assert.Equal(t, "time_pressure", resp.Steps[1].Rule)
	assert.Equal(t, "coupon", resp.Steps[2].Rule)
	for _, step := range resp.Steps {
		assert.True(t, step.Delta.IsZero(), "%s delta = %s", step.Rule, step.Delta)
	}
	assert.True(t, decimal.NewFromInt(100).Equal(resp.FinalPrice))
}

func TestEngine_ChainsDeltasOnRunningPrice(t *testing.T) {
	// Base 100, 5 of 50 seats sold (10% occupancy, below the 20% threshold),
	// departure 10 days out (neither urgent nor early-bird), valid 10%
	// coupon. Occupancy discounts 10 off the base; the coupon then takes 10%
	// of the running 90, not of the original 100.
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	finder := &fakeCouponFinder{coupon: &coupon.Coupon{
		Code: "SAVE10", Percent: 10, ExpireAt: now.Add(90 * 24 * time.Hour),
	}}
	engine := newTestEngine(t, now, finder)

	resp := engine.Calculate(context.Background(), PriceRequest{
		BasePrice:     decimal.NewFromInt(100),
		Capacity:      50,
		SoldSeats:     5,
		DepartureTime: now.Add(10 * 24 * time.Hour),
		CouponCode:    "SAVE10",
	})

	require.Len(t, resp.Steps, 3)

	assert.True(t, decimal.NewFromInt(-10).Equal(resp.Steps[0].Delta))
	assert.True(t, decimal.NewFromInt(90).Equal(resp.Steps[0].ResultPrice))

	assert.True(t, resp.Steps[1].Delta.IsZero())
	assert.True(t, decimal.NewFromInt(90).Equal(resp.Steps[1].ResultPrice))

	assert.True(t, decimal.NewFromInt(-9).Equal(resp.Steps[2].Delta))
	assert.True(t, decimal.NewFromInt(81).Equal(resp.Steps[2].ResultPrice))

	assert.True(t, decimal.NewFromInt(81).Equal(resp.FinalPrice))
	assert.True(t, resp.FinalPrice.Equal(resp.Steps[len(resp.Steps)-1].ResultPrice))
}

func TestEngine_SurchargesStack(t *testing.T) {
	// Nearly sold out and departing within a day: both surcharges fire, the
	// second on the already-increased price.
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	engine := newTestEngine(t, now, &fakeCouponFinder{err: coupon.ErrNotFound})

	resp := engine.Calculate(context.Background(), PriceRequest{
		BasePrice:     decimal.NewFromInt(100),
		Capacity:      50,
		SoldSeats:     45,
		DepartureTime: now.Add(6 * time.Hour),
	})

	require.Len(t, resp.Steps, 3)
	assert.True(t, decimal.NewFromInt(20).Equal(resp.Steps[0].Delta))
	assert.True(t, decimal.NewFromInt(120).Equal(resp.Steps[0].ResultPrice))
	assert.True(t, decimal.NewFromInt(18).Equal(resp.Steps[1].Delta))
	assert.True(t, decimal.NewFromInt(138).Equal(resp.FinalPrice))
}

// newTestEngine wires the full production rule chain with a frozen clock.
func newTestEngine(t *testing.T, now time.Time, finder coupon.Finder) *Engine {
	t.Helper()

	tp := NewTimePressureRule(defaultTimePressureConfig())
	tp.now = func() time.Time { return now }

	cr := NewCouponRule(finder)
	cr.now = func() time.Time { return now }

	return NewEngine(
		NewOccupancyRule(defaultOccupancyConfig()),
		tp,
		cr,
	)
}
