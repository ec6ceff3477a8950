package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultOccupancyConfig() OccupancyConfig {
	return OccupancyConfig{
		LowThreshold:        20,
		HighThreshold:       80,
		LowDiscountPercent:  10,
		HighIncreasePercent: 20,
	}
}

func TestOccupancyRule_Apply(t *testing.T) {
	price := decimal.NewFromInt(100)

	tests := []struct {
		name        string
		capacity    int
		soldSeats   int
		wantApplied bool
		wantDelta   decimal.Decimal
	}{
		{
			name:        "below low threshold discounts",
			capacity:    50,
			soldSeats:   5, // 10%
			wantApplied: true,
			wantDelta:   decimal.NewFromInt(-10),
		},
		{
			name:        "above high threshold surcharges",
			capacity:    50,
			soldSeats:   45, // 90%
			wantApplied: true,
			wantDelta:   decimal.NewFromInt(20),
		},
		{
			name:        "within band is a no-op",
			capacity:    50,
			soldSeats:   25, // 50%
			wantApplied: false,
			wantDelta:   decimal.Zero,
		},
		{
			name:        "exactly at low threshold is a no-op",
			capacity:    100,
			soldSeats:   20, // 20%
			wantApplied: false,
			wantDelta:   decimal.Zero,
		},
		{
			name:        "exactly at high threshold is a no-op",
			capacity:    100,
			soldSeats:   80, // 80%
			wantApplied: false,
			wantDelta:   decimal.Zero,
		},
		{
			name:        "zero capacity treated as empty",
			capacity:    0,
			soldSeats:   0,
			wantApplied: true,
			wantDelta:   decimal.NewFromInt(-10),
		},
		{
			name:        "occupancy rounds to nearest integer",
			capacity:    46,
			soldSeats:   9, // 19.57% -> 20%, at threshold, no-op
			wantApplied: false,
			wantDelta:   decimal.Zero,
		},
		{
			name:        "midpoint rounds to even, below threshold",
			capacity:    200,
			soldSeats:   161, // 80.5% -> 80%, at threshold, no-op
			wantApplied: false,
			wantDelta:   decimal.Zero,
		},
		{
			name:        "midpoint rounds to even, above threshold",
			capacity:    200,
			soldSeats:   163, // 81.5% -> 82%, surcharge
			wantApplied: true,
			wantDelta:   decimal.NewFromInt(20),
		},
		{
			name:        "midpoint rounds to even at low threshold",
			capacity:    200,
			soldSeats:   39, // 19.5% -> 20%, at threshold, no-op
			wantApplied: false,
			wantDelta:   decimal.Zero,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := NewOccupancyRule(defaultOccupancyConfig())

			applied, step := rule.Apply(context.Background(), price, PriceRequest{
				BasePrice:     price,
				Capacity:      tt.capacity,
				SoldSeats:     tt.soldSeats,
				DepartureTime: time.Now().Add(48 * time.Hour),
			})

			assert.Equal(t, tt.wantApplied, applied)
			assert.True(t, tt.wantDelta.Equal(step.Delta),
				"delta = %s, want %s", step.Delta, tt.wantDelta)
			assert.True(t, price.Add(tt.wantDelta).Equal(step.ResultPrice),
				"result = %s", step.ResultPrice)
			assert.Equal(t, "occupancy", step.Rule)
			require.NotEmpty(t, step.Reason)
		})
	}
}

func TestOccupancyRule_DeltaIsPercentOfRunningPrice(t *testing.T) {
	rule := NewOccupancyRule(defaultOccupancyConfig())

	// The same request at a different running price yields a proportionally
	// different delta.
	req := PriceRequest{Capacity: 50, SoldSeats: 5}

	_, step := rule.Apply(context.Background(), decimal.NewFromInt(200), req)
	assert.True(t, decimal.NewFromInt(-20).Equal(step.Delta))
}
