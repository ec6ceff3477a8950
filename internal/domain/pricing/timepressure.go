package pricing

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// TimePressureConfig holds the thresholds and adjustment percentages for the
// time-pressure rule.
type TimePressureConfig struct {
	IncreasePercent int `default:"15" usage:"Surcharge % when departure is imminent"`
	DiscountPercent int `default:"15" usage:"Early-bird discount % for distant departures"`
	HoursThreshold  int `default:"24" usage:"Hours left at or under which the surcharge applies"`
	DaysThreshold   int `default:"30" usage:"Days left at or over which the discount applies"`
}

// TimePressureRule surcharges imminent departures and discounts early
// bookings based on the time remaining until departure.
type TimePressureRule struct {
	cfg TimePressureConfig
	now func() time.Time
}

// NewTimePressureRule builds a TimePressureRule from an explicit config.
func NewTimePressureRule(cfg TimePressureConfig) *TimePressureRule {
	return &TimePressureRule{cfg: cfg, now: time.Now}
}

func (r *TimePressureRule) Name() string { return "time_pressure" }

// Apply checks the urgency branch first: when hours left is at or under the
// hours threshold the surcharge wins, even if the days branch would also
// match. For sane configurations the branches are mutually exclusive, but
// the precedence is part of the contract.
func (r *TimePressureRule) Apply(_ context.Context, current decimal.Decimal, req PriceRequest) (bool, Breakdown) {
	left := req.DepartureTime.Sub(r.now())
	hours := left.Hours()
	days := hours / 24

	var (
		delta  decimal.Decimal
		reason string
	)
	switch {
	case hours <= float64(r.cfg.HoursThreshold):
		delta = percentOf(current, r.cfg.IncreasePercent)
		reason = fmt.Sprintf("%d hours or less to departure: %d%% surcharge", r.cfg.HoursThreshold, r.cfg.IncreasePercent)
	case days >= float64(r.cfg.DaysThreshold):
		delta = percentOf(current, r.cfg.DiscountPercent).Neg()
		reason = fmt.Sprintf("%d days or more to departure: %d%% early-bird discount", r.cfg.DaysThreshold, r.cfg.DiscountPercent)
	default:
		delta = decimal.Zero
		reason = fmt.Sprintf("%d hours to departure, no adjustment", int(math.Round(hours)))
	}

	return !delta.IsZero(), Breakdown{
		Rule:        r.Name(),
		Reason:      reason,
		Delta:       delta,
		ResultPrice: current.Add(delta),
	}
}
