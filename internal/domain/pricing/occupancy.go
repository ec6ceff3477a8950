package pricing

import (
	"context"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// OccupancyConfig holds the thresholds and adjustment percentages for the
// occupancy rule. Thresholds are occupancy percentages; a seat load exactly
// on a threshold triggers no adjustment.
type OccupancyConfig struct {
	LowThreshold        int `default:"20" usage:"Occupancy % below which the discount applies"`
	HighThreshold       int `default:"80" usage:"Occupancy % above which the surcharge applies"`
	LowDiscountPercent  int `default:"10" usage:"Discount % for low occupancy"`
	HighIncreasePercent int `default:"20" usage:"Surcharge % for high occupancy"`
}

// OccupancyRule discounts underbooked journeys and surcharges nearly full
// ones, based on the sold/capacity ratio.
type OccupancyRule struct {
	cfg OccupancyConfig
}

// NewOccupancyRule builds an OccupancyRule from an explicit config.
func NewOccupancyRule(cfg OccupancyConfig) *OccupancyRule {
	return &OccupancyRule{cfg: cfg}
}

func (r *OccupancyRule) Name() string { return "occupancy" }

// Apply computes occupancy as soldSeats*100/capacity rounded to the nearest
// integer, with midpoints rounding to even (80.5% counts as 80%). Capacity
// zero is treated as 0% occupancy; validation of the request is the boundary
// layer's job.
func (r *OccupancyRule) Apply(_ context.Context, current decimal.Decimal, req PriceRequest) (bool, Breakdown) {
	occ := 0
	if req.Capacity > 0 {
		occ = int(math.RoundToEven(float64(req.SoldSeats) * 100 / float64(req.Capacity)))
	}

	var (
		delta  decimal.Decimal
		reason string
	)
	switch {
	case occ < r.cfg.LowThreshold:
		delta = percentOf(current, r.cfg.LowDiscountPercent).Neg()
		reason = fmt.Sprintf("occupancy %d%% below %d%%: %d%% discount", occ, r.cfg.LowThreshold, r.cfg.LowDiscountPercent)
	case occ > r.cfg.HighThreshold:
		delta = percentOf(current, r.cfg.HighIncreasePercent)
		reason = fmt.Sprintf("occupancy %d%% above %d%%: %d%% surcharge", occ, r.cfg.HighThreshold, r.cfg.HighIncreasePercent)
	default:
		delta = decimal.Zero
		reason = fmt.Sprintf("occupancy %d%% within band, no adjustment", occ)
	}

	return !delta.IsZero(), Breakdown{
		Rule:        r.Name(),
		Reason:      reason,
		Delta:       delta,
		ResultPrice: current.Add(delta),
	}
}
