package pricing

import (
	"context"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// Engine runs an ordered chain of rules over a running price. Order is fixed
// at construction and is a documented contract: deltas are percentages of the
// running price, so a later rule compounds on the adjustments of earlier
// ones. The standard chain is occupancy, time pressure, coupon — the coupon
// discount is therefore computed off the occupancy- and time-adjusted price.
type Engine struct {
	rules []Rule
}

// NewEngine builds an Engine applying the given rules in argument order.
func NewEngine(rules ...Rule) *Engine {
	return &Engine{rules: rules}
}

// Calculate threads the request's base price through every rule, collecting
// one breakdown step per rule (no-op steps included). The engine performs no
// request validation; that is a boundary responsibility.
func (e *Engine) Calculate(ctx context.Context, req PriceRequest) PriceResponse {
	lg := zctx.From(ctx)
	lg.Debug("price calculation started",
		zap.String("base_price", req.BasePrice.String()),
		zap.Int("capacity", req.Capacity),
		zap.Int("sold_seats", req.SoldSeats),
		zap.Time("departure", req.DepartureTime),
		zap.String("coupon_code", req.CouponCode),
	)

	steps := make([]Breakdown, 0, len(e.rules))
	price := req.BasePrice

	for _, rule := range e.rules {
		applied, step := rule.Apply(ctx, price, req)
		steps = append(steps, step)

		if applied {
			lg.Info("rule applied",
				zap.String("rule", step.Rule),
				zap.String("reason", step.Reason),
				zap.String("delta", step.Delta.String()),
				zap.String("result", step.ResultPrice.String()),
			)
		} else {
			lg.Debug("rule skipped",
				zap.String("rule", step.Rule),
				zap.String("reason", step.Reason),
			)
		}

		price = step.ResultPrice
	}

	lg.Debug("price calculation finished",
		zap.String("final_price", price.String()),
		zap.Int("steps", len(steps)),
	)

	return PriceResponse{FinalPrice: price, Steps: steps}
}
