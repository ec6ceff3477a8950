// Package pricing computes a dynamic seat price by threading a base price
// through an ordered chain of independent rules, producing an itemized,
// auditable breakdown.
package pricing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PriceRequest is the immutable input to one price calculation.
type PriceRequest struct {
	BasePrice     decimal.Decimal
	Capacity      int
	SoldSeats     int
	DepartureTime time.Time
	CouponCode    string
}

// Breakdown is one rule's contribution to the final price: a signed delta,
// the price after the step, and a human-readable justification.
type Breakdown struct {
	Rule        string
	Reason      string
	Delta       decimal.Decimal
	ResultPrice decimal.Decimal
}

// PriceResponse is the outcome of a calculation: the final price and each
// rule's step in application order. FinalPrice always equals the last step's
// ResultPrice, or the base price when the rule chain is empty.
type PriceResponse struct {
	FinalPrice decimal.Decimal
	Steps      []Breakdown
}

// Rule is a single pricing transformation. Apply is a pure function of the
// running price and the request; it must not mutate the request and has no
// error path — an unmet condition yields a zero delta. The applied flag is
// informational (true iff delta is non-zero); the engine adopts ResultPrice
// regardless.
type Rule interface {
	Name() string
	Apply(ctx context.Context, current decimal.Decimal, req PriceRequest) (applied bool, step Breakdown)
}

var hundred = decimal.NewFromInt(100)

// percentOf returns price * percent / 100.
func percentOf(price decimal.Decimal, percent int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(percent))).Div(hundred)
}
