package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/transitkit/fare-engine/internal/domain/coupon"
)

// CouponRule applies a percentage discount when the request carries a valid
// coupon code. A missing, unknown, or expired code never fails the
// calculation — rejection of bad codes is the boundary layer's concern; the
// rule records the outcome in the step's reason and leaves the price
// untouched.
type CouponRule struct {
	coupons coupon.Finder
	now     func() time.Time
}

// NewCouponRule builds a CouponRule backed by the given coupon lookup.
func NewCouponRule(coupons coupon.Finder) *CouponRule {
	return &CouponRule{coupons: coupons, now: time.Now}
}

func (r *CouponRule) Name() string { return "coupon" }

// Apply discounts the running price by the coupon's percentage. The discount
// is computed against the current (occupancy- and time-adjusted) price, not
// the original base price.
func (r *CouponRule) Apply(ctx context.Context, current decimal.Decimal, req PriceRequest) (bool, Breakdown) {
	skip := func(reason string) (bool, Breakdown) {
		return false, Breakdown{
			Rule:        r.Name(),
			Reason:      reason,
			Delta:       decimal.Zero,
			ResultPrice: current,
		}
	}

	code := coupon.Normalize(req.CouponCode)
	if code == "" {
		return skip("no coupon code")
	}

	c, err := r.coupons.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, coupon.ErrNotFound) {
			return skip(fmt.Sprintf("invalid coupon %s", code))
		}
		return skip(fmt.Sprintf("coupon %s lookup unavailable", code))
	}

	if c.IsExpired(r.now()) {
		return skip(fmt.Sprintf("expired coupon %s (ended %s)", c.Code, c.ExpireAt.Format("2006-01-02")))
	}

	delta := percentOf(current, c.Percent).Neg()
	return true, Breakdown{
		Rule:        r.Name(),
		Reason:      fmt.Sprintf("valid coupon %s: %d%% discount (until %s)", c.Code, c.Percent, c.ExpireAt.Format("2006-01-02")),
		Delta:       delta,
		ResultPrice: current.Add(delta),
	}
}
