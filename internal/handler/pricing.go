package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/transitkit/fare-engine/internal/domain/coupon"
	"github.com/transitkit/fare-engine/internal/domain/pricing"
)

type priceCalculateRequest struct {
	BasePrice     float64   `json:"basePrice"`
	Capacity      int       `json:"capacity"`
	SoldSeats     int       `json:"soldSeats"`
	DepartureTime time.Time `json:"departureTime"`
	CouponCode    string    `json:"couponCode,omitempty"`
}

type breakdownStep struct {
	Rule        string  `json:"rule"`
	Reason      string  `json:"reason"`
	Delta       float64 `json:"delta"`
	ResultPrice float64 `json:"resultPrice"`
}

type priceCalculateResponse struct {
	FinalPrice float64         `json:"finalPrice"`
	Steps      []breakdownStep `json:"steps"`
}

// calculatePrice validates the request, pre-checks the coupon (unknown codes
// are rejected with 404, expired ones with 400 — the engine itself degrades
// gracefully but the API surfaces the problem up front), then runs the rule
// chain.
func (h *Handler) calculatePrice(w http.ResponseWriter, r *http.Request) {
	var req priceCalculateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.BasePrice <= 0 {
		writeError(w, r, http.StatusBadRequest, "basePrice must be greater than 0")
		return
	}
	if req.Capacity <= 0 {
		writeError(w, r, http.StatusBadRequest, "capacity must be greater than 0")
		return
	}
	if req.SoldSeats < 0 || req.SoldSeats > req.Capacity {
		writeError(w, r, http.StatusBadRequest, "soldSeats must be between 0 and capacity")
		return
	}

	if req.CouponCode != "" {
		c, err := h.coupons.GetByCode(r.Context(), req.CouponCode)
		if err != nil {
			if errors.Is(err, coupon.ErrNotFound) {
				writeError(w, r, http.StatusNotFound, "coupon not found")
				return
			}
			writeError(w, r, http.StatusInternalServerError, "coupon lookup failed")
			return
		}
		if c.IsExpired(h.now()) {
			writeError(w, r, http.StatusBadRequest, "coupon expired")
			return
		}
	}

	resp := h.engine.Calculate(r.Context(), pricing.PriceRequest{
		BasePrice:     decimal.NewFromFloat(req.BasePrice),
		Capacity:      req.Capacity,
		SoldSeats:     req.SoldSeats,
		DepartureTime: req.DepartureTime,
		CouponCode:    req.CouponCode,
	})

	steps := make([]breakdownStep, len(resp.Steps))
	for i, s := range resp.Steps {
		steps[i] = breakdownStep{
			Rule:        s.Rule,
			Reason:      s.Reason,
			Delta:       s.Delta.InexactFloat64(),
			ResultPrice: s.ResultPrice.InexactFloat64(),
		}
	}

	writeJSON(w, r, http.StatusOK, priceCalculateResponse{
		FinalPrice: resp.FinalPrice.InexactFloat64(),
		Steps:      steps,
	})
}
