package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"

	"github.com/transitkit/fare-engine/internal/domain/coupon"
)

type couponResponse struct {
	Code     string    `json:"code"`
	Percent  int       `json:"percent"`
	ExpireAt time.Time `json:"expireAt"`
	Expired  bool      `json:"expired"`
}

type createCouponRequest struct {
	Code     string    `json:"code"`
	Percent  int       `json:"percent"`
	ExpireAt time.Time `json:"expireAt"`
}

func (h *Handler) listCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.coupons.List(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "listing coupons failed")
		return
	}

	now := h.now()
	resp := make([]couponResponse, len(coupons))
	for i, c := range coupons {
		resp[i] = couponResponse{
			Code:     c.Code,
			Percent:  c.Percent,
			ExpireAt: c.ExpireAt,
			Expired:  c.IsExpired(now),
		}
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// checkCoupon reports whether a code is usable: 404 for unknown codes, 400
// for expired ones.
func (h *Handler) checkCoupon(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	c, err := h.coupons.GetByCode(r.Context(), code)
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

	writeJSON(w, r, http.StatusOK, couponResponse{
		Code:     c.Code,
		Percent:  c.Percent,
		ExpireAt: c.ExpireAt,
	})
}

func (h *Handler) createCoupon(w http.ResponseWriter, r *http.Request) {
	var req createCouponRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	code := coupon.Normalize(req.Code)
	if code == "" || req.Percent < 1 || req.Percent > 100 {
		writeError(w, r, http.StatusBadRequest, "code required and percent must be 1..100")
		return
	}

	c := coupon.Coupon{Code: code, Percent: req.Percent, ExpireAt: req.ExpireAt}
	if err := h.coupons.Create(r.Context(), c); err != nil {
		if errors.Is(err, coupon.ErrCodeTaken) {
			writeError(w, r, http.StatusConflict, "coupon code already exists")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "creating coupon failed")
		return
	}

	w.Header().Set("Location", "/api/coupons/"+c.Code)
	writeJSON(w, r, http.StatusCreated, couponResponse{
		Code:     c.Code,
		Percent:  c.Percent,
		ExpireAt: c.ExpireAt,
	})
}

func (h *Handler) deleteCoupon(w http.ResponseWriter, r *http.Request) {
	code := coupon.Normalize(r.PathValue("code"))

	if err := h.coupons.Delete(r.Context(), code); err != nil {
		if errors.Is(err, coupon.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "coupon not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "deleting coupon failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
