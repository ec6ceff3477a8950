// Package handler implements the JSON HTTP surface: pricing, bus and coupon
// administration, and job submission/status. Handlers translate between wire
// DTOs and the domain; business logic lives in the domain packages.
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/transitkit/fare-engine/internal/domain/bus"
	"github.com/transitkit/fare-engine/internal/domain/coupon"
	"github.com/transitkit/fare-engine/internal/domain/job"
	"github.com/transitkit/fare-engine/internal/domain/pricing"
	"github.com/transitkit/fare-engine/internal/worker"
)

// Handler serves the JSON API, delegating to the pricing engine, the domain
// repositories, and the job dispatcher.
type Handler struct {
	engine     *pricing.Engine
	coupons    coupon.Repository
	buses      bus.Repository
	jobs       job.Repository
	dispatcher *worker.Dispatcher
	now        func() time.Time
}

// New constructs a Handler with the required collaborators.
func New(
	engine *pricing.Engine,
	coupons coupon.Repository,
	buses bus.Repository,
	jobs job.Repository,
	dispatcher *worker.Dispatcher,
) *Handler {
	return &Handler{
		engine:     engine,
		coupons:    coupons,
		buses:      buses,
		jobs:       jobs,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

// Register attaches all API routes to the given mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/price/calculate", h.calculatePrice)

	mux.HandleFunc("GET /api/buses", h.listBuses)
	mux.HandleFunc("POST /api/buses", h.createBus)
	mux.HandleFunc("PUT /api/buses/{id}/sold", h.updateSoldSeats)
	mux.HandleFunc("DELETE /api/buses/{id}", h.deleteBus)

	mux.HandleFunc("GET /api/coupons", h.listCoupons)
	mux.HandleFunc("GET /api/coupons/{code}", h.checkCoupon)
	mux.HandleFunc("POST /api/coupons", h.createCoupon)
	mux.HandleFunc("DELETE /api/coupons/{code}", h.deleteCoupon)

	mux.HandleFunc("POST /api/jobs/bulk-price", h.submitBulkPriceUpdate)
	mux.HandleFunc("GET /api/jobs/{id}", h.getJob)
}

// errorResponse is the uniform error body for all endpoints.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zctx.From(r.Context()).Error("encoding response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorResponse{Code: status, Message: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}
