package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/transitkit/fare-engine/internal/domain/bus"
)

type busResponse struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Capacity      int       `json:"capacity"`
	SoldSeats     int       `json:"soldSeats"`
	BasePrice     float64   `json:"basePrice"`
	DepartureTime time.Time `json:"departureTime"`
}

type createBusRequest struct {
	Name          string    `json:"name"`
	Capacity      int       `json:"capacity"`
	SoldSeats     int       `json:"soldSeats"`
	BasePrice     float64   `json:"basePrice"`
	DepartureTime time.Time `json:"departureTime"`
}

type updateSoldSeatsRequest struct {
	SoldSeats int `json:"soldSeats"`
}

func toBusResponse(b bus.Bus) busResponse {
	return busResponse{
		ID:            b.ID,
		Name:          b.Name,
		Capacity:      b.Capacity,
		SoldSeats:     b.SoldSeats,
		BasePrice:     b.BasePrice.InexactFloat64(),
		DepartureTime: b.DepartureTime,
	}
}

func (h *Handler) listBuses(w http.ResponseWriter, r *http.Request) {
	buses, err := h.buses.ListByDeparture(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "listing buses failed")
		return
	}

	resp := make([]busResponse, len(buses))
	for i, b := range buses {
		resp[i] = toBusResponse(b)
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (h *Handler) createBus(w http.ResponseWriter, r *http.Request) {
	var req createBusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Name) == "" || req.Capacity <= 0 || req.BasePrice <= 0 {
		writeError(w, r, http.StatusBadRequest, "name, capacity and basePrice must be valid")
		return
	}
	if req.SoldSeats < 0 || req.SoldSeats > req.Capacity {
		writeError(w, r, http.StatusBadRequest, "soldSeats must be between 0 and capacity")
		return
	}

	b := &bus.Bus{
		Name:          strings.TrimSpace(req.Name),
		Capacity:      req.Capacity,
		SoldSeats:     req.SoldSeats,
		BasePrice:     decimal.NewFromFloat(req.BasePrice),
		DepartureTime: req.DepartureTime,
	}
	if err := h.buses.Create(r.Context(), b); err != nil {
		writeError(w, r, http.StatusInternalServerError, "creating bus failed")
		return
	}

	w.Header().Set("Location", "/api/buses/"+strconv.FormatInt(b.ID, 10))
	writeJSON(w, r, http.StatusCreated, toBusResponse(*b))
}

func (h *Handler) updateSoldSeats(w http.ResponseWriter, r *http.Request) {
	id, ok := busID(w, r)
	if !ok {
		return
	}

	var req updateSoldSeatsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	b, err := h.buses.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, bus.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "bus not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "getting bus failed")
		return
	}

	if req.SoldSeats < 0 || req.SoldSeats > b.Capacity {
		writeError(w, r, http.StatusBadRequest, "soldSeats must be between 0 and capacity")
		return
	}

	if err := h.buses.UpdateSoldSeats(r.Context(), id, req.SoldSeats); err != nil {
		writeError(w, r, http.StatusInternalServerError, "updating bus failed")
		return
	}

	b.SoldSeats = req.SoldSeats
	writeJSON(w, r, http.StatusOK, toBusResponse(*b))
}

func (h *Handler) deleteBus(w http.ResponseWriter, r *http.Request) {
	id, ok := busID(w, r)
	if !ok {
		return
	}

	if err := h.buses.Delete(r.Context(), id); err != nil {
		if errors.Is(err, bus.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "bus not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "deleting bus failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func busID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid bus id")
		return 0, false
	}
	return id, true
}
