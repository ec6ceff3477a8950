package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/transitkit/fare-engine/internal/domain/job"
)

type bulkPriceUpdateRequest struct {
	// Percent is signed: positive raises prices, negative discounts them.
	Percent float64 `json:"percent"`
}

type jobAcceptedResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type jobResponse struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	Status     string     `json:"status"`
	Total      *int32     `json:"total"`
	Processed  *int32     `json:"processed"`
	Error      *string    `json:"error"`
	EnqueuedAt time.Time  `json:"enqueuedAt"`
	StartedAt  *time.Time `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt"`
}

// submitBulkPriceUpdate creates a job record and enqueues its task. The
// response is 202 Accepted: the work happens asynchronously and its progress
// is observable via the job status endpoint.
func (h *Handler) submitBulkPriceUpdate(w http.ResponseWriter, r *http.Request) {
	var req bulkPriceUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Percent == 0 {
		writeError(w, r, http.StatusBadRequest, "percent must be non-zero")
		return
	}
	if req.Percent <= -100 {
		writeError(w, r, http.StatusBadRequest, "percent must be greater than -100")
		return
	}

	j, err := h.dispatcher.SubmitBulkPriceUpdate(r.Context(), decimal.NewFromFloat(req.Percent))
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "submitting job failed")
		return
	}

	w.Header().Set("Location", "/api/jobs/"+j.ID.String())
	writeJSON(w, r, http.StatusAccepted, jobAcceptedResponse{
		ID:     j.ID.String(),
		Status: string(j.Status),
	})
}

// getJob returns a job's status and progress. The job row is mutated only by
// the worker; this read is eventually consistent.
func (h *Handler) getJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid job id")
		return
	}

	j, err := h.jobs.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "job not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "getting job failed")
		return
	}

	writeJSON(w, r, http.StatusOK, jobResponse{
		ID:         j.ID.String(),
		Type:       j.Type,
		Status:     string(j.Status),
		Total:      j.Total,
		Processed:  j.Processed,
		Error:      j.Error,
		EnqueuedAt: j.EnqueuedAt,
		StartedAt:  j.StartedAt,
		FinishedAt: j.FinishedAt,
	})
}
