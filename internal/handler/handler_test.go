package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/transitkit/fare-engine/internal/domain/pricing"
	"github.com/transitkit/fare-engine/internal/worker"
)

type testEnv struct {
	mux     *http.ServeMux
	coupons *fakeCouponRepo
	buses   *fakeBusRepo
	jobs    *fakeJobRepo
	queue   *worker.Queue
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	coupons := newFakeCouponRepo()
	buses := newFakeBusRepo()
	jobs := newFakeJobRepo()
	queue := worker.NewQueue(8)

	engine := pricing.NewEngine(
		pricing.NewOccupancyRule(pricing.OccupancyConfig{
			LowThreshold:        20,
			HighThreshold:       80,
			LowDiscountPercent:  10,
			HighIncreasePercent: 20,
		}),
		pricing.NewTimePressureRule(pricing.TimePressureConfig{
			IncreasePercent: 15,
			DiscountPercent: 15,
			HoursThreshold:  24,
			DaysThreshold:   30,
		}),
		pricing.NewCouponRule(coupons),
	)

	h := New(engine, coupons, buses, jobs, worker.NewDispatcher(jobs, queue))
	mux := http.NewServeMux()
	h.Register(mux)

	return &testEnv{mux: mux, coupons: coupons, buses: buses, jobs: jobs, queue: queue}
}

// do performs an in-process request and decodes the JSON response body into
// out when out is non-nil.
func (e *testEnv) do(t *testing.T, method, path string, body, out any) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reqBody)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)

	if out != nil && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out),
			"body: %s", rec.Body.String())
	}
	return rec
}
