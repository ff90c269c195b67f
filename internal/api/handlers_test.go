package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flipflow/flipflow/internal/config"
	"github.com/flipflow/flipflow/internal/engine"
	"github.com/flipflow/flipflow/internal/gateway/mock"
	"github.com/flipflow/flipflow/internal/store/memory"
)

func newTestServer(t *testing.T) (*Server, *memory.Store, *mock.Gateway) {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	st := memory.New()
	gw := mock.New()
	coord, err := engine.New(st, gw, cfg)
	require.NoError(t, err)
	return NewServer(cfg, st, gw, coord), st, gw
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthCheck(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "mock", body["ebay_mode"])
}

func validCreateBody() map[string]any {
	return map[string]any{
		"sku":            "CAM-001",
		"title":          "L@@K Canon EOS R6 Body WOW!!!",
		"description":    "<p>Great camera</p>",
		"brand":          "Canon",
		"model":          "EOS R6",
		"condition_id":   "USED_EXCELLENT",
		"purchase_price": 800,
		"list_price":     1500,
		"shipping_cost":  20,
		"photo_urls":     []string{"https://img/1.jpg", "https://img/2.jpg"},
	}
}

func TestCreateListingRunsGatekeepers(t *testing.T) {
	srv, st, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/listings", validCreateBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	title := body["title"].(map[string]any)
	assert.NotContains(t, title["sanitized"], "L@@K")
	assert.NotContains(t, title["sanitized"], "WOW")

	l, ok := st.Listing(1)
	require.True(t, ok)
	assert.Equal(t, "draft", string(l.Status))
	require.NotNil(t, l.DescriptionMobile)
	assert.NotContains(t, *l.DescriptionMobile, "<p>")
}

func TestCreateListingBlockedByProfitFloor(t *testing.T) {
	srv, _, _ := newTestServer(t)

	body := validCreateBody()
	body["purchase_price"] = 10
	body["list_price"] = 20
	body["shipping_cost"] = 5

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/listings", body)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// The override flag lets a thin-margin listing through.
	body["profit_override"] = true
	rec = doJSON(t, srv.Handler(), http.MethodPost, "/api/listings", body)
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateListingDuplicateSKU(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/listings", validCreateBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv.Handler(), http.MethodPost, "/api/listings", validCreateBody())
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetListingNotFound(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/listings/99", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateListingRejectsInvalidTransition(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/listings", validCreateBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	// draft -> sold is not an edge in the lifecycle.
	rec = doJSON(t, srv.Handler(), http.MethodPut, "/api/listings/1", map[string]any{"status": "sold"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestProfitPreview(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/gatekeeper/profit", map[string]any{
		"sale_price":      100,
		"purchase_price":  10,
		"shipping_cost":   5,
		"ad_rate_percent": 0,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "68.8", body["net_profit"])
	assert.Equal(t, true, body["meets_floor"])
}

func TestSTRValidationEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/gatekeeper/str", map[string]any{"str": 0.5})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["approved"])

	rec = doJSON(t, srv.Handler(), http.MethodPost, "/api/gatekeeper/str", map[string]any{"str": 0.2})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestEnqueueAndQueueStats(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/listings", validCreateBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv.Handler(), http.MethodPost, "/api/listings/1/enqueue", map[string]any{"priority": 5})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, srv.Handler(), http.MethodGet, "/api/queue/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decodeBody(t, rec)
	assert.Equal(t, float64(1), stats["pending"])
}

func TestRunRepricerWritesJob(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/policies/repricer/run", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv.Handler(), http.MethodGet, "/api/jobs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["count"])
}
