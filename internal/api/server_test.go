package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/news-archive-dataset/internal/dataset"
	"github.com/JakeFAU/news-archive-dataset/internal/metrics"
)

func TestServer_Healthz(t *testing.T) {
	t.Parallel()

	server := NewServer(nil, zap.NewNop())
	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()

		server.Handler().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, path)
		require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	}
}

func TestServer_Metrics(t *testing.T) {
	t.Parallel()

	metrics.ObserveItem(dataset.StageExtraction, string(dataset.OutcomePremium))
	server := NewServer(nil, zap.NewNop())
	server.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "dataset_items_total")
	require.Contains(t, rec.Body.String(), `dataset_api_request_duration_seconds_count{method="GET",route="/healthz",status_class="2xx"}`)
}

func TestServer_Outcomes(t *testing.T) {
	t.Parallel()

	tally := metrics.NewTally()
	tally.Observe(dataset.StageDiscovery, dataset.OutcomeSucceeded)
	tally.Observe(dataset.StageDiscovery, dataset.OutcomeTruncated)
	tally.Observe(dataset.StageExtraction, dataset.OutcomePremium)

	server := NewServer(tally, zap.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/v1/outcomes", nil)
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Stages []stageOutcomes `json:"stages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Stages, len(stages))

	assert.Equal(t, dataset.StageDiscovery, body.Stages[0].Stage)
	assert.EqualValues(t, 2, body.Stages[0].Total)
	assert.EqualValues(t, 1, body.Stages[0].Outcomes[dataset.OutcomeTruncated])
	assert.Equal(t, dataset.StageExtraction, body.Stages[2].Stage)
	assert.EqualValues(t, 1, body.Stages[2].Outcomes[dataset.OutcomePremium])
	assert.Zero(t, body.Stages[3].Total)
}

func TestServer_UnknownRoute(t *testing.T) {
	t.Parallel()

	server := NewServer(nil, zap.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/v1/jobs", nil)
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecoverMiddleware(t *testing.T) {
	t.Parallel()

	handler := recoverMiddleware(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "internal server error")
}

func TestResponseWriter_RecordsStatus(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, status: http.StatusOK}
	rw.WriteHeader(http.StatusTeapot)
	_, err := rw.Write([]byte("short and stout"))

	require.NoError(t, err)
	require.Equal(t, http.StatusTeapot, rw.status)
	require.Equal(t, "short and stout", rec.Body.String())
}

func TestServer_StartShutdown(t *testing.T) {
	t.Parallel()

	server := NewServer(nil, zap.NewNop())
	require.NoError(t, server.Shutdown(context.Background()), "shutdown before start is a no-op")

	addr, err := server.Start("127.0.0.1:0")
	require.NoError(t, err)
	_, err = server.Start("127.0.0.1:0")
	require.Error(t, err)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + addr + "/healthz")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "ok")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, server.Shutdown(ctx))
}
