package server

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aouyang1/revforecast"
	"github.com/aouyang1/revforecast/config"
	"github.com/aouyang1/revforecast/render"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioCSV = "Date,Revenue\n2023-01-01,100\n2023-02-01,110\n2023-03-01,105\n"

func newTestServer(cfg config.ServerConfig) *Server {
	return New(cfg, revforecast.DefaultHorizon, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newUploadRequest(t *testing.T, path, filename, content, months string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		fw, err := mw.CreateFormFile(render.FileField, filename)
		require.Nil(t, err)
		_, err = io.WriteString(fw, content)
		require.Nil(t, err)
	}
	if months != "" {
		require.Nil(t, mw.WriteField(render.MonthsField, months))
	}
	require.Nil(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestIndex(t *testing.T) {
	srv := newTestServer(config.DefaultConfig().Server)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `enctype="multipart/form-data"`)
	assert.Contains(t, rec.Body.String(), `value="6"`)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestForecastPage(t *testing.T) {
	testData := map[string]struct {
		filename string
		content  string
		months   string
		status   int
		contains []string
		excludes []string
	}{
		"scenario": {
			filename: "revenue.csv",
			content:  scenarioCSV,
			months:   "1",
			status:   http.StatusOK,
			contains: []string{
				"<h2>" + revforecast.TitleSeries + "</h2>",
				"<h2>" + revforecast.TitleWindow + "</h2>",
				"<th>yhat_upper</th>",
				"<td>2023-03-31</td>",
				"<iframe",
			},
			excludes: []string{`class="error"`},
		},
		"missing columns": {
			filename: "revenue.csv",
			content:  "Date,Sales\n2023-01-01,100\n",
			months:   "1",
			status:   http.StatusOK,
			contains: []string{
				"Your file must include &#39;Date&#39; and &#39;Revenue&#39; columns (missing: Revenue)",
			},
			excludes: []string{"<iframe", "<h2>"},
		},
		"no file": {
			months:   "1",
			status:   http.StatusBadRequest,
			contains: []string{"Something went wrong: unable to read file: no file uploaded"},
		},
		"horizon out of range": {
			filename: "revenue.csv",
			content:  scenarioCSV,
			months:   "30",
			status:   http.StatusBadRequest,
			contains: []string{"forecast horizon out of range"},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			srv := newTestServer(config.DefaultConfig().Server)
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, newUploadRequest(t, "/forecast", td.filename, td.content, td.months))

			assert.Equal(t, td.status, rec.Code)
			for _, c := range td.contains {
				assert.Contains(t, rec.Body.String(), c)
			}
			for _, c := range td.excludes {
				assert.NotContains(t, rec.Body.String(), c)
			}
		})
	}
}

func TestForecastAPI(t *testing.T) {
	srv := newTestServer(config.DefaultConfig().Server)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, newUploadRequest(t, "/api/forecast", "revenue.csv", scenarioCSV, "2"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var doc render.Document
	require.Nil(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Len(t, doc.Series, 3)
	assert.Len(t, doc.Predictions, 63)
	require.Len(t, doc.Window, 60)
	assert.True(t, doc.Window[0].T.After(time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.Empty(t, doc.Error)
	assert.True(t, strings.HasPrefix(doc.Equation, "y ~ "))
	require.NotNil(t, doc.Model)
	assert.Greater(t, len(doc.Model.Weights.Coef), 0)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, newUploadRequest(t, "/api/forecast", "revenue.csv", "Date,Revenue\n2023-01-01,\n", ""))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	doc = render.Document{}
	require.Nil(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "Something went wrong: no valid rows: no complete rows", doc.Error)
	assert.Empty(t, doc.Window)
	assert.Nil(t, doc.Model)
}

func TestUploadTooLarge(t *testing.T) {
	cfg := config.DefaultConfig().Server
	cfg.MaxUploadMB = 1

	content := "Date,Revenue\n" + strings.Repeat("2023-01-01,100\n", 80000)
	srv := newTestServer(cfg)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, newUploadRequest(t, "/api/forecast", "revenue.csv", content, "1"))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "upload exceeds the size limit")
}

func TestRateLimit(t *testing.T) {
	cfg := config.DefaultConfig().Server
	cfg.RequestsPerSecond = 0.001
	cfg.Burst = 1
	srv := newTestServer(cfg)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, newUploadRequest(t, "/api/forecast", "revenue.csv", "Date,Sales\n", "1"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, newUploadRequest(t, "/api/forecast", "revenue.csv", "Date,Sales\n", "1"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// the upload page is never limited
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(config.DefaultConfig().Server)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, newUploadRequest(t, "/forecast", "revenue.csv", scenarioCSV, "1"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "revforecast_runs_total")
	assert.Contains(t, rec.Body.String(), `revforecast_http_requests_total{code="200",handler="forecast"}`)
	assert.Contains(t, rec.Body.String(), "revforecast_stage_duration_seconds")
}

func TestRunShutdown(t *testing.T) {
	cfg := config.DefaultConfig().Server
	cfg.Listen = "127.0.0.1:0"
	srv := newTestServer(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.Nil(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestNewDefaultHorizon(t *testing.T) {
	srv := New(config.DefaultConfig().Server, 0, nil)
	assert.Equal(t, revforecast.DefaultHorizon, srv.horizon)
}
