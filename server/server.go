// Package server serves the upload page and the forecast endpoints
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/aouyang1/revforecast"
	"github.com/aouyang1/revforecast/config"
	"github.com/aouyang1/revforecast/metrics"
	"github.com/aouyang1/revforecast/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

var ErrUploadTooLarge = errors.New("upload exceeds the size limit")

const multipartMemory = 8 << 20

type Server struct {
	cfg     config.ServerConfig
	horizon revforecast.Horizon
	logger  *slog.Logger
	limiter *rate.Limiter

	// Factory builds the model of each run
	Factory revforecast.ModelFactory

	// runs execute one at a time
	runMu sync.Mutex
}

// New creates a server. An invalid default horizon falls back to six months.
func New(cfg config.ServerConfig, horizon revforecast.Horizon, logger *slog.Logger) *Server {
	if horizon.Validate() != nil {
		horizon = revforecast.DefaultHorizon
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:     cfg,
		horizon: horizon,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		Factory: revforecast.DefaultModelFactory,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /{$}", s.instrument("index", http.HandlerFunc(s.handleIndex)))
	mux.Handle("POST /forecast", s.instrument("forecast", s.rateLimit("forecast", http.HandlerFunc(s.handleForecast))))
	mux.Handle("POST /api/forecast", s.instrument("api_forecast", s.rateLimit("api_forecast", http.HandlerFunc(s.handleAPIForecast))))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// Run serves until the context is cancelled and then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.cfg.Listen,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout.Duration,
		WriteTimeout: s.cfg.WriteTimeout.Duration,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("unable to shut down server", "err", err)
		}
	}()

	s.logger.Info("serving", "listen", s.cfg.Listen)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.writePage(w, http.StatusOK, render.NewPage(s.horizon))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "ok\n")
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	page := render.NewPage(s.horizon)

	upload, err := s.readUpload(w, r)
	if err != nil {
		page.RenderError(revforecast.Message(err))
		s.writePage(w, uploadStatus(err), page)
		return
	}
	defer upload.file.Close()

	page.Horizon = upload.horizon
	s.forecast(r.Context(), page, upload)
	s.writePage(w, http.StatusOK, page)
}

func (s *Server) handleAPIForecast(w http.ResponseWriter, r *http.Request) {
	doc := render.NewJSON()

	upload, err := s.readUpload(w, r)
	if err != nil {
		doc.RenderError(revforecast.Message(err))
		s.writeJSON(w, uploadStatus(err), doc)
		return
	}
	defer upload.file.Close()

	status := http.StatusOK
	if _, err := s.forecast(r.Context(), doc, upload); err != nil {
		status = http.StatusUnprocessableEntity
	}
	s.writeJSON(w, status, doc)
}

func (s *Server) forecast(ctx context.Context, surface revforecast.Surface, u *upload) (*revforecast.Result, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	p := revforecast.NewPipeline(surface)
	p.Factory = s.Factory
	p.Logger = s.logger
	return p.Run(ctx, u.name, u.file, u.horizon)
}

type upload struct {
	name    string
	file    multipart.File
	horizon revforecast.Horizon
}

// readUpload reads the file and months fields of a multipart form
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*upload, error) {
	if r.ContentLength > s.cfg.MaxUploadBytes() {
		return nil, fmt.Errorf("%w: %w", revforecast.ErrIngest, ErrUploadTooLarge)
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes())
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("%w: %w", revforecast.ErrIngest, ErrUploadTooLarge)
		}
		return nil, fmt.Errorf("%w: unable to read form, %w", revforecast.ErrIngest, err)
	}

	h := s.horizon
	if months := r.FormValue(render.MonthsField); months != "" {
		var err error
		h, err = revforecast.ParseHorizon(months)
		if err != nil {
			return nil, err
		}
	}

	file, header, err := r.FormFile(render.FileField)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", revforecast.ErrIngest, revforecast.ErrNoFile)
	}
	metrics.UploadBytes.Observe(float64(header.Size))

	return &upload{
		name:    header.Filename,
		file:    file,
		horizon: h,
	}, nil
}

func uploadStatus(err error) int {
	switch {
	case errors.Is(err, ErrUploadTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusBadRequest
	}
}

func (s *Server) writePage(w http.ResponseWriter, status int, page *render.Page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := page.Render(w); err != nil {
		s.logger.Error("unable to render page", "err", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, doc *render.JSON) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := doc.Encode(w); err != nil {
		s.logger.Error("unable to encode response", "err", err)
	}
}

func (s *Server) rateLimit(name string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			metrics.RateLimitedTotal.WithLabelValues(name).Inc()
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) instrument(name string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		metrics.HTTPRequestsTotal.WithLabelValues(name, strconv.Itoa(rec.status)).Inc()
		s.logger.Info("request",
			"handler", name, "method", r.Method, "path", r.URL.Path,
			"status", rec.status, "duration", time.Since(start))
	})
}
