package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/disease-map-service/internal/chart"
	"github.com/couchcryptid/disease-map-service/internal/dashboard"
	"github.com/couchcryptid/disease-map-service/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ExportFileName is the attachment name of the pivot CSV download.
const ExportFileName = "heatmap_export.csv"

// Dashboard is the view service behind the API.
type Dashboard interface {
	Catalog() domain.Catalog
	Overview(ctx context.Context, datasetID string, year int) (*chart.Overview, error)
	Choropleth(ctx context.Context, datasetID string, year int) (*domain.FeatureCollection, error)
	StateDetail(ctx context.Context, datasetID, state string) (*chart.StateDetail, error)
	Years(ctx context.Context, datasetID string) ([]int, error)
	ExportCSV(ctx context.Context, datasetID string, w io.Writer) error
	Select(ctx context.Context, sel domain.Selection) (*dashboard.Current, error)
	Current() *dashboard.Current
}

// Options configures the router.
type Options struct {
	CORSOrigins []string // empty disables CORS headers
	AssetsDir   string   // static dashboard files served at /, empty to disable
}

// Server exposes the dashboard API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	dash       Dashboard
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the /api routes, /healthz, /readyz,
// and /metrics.
func NewServer(addr string, dash Dashboard, ready sharedobs.ReadinessChecker, opts Options, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		dash:   dash,
		logger: logger,
	}

	r.Use(middleware.RequestID, middleware.RealIP, s.logRequests, middleware.Recoverer)
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{"GET", "PUT", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			ExposedHeaders: []string{"Content-Disposition"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(ready))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(45 * time.Second))
		r.Get("/datasets", s.handleDatasets)
		r.Get("/datasets/{id}/years", s.handleYears)
		r.Get("/overview", s.handleOverview)
		r.Get("/geo", s.handleGeo)
		r.Get("/states/{state}", s.handleState)
		r.Get("/export.csv", s.handleExport)
		r.Get("/selection", s.handleGetSelection)
		r.Put("/selection", s.handlePutSelection)
	})

	if opts.AssetsDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(opts.AssetsDir)))
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleDatasets(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, s.dash.Catalog())
}

func (s *Server) handleYears(w http.ResponseWriter, r *http.Request) {
	years, err := s.dash.Years(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, map[string]any{"years": years})
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	year, ok := queryYear(w, r)
	if !ok {
		return
	}
	o, err := s.dash.Overview(r.Context(), r.URL.Query().Get("dataset"), year)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, o)
}

func (s *Server) handleGeo(w http.ResponseWriter, r *http.Request) {
	year, ok := queryYear(w, r)
	if !ok {
		return
	}
	fc, err := s.dash.Choropleth(r.Context(), r.URL.Query().Get("dataset"), year)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(fc) //nolint:errcheck // client went away
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	d, err := s.dash.StateDetail(r.Context(), r.URL.Query().Get("dataset"), chi.URLParam(r, "state"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, d)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.dash.ExportCSV(r.Context(), r.URL.Query().Get("dataset"), &buf); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+ExportFileName+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck // client went away
}

func (s *Server) handleGetSelection(w http.ResponseWriter, _ *http.Request) {
	cur := s.dash.Current()
	if cur == nil {
		sharedobs.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "no selection"})
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, cur)
}

func (s *Server) handlePutSelection(w http.ResponseWriter, r *http.Request) {
	var sel domain.Selection
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&sel); err != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid selection: " + err.Error()})
		return
	}
	cur, err := s.dash.Select(r.Context(), sel)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, cur)
}

// queryYear parses the optional year parameter. It writes a 400 and returns
// false when the value is not a positive integer.
func queryYear(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		return 0, true
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year <= 0 {
		sharedobs.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "year must be a positive integer"})
		return 0, false
	}
	return year, true
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnknownDataset), errors.Is(err, domain.ErrNoBoundaries):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmptyDataset):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrSuperseded):
		return http.StatusConflict
	case domain.IsLoadError(err):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if errors.Is(err, domain.ErrEmptyDataset) {
		msg = "no data"
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "status", status, "error", err)
	}
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
