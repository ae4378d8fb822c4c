// Package api serves resampling over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"

	"taq-bars/internal/observability"
	"taq-bars/internal/sampling"
	"taq-bars/internal/storage"
)

// DefaultMaxBodyBytes bounds request bodies and websocket messages.
const DefaultMaxBodyBytes = 64 << 20

// Options configures a Server.
type Options struct {
	// BarStore backs the series endpoints and stored resamples. Optional.
	BarStore storage.BarStore
	// Engine resamples stored symbols. Optional.
	Engine sampling.SamplingEngine

	// Defaults fills parameters a request leaves unset.
	Defaults sampling.Config
	// Location is the session time zone request trades are converted to
	// before resampling, so time bars align like the Runner's. Nil keeps
	// the zone of each timestamp.
	Location *time.Location

	MaxTrades    int   // per request, 0 = unlimited
	MaxBodyBytes int64 // 0 = DefaultMaxBodyBytes

	Logger *slog.Logger
	Clock  func() time.Time
}

// Server holds the HTTP handlers.
type Server struct {
	barStore storage.BarStore
	engine   sampling.SamplingEngine
	defaults sampling.Config
	location *time.Location

	maxTrades    int
	maxBodyBytes int64

	validate *validator.Validate
	upgrader websocket.Upgrader
	logger   *slog.Logger
	clock    func() time.Time
}

// NewServer creates a new API server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	return &Server{
		barStore:     opts.BarStore,
		engine:       opts.Engine,
		defaults:     opts.Defaults,
		location:     opts.Location,
		maxTrades:    opts.MaxTrades,
		maxBodyBytes: maxBody,
		validate:     validator.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		logger: logger.With("component", "api"),
		clock:  clock,
	}
}

// Router returns the HTTP handler with every route mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(recordMetrics)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", observability.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Post("/resample", s.handleResample)
		r.Get("/ws", s.handleWS)

		r.Get("/series/{seriesID}", s.handleGetSeries)
		r.Get("/series/{seriesID}/bars", s.handleGetBars)
		r.Get("/symbols/{symbol}/series", s.handleListSeries)
		r.Post("/symbols/{symbol}/resample", s.handleRunSymbol)
	})
	return r
}

// recordMetrics records request count and latency per route pattern.
func recordMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		observability.RecordHTTPRequest(route, status, time.Since(start).Seconds())
	})
}
