package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mrbrightsides/sentinel/internal/httpx"
	"github.com/mrbrightsides/sentinel/internal/observability"
	"github.com/mrbrightsides/sentinel/internal/page"
	"github.com/mrbrightsides/sentinel/internal/probe"
	"github.com/mrbrightsides/sentinel/internal/render"
)

const defaultRequestTimeout = 30 * time.Second

// Config holds runtime options for the Sentinel HTTP server.
type Config struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	Logger   *zap.Logger
	Renderer *render.Renderer
	// Pages supplies the page for every request. It may be swapped while serving.
	Pages *page.Store
	// Probe backs /status/embed. Nil disables the route.
	Probe *probe.Client

	// InstanceID identifies this process in health output; generated when empty.
	InstanceID string
	StartedAt  time.Time
	Now        func() time.Time
}

// New constructs the HTTP server with its middleware stack.
func New(cfg Config) *http.Server {
	return &http.Server{
		Addr:              cfg.Address,
		Handler:           NewHandler(cfg),
		ReadTimeout:       durationOr(cfg.ReadTimeout, 15*time.Second),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      durationOr(cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       durationOr(cfg.IdleTimeout, 60*time.Second),
		ErrorLog:          zap.NewStdLog(loggerOrNop(cfg.Logger)),
	}
}

// NewHandler builds the router without binding a listener.
func NewHandler(cfg Config) http.Handler {
	logger := loggerOrNop(cfg.Logger)
	if cfg.Pages == nil {
		cfg.Pages = page.NewStore(page.DefaultConfig())
	}
	if cfg.InstanceID == "" {
		cfg.InstanceID = ulid.Make().String()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.StartedAt.IsZero() {
		cfg.StartedAt = cfg.Now()
	}
	renderer := cfg.Renderer
	if renderer == nil {
		var err error
		if renderer, err = render.New(); err != nil {
			logger.Fatal("parse page templates", zap.Error(err))
		}
	}

	h := &handlers{
		renderer:   renderer,
		pages:      cfg.Pages,
		probe:      cfg.Probe,
		instanceID: cfg.InstanceID,
		startedAt:  cfg.StartedAt,
		now:        cfg.Now,
	}

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(observability.TraceMiddleware())
	router.Use(observability.InjectLoggerMiddleware(logger.With(zap.String("instance", cfg.InstanceID))))
	router.Use(observability.RequestLoggerMiddleware())
	router.Use(observability.RecoveryMiddleware(logger))
	router.Use(chimw.GetHead)
	router.Use(chimw.Compress(5))
	router.Use(chimw.Timeout(durationOr(cfg.WriteTimeout, defaultRequestTimeout)))
	router.Use(SecurityHeaders(cfg.Pages))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(w, r, httpx.NotFound())
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(w, r, httpx.NewError("method_not_allowed", "method not allowed", http.StatusMethodNotAllowed))
	})

	router.Get("/", h.page)
	router.Get("/healthz", h.health)
	router.Get("/status/embed", h.embedStatus)
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return router
}

func durationOr(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}

func loggerOrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
