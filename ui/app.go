package ui

import (
	"context"
	"net/http"
	"time"

	"gosigma/app"
	"gosigma/internal"
	"gosigma/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxBodyBytes caps request bodies; series of a few hundred thousand points fit
const maxBodyBytes = 16 << 20

// App is the HTTP JSON API over the analysis service
type App struct {
	router  *chi.Mux
	service *app.AnalysisService
	reports ports.ReportRenderer
	logger  *internal.Logger
	timeout time.Duration
	server  *http.Server
}

// Config holds API server configuration
type Config struct {
	Port           string
	RequestTimeout time.Duration
}

// NewApp creates the API and wires its routes
func NewApp(config Config, service *app.AnalysisService, reports ports.ReportRenderer, logger *internal.Logger) *App {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 30 * time.Second
	}
	if config.Port == "" {
		config.Port = "8080"
	}

	a := &App{
		router:  chi.NewRouter(),
		service: service,
		reports: reports,
		logger:  logger.WithComponent("API"),
		timeout: config.RequestTimeout,
	}
	a.server = &http.Server{
		Addr:              ":" + config.Port,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	a.setupMiddleware()
	a.setupRoutes()
	return a
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.RealIP)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Timeout(a.timeout))
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/healthz", a.handleHealth)

	a.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.AllowContentType("application/json"))

		r.Post("/control-limits", a.handleControlLimits)
		r.Post("/batch/control-limits", a.handleBatchControlLimits)

		r.Post("/capability", a.handleCapability)
		r.Post("/capability/histogram", a.handleHistogram)
		r.Post("/capability/report", a.handleCapabilityReport)

		r.Post("/doe/design", a.handleDesign)
		r.Post("/doe/analyze", a.handleAnalyzeDOE)

		r.Get("/analyses", a.handleListAnalyses)
		r.Get("/analyses/{id}", a.handleGetAnalysis)
	})
}

// Handler exposes the router, mainly for tests
func (a *App) Handler() http.Handler {
	return a.router
}

// Start serves until Shutdown is called
func (a *App) Start() error {
	a.logger.Info("Starting gosigma API on %s", a.server.Addr)
	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down gosigma API")
	return a.server.Shutdown(ctx)
}
