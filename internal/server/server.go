package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ecommerce-dashboard/internal/handlers"
	"ecommerce-dashboard/internal/middleware"
	"ecommerce-dashboard/internal/observability"
	"ecommerce-dashboard/internal/services"
)

type Server struct {
	analytics   *services.Analytics
	router      chi.Router
	logger      *slog.Logger
	metrics     *observability.Metrics
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

func NewServer(analytics *services.Analytics, logger *slog.Logger, metrics *observability.Metrics, templateHandlers *TemplateHandlers) *Server {
	s := &Server{
		analytics:   analytics,
		router:      chi.NewRouter(),
		logger:      logger,
		metrics:     metrics,
		apiHandlers: handlers.NewAPIHandlers(analytics, logger),
		sseHandlers: handlers.NewSSEHandlers(analytics, logger),
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	// Route patterns are only known inside the router.
	s.router.Use(middleware.Tracing())
	if s.metrics != nil {
		s.router.Use(middleware.Metrics(s.metrics))
	}

	// Dashboard routes
	s.router.Get("/", templateHandlers.Dashboard)
	s.router.Get("/health", s.apiHandlers.HandleHealth)
	s.router.Get("/admin/stats", s.apiHandlers.HandleStats)
	if s.metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	// REST API endpoints
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/summary", s.apiHandlers.HandleSummary)
		r.Get("/top-revenue", s.apiHandlers.HandleTopRevenue)
		r.Get("/top-reviewed", s.apiHandlers.HandleTopReviewed)
		r.Get("/order-trend", s.apiHandlers.HandleOrderTrend)
	})

	// Datastar SSE endpoints
	s.router.Route("/sse", func(r chi.Router) {
		r.Get("/metrics", s.sseHandlers.HandleMetrics)
		r.Get("/top-revenue", s.sseHandlers.HandleTopRevenue)
		r.Get("/top-reviewed", s.sseHandlers.HandleTopReviewed)
		r.Get("/order-trend", s.sseHandlers.HandleOrderTrend)
		r.Get("/refresh-all", s.sseHandlers.HandleRefreshAll)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
