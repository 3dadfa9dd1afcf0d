package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"ecommerce-dashboard/internal/config"
	"ecommerce-dashboard/internal/currency"
	"ecommerce-dashboard/internal/dataset"
	"ecommerce-dashboard/internal/middleware"
	"ecommerce-dashboard/internal/observability"
	"ecommerce-dashboard/internal/server"
	"ecommerce-dashboard/internal/services"
	"ecommerce-dashboard/internal/ui/templates"
)

const (
	renderTimeout    = 10 * time.Second
	rateLimiterSweep = time.Minute
	cacheMaxAge      = "public, max-age=300"
)

// handleDashboard renders the page with the full-range headline metrics. The
// aggregates are streamed in by the page over SSE.
func handleDashboard(analytics *services.Analytics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		summary, err := analytics.Summary(ctx, services.SummaryQuery{})
		if err != nil {
			http.Error(w, "summary error", http.StatusInternalServerError)
			return
		}

		view := templates.DashboardView{Summary: summary, TopN: analytics.TopN()}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", cacheMaxAge)
		if err := templates.Dashboard(view).Render(ctx, w); err != nil {
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", observability.ServiceVersion,
		"config", cfg,
	)

	shutdownTracing, err := observability.InitTracing(cfg.Tracing, logger)
	if err != nil {
		logger.Error("failed to initialise tracing", "error", err)
		os.Exit(1)
	}

	formatter, err := currency.NewFormatter(cfg.Dashboard.Locale, cfg.Dashboard.Currency,
		currency.WithFractionDigits(cfg.Dashboard.FractionDigits))
	if err != nil {
		logger.Error("invalid currency settings", "error", err)
		os.Exit(1)
	}

	metrics := observability.NewMetrics()

	analytics := services.NewAnalytics(
		services.WithTopN(cfg.Dashboard.TopN),
		services.WithFormatter(formatter),
		services.WithMetrics(metrics),
		services.WithLogger(logger),
	)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Data.LoadTimeout)
	err = analytics.LoadFromFile(ctx, cfg.Data.File)
	cancel()
	if err != nil {
		var loadErr *dataset.LoadError
		if errors.As(err, &loadErr) {
			logger.Error("failed to load dataset",
				"path", loadErr.Path,
				"op", loadErr.Op,
				"row", loadErr.Row,
				"error", loadErr.Err,
			)
		} else {
			logger.Error("failed to load dataset", "error", err)
		}
		os.Exit(1)
	}

	templateHandlers := &server.TemplateHandlers{
		Dashboard: handleDashboard(analytics),
	}

	srv := server.NewServer(analytics, logger, metrics, templateHandlers)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go rateLimiter.Run(sweepCtx, rateLimiterSweep)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	handler := middlewareChain(srv)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook("rate limiter", func(context.Context) error {
		stopSweep()
		return nil
	})
	gracefulServer.RegisterShutdownHook("tracing", shutdownTracing)

	if err := gracefulServer.ListenAndServe(context.Background()); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
