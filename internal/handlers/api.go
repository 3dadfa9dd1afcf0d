package handlers

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"ecommerce-dashboard/internal/errors"
	"ecommerce-dashboard/internal/models"
	"ecommerce-dashboard/internal/services"
)

const cacheControl = "public, max-age=300"

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// resolveSummary turns the request's query into a summary, writing the error
// response itself when that fails. SSE handlers call it before the event
// stream starts so rejected queries still get a JSON error.
func resolveSummary(w http.ResponseWriter, r *http.Request, analytics *services.Analytics, logger *slog.Logger) (*models.Summary, bool) {
	q, err := parseSummaryQuery(r)
	if err != nil {
		errors.WriteError(w, r, logger, errors.Validation(err, "Invalid query parameters"))
		return nil, false
	}

	summary, err := analytics.Summary(r.Context(), q)
	if err != nil {
		errors.WriteError(w, r, logger, summaryError(err))
		return nil, false
	}
	return summary, true
}

func (h *APIHandlers) summary(w http.ResponseWriter, r *http.Request) (*models.Summary, bool) {
	return resolveSummary(w, r, h.analytics, h.logger)
}

func summaryError(err error) *errors.AppError {
	switch {
	case stderrors.Is(err, services.ErrInvalidRange):
		return errors.Validation(err, "Invalid date range")
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return errors.Wrap(err, errors.CodeServiceUnavail, "Summary computation was interrupted")
	default:
		return errors.Internal(err, "Failed to compute summary")
	}
}

func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.summary(w, r)
	if !ok {
		return
	}
	errors.WriteSuccessWithHeaders(w, r, summary, map[string]string{"Cache-Control": cacheControl})
}

func (h *APIHandlers) HandleTopRevenue(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.summary(w, r)
	if !ok {
		return
	}
	errors.WriteSuccessWithHeaders(w, r, summary.TopRevenue, map[string]string{"Cache-Control": cacheControl})
}

func (h *APIHandlers) HandleTopReviewed(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.summary(w, r)
	if !ok {
		return
	}
	errors.WriteSuccessWithHeaders(w, r, summary.TopReviewed, map[string]string{"Cache-Control": cacheControl})
}

func (h *APIHandlers) HandleOrderTrend(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.summary(w, r)
	if !ok {
		return
	}
	errors.WriteSuccessWithHeaders(w, r, summary.OrderTrend, map[string]string{"Cache-Control": cacheControl})
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, r, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, r, h.analytics.Stats())
}
