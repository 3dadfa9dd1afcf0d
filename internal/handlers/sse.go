package handlers

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"ecommerce-dashboard/internal/models"
	"ecommerce-dashboard/internal/services"
)

var metricsTemplate = template.Must(template.New("metrics").Parse(`
<div id="metrics" class="metrics-grid">
<div class="metric"><span class="metric-label">Total Orders</span><span class="metric-value">{{.Orders}}</span></div>
<div class="metric"><span class="metric-label">Total Revenue</span><span class="metric-value">{{.Revenue}}</span></div>
<div class="metric"><span class="metric-label">Average Review Score</span><span class="metric-value">{{.AverageScore}}</span></div>
</div>`))

var highlightTemplate = template.Must(template.New("highlight").Parse(`
<div id="{{.ID}}" class="highlight">{{if .Value}}<span class="highlight-label">{{.Label}}</span>
<strong class="highlight-value">{{.Value}}</strong>
<span class="highlight-help">{{.Help}}</span>{{else}}<span class="highlight-empty">No orders in the selected range</span>{{end}}</div>`))

type metricsView struct {
	Orders       int
	Revenue      string
	AverageScore string
}

func newMetricsView(summary *models.Summary) metricsView {
	return metricsView{
		Orders:       summary.Totals.Orders,
		Revenue:      summary.FormattedTotalRevenue,
		AverageScore: summary.Totals.AverageScoreLabel(),
	}
}

type highlight struct {
	ID    string
	Label string
	Value string
	Help  string
}

// chartPoint is the chart-friendly form of an aggregate row.
type chartPoint struct {
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Display string  `json:"display,omitempty"`
}

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

func (h *SSEHandlers) summary(w http.ResponseWriter, r *http.Request) (*models.Summary, bool) {
	return resolveSummary(w, r, h.analytics, h.logger)
}

func (h *SSEHandlers) renderMetrics(summary *models.Summary) (string, error) {
	var buf strings.Builder
	err := metricsTemplate.Execute(&buf, newMetricsView(summary))
	return buf.String(), err
}

func (h *SSEHandlers) renderHighlight(hl highlight) (string, error) {
	var buf strings.Builder
	err := highlightTemplate.Execute(&buf, hl)
	return buf.String(), err
}

func revenueHighlight(summary *models.Summary) highlight {
	hl := highlight{ID: "revenue-content", Label: "Highest Revenue Category"}
	if len(summary.TopRevenue) > 0 {
		top := summary.TopRevenue[0]
		hl.Value = top.Category
		hl.Help = "Revenue: " + top.FormattedValue
	}
	return hl
}

func reviewHighlight(summary *models.Summary) highlight {
	hl := highlight{ID: "review-content", Label: "Highest Reviewed Category"}
	if len(summary.TopReviewed) > 0 {
		top := summary.TopReviewed[0]
		hl.Value = top.Category
		hl.Help = "Score: " + top.Value.StringFixed(2)
	}
	return hl
}

func trendHighlight(summary *models.Summary) highlight {
	hl := highlight{ID: "trend-content", Label: "Month With Most Orders"}
	if summary.PeakMonth != nil {
		hl.Value = summary.PeakMonth.Label
		hl.Help = "Total orders: " + strconv.Itoa(summary.PeakMonth.OrderCount)
	}
	return hl
}

func revenueChart(aggs []models.CategoryAggregate) []chartPoint {
	points := make([]chartPoint, len(aggs))
	for i, a := range aggs {
		points[i] = chartPoint{Label: a.Category, Value: a.Value.InexactFloat64(), Display: a.FormattedValue}
	}
	return points
}

func reviewChart(aggs []models.CategoryAggregate) []chartPoint {
	points := make([]chartPoint, len(aggs))
	for i, a := range aggs {
		points[i] = chartPoint{Label: a.Category, Value: a.Value.Round(2).InexactFloat64()}
	}
	return points
}

func trendChart(trend []models.MonthBucket) []chartPoint {
	points := make([]chartPoint, len(trend))
	for i, b := range trend {
		points[i] = chartPoint{Label: b.Label, Value: float64(b.OrderCount)}
	}
	return points
}

// stream patches the given elements and signals onto a new event stream.
func (h *SSEHandlers) stream(w http.ResponseWriter, r *http.Request, signals map[string]any, elements ...string) {
	sse := datastar.NewSSE(w, r)

	for _, el := range elements {
		if err := sse.PatchElements(el); err != nil {
			h.logger.Error("patch elements", "error", err)
			return
		}
	}

	if len(signals) > 0 {
		jsonData, err := json.Marshal(signals)
		if err != nil {
			h.logger.Error("marshal signals", "error", err)
			return
		}
		if err := sse.PatchSignals(jsonData); err != nil {
			h.logger.Error("patch signals", "error", err)
			return
		}
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.summary(w, r)
	if !ok {
		return
	}
	html, err := h.renderMetrics(summary)
	if err != nil {
		h.logger.Error("render metrics", "error", err)
		return
	}
	h.stream(w, r, nil, html)
}

func (h *SSEHandlers) HandleTopRevenue(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.summary(w, r)
	if !ok {
		return
	}
	html, err := h.renderHighlight(revenueHighlight(summary))
	if err != nil {
		h.logger.Error("render revenue highlight", "error", err)
		return
	}
	h.stream(w, r, map[string]any{"revenueData": revenueChart(summary.TopRevenue)}, html)
}

func (h *SSEHandlers) HandleTopReviewed(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.summary(w, r)
	if !ok {
		return
	}
	html, err := h.renderHighlight(reviewHighlight(summary))
	if err != nil {
		h.logger.Error("render review highlight", "error", err)
		return
	}
	h.stream(w, r, map[string]any{"reviewData": reviewChart(summary.TopReviewed)}, html)
}

func (h *SSEHandlers) HandleOrderTrend(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.summary(w, r)
	if !ok {
		return
	}
	html, err := h.renderHighlight(trendHighlight(summary))
	if err != nil {
		h.logger.Error("render trend highlight", "error", err)
		return
	}
	h.stream(w, r, map[string]any{"trendData": trendChart(summary.OrderTrend)}, html)
}

func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.summary(w, r)
	if !ok {
		return
	}

	metricsHTML, err := h.renderMetrics(summary)
	if err != nil {
		h.logger.Error("render metrics", "error", err)
		return
	}
	elements := []string{metricsHTML}
	for _, hl := range []highlight{revenueHighlight(summary), reviewHighlight(summary), trendHighlight(summary)} {
		html, err := h.renderHighlight(hl)
		if err != nil {
			h.logger.Error("render highlight", "id", hl.ID, "error", err)
			return
		}
		elements = append(elements, html)
	}

	h.stream(w, r, map[string]any{
		"revenueData": revenueChart(summary.TopRevenue),
		"reviewData":  reviewChart(summary.TopReviewed),
		"trendData":   trendChart(summary.OrderTrend),
	}, elements...)
}
