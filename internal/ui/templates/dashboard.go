// Package templates renders the dashboard page from dashboard.templ.
// Aggregates are filled in by the datastar SSE endpoints after the page
// loads; the page itself carries the headline metrics and the date-range
// picker bounds.
package templates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/a-h/templ"

	"ecommerce-dashboard/internal/models"
)

const Title = "E-Commerce Dashboard"

type DashboardView struct {
	Summary *models.Summary
	TopN    int
}

type pageData struct {
	Title        string
	Subtitle     string
	TopN         int
	Orders       int
	Revenue      string
	AverageScore string
	MinDate      string
	MaxDate      string
	Signals      string
	Year         int
}

// Dashboard renders the full dashboard page for view.
func Dashboard(view DashboardView) templ.Component {
	data, err := newPageData(view)
	if err != nil {
		return templ.ComponentFunc(func(context.Context, io.Writer) error {
			return err
		})
	}
	return page(data)
}

func newPageData(view DashboardView) (pageData, error) {
	data := pageData{
		Title:    Title,
		Subtitle: "Order revenue, review scores and monthly trend",
		TopN:     view.TopN,
		Year:     time.Now().Year(),
	}

	signals := map[string]any{
		"start":       "",
		"end":         "",
		"revenueData": []any{},
		"reviewData":  []any{},
		"trendData":   []any{},
	}

	if s := view.Summary; s != nil {
		data.Orders = s.Totals.Orders
		data.Revenue = s.FormattedTotalRevenue
		data.AverageScore = s.Totals.AverageScoreLabel()
		if !s.MinDate.IsZero() {
			data.MinDate = s.MinDate.Format(time.DateOnly)
			data.MaxDate = s.MaxDate.Format(time.DateOnly)
			signals["start"] = data.MinDate
			signals["end"] = data.MaxDate
		}
	} else {
		data.AverageScore = "n/a"
	}

	raw, err := json.Marshal(signals)
	if err != nil {
		return pageData{}, fmt.Errorf("marshal signals: %w", err)
	}
	data.Signals = string(raw)
	return data, nil
}
