package models

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// OrderRecord is one row of the order dataset.
type OrderRecord struct {
	Category    string
	Price       decimal.Decimal
	ReviewScore float64
	HasReview   bool
	PurchasedAt time.Time
}

type CategoryAggregate struct {
	Category       string          `json:"category"`
	Value          decimal.Decimal `json:"value"`
	FormattedValue string          `json:"formatted_value,omitempty"`
	Count          int             `json:"count"`
}

// Month identifies a calendar month independent of day and time.
type Month struct {
	Year  int
	Month time.Month
}

func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

func (m Month) Compare(other Month) int {
	switch {
	case m.Year < other.Year:
		return -1
	case m.Year > other.Year:
		return 1
	case m.Month < other.Month:
		return -1
	case m.Month > other.Month:
		return 1
	}
	return 0
}

func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

type MonthBucket struct {
	Period     Month  `json:"period"`
	OrderCount int    `json:"order_count"`
	Label      string `json:"label"`
}

type Totals struct {
	Orders  int             `json:"total_orders"`
	Revenue decimal.Decimal `json:"total_revenue"`
	// AverageReviewScore is nil when no record carries a review score.
	AverageReviewScore *float64 `json:"average_review_score"`
}

// AverageScoreLabel renders the average review score rounded to two
// decimals, or "n/a" when no score exists.
func (t Totals) AverageScoreLabel() string {
	if t.AverageReviewScore == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*t.AverageReviewScore, 'f', 2, 64)
}

// DateRange is an inclusive range of calendar dates. A zero bound is open.
type DateRange struct {
	From time.Time `json:"from,omitzero"`
	To   time.Time `json:"to,omitzero"`
}

func (r DateRange) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// Contains reports whether t falls on a calendar day within the range.
func (r DateRange) Contains(t time.Time) bool {
	day := truncateDay(t)
	if !r.From.IsZero() && day.Before(truncateDay(r.From)) {
		return false
	}
	if !r.To.IsZero() && day.After(truncateDay(r.To)) {
		return false
	}
	return true
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type Summary struct {
	Totals                Totals              `json:"totals"`
	FormattedTotalRevenue string              `json:"formatted_total_revenue"`
	TopRevenue            []CategoryAggregate `json:"top_revenue_categories"`
	TopReviewed           []CategoryAggregate `json:"top_reviewed_categories"`
	OrderTrend            []MonthBucket       `json:"order_trend"`
	PeakMonth             *MonthBucket        `json:"peak_month,omitempty"`
	MinDate               time.Time           `json:"min_date,omitzero"`
	MaxDate               time.Time           `json:"max_date,omitzero"`
	Range                 DateRange           `json:"range"`
	ComputedAt            time.Time           `json:"computed_at"`
}
