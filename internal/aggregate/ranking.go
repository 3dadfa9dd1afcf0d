// Package aggregate holds the pure computations behind the dashboard: category
// rankings, the monthly order trend and the headline totals. Every function
// reads its input without modifying it and returns freshly allocated results.
package aggregate

import (
	"math"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"ecommerce-dashboard/internal/models"
)

const DefaultTopN = 5

// AmountFormatter renders a monetary amount for display.
type AmountFormatter interface {
	Format(amount decimal.Decimal) string
}

// TopRevenueCategories sums price per category and returns the topN
// categories by revenue. A nil formatter leaves FormattedValue empty.
func TopRevenueCategories(records []models.OrderRecord, topN int, formatter AmountFormatter) []models.CategoryAggregate {
	groups := make(map[string]*models.CategoryAggregate)
	for _, rec := range records {
		if rec.Category == "" {
			continue
		}
		g := groups[rec.Category]
		if g == nil {
			g = &models.CategoryAggregate{Category: rec.Category, Value: decimal.Zero}
			groups[rec.Category] = g
		}
		g.Value = g.Value.Add(rec.Price)
		g.Count++
	}

	result := rank(groups, topN)
	if formatter != nil {
		for i := range result {
			result[i].FormattedValue = formatter.Format(result[i].Value)
		}
	}
	return result
}

// TopReviewedCategories averages review scores per category and returns the
// topN categories. Missing scores are not counted; a category without any
// score is left out.
func TopReviewedCategories(records []models.OrderRecord, topN int) []models.CategoryAggregate {
	type scoreSum struct {
		sum   float64
		count int
	}
	sums := make(map[string]*scoreSum)
	for _, rec := range records {
		if rec.Category == "" || !hasFiniteScore(rec) {
			continue
		}
		s := sums[rec.Category]
		if s == nil {
			s = &scoreSum{}
			sums[rec.Category] = s
		}
		s.sum += rec.ReviewScore
		s.count++
	}

	groups := make(map[string]*models.CategoryAggregate, len(sums))
	for category, s := range sums {
		mean := s.sum / float64(s.count)
		if !isFinite(mean) {
			continue
		}
		groups[category] = &models.CategoryAggregate{
			Category: category,
			Value:    decimal.NewFromFloat(mean),
			Count:    s.count,
		}
	}
	return rank(groups, topN)
}

// hasFiniteScore treats NaN and infinite scores as missing. The loader
// rejects them, but records handed in directly are not re-validated.
func hasFiniteScore(rec models.OrderRecord) bool {
	return rec.HasReview && isFinite(rec.ReviewScore)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// rank orders by value descending, breaking ties by category ascending, and
// keeps the first topN entries.
func rank(groups map[string]*models.CategoryAggregate, topN int) []models.CategoryAggregate {
	if topN <= 0 {
		topN = DefaultTopN
	}

	result := make([]models.CategoryAggregate, 0, len(groups))
	for _, g := range groups {
		result = append(result, *g)
	}
	slices.SortFunc(result, func(a, b models.CategoryAggregate) int {
		if c := b.Value.Cmp(a.Value); c != 0 {
			return c
		}
		return strings.Compare(a.Category, b.Category)
	})

	if len(result) > topN {
		result = result[:topN]
	}
	return result
}
