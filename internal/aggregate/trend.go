package aggregate

import (
	"slices"

	"github.com/shopspring/decimal"

	"ecommerce-dashboard/internal/models"
)

// OrderTrend counts orders per calendar month. Only months with at least one
// order appear, in ascending order.
func OrderTrend(records []models.OrderRecord) []models.MonthBucket {
	counts := make(map[models.Month]int)
	for _, rec := range records {
		counts[models.MonthOf(rec.PurchasedAt)]++
	}

	result := make([]models.MonthBucket, 0, len(counts))
	for month, count := range counts {
		result = append(result, models.MonthBucket{
			Period:     month,
			OrderCount: count,
			Label:      month.String(),
		})
	}
	slices.SortFunc(result, func(a, b models.MonthBucket) int {
		return a.Period.Compare(b.Period)
	})
	return result
}

// PeakMonth returns the bucket with the most orders. Ties go to the earliest
// month. ok is false when trend is empty.
func PeakMonth(trend []models.MonthBucket) (peak models.MonthBucket, ok bool) {
	for _, b := range trend {
		if !ok || b.OrderCount > peak.OrderCount {
			peak, ok = b, true
		}
	}
	return peak, ok
}

// Totals computes the headline metrics over all records.
func Totals(records []models.OrderRecord) models.Totals {
	totals := models.Totals{
		Orders:  len(records),
		Revenue: decimal.Zero,
	}

	var (
		scoreSum float64
		scored   int
	)
	for _, rec := range records {
		totals.Revenue = totals.Revenue.Add(rec.Price)
		if hasFiniteScore(rec) {
			scoreSum += rec.ReviewScore
			scored++
		}
	}
	if scored > 0 {
		if avg := scoreSum / float64(scored); isFinite(avg) {
			totals.AverageReviewScore = &avg
		}
	}
	return totals
}
