package dataset

import (
	"time"

	"ecommerce-dashboard/internal/models"
)

// Dataset is the immutable set of orders loaded for one dashboard session.
type Dataset struct {
	records []models.OrderRecord
	minDate time.Time
	maxDate time.Time
}

// New builds a dataset from records. The slice is copied so later changes by
// the caller are not observed.
func New(records []models.OrderRecord) *Dataset {
	owned := make([]models.OrderRecord, len(records))
	copy(owned, records)
	return newOwned(owned)
}

func newOwned(records []models.OrderRecord) *Dataset {
	d := &Dataset{records: records}
	for i, rec := range records {
		if i == 0 || rec.PurchasedAt.Before(d.minDate) {
			d.minDate = rec.PurchasedAt
		}
		if i == 0 || rec.PurchasedAt.After(d.maxDate) {
			d.maxDate = rec.PurchasedAt
		}
	}
	return d
}

// Records returns the loaded orders. The returned slice is shared and must
// not be modified.
func (d *Dataset) Records() []models.OrderRecord {
	return d.records
}

func (d *Dataset) Len() int {
	return len(d.records)
}

// Bounds returns the calendar dates of the earliest and latest purchase.
// ok is false for an empty dataset.
func (d *Dataset) Bounds() (minDate, maxDate time.Time, ok bool) {
	if len(d.records) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return dateOf(d.minDate), dateOf(d.maxDate), true
}

// Filter returns a new dataset holding only the orders purchased within r.
// A zero range returns d itself.
func (d *Dataset) Filter(r models.DateRange) *Dataset {
	if r.IsZero() {
		return d
	}
	filtered := make([]models.OrderRecord, 0, len(d.records))
	for _, rec := range d.records {
		if r.Contains(rec.PurchasedAt) {
			filtered = append(filtered, rec)
		}
	}
	return newOwned(filtered)
}

func dateOf(t time.Time) time.Time {
	y, m, day := t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}
