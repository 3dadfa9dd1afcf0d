package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"ecommerce-dashboard/internal/aggregate"
	"ecommerce-dashboard/internal/currency"
	"ecommerce-dashboard/internal/dataset"
	"ecommerce-dashboard/internal/models"
	"ecommerce-dashboard/internal/observability"
)

var ErrInvalidRange = errors.New("start date is after end date")

// SummaryQuery selects the orders and ranking depth of a summary. Zero values
// mean the full dataset and the configured top N.
type SummaryQuery struct {
	Range models.DateRange
	TopN  int
}

type Option func(*Analytics)

func WithTopN(n int) Option {
	return func(a *Analytics) {
		if n > 0 {
			a.topN = n
		}
	}
}

func WithFormatter(f aggregate.AmountFormatter) Option {
	return func(a *Analytics) { a.formatter = f }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(a *Analytics) { a.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Analytics) { a.logger = l }
}

// Analytics owns the loaded dataset and serves dashboard summaries over it.
// The dataset is read-only once loaded; the full-range summary is computed
// once per load.
type Analytics struct {
	mu          sync.RWMutex
	dataset     *dataset.Dataset
	precomputed *models.Summary
	source      string
	loadedAt    time.Time

	topN      int
	formatter aggregate.AmountFormatter
	metrics   *observability.Metrics
	logger    *slog.Logger
}

func NewAnalytics(opts ...Option) *Analytics {
	a := &Analytics{
		topN:   aggregate.DefaultTopN,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.formatter == nil {
		// The default pair always parses.
		f, _ := currency.NewFormatter(currency.DefaultLocale, currency.DefaultCurrency)
		a.formatter = f
	}
	a.install(dataset.New(nil), "")
	return a
}

// SetRecords replaces the dataset with records.
func (a *Analytics) SetRecords(records []models.OrderRecord) {
	a.install(dataset.New(records), "memory")
}

// LoadFromFile loads the dataset at path and precomputes the full-range
// summary. A failed load leaves the previous dataset in place.
func (a *Analytics) LoadFromFile(ctx context.Context, path string) (err error) {
	ctx, span := observability.StartSpan(ctx, "analytics.load", attribute.String("dataset.path", path))
	defer func() { observability.EndSpan(span, err) }()

	start := time.Now()
	a.logger.Info("loading dataset", "path", path)

	ds, err := dataset.Load(ctx, path)
	if err != nil {
		return err
	}

	a.install(ds, path)

	duration := time.Since(start)
	if a.metrics != nil {
		a.metrics.DatasetLoadDuration.Observe(duration.Seconds())
	}
	span.SetAttributes(attribute.Int("dataset.records", ds.Len()))

	minDate, maxDate, _ := ds.Bounds()
	a.logger.Info("dataset loaded",
		"path", path,
		"records", ds.Len(),
		"min_date", minDate.Format(time.DateOnly),
		"max_date", maxDate.Format(time.DateOnly),
		"duration", duration,
	)
	return nil
}

func (a *Analytics) install(ds *dataset.Dataset, source string) {
	summary := a.compute(ds, a.topN)

	a.mu.Lock()
	a.dataset = ds
	a.precomputed = summary
	a.source = source
	a.loadedAt = time.Now()
	a.mu.Unlock()

	if a.metrics != nil {
		a.metrics.DatasetRecords.Set(float64(ds.Len()))
	}
}

// Summary returns the dashboard summary for q. The full-range summary at the
// configured top N is served from memory; any other query is recomputed from
// the filtered orders.
func (a *Analytics) Summary(ctx context.Context, q SummaryQuery) (*models.Summary, error) {
	if !q.Range.From.IsZero() && !q.Range.To.IsZero() && q.Range.From.After(q.Range.To) {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvalidRange,
			q.Range.From.Format(time.DateOnly), q.Range.To.Format(time.DateOnly))
	}

	a.mu.RLock()
	ds := a.dataset
	precomputed := a.precomputed
	topN := a.topN
	a.mu.RUnlock()

	if q.TopN > 0 {
		topN = q.TopN
	}
	if q.Range.IsZero() && topN == a.topN {
		a.observeSummary("precomputed")
		return precomputed, nil
	}

	ctx, span := observability.StartSpan(ctx, "analytics.summary",
		attribute.Int("summary.top_n", topN),
		attribute.Bool("summary.filtered", !q.Range.IsZero()),
	)
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.observeSummary("computed")
	return a.computeParallel(ctx, ds, q.Range, topN)
}

func (a *Analytics) observeSummary(source string) {
	if a.metrics != nil {
		a.metrics.SummaryComputations.WithLabelValues(source).Inc()
	}
}

// computeParallel runs the three groupings concurrently over the same
// read-only records. Each goroutine owns its result variable, so the
// assembled summary does not depend on completion order.
func (a *Analytics) computeParallel(ctx context.Context, full *dataset.Dataset, rng models.DateRange, topN int) (*models.Summary, error) {
	ds := full.Filter(rng)
	records := ds.Records()

	var (
		revenue  []models.CategoryAggregate
		reviewed []models.CategoryAggregate
		trend    []models.MonthBucket
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		revenue = aggregate.TopRevenueCategories(records, topN, a.formatter)
		return gctx.Err()
	})
	g.Go(func() error {
		reviewed = aggregate.TopReviewedCategories(records, topN)
		return gctx.Err()
	})
	g.Go(func() error {
		trend = aggregate.OrderTrend(records)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("compute summary: %w", err)
	}

	return a.assemble(full, rng, aggregate.Totals(records), revenue, reviewed, trend), nil
}

func (a *Analytics) compute(ds *dataset.Dataset, topN int) *models.Summary {
	records := ds.Records()
	return a.assemble(ds, models.DateRange{},
		aggregate.Totals(records),
		aggregate.TopRevenueCategories(records, topN, a.formatter),
		aggregate.TopReviewedCategories(records, topN),
		aggregate.OrderTrend(records),
	)
}

func (a *Analytics) assemble(full *dataset.Dataset, rng models.DateRange, totals models.Totals,
	revenue, reviewed []models.CategoryAggregate, trend []models.MonthBucket) *models.Summary {

	summary := &models.Summary{
		Totals:                totals,
		FormattedTotalRevenue: a.formatter.Format(totals.Revenue),
		TopRevenue:            revenue,
		TopReviewed:           reviewed,
		OrderTrend:            trend,
		Range:                 rng,
		ComputedAt:            time.Now().UTC(),
	}
	if peak, ok := aggregate.PeakMonth(trend); ok {
		summary.PeakMonth = &peak
	}
	if minDate, maxDate, ok := full.Bounds(); ok {
		summary.MinDate = minDate
		summary.MaxDate = maxDate
	}
	return summary
}

// Bounds returns the earliest and latest purchase dates of the loaded orders.
func (a *Analytics) Bounds() (minDate, maxDate time.Time, ok bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.dataset.Bounds()
}

func (a *Analytics) TopN() int {
	return a.topN
}

// Stats reports the state of the loaded dataset for monitoring.
func (a *Analytics) Stats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return map[string]any{
		"record_count": a.dataset.Len(),
		"source":       a.source,
		"loaded_at":    a.loadedAt,
		"categories":   countCategories(a.dataset.Records()),
		"months":       len(a.precomputed.OrderTrend),
		"top_n":        a.topN,
	}
}

func countCategories(records []models.OrderRecord) int {
	seen := make(map[string]struct{})
	for _, rec := range records {
		if rec.Category != "" {
			seen[rec.Category] = struct{}{}
		}
	}
	return len(seen)
}
