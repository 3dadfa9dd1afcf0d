package dataset

import (
	"context"
	"math"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"ecommerce-dashboard/internal/models"
)

const (
	ColumnCategory    = "product_category_name"
	ColumnPrice       = "price"
	ColumnReviewScore = "review_score"
	ColumnPurchasedAt = "order_purchase_timestamp"

	MinReviewScore = 1
	MaxReviewScore = 5

	ctxCheckInterval = 4096
)

var requiredColumns = []string{ColumnCategory, ColumnPrice, ColumnReviewScore, ColumnPurchasedAt}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// missingValues are the cell spellings read as "no value", compared
// case-insensitively. They follow the usual spreadsheet and dataframe NA
// markers.
var missingValues = map[string]struct{}{
	"": {}, "na": {}, "n/a": {}, "nan": {}, "-nan": {}, "null": {}, "none": {},
	"#n/a": {}, "#na": {}, "<na>": {}, "#n/a n/a": {},
	"1.#ind": {}, "-1.#ind": {}, "1.#qnan": {}, "-1.#qnan": {},
}

var (
	ErrEmptyFile       = errors.New("file is empty")
	ErrMissingColumn   = errors.New("missing required column")
	ErrDuplicateColumn = errors.New("duplicate column")
	ErrNoSheets        = errors.New("workbook has no sheets")
	ErrScoreRange      = errors.New("review score out of range")
)

// Load reads the order dataset at path. CSV and XLSX files are supported,
// chosen by extension. Any failure is returned as a *LoadError.
func Load(ctx context.Context, path string) (*Dataset, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		rows, err = readWorkbook(path)
	default:
		rows, err = readCSV(path)
	}
	if err != nil {
		return nil, err
	}

	records, err := parseRows(ctx, path, rows)
	if err != nil {
		return nil, err
	}
	return newOwned(records), nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Op: "open", Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &LoadError{Path: path, Op: "read csv", Err: err}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func readWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Op: "open workbook", Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &LoadError{Path: path, Op: "open workbook", Err: ErrNoSheets}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &LoadError{Path: path, Op: "read sheet " + sheets[0], Err: err}
	}
	// Trailing empty cells are dropped by excelize.
	if len(rows) > 0 {
		width := len(rows[0])
		for i, row := range rows {
			for len(row) < width {
				row = append(row, "")
			}
			rows[i] = row[:width]
		}
	}
	return rows, nil
}

func parseRows(ctx context.Context, path string, rows [][]string) ([]models.OrderRecord, error) {
	if len(rows) == 0 {
		return nil, &LoadError{Path: path, Op: "read header", Err: ErrEmptyFile}
	}
	header := rows[0]
	normalizeHeader(header)
	if dup, ok := duplicateColumn(header); ok {
		return nil, &LoadError{Path: path, Op: "read header", Err: fmt.Errorf("%w %q", ErrDuplicateColumn, dup)}
	}
	for _, col := range requiredColumns {
		if indexOf(header, col) < 0 {
			return nil, &LoadError{Path: path, Op: "read header", Err: fmt.Errorf("%w %q", ErrMissingColumn, col)}
		}
	}
	if len(rows) == 1 {
		return []models.OrderRecord{}, nil
	}

	df := dataframe.LoadRecords(rows,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return nil, &LoadError{Path: path, Op: "build frame", Err: df.Err}
	}

	cols := make(map[string][]string, len(requiredColumns))
	for _, name := range requiredColumns {
		col := df.Col(name)
		if col.Err != nil {
			return nil, &LoadError{Path: path, Op: "build frame", Err: col.Err}
		}
		cols[name] = col.Records()
	}
	categories := cols[ColumnCategory]
	prices := cols[ColumnPrice]
	scores := cols[ColumnReviewScore]
	timestamps := cols[ColumnPurchasedAt]

	records := make([]models.OrderRecord, df.Nrow())
	for i := range records {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, &LoadError{Path: path, Op: "parse rows", Err: err}
			}
		}
		// Row numbers count the header as row 1.
		row := i + 2

		price, err := parsePrice(prices[i])
		if err != nil {
			return nil, &LoadError{Path: path, Op: "parse " + ColumnPrice, Row: row, Err: err}
		}
		score, hasScore, err := parseScore(scores[i])
		if err != nil {
			return nil, &LoadError{Path: path, Op: "parse " + ColumnReviewScore, Row: row, Err: err}
		}
		purchasedAt, err := ParseTimestamp(timestamps[i])
		if err != nil {
			return nil, &LoadError{Path: path, Op: "parse " + ColumnPurchasedAt, Row: row, Err: err}
		}

		records[i] = models.OrderRecord{
			Category:    normalizeCategory(categories[i]),
			Price:       price,
			ReviewScore: score,
			HasReview:   hasScore,
			PurchasedAt: purchasedAt,
		}
	}
	return records, nil
}

func parsePrice(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if isMissing(raw) {
		return decimal.Zero, errors.New("price is missing")
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, err
	}
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("price %s is negative", raw)
	}
	return price, nil
}

func parseScore(raw string) (float64, bool, error) {
	raw = strings.TrimSpace(raw)
	if isMissing(raw) {
		return 0, false, nil
	}
	score, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, err
	}
	// ParseFloat accepts "inf" and "Infinity" and saturates huge inputs.
	if math.IsInf(score, 0) || math.IsNaN(score) || score < MinReviewScore || score > MaxReviewScore {
		return 0, false, fmt.Errorf("%w: %s not in [%d, %d]", ErrScoreRange, raw, MinReviewScore, MaxReviewScore)
	}
	return score, true, nil
}

// ParseTimestamp parses a purchase timestamp. Values without a zone are UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if isMissing(raw) {
		return time.Time{}, errors.New("timestamp is missing")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

func normalizeCategory(raw string) string {
	raw = strings.TrimSpace(raw)
	if isMissing(raw) {
		return ""
	}
	return raw
}

func isMissing(v string) bool {
	_, ok := missingValues[strings.ToLower(v)]
	return ok
}

// duplicateColumn reports a required column named more than once. The frame
// renames repeated headers, so either copy would be read ambiguously.
func duplicateColumn(header []string) (string, bool) {
	for _, col := range requiredColumns {
		n := 0
		for _, h := range header {
			if h == col {
				n++
			}
		}
		if n > 1 {
			return col, true
		}
	}
	return "", false
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

func normalizeHeader(header []string) {
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
}
