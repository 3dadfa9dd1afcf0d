package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const header = "order_id,product_category_name,price,review_score,order_purchase_timestamp\n"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_CSV(t *testing.T) {
	path := writeFile(t, "all_data.csv", header+
		"o1,cama_mesa_banho,129.90,5,2017-10-02 10:56:33\n"+
		"o2,,10.00,NaN,2018-07-24T20:41:37Z\n"+
		"o3, informatica_acessorios ,0.85,,2018-08-08\n")

	ds, err := Load(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 3, ds.Len())

	recs := ds.Records()
	assert.Equal(t, "cama_mesa_banho", recs[0].Category)
	assert.Equal(t, "129.9", recs[0].Price.String())
	assert.True(t, recs[0].HasReview)
	assert.Equal(t, 5.0, recs[0].ReviewScore)
	assert.Equal(t, time.Date(2017, 10, 2, 10, 56, 33, 0, time.UTC), recs[0].PurchasedAt)

	assert.Empty(t, recs[1].Category)
	assert.False(t, recs[1].HasReview)

	assert.Equal(t, "informatica_acessorios", recs[2].Category)
	assert.False(t, recs[2].HasReview)

	minDate, maxDate, ok := ds.Bounds()
	require.True(t, ok)
	assert.Equal(t, time.Date(2017, 10, 2, 0, 0, 0, 0, time.UTC), minDate)
	assert.Equal(t, time.Date(2018, 8, 8, 0, 0, 0, 0, time.UTC), maxDate)
}

func TestLoad_HeaderOnly(t *testing.T) {
	ds, err := Load(context.Background(), writeFile(t, "empty.csv", header))
	require.NoError(t, err)

	assert.Equal(t, 0, ds.Len())
	_, _, ok := ds.Bounds()
	assert.False(t, ok)
}

func TestLoad_BOMHeader(t *testing.T) {
	path := writeFile(t, "bom.csv", "\ufeffproduct_category_name,price,review_score,order_purchase_timestamp\nx,1,4,2018-01-01\n")

	ds, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Len())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		op      string
		target  error
	}{
		{name: "empty file", content: "", op: "read header", target: ErrEmptyFile},
		{name: "missing column", content: "product_category_name,price,order_purchase_timestamp\nx,1,2018-01-01\n", op: "read header", target: ErrMissingColumn},
		{name: "ragged row", content: header + "o1,x,1,5\n", op: "read csv"},
		{name: "bad timestamp", content: header + "o1,x,1,5,not-a-date\n", op: "parse order_purchase_timestamp"},
		{name: "missing timestamp", content: header + "o1,x,1,5,\n", op: "parse order_purchase_timestamp"},
		{name: "bad price", content: header + "o1,x,abc,5,2018-01-01\n", op: "parse price"},
		{name: "negative price", content: header + "o1,x,-1,5,2018-01-01\n", op: "parse price"},
		{name: "bad score", content: header + "o1,x,1,great,2018-01-01\n", op: "parse review_score"},
		{name: "infinite score", content: header + "o1,x,1,inf,2018-01-01\n", op: "parse review_score", target: ErrScoreRange},
		{name: "spelled infinity", content: header + "o1,x,1,-Infinity,2018-01-01\n", op: "parse review_score", target: ErrScoreRange},
		{name: "score above range", content: header + "o1,x,1,6,2018-01-01\n", op: "parse review_score", target: ErrScoreRange},
		{name: "score below range", content: header + "o1,x,1,0,2018-01-01\n", op: "parse review_score", target: ErrScoreRange},
		{name: "score overflows float", content: header + "o1,x,1,1e400,2018-01-01\n", op: "parse review_score"},
		{name: "repeated required column", content: "product_category_name,price,review_score,order_purchase_timestamp,price\nx,1,5,2018-01-01,2\n", op: "read header", target: ErrDuplicateColumn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "bad.csv", tt.content)

			_, err := Load(context.Background(), path)

			var loadErr *LoadError
			require.True(t, errors.As(err, &loadErr), "got %v", err)
			assert.Equal(t, tt.op, loadErr.Op)
			assert.Equal(t, path, loadErr.Path)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}

func TestLoad_MissingScoreSpellings(t *testing.T) {
	spellings := []string{"", "NA", "nan", "NaN", "-nan", "N/A", "n/a", "null", "NULL", "None", "#N/A", "<NA>"}

	content := header
	for i, v := range spellings {
		content += fmt.Sprintf("o%d,x,1,%s,2018-01-01\n", i, v)
	}
	content += "last,x,1,4.5,2018-01-02\n"

	ds, err := Load(context.Background(), writeFile(t, "na.csv", content))
	require.NoError(t, err)
	require.Equal(t, len(spellings)+1, ds.Len())

	recs := ds.Records()
	for i, v := range spellings {
		assert.False(t, recs[i].HasReview, "%q must read as missing", v)
		assert.Zero(t, recs[i].ReviewScore)
	}
	assert.True(t, recs[len(spellings)].HasReview)
	assert.Equal(t, 4.5, recs[len(spellings)].ReviewScore)
}

func TestLoad_DuplicateExtraColumnAllowed(t *testing.T) {
	path := writeFile(t, "extra.csv", "note,product_category_name,price,review_score,order_purchase_timestamp,note\n"+
		"a,x,1,5,2018-01-01,b\n")

	ds, err := Load(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 1, ds.Len())
	assert.Equal(t, "1", ds.Records()[0].Price.String())
}

func TestLoad_RowNumberInError(t *testing.T) {
	path := writeFile(t, "bad.csv", header+"o1,x,1,5,2018-01-01\no2,x,1,5,2018-13-45\n")

	_, err := Load(context.Background(), path)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, 3, loadErr.Row)
	assert.Contains(t, err.Error(), "row 3")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "open", loadErr.Op)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_Canceled(t *testing.T) {
	path := writeFile(t, "ok.csv", header+"o1,x,1,5,2018-01-01\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoad_Workbook(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"product_category_name", "price", "review_score", "order_purchase_timestamp"},
		{"brinquedos", "49.90", "4", "2018-05-01 12:00:00"},
		{"brinquedos", "10.10", "", "2018-06-02 08:30:00"},
		{"pet_shop", "5.00", "2"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(t.TempDir(), "orders.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	_, err := Load(context.Background(), path)
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr), "row without timestamp must fail, got %v", err)
	assert.Equal(t, 4, loadErr.Row)

	f2, err := excelize.OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, f2.SetCellValue(sheet, "D4", "2018-06-03"))
	require.NoError(t, f2.Save())
	require.NoError(t, f2.Close())

	ds, err := Load(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 3, ds.Len())
	assert.Equal(t, "49.9", ds.Records()[0].Price.String())
	assert.False(t, ds.Records()[1].HasReview)
	assert.Equal(t, "pet_shop", ds.Records()[2].Category)
}
