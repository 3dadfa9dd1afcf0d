package currency

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		name     string
		locale   string
		currency string
		wantErr  bool
	}{
		{name: "bcp47 locale", locale: "id-ID", currency: "IDR"},
		{name: "posix locale", locale: "id_ID", currency: "IDR"},
		{name: "us dollars", locale: "en-US", currency: "USD"},
		{name: "bad locale", locale: "not a locale!", currency: "USD", wantErr: true},
		{name: "bad currency", locale: "en-US", currency: "XXXX", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFormatter(tt.locale, tt.currency)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.currency, f.Currency())
		})
	}
}

func TestFormatter_Format_USD(t *testing.T) {
	f, err := NewFormatter("en-US", "USD")
	require.NoError(t, err)

	assert.Equal(t, "$1,234.50", f.Format(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "$0.00", f.Format(decimal.Zero))
}

func TestFormatter_Format_IDR(t *testing.T) {
	f, err := NewFormatter(DefaultLocale, DefaultCurrency)
	require.NoError(t, err)

	got := f.Format(decimal.RequireFromString("1234567.891"))
	assert.Contains(t, got, "Rp")
	assert.Contains(t, got, "1.234.567,89")
	assert.Equal(t, DefaultFractionDigits, f.FractionDigits())
}

func TestFormatter_Format_KeepsCents(t *testing.T) {
	f, err := NewFormatter("id_ID", "IDR")
	require.NoError(t, err)

	tests := []struct {
		amount string
		want   string
	}{
		{"130.45", "130,45"},
		{"0.005", "0,01"},
		{"12000", "12.000,00"},
		{"129.995", "130,00"},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			got := f.Format(decimal.RequireFromString(tt.amount))
			assert.True(t, strings.HasSuffix(got, " "+tt.want), "got %q", got)
		})
	}
}

func TestFormatter_Format_LargeSum(t *testing.T) {
	f, err := NewFormatter("en-US", "USD")
	require.NoError(t, err)

	// Beyond float64's 15-16 significant digits.
	got := f.Format(decimal.RequireFromString("123456789012345678.99"))
	assert.Equal(t, "$123,456,789,012,345,678.99", got)

	huge := f.Format(decimal.RequireFromString("98765432109876543210.01"))
	assert.Equal(t, "$98765432109876543210.01", huge)
}

func TestFormatter_WithFractionDigits(t *testing.T) {
	f, err := NewFormatter("en-US", "USD", WithFractionDigits(0))
	require.NoError(t, err)
	assert.Equal(t, "$1,235", f.Format(decimal.RequireFromString("1234.5")))

	f, err = NewFormatter("en-US", "USD", WithFractionDigits(3))
	require.NoError(t, err)
	assert.Equal(t, "$0.125", f.Format(decimal.RequireFromString("0.1249")))
}

func TestFormatter_Format_Negative(t *testing.T) {
	f, err := NewFormatter("en-US", "USD")
	require.NoError(t, err)
	assert.Equal(t, "-$12.30", f.Format(decimal.RequireFromString("-12.3")))
}

func TestFormatter_Format_Idempotent(t *testing.T) {
	f, err := NewFormatter("en-US", "USD")
	require.NoError(t, err)

	amount := decimal.RequireFromString("99.999")
	assert.Equal(t, f.Format(amount), f.Format(amount))
}
