package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// envconfig falls back to the bare field tag (PORT, HOST, ...) when the
// prefixed key is unset, so those must not leak in from the test runner.
func clearBareKeys(t *testing.T) {
	t.Helper()
	for _, key := range []string{"HOST", "PORT", "FILE", "LEVEL", "FORMAT", "LOCALE", "CURRENCY", "EXPORTER", "TOP_N", "FRACTION_DIGITS"} {
		if prev, ok := os.LookupEnv(key); ok {
			os.Unsetenv(key)
			t.Cleanup(func() { os.Setenv(key, prev) })
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearBareKeys(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost:8084", cfg.Address())
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "dashboard/all_data.csv", cfg.Data.File)
	assert.Equal(t, 5, cfg.Dashboard.TopN)
	assert.Equal(t, "id-ID", cfg.Dashboard.Locale)
	assert.Equal(t, "IDR", cfg.Dashboard.Currency)
	assert.Equal(t, 2, cfg.Dashboard.FractionDigits)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.Equal(t, []string{"http://localhost:8084"}, cfg.Security.AllowedOrigins)
	assert.Equal(t, "none", cfg.Tracing.Exporter)
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearBareKeys(t)
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("DATA_FILE", "/tmp/orders.xlsx")
	t.Setenv("DASHBOARD_TOP_N", "10")
	t.Setenv("DASHBOARD_LOCALE", "en-US")
	t.Setenv("DASHBOARD_CURRENCY", "USD")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SECURITY_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "/tmp/orders.xlsx", cfg.Data.File)
	assert.Equal(t, 10, cfg.Dashboard.TopN)
	assert.Equal(t, "en-US", cfg.Dashboard.Locale)
	assert.Equal(t, "USD", cfg.Dashboard.Currency)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.AllowedOrigins)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port out of range", "SERVER_PORT", "70000"},
		{"port not a number", "SERVER_PORT", "eighty"},
		{"top n zero", "DASHBOARD_TOP_N", "0"},
		{"negative fraction digits", "DASHBOARD_FRACTION_DIGITS", "-1"},
		{"log level", "LOG_LEVEL", "verbose"},
		{"log format", "LOG_FORMAT", "xml"},
		{"trace exporter", "TRACING_EXPORTER", "jaeger"},
		{"sample ratio", "TRACING_SAMPLE_RATIO", "2"},
		{"rate limit", "SECURITY_RATE_LIMIT_RPS", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
