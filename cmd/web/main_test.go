package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ecommerce-dashboard/internal/currency"
	"ecommerce-dashboard/internal/models"
	"ecommerce-dashboard/internal/observability"
	"ecommerce-dashboard/internal/server"
	"ecommerce-dashboard/internal/services"
)

func order(category, price string, score float64, ts time.Time) models.OrderRecord {
	return models.OrderRecord{
		Category:    category,
		Price:       decimal.RequireFromString(price),
		ReviewScore: score,
		HasReview:   score > 0,
		PurchasedAt: ts,
	}
}

// Test helper to create analytics with test data
func newTestAnalytics() *services.Analytics {
	formatter, err := currency.NewFormatter("en-US", "USD")
	if err != nil {
		panic(err)
	}
	a := services.NewAnalytics(services.WithFormatter(formatter))
	a.SetRecords([]models.OrderRecord{
		order("cama_mesa_banho", "100", 5, time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)),
		order("beleza_saude", "50", 3, time.Date(2024, 1, 20, 9, 30, 0, 0, time.UTC)),
		order("cama_mesa_banho", "30", 4, time.Date(2024, 2, 2, 14, 0, 0, 0, time.UTC)),
	})
	return a
}

func newTestServer() *server.Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	analytics := newTestAnalytics()
	templateHandlers := &server.TemplateHandlers{Dashboard: handleDashboard(analytics)}
	return server.NewServer(analytics, logger, observability.NewMetrics(), templateHandlers)
}

// Integration tests for HTTP routes
func TestServer_Routes(t *testing.T) {
	srv := newTestServer()

	tests := []struct {
		path           string
		expectedStatus int
		contentType    string
	}{
		{"/", http.StatusOK, "text/html"},
		{"/api/summary", http.StatusOK, "application/json"},
		{"/api/top-revenue", http.StatusOK, "application/json"},
		{"/api/top-reviewed", http.StatusOK, "application/json"},
		{"/api/order-trend", http.StatusOK, "application/json"},
		{"/health", http.StatusOK, "application/json"},
		{"/admin/stats", http.StatusOK, "application/json"},
		{"/metrics", http.StatusOK, "text/plain"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest("GET", tt.path, nil)

			srv.ServeHTTP(w, r)

			if w.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.expectedStatus)
			}

			ct := w.Header().Get("Content-Type")
			if !strings.Contains(ct, tt.contentType) {
				t.Errorf("content-type = %q, want %q", ct, tt.contentType)
			}

			// Validate JSON responses
			if tt.contentType == "application/json" {
				var result any
				if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
					t.Errorf("invalid json: %v", err)
				}
			}
		})
	}
}

// Test JSON API responses
func TestServer_JSONResponse(t *testing.T) {
	srv := newTestServer()

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/top-revenue", nil)
	srv.ServeHTTP(w, r)

	var response struct {
		Success bool `json:"success"`
		Data    []struct {
			Category       string `json:"category"`
			Value          string `json:"value"`
			FormattedValue string `json:"formatted_value"`
		} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}

	if !response.Success {
		t.Error("expected success=true in response")
	}
	if len(response.Data) != 2 {
		t.Fatalf("got %d categories, want 2", len(response.Data))
	}
	if response.Data[0].Category != "cama_mesa_banho" || response.Data[0].Value != "130" {
		t.Errorf("first row = %+v, want cama_mesa_banho/130", response.Data[0])
	}
	if response.Data[0].FormattedValue != "$130.00" {
		t.Errorf("formatted value = %q, want $130.00", response.Data[0].FormattedValue)
	}
}

func TestServer_DateRangeQuery(t *testing.T) {
	srv := newTestServer()

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/order-trend?start=2024-02-01&end=2024-02-29", nil)
	srv.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var response struct {
		Data []struct {
			Label      string `json:"label"`
			OrderCount int    `json:"order_count"`
		} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if len(response.Data) != 1 || response.Data[0].Label != "2024-02" || response.Data[0].OrderCount != 1 {
		t.Errorf("trend = %+v, want a single 2024-02 bucket with 1 order", response.Data)
	}
}

func TestServer_InvalidQuery(t *testing.T) {
	srv := newTestServer()

	for _, path := range []string{
		"/api/summary?start=2024-13-01",
		"/api/summary?top_n=0",
		"/api/summary?top_n=101",
		"/api/summary?start=2024-03-01&end=2024-01-01",
		"/sse/refresh-all?top_n=abc",
	} {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			srv.ServeHTTP(w, httptest.NewRequest("GET", path, nil))

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
		})
	}
}

// Test Server-Sent Events routes
func TestServer_SSERoutes(t *testing.T) {
	srv := newTestServer()

	sseRoutes := []string{
		"/sse/metrics",
		"/sse/top-revenue",
		"/sse/top-reviewed",
		"/sse/order-trend",
		"/sse/refresh-all",
	}

	for _, route := range sseRoutes {
		t.Run(route, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest("GET", route, nil)

			srv.ServeHTTP(w, r)

			if w.Code != http.StatusOK {
				t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
			}

			// Check for SSE headers
			if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
				t.Errorf("content-type = %q, should contain 'text/event-stream'", ct)
			}

			if cc := w.Header().Get("Cache-Control"); cc != "no-cache" {
				t.Errorf("cache-control = %q, want 'no-cache'", cc)
			}
		})
	}
}

// Test health endpoint
func TestServer_HandleHealth(t *testing.T) {
	srv := newTestServer()

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/health", nil)

	srv.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode health JSON: %v", err)
	}

	if success, ok := response["success"].(bool); !ok || !success {
		t.Error("expected success=true in response")
	}

	healthData, ok := response["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected health data in response")
	}

	if status, ok := healthData["status"].(string); !ok || status != "healthy" {
		t.Errorf("health status = %v, want 'healthy'", healthData["status"])
	}

	if _, ok := healthData["timestamp"]; !ok {
		t.Error("health response should include timestamp")
	}
}

// Test error handling for invalid methods
func TestServer_ErrorHandling(t *testing.T) {
	srv := newTestServer()

	tests := []struct {
		method string
		path   string
		status int
	}{
		{"POST", "/api/top-revenue", http.StatusMethodNotAllowed},
		{"PUT", "/", http.StatusMethodNotAllowed},
		{"DELETE", "/health", http.StatusMethodNotAllowed},
		{"PATCH", "/sse/refresh-all", http.StatusMethodNotAllowed},
		{"GET", "/api/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(tt.method, tt.path, nil)

			srv.ServeHTTP(w, r)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
		})
	}
}

func TestServer_MetricsRecordRoutes(t *testing.T) {
	srv := newTestServer()

	srv.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/summary", nil))

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	body := w.Body.String()
	if !strings.Contains(body, `route="/api/summary"`) {
		t.Error("metrics should be labelled with the matched route pattern")
	}
}

// Test dashboard template rendering
func TestDashboardTemplate(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/", nil)

	// Test the template handler directly
	handleDashboard(newTestAnalytics())(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	body := w.Body.String()
	if !strings.Contains(body, "E-Commerce Dashboard") {
		t.Error("dashboard should contain title")
	}

	// Check for key dashboard components
	expectedComponents := []string{
		"Top 5 Categories by Revenue",
		"Highest Reviewed Categories",
		"Monthly Order Trend",
		"$180.00",
		`min="2024-01-05"`,
		`max="2024-02-02"`,
	}

	for _, component := range expectedComponents {
		if !strings.Contains(body, component) {
			t.Errorf("dashboard should contain '%s'", component)
		}
	}
}
