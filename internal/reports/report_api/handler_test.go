package report_api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-reporting/internal/cache"
	"ms-reporting/internal/database/dbtest"
	"ms-reporting/internal/ledger"
	"ms-reporting/internal/logger"
	"ms-reporting/internal/models"
	"ms-reporting/internal/reports/db"
	"ms-reporting/internal/reports/report_api"
	reports "ms-reporting/internal/reports/service"
)

type testServer struct {
	handler http.Handler
	store   *db.DB
}

// setupServer serves a small ledger: one paid brokered sale, one full refund
// and one unpaid order of seller A.
func setupServer(t *testing.T, c *cache.ResponseCache) *testServer {
	t.Helper()
	store := &db.DB{Bun: dbtest.New(t)}
	records := []models.TicketRecord{
		{RowHash: "h1", OrderID: "o1", Seller: "A", Organizer: "Org", EventName: "Concert", OrderDate: "2024-01-10", TicketsCount: 1, OrderAmount: 1000, AgentAmount: 100, AgentPercent: 10, PaymentStatus: ledger.StatusPaid, Year: 2024, Month: 1, BookingHour: 9, FlightHour: 20},
		{RowHash: "h2", OrderID: "o2", Seller: "A", Organizer: "Org", EventName: "Play", OrderDate: "2024-01-11", TicketsCount: 1, OrderAmount: 500, RefundAmount: 500, AgentPercent: 10, PaymentStatus: ledger.StatusRefunded, Year: 2024, Month: 1, BookingHour: 14, FlightHour: 2},
		{RowHash: "h3", OrderID: "o3", Seller: "A", Organizer: "Org", EventName: "Play", OrderDate: "2024-02-01", TicketsCount: 1, OrderAmount: 300, AgentPercent: 10, PaymentStatus: ledger.StatusUnpaid, Year: 2024, Month: 2, BookingHour: 19, FlightHour: 8},
	}
	_, err := store.InsertBatch(context.Background(), records)
	require.NoError(t, err)

	log := logger.NewNopLogger()
	service := reports.NewReportService(store, ledger.NewPolicies(true), log)
	h := report_api.NewHandler(service, log, c, time.Minute, time.Hour)
	return &testServer{handler: report_api.NewRouter(h), store: store}
}

func (s *testServer) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestGetSummary(t *testing.T) {
	s := setupServer(t, nil)

	rec := s.do(t, http.MethodGet, "/api/summary?year=2024&status=all", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	stats := decode[models.RevenueStats](t, rec)
	assert.Equal(t, 1000.0, stats.TotalRevenue)
	assert.Equal(t, 100.0, stats.TotalAgent)
	assert.Equal(t, 500.0, stats.TotalRefunds)
	assert.Equal(t, 0.0, stats.DirectSaleRefunds)
}

func TestGetSummaryRejectsBadFilters(t *testing.T) {
	s := setupServer(t, nil)

	for _, target := range []string{
		"/api/summary?year=24",
		"/api/summary?from=2024-13-01",
		"/api/summary?from=2024-02-01&to=2024-01-01",
	} {
		rec := s.do(t, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		body := decode[map[string]string](t, rec)
		assert.NotEmpty(t, body["error"], target)
	}
}

func TestGetSellerStatsRequiresSeller(t *testing.T) {
	s := setupServer(t, nil)

	rec := s.do(t, http.MethodGet, "/api/seller-stats", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/seller-stats?seller=A", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[models.RevenueStats](t, rec)
	assert.Equal(t, "A", stats.Seller)
	assert.Equal(t, 1000.0, stats.TotalRevenue)
}

func TestGetTopSellers(t *testing.T) {
	s := setupServer(t, nil)

	rec := s.do(t, http.MethodGet, "/api/top-sellers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rows := decode[[]models.SellerCommission](t, rec)
	require.Len(t, rows, 1)
	assert.Equal(t, "A", rows[0].Seller)
	assert.Equal(t, 100.0, rows[0].AgentAmount)
}

func TestGetDirectSalesEmptyIsArray(t *testing.T) {
	s := setupServer(t, nil)

	rec := s.do(t, http.MethodGet, "/api/direct-sales", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestGetSalesTrend(t *testing.T) {
	s := setupServer(t, nil)

	rec := s.do(t, http.MethodGet, "/api/sales-trend", "")
	require.Equal(t, http.StatusOK, rec.Code)
	series := decode[models.TimeSeries](t, rec)
	assert.Equal(t, []string{"2024-01"}, series.Labels)
	require.Len(t, series.Datasets, 2)
	assert.Equal(t, []float64{100}, series.Datasets[0].Data)
}

func TestGetSegments(t *testing.T) {
	s := setupServer(t, nil)

	rec := s.do(t, http.MethodGet, "/api/booking-segments", "")
	require.Equal(t, http.StatusOK, rec.Code)
	report := decode[models.SegmentReport](t, rec)
	require.Len(t, report.Segments, 3)
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.Segments[0].Value)
	assert.Equal(t, 1, report.Segments[1].Value)

	rec = s.do(t, http.MethodGet, "/api/flight-segments", "")
	require.Equal(t, http.StatusOK, rec.Code)
	report = decode[models.SegmentReport](t, rec)
	// 02:00 wraps into the evening bucket.
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 2, report.Segments[2].Value)
}

func TestGetSellerDetail(t *testing.T) {
	s := setupServer(t, nil)

	rec := s.do(t, http.MethodGet, "/api/seller-detail?name=Nobody", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/seller-detail", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/seller-detail?name=A&year=2024", "")
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[models.SellerDetail](t, rec)
	assert.Equal(t, "A", detail.SellerName)
	assert.Equal(t, "2024", detail.SelectedYear)
	assert.Equal(t, 1000.0, detail.Stats.TotalRevenue)
	assert.Equal(t, 500.0, detail.Refunds.TotalRefunds)
	assert.Equal(t, 1, detail.Refunds.RefundCount)
	assert.Equal(t, []string{"2024"}, detail.AvailableYears)
	assert.Equal(t, []string{"Concert", "Play"}, detail.AvailableEvents)
	assert.Empty(t, detail.AllSellers)
}

func TestSellerDetailSettlesMonthlySections(t *testing.T) {
	s := setupServer(t, nil)
	_, err := s.store.InsertBatch(context.Background(), []models.TicketRecord{
		{RowHash: "b1", OrderID: "b1", Seller: "B", Organizer: "Org", EventName: "Concert", OrderDate: "2024-03-02", TicketsCount: 2, OrderAmount: 2000, AgentAmount: 200, AgentPercent: 10, PaymentStatus: ledger.StatusPaid, Year: 2024, Month: 3},
		{RowHash: "b2", OrderID: "b2", Seller: "B", Organizer: "Org", EventName: "Concert", OrderDate: "2024-03-05", TicketsCount: 1, OrderAmount: 800, AgentAmount: 50, RefundAmount: 800, AgentPercent: 10, PaymentStatus: ledger.StatusRefunded, Year: 2024, Month: 3},
	})
	require.NoError(t, err)

	rec := s.do(t, http.MethodGet, "/api/seller-detail?name=B", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	detail := decode[models.SellerDetail](t, rec)

	// The full refund and its commission stay out of every monthly section.
	require.Len(t, detail.MonthlyStats, 1)
	assert.Equal(t, 200.0, detail.MonthlyStats[0].Agent)
	assert.Equal(t, 2000.0, detail.MonthlyStats[0].Revenue)
	assert.Equal(t, []string{"2024-03"}, detail.Trend.Labels)
	require.Len(t, detail.Trend.Datasets, 1)
	assert.Equal(t, []float64{200}, detail.Trend.Datasets[0].Data)
	assert.Equal(t, 200.0, detail.Stats.TotalAgent)

	// Refund stats still count it.
	assert.Equal(t, models.RefundStats{TotalRefunds: 800, RefundCount: 1}, detail.Refunds)
	assert.Equal(t, []string{"A"}, detail.AllSellers)
}

func TestListings(t *testing.T) {
	s := setupServer(t, nil)

	rec := s.do(t, http.MethodGet, "/api/years", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"2024"}, decode[[]string](t, rec))

	rec = s.do(t, http.MethodGet, "/api/statuses", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{ledger.StatusRefunded, ledger.StatusPaid}, decode[[]string](t, rec))

	rec = s.do(t, http.MethodGet, "/api/sellers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"A"}, decode[[]string](t, rec))

	rec = s.do(t, http.MethodGet, "/seller-events-filter?seller=A&year=2024", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Concert", "Play"}, decode[[]string](t, rec))

	rec = s.do(t, http.MethodGet, "/seller-events-filter", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompareSellers(t *testing.T) {
	s := setupServer(t, nil)

	rec := s.do(t, http.MethodPost, "/api/compare-sellers", `{"sellers":["A","Nobody","A"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rows := decode[[]models.RevenueStats](t, rec)
	require.Len(t, rows, 1)
	assert.Equal(t, "A", rows[0].Seller)
	// Settled policy: the full refund is excluded.
	assert.Equal(t, 1000.0, rows[0].TotalRevenue)
	assert.Equal(t, 0.0, rows[0].TotalRefunds)

	rec = s.do(t, http.MethodPost, "/api/compare-sellers", `{"sellers":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/compare-sellers", `{"sellers":["a","b","c","d","e","f"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/compare-sellers", `{"sellers":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStoreFailureIs500(t *testing.T) {
	s := setupServer(t, nil)
	require.NoError(t, s.store.Bun.Close())

	rec := s.do(t, http.MethodGet, "/api/summary", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Contains(t, body["error"], reports.ErrDataAccess.Error())
	assert.Contains(t, body["error"], "database is closed")
}

func TestHealth(t *testing.T) {
	s := setupServer(t, nil)
	rec := s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReportsAreCached(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	c := cache.NewWithClient(client, "report_cache:", logger.NewNopLogger())

	s := setupServer(t, c)

	first := s.do(t, http.MethodGet, "/api/years", "")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := s.do(t, http.MethodGet, "/api/years", "")
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, time.Hour, mr.TTL("report_cache:/api/years"))

	s.do(t, http.MethodGet, "/api/summary?year=2024", "")
	assert.Equal(t, time.Minute, mr.TTL("report_cache:/api/summary?year=2024"))

	bad := s.do(t, http.MethodGet, "/api/summary?year=24", "")
	assert.Equal(t, http.StatusBadRequest, bad.Code)
	assert.False(t, mr.Exists("report_cache:/api/summary?year=24"))
}

func TestMetricsEndpoint(t *testing.T) {
	s := setupServer(t, nil)
	s.do(t, http.MethodGet, "/api/years", "")

	rec := s.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "report_http_requests_total")
	assert.Contains(t, rec.Body.String(), "report_http_request_duration_seconds")
}
