package analytichttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balcao-erp/balcao/internal/analytics"
	"github.com/balcao-erp/balcao/internal/ledger"
	"github.com/balcao-erp/balcao/internal/shared"
)

// stubService returns canned engine results and records the arguments it was
// called with.
type stubService struct {
	rollup       []analytics.MonthlyAggregate
	rollupErr    error
	dre          analytics.DREResult
	dreErr       error
	abc          analytics.ABCCurve
	flows        []analytics.DailyFlow
	flowsErr     error
	distribution analytics.DistributionResult
	plan         ledger.DistributionPlan
	planErr      error
	saved        *ledger.DistributionPlan
	savedErr     error
	trend        analytics.TrendAnalysis

	lastOwner  uuid.UUID
	lastMonths int
	lastRange  shared.DateRange
}

func (s *stubService) GetMonthlyRollup(ctx context.Context, owner uuid.UUID, monthCount int) ([]analytics.MonthlyAggregate, error) {
	s.lastOwner = owner
	s.lastMonths = monthCount
	return s.rollup, s.rollupErr
}

func (s *stubService) GetDRE(ctx context.Context, owner uuid.UUID, r shared.DateRange) (analytics.DREResult, error) {
	s.lastOwner = owner
	s.lastRange = r
	return s.dre, s.dreErr
}

func (s *stubService) GetABCCurve(ctx context.Context, owner uuid.UUID, r shared.DateRange) (analytics.ABCCurve, error) {
	s.lastOwner = owner
	s.lastRange = r
	return s.abc, nil
}

func (s *stubService) GetCashFlow(ctx context.Context, owner uuid.UUID, r shared.DateRange) ([]analytics.DailyFlow, error) {
	s.lastOwner = owner
	s.lastRange = r
	return s.flows, s.flowsErr
}

func (s *stubService) GetProfitDistribution(ctx context.Context, owner uuid.UUID) (analytics.DistributionResult, error) {
	s.lastOwner = owner
	return s.distribution, nil
}

func (s *stubService) SaveProfitDistribution(ctx context.Context, owner uuid.UUID, month string, netProfit float64) (ledger.DistributionPlan, error) {
	s.lastOwner = owner
	return s.plan, s.planErr
}

func (s *stubService) GetSavedDistribution(ctx context.Context, owner uuid.UUID, month string) (*ledger.DistributionPlan, error) {
	s.lastOwner = owner
	return s.saved, s.savedErr
}

func (s *stubService) GetTrendAnalysis(ctx context.Context, owner uuid.UUID) (analytics.TrendAnalysis, error) {
	s.lastOwner = owner
	return s.trend, nil
}

var handlerOwner = uuid.MustParse("7b7a0b5e-4c1d-4a51-9d1e-222222222222")

func handlerNow() time.Time {
	return time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)
}

func newTestRouter(svc AnalyticsService) chi.Router {
	h := NewHandler(nil, svc).WithNow(handlerNow)
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func doRequest(t *testing.T, router chi.Router, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRollupRoundsAndWraps(t *testing.T) {
	svc := &stubService{rollup: []analytics.MonthlyAggregate{
		{Month: "2025-06", Revenue: 1234.5678, DirectCost: 400.004, Expenses: 100.555, Profit: 734.0088},
	}}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodGet, "/rollup?owner_id="+handlerOwner.String()+"&months=3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, svc.lastMonths)

	var vm RollupVM
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &vm))
	require.Len(t, vm.Months, 1)
	assert.Equal(t, 1234.57, vm.Months[0].Revenue)
	assert.Equal(t, 400.0, vm.Months[0].DirectCost)
	assert.Equal(t, 100.56, vm.Months[0].Expenses)
	assert.Equal(t, 734.01, vm.Months[0].Profit)
}

func TestRollupDefaultsToSixMonths(t *testing.T) {
	svc := &stubService{}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodGet, "/rollup?owner_id="+handlerOwner.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaultRollupSpan, svc.lastMonths)
}

func TestRollupRejectsBadMonths(t *testing.T) {
	router := newTestRouter(&stubService{})

	for _, months := range []string{"0", "-1", "25", "abc"} {
		rec := doRequest(t, router, http.MethodGet, "/rollup?owner_id="+handlerOwner.String()+"&months="+months, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, "months=%s", months)
	}
}

func TestOwnerIDValidation(t *testing.T) {
	router := newTestRouter(&stubService{})

	rec := doRequest(t, router, http.MethodGet, "/rollup", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/rollup?owner_id=not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDREDefaultsToCurrentMonth(t *testing.T) {
	svc := &stubService{}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodGet, "/dre?owner_id="+handlerOwner.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2025-06-01..2025-06-30", svc.lastRange.String())

	rec = doRequest(t, router, http.MethodGet, "/dre?owner_id="+handlerOwner.String()+"&from=2025-05-01&to=2025-05-10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2025-05-01..2025-05-10", svc.lastRange.String())
}

func TestDREBadRangeIsRejected(t *testing.T) {
	router := newTestRouter(&stubService{})

	rec := doRequest(t, router, http.MethodGet, "/dre?owner_id="+handlerOwner.String()+"&from=2025-06-30&to=2025-06-01", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCashFlowRunningBalanceIsPrefixSum(t *testing.T) {
	svc := &stubService{flows: []analytics.DailyFlow{
		{Date: "2025-06-01", Inflow: 500, Outflow: 0, DailyBalance: 500},
		{Date: "2025-06-02", Inflow: 0, Outflow: 120, DailyBalance: -120},
		{Date: "2025-06-03", Inflow: 50, Outflow: 30, DailyBalance: 20},
	}}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodGet, "/cashflow?owner_id="+handlerOwner.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var vm CashFlowVM
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &vm))
	require.Len(t, vm.Days, 3)
	assert.Equal(t, 500.0, vm.Days[0].RunningBalance)
	assert.Equal(t, 380.0, vm.Days[1].RunningBalance)
	assert.Equal(t, 400.0, vm.Days[2].RunningBalance)
}

func TestDistributionUnavailablePayload(t *testing.T) {
	svc := &stubService{distribution: analytics.DistributionResult{
		Available: false,
		Month:     "2025-06",
		NetProfit: -300,
	}}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodGet, "/distribution?owner_id="+handlerOwner.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var vm DistributionVM
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &vm))
	assert.False(t, vm.Available)
	assert.Equal(t, -300.0, vm.NetProfit)
	assert.Zero(t, vm.Withdrawal)
}

func TestDistributionMonthQueryReadsSavedPlan(t *testing.T) {
	saved := &ledger.DistributionPlan{
		OwnerID:    handlerOwner,
		Month:      "2025-05",
		NetProfit:  1000,
		Withdrawal: 500,
	}
	svc := &stubService{saved: saved}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodGet, "/distribution?owner_id="+handlerOwner.String()+"&month=2025-05", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var vm SavedPlanVM
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &vm))
	assert.Equal(t, "2025-05", vm.Month)
	assert.Equal(t, 500.0, vm.Withdrawal)
}

func TestDistributionMonthQueryNotFound(t *testing.T) {
	svc := &stubService{savedErr: shared.ErrNotFound}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodGet, "/distribution?owner_id="+handlerOwner.String()+"&month=2025-01", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSaveDistribution(t *testing.T) {
	svc := &stubService{plan: ledger.DistributionPlan{
		OwnerID:      handlerOwner,
		Month:        "2025-06",
		NetProfit:    1000,
		Withdrawal:   500,
		Reinvestment: 300,
		Taxes:        100,
		Reserve:      100,
	}}
	router := newTestRouter(svc)

	body := `{"owner_id":"` + handlerOwner.String() + `","month":"2025-06","net_profit":1000}`
	rec := doRequest(t, router, http.MethodPost, "/distribution", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var vm SavedPlanVM
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &vm))
	assert.Equal(t, 500.0, vm.Withdrawal)
	assert.Equal(t, 100.0, vm.Reserve)
}

func TestSaveDistributionValidation(t *testing.T) {
	router := newTestRouter(&stubService{})

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"owner_id":`},
		{"missing owner", `{"month":"2025-06","net_profit":100}`},
		{"short month", `{"owner_id":"` + handlerOwner.String() + `","month":"25-06","net_profit":100}`},
		{"non positive profit", `{"owner_id":"` + handlerOwner.String() + `","month":"2025-06","net_profit":0}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodPost, "/distribution", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestServiceErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		expected int
	}{
		{"invalid range", shared.ErrInvalidRange, http.StatusBadRequest},
		{"ledger down", shared.ErrDataAccess, http.StatusServiceUnavailable},
		{"unexpected", context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(&stubService{rollupErr: tc.err})
			rec := doRequest(t, router, http.MethodGet, "/rollup?owner_id="+handlerOwner.String(), "")
			assert.Equal(t, tc.expected, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
		})
	}
}

func TestRollupExportCSV(t *testing.T) {
	svc := &stubService{rollup: []analytics.MonthlyAggregate{
		{Month: "2025-05", Revenue: 1000, DirectCost: 400, Expenses: 100, Profit: 500},
		{Month: "2025-06", Revenue: 1200, DirectCost: 450, Expenses: 120, Profit: 630},
	}}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodGet, "/rollup/export?owner_id="+handlerOwner.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "month")
	assert.Contains(t, lines[1], "2025-05")
	assert.Contains(t, lines[2], "2025-06")
}

func TestTrendEndpoint(t *testing.T) {
	svc := &stubService{trend: analytics.TrendAnalysis{
		Metrics: analytics.TrendMetrics{
			Month:           "2025-06",
			Margin:          41.6666,
			RevenueGrowth:   25,
			Trend:           "positive",
			BenchmarkMargin: 38.3333,
			BenchmarkStatus: "above",
		},
		Alerts:   []analytics.Alert{},
		Patterns: []string{"consistent-growth"},
		Months:   []analytics.MonthlyAggregate{{Month: "2025-06", Revenue: 1200}},
	}}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodGet, "/trends?owner_id="+handlerOwner.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var vm TrendVM
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &vm))
	assert.Equal(t, 41.67, vm.Metrics.Margin)
	assert.Equal(t, "above", vm.Metrics.BenchmarkStatus)
	assert.Equal(t, []string{"consistent-growth"}, vm.Patterns)
	require.Len(t, vm.Months, 1)
}
