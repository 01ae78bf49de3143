package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskengine/src/model"
	"riskengine/src/risk"
	"riskengine/src/service"
)

type mockRiskAPI struct {
	result      model.RiskCheckResult
	validateErr error
	status      model.RiskStatus
	statusErr   error
	stopErr     error
	resumeErr   error
	state       risk.State
	report      *service.PerformanceReport
	reportErr   error
	events      []model.RiskEvent
	eventsErr   error

	gotSignal   model.Signal
	gotAccount  uint
	gotReason   string
	gotLookback time.Duration
	gotLimit    int
}

func (m *mockRiskAPI) Validate(_ context.Context, s model.Signal) (model.RiskCheckResult, error) {
	m.gotSignal = s
	return m.result, m.validateErr
}

func (m *mockRiskAPI) Status(_ context.Context, id uint) (model.RiskStatus, error) {
	m.gotAccount = id
	return m.status, m.statusErr
}

func (m *mockRiskAPI) EmergencyStop(_ context.Context, reason string) error {
	m.gotReason = reason
	m.state = risk.StateEmergencyStopped
	return m.stopErr
}

func (m *mockRiskAPI) Resume(context.Context, string) error {
	if m.resumeErr == nil {
		m.state = risk.StateActive
	}
	return m.resumeErr
}

func (m *mockRiskAPI) Stats() risk.Stats {
	return risk.Stats{Blocked: 2, ByRule: map[string]int{risk.RuleDailyLoss: 2}}
}

func (m *mockRiskAPI) State() risk.State { return m.state }

func (m *mockRiskAPI) RecentEvents(_ context.Context, accountID uint, limit int) ([]model.RiskEvent, error) {
	m.gotAccount = accountID
	m.gotLimit = limit
	return m.events, m.eventsErr
}

func (m *mockRiskAPI) Performance(_ context.Context, id uint, lookback time.Duration) (*service.PerformanceReport, error) {
	m.gotAccount = id
	m.gotLookback = lookback
	return m.report, m.reportErr
}

func router(m *mockRiskAPI) http.Handler {
	r := chi.NewRouter()
	r.Post("/risk/validate", ValidateHandler(m))
	r.Get("/risk/status/{accountID}", StatusHandler(m))
	r.Post("/risk/emergency-stop", EmergencyStopHandler(m))
	r.Post("/risk/resume", ResumeHandler(m))
	r.Get("/risk/stats", StatsHandler(m))
	r.Get("/risk/events", EventsHandler(m))
	r.Get("/performance/{accountID}", PerformanceHandler(m))
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestValidateHandler(t *testing.T) {
	m := &mockRiskAPI{result: model.RiskCheckResult{Approved: false, Reason: "Max exposure limit exceeded", Rule: risk.RuleMaxExposure}}

	rr := do(t, router(m), http.MethodPost, "/risk/validate", `{"account_id":1,"symbol":"EURUSD","side":"BUY","quantity":1000,"price":1.085}`)

	require.Equal(t, http.StatusOK, rr.Code)
	var got model.RiskCheckResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.False(t, got.Approved)
	assert.Equal(t, risk.RuleMaxExposure, got.Rule)
	require.NotNil(t, m.gotSignal.Price)
	assert.Equal(t, 1.085, *m.gotSignal.Price)
}

func TestValidateHandler_BadInput(t *testing.T) {
	m := &mockRiskAPI{}
	for _, body := range []string{
		`not json`,
		`{"symbol":"EURUSD","side":"BUY","quantity":1}`,
		`{"account_id":1,"symbol":"EURUSD","side":"HOLD","quantity":1}`,
		`{"account_id":1,"symbol":"EURUSD","side":"SELL","quantity":0}`,
	} {
		rr := do(t, router(m), http.MethodPost, "/risk/validate", body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
	}
}

func TestValidateHandler_ServiceError(t *testing.T) {
	m := &mockRiskAPI{validateErr: errors.New("db down"), result: model.RiskCheckResult{Reason: "Risk data unavailable"}}

	rr := do(t, router(m), http.MethodPost, "/risk/validate", `{"account_id":1,"symbol":"EURUSD","side":"BUY","quantity":1}`)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), `"approved":false`)
}

func TestStatusHandler(t *testing.T) {
	m := &mockRiskAPI{status: model.RiskStatus{AccountID: 5, PositionCount: 3, MaxPositions: 10}}

	rr := do(t, router(m), http.MethodGet, "/risk/status/5", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, uint(5), m.gotAccount)
	assert.Contains(t, rr.Body.String(), `"position_count":3`)

	rr = do(t, router(m), http.MethodGet, "/risk/status/abc", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	m.statusErr = errors.New("db down")
	rr = do(t, router(m), http.MethodGet, "/risk/status/5", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestEmergencyStopHandler(t *testing.T) {
	m := &mockRiskAPI{state: risk.StateActive}

	rr := do(t, router(m), http.MethodPost, "/risk/emergency-stop", `{"reason":"news spike"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "news spike", m.gotReason)
	assert.Contains(t, rr.Body.String(), string(risk.StateEmergencyStopped))

	m.stopErr = errors.Join(errors.New("close position 1: locked"), errors.New("close position 4: locked"))
	rr = do(t, router(m), http.MethodPost, "/risk/emergency-stop", `{"reason":"again"}`)
	require.Equal(t, http.StatusMultiStatus, rr.Code)
	var resp stopResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Len(t, resp.Errors, 2)
	assert.Equal(t, risk.StateEmergencyStopped, resp.State)

	rr = do(t, router(m), http.MethodPost, "/risk/emergency-stop", `{}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestResumeHandler(t *testing.T) {
	m := &mockRiskAPI{state: risk.StateEmergencyStopped}

	rr := do(t, router(m), http.MethodPost, "/risk/resume", `{"operator":"alice"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), string(risk.StateActive))

	m.resumeErr = risk.ErrNotStopped
	rr = do(t, router(m), http.MethodPost, "/risk/resume", `{"operator":"alice"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = do(t, router(m), http.MethodPost, "/risk/resume", `{"operator":" "}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestStatsHandler(t *testing.T) {
	m := &mockRiskAPI{state: risk.StateActive}

	rr := do(t, router(m), http.MethodGet, "/risk/stats", "")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"blocked":2`)
	assert.Contains(t, rr.Body.String(), `"daily_loss":2`)
}

func TestPerformanceHandler(t *testing.T) {
	m := &mockRiskAPI{report: &service.PerformanceReport{AccountID: 7, Metrics: model.PerformanceMetrics{TotalTrades: 4, WinRate: 75}}}

	rr := do(t, router(m), http.MethodGet, "/performance/7?lookback=720h", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 720*time.Hour, m.gotLookback)
	assert.Contains(t, rr.Body.String(), `"win_rate":75`)

	rr = do(t, router(m), http.MethodGet, "/performance/7?lookback=soon", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	m.report = nil
	rr = do(t, router(m), http.MethodGet, "/performance/8", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, time.Duration(0), m.gotLookback)

	m.reportErr = errors.New("db down")
	rr = do(t, router(m), http.MethodGet, "/performance/8", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestEventsHandler(t *testing.T) {
	m := &mockRiskAPI{events: []model.RiskEvent{{ID: 2, AccountID: 7, Rule: risk.RuleDailyLoss}}}

	rr := do(t, router(m), http.MethodGet, "/risk/events?account=7&limit=5", "")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, uint(7), m.gotAccount)
	assert.Equal(t, 5, m.gotLimit)
	var got []model.RiskEvent
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, risk.RuleDailyLoss, got[0].Rule)
}

func TestEventsHandler_DefaultsAndEmpty(t *testing.T) {
	m := &mockRiskAPI{}

	rr := do(t, router(m), http.MethodGet, "/risk/events", "")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, uint(0), m.gotAccount)
	assert.Equal(t, 0, m.gotLimit)
	assert.JSONEq(t, "[]", rr.Body.String())
}

func TestEventsHandler_BadQuery(t *testing.T) {
	for _, path := range []string{"/risk/events?account=x", "/risk/events?limit=0", "/risk/events?limit=5000"} {
		rr := do(t, router(&mockRiskAPI{}), http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code, path)
	}
}

func TestEventsHandler_ServiceError(t *testing.T) {
	m := &mockRiskAPI{eventsErr: errors.New("db down")}

	rr := do(t, router(m), http.MethodGet, "/risk/events", "")

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
