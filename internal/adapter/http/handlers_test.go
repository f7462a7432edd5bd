package adapthttp_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	adapthttp "capsule/internal/adapter/http"
	"capsule/internal/adapter/memory"
	"capsule/internal/app"
	"capsule/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	handler http.Handler
	store   *app.Facade
	token   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()
	store := app.NewFacade(memory.New(), logger)
	auth := app.NewAuthService(store, store, store.Settings())
	reports := app.NewReportService(store, store)

	_, err := auth.CreateInitialUser(ctx, "admin", "s3cret")
	require.NoError(t, err)
	for _, n := range []string{"C1", "C2", "C3"} {
		_, err := store.CreateUnit(ctx, domain.Unit{Number: n, IsAvailable: true})
		require.NoError(t, err)
	}
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("capsule_units_total 3\n"))
	})

	srv := adapthttp.New(store, auth, reports, metrics, logger).
		WithDesk(app.NewCheckinService(store, logger), app.NewExpenseService(store))
	f := &fixture{handler: srv.Handler(), store: store}

	body := bytes.NewBufferString(`{"username":"admin","password":"s3cret"}`)
	rec := f.do(t, http.MethodPost, "/api/login", body, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	f.token = resp["token"]
	require.NotEmpty(t, f.token)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body *bytes.Buffer, token string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestMetricsMounted(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "capsule_units_total")
}

func TestLogin_BadPassword(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/login", bytes.NewBufferString(`{"username":"admin","password":"nope"}`), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_WrongMethod(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/login", nil, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestStatusRequiresSession(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/occupancy", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/occupancy", nil, "forged")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMe(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/me", nil, f.token)
	require.Equal(t, http.StatusOK, rec.Code)
	var u domain.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	assert.Equal(t, "admin", u.Username)
	assert.Empty(t, u.PasswordHash)
}

func TestOccupancyAndUnits(t *testing.T) {
	f := newFixture(t)
	_, err := f.store.CreateGuest(context.Background(), domain.GuestInput{Name: "Ana", UnitNumber: "C2"})
	require.NoError(t, err)

	rec := f.do(t, http.MethodGet, "/api/occupancy", nil, f.token)
	require.Equal(t, http.StatusOK, rec.Code)
	var o app.Occupancy
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &o))
	assert.Equal(t, app.Occupancy{Total: 3, Occupied: 1, Available: 2, OccupancyRate: 33}, o)

	rec = f.do(t, http.MethodGet, "/api/units/available", nil, f.token)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Units []domain.Unit `json:"units"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Units, 2)
	assert.Equal(t, "C1", resp.Units[0].Number)
	assert.Equal(t, "C3", resp.Units[1].Number)
}

func TestDailyReport(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/reports/daily?days=3", nil, f.token)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Days []app.DayPoint `json:"days"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Days, 3)
}

func TestLogout(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/logout", nil, f.token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/me", nil, f.token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCheckInAndOut(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/guests", bytes.NewBufferString(`{"name":"Ana","unitNumber":"C2"}`), f.token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var g domain.Guest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &g))
	assert.Equal(t, "C2", g.UnitNumber)
	assert.Equal(t, "admin", g.PaymentCollector)

	rec = f.do(t, http.MethodPost, "/api/guests", bytes.NewBufferString(`{"name":"Bo","unitNumber":"C2"}`), f.token)
	assert.Equal(t, http.StatusConflict, rec.Code, "unit already occupied")

	rec = f.do(t, http.MethodPost, "/api/guests", bytes.NewBufferString(`{"name":"  ","unitNumber":"C3"}`), f.token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/guests/"+g.ID+"/checkout", nil, f.token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &g))
	assert.False(t, g.IsCheckedIn)
	assert.NotNil(t, g.CheckoutTime)

	rec = f.do(t, http.MethodPost, "/api/guests/missing/checkout", nil, f.token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeskRoutesRequireSession(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/guests", bytes.NewBufferString(`{"name":"Ana","unitNumber":"C2"}`), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = f.do(t, http.MethodGet, "/api/expenses", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSelfCheckInUnknownToken(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/self-checkin/nope", bytes.NewBufferString(`{"name":"Ana"}`), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestExpenses(t *testing.T) {
	f := newFixture(t)

	for _, body := range []string{
		`{"description":"soap","amount":"4.5","category":"supplies"}`,
		`{"description":"towels","amount":"10.25","category":"supplies"}`,
		`{"description":"internet","amount":"30","category":"utilities"}`,
	} {
		rec := f.do(t, http.MethodPost, "/api/expenses", bytes.NewBufferString(body), f.token)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := f.do(t, http.MethodPost, "/api/expenses", bytes.NewBufferString(`{"description":"bad","amount":"-1"}`), f.token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/expenses?category=supplies", nil, f.token)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Expenses []domain.Expense `json:"expenses"`
		Total    string           `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Expenses, 2)
	assert.Equal(t, "14.75", resp.Total)
	amounts := []string{resp.Expenses[0].Amount, resp.Expenses[1].Amount}
	assert.ElementsMatch(t, []string{"4.50", "10.25"}, amounts)
}
