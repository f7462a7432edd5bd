package adapthttp_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	adapthttp "capsule/internal/adapter/http"
	"capsule/internal/adapter/memory"
	"capsule/internal/app"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

func newSSOServer(t *testing.T, sso *adapthttp.SSOConfig) http.Handler {
	t.Helper()
	store := app.NewFacade(memory.New(), zap.NewNop())
	auth := app.NewAuthService(store, store, store.Settings())
	srv := adapthttp.New(store, auth, app.NewReportService(store, store), nil, zap.NewNop())
	if sso != nil {
		srv.WithSSO(sso)
	}
	return srv.Handler()
}

func TestConfigReportsSSO(t *testing.T) {
	h := newSSOServer(t, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/config", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp["sso_enabled"])
}

func TestSSOLoginDisabled(t *testing.T) {
	h := newSSOServer(t, nil)

	for _, path := range []string{"/api/auth/sso/login", "/api/auth/sso/callback"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestSSOLoginRedirects(t *testing.T) {
	h := newSSOServer(t, &adapthttp.SSOConfig{OAuth2Config: &oauth2.Config{
		ClientID:    "capsule-web",
		RedirectURL: "https://capsule.example/api/auth/sso/callback",
		Endpoint:    oauth2.Endpoint{AuthURL: "https://idp.example/auth"},
	}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/sso/login", nil))
	require.Equal(t, http.StatusFound, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "idp.example", loc.Host)
	assert.Equal(t, "capsule-web", loc.Query().Get("client_id"))

	var state *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "oauth_state" {
			state = c
		}
	}
	require.NotNil(t, state)
	assert.Equal(t, state.Value, loc.Query().Get("state"))
}

func TestSSOCallbackRejectsBadState(t *testing.T) {
	h := newSSOServer(t, &adapthttp.SSOConfig{OAuth2Config: &oauth2.Config{ClientID: "capsule-web"}})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/sso/callback?state=forged&code=x", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "expected"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/sso/callback?state=x", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing cookie")
}
