package adapthttp

import (
	"net/http"

	"capsule/internal/app"

	"go.uber.org/zap"
)

// Server is the HTTP adapter: health, metrics, the staff status API and,
// when enabled, the desk routes.
type Server struct {
	store   app.Storage
	authSvc *app.AuthService
	reports *app.ReportService
	// set by WithDesk
	checkins *app.CheckinService
	expenses *app.ExpenseService
	metrics  http.Handler
	sso      *SSOConfig
	logger   *zap.Logger
}

// New creates a Server wired to the given services. metrics may be nil.
func New(store app.Storage, authSvc *app.AuthService, reports *app.ReportService, metrics http.Handler, logger *zap.Logger) *Server {
	return &Server{store: store, authSvc: authSvc, reports: reports, metrics: metrics, logger: logger}
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/config", s.handleConfig)
	api.HandleFunc("/login", s.handleLogin)
	api.HandleFunc("/logout", s.handleLogout)
	api.HandleFunc("/auth/sso/login", s.handleSSOLogin)
	api.HandleFunc("/auth/sso/callback", s.handleSSOCallback)
	api.Handle("/me", s.authMiddleware(http.HandlerFunc(s.handleMe)))
	api.Handle("/occupancy", s.authMiddleware(http.HandlerFunc(s.handleOccupancy)))
	api.Handle("/units/available", s.authMiddleware(http.HandlerFunc(s.handleAvailableUnits)))
	api.Handle("/units/uncleaned", s.authMiddleware(http.HandlerFunc(s.handleUncleanedUnits)))
	api.Handle("/reports/daily", s.authMiddleware(http.HandlerFunc(s.handleDailyReport)))
	api.Handle("POST /guests/{id}/checkout", s.authMiddleware(http.HandlerFunc(s.handleCheckout)))
	if s.checkins != nil {
		api.Handle("POST /guests", s.authMiddleware(http.HandlerFunc(s.handleCheckIn)))
		api.HandleFunc("POST /self-checkin/{token}", s.handleSelfCheckIn)
	}
	if s.expenses != nil {
		api.Handle("GET /expenses", s.authMiddleware(http.HandlerFunc(s.handleListExpenses)))
		api.Handle("POST /expenses", s.authMiddleware(http.HandlerFunc(s.handleRecordExpense)))
	}

	root := http.NewServeMux()
	root.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	if s.metrics != nil {
		root.Handle("/metrics", s.metrics)
	}
	root.Handle("/api/", http.StripPrefix("/api", api))

	return s.loggingMiddleware(withNoCache(root))
}
