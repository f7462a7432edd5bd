package adapthttp

import (
	"errors"
	"net/http"
	"time"

	"capsule/internal/app"
	"capsule/internal/domain"
)

// WithDesk enables the check-in, checkout and expense routes.
func (s *Server) WithDesk(checkins *app.CheckinService, expenses *app.ExpenseService) *Server {
	s.checkins = checkins
	s.expenses = expenses
	return s
}

type guestRequest struct {
	Name                 string     `json:"name"`
	UnitNumber           string     `json:"unitNumber"`
	CheckinDate          *time.Time `json:"checkinDate"`
	ExpectedCheckoutDate *time.Time `json:"expectedCheckoutDate"`
	PaymentAmount        string     `json:"paymentAmount"`
	PaymentMethod        string     `json:"paymentMethod"`
	IsPaid               bool       `json:"isPaid"`
	Notes                string     `json:"notes"`
	Gender               string     `json:"gender"`
	Nationality          string     `json:"nationality"`
	PhoneNumber          string     `json:"phoneNumber"`
	Email                string     `json:"email"`
	IDNumber             string     `json:"idNumber"`
	EmergencyContact     string     `json:"emergencyContact"`
}

func (g guestRequest) input() domain.GuestInput {
	return domain.GuestInput{
		Name:                 g.Name,
		UnitNumber:           g.UnitNumber,
		CheckinDate:          g.CheckinDate,
		ExpectedCheckoutDate: g.ExpectedCheckoutDate,
		PaymentAmount:        g.PaymentAmount,
		PaymentMethod:        g.PaymentMethod,
		IsPaid:               g.IsPaid,
		Notes:                g.Notes,
		Gender:               g.Gender,
		Nationality:          g.Nationality,
		PhoneNumber:          g.PhoneNumber,
		Email:                g.Email,
		IDNumber:             g.IDNumber,
		EmergencyContact:     g.EmergencyContact,
	}
}

func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	var req guestRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	in := req.input()
	if u := userFrom(r.Context()); u != nil {
		in.PaymentCollector = u.Username
	}
	g, err := s.checkins.CheckIn(r.Context(), in)
	if err != nil {
		s.deskError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (s *Server) handleSelfCheckIn(w http.ResponseWriter, r *http.Request) {
	var req guestRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	g, err := s.checkins.SelfCheckIn(r.Context(), r.PathValue("token"), req.input())
	if err != nil {
		s.deskError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	g, err := s.store.CheckoutGuest(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	if g == nil {
		http.Error(w, "guest not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	f := domain.ExpenseFilter{Category: r.URL.Query().Get("category")}
	items, err := s.expenses.List(r.Context(), f)
	if err != nil {
		s.fail(w, err)
		return
	}
	total, err := s.expenses.Total(r.Context(), f)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"expenses": items, "total": total})
}

func (s *Server) handleRecordExpense(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string     `json:"description"`
		Amount      string     `json:"amount"`
		Category    string     `json:"category"`
		Subcategory string     `json:"subcategory"`
		Date        *time.Time `json:"date"`
		Notes       string     `json:"notes"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	e := domain.Expense{
		Description: req.Description,
		Amount:      req.Amount,
		Category:    req.Category,
		Subcategory: req.Subcategory,
		Notes:       req.Notes,
	}
	if req.Date != nil {
		e.Date = *req.Date
	}
	if u := userFrom(r.Context()); u != nil {
		e.CreatedBy = u.ID
	}
	out, err := s.expenses.Record(r.Context(), e)
	if err != nil {
		s.deskError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) deskError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, app.ErrTokenInvalid):
		writeError(w, http.StatusForbidden, err)
	case errors.Is(err, app.ErrUnitUnavailable), errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err)
	default:
		s.fail(w, err)
	}
}
