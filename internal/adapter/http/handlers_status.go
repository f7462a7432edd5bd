package adapthttp

import (
	"net/http"

	"capsule/internal/domain"

	"go.uber.org/zap"
)

func (s *Server) handleOccupancy(w http.ResponseWriter, r *http.Request) {
	o, err := s.store.Occupancy(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleAvailableUnits(w http.ResponseWriter, r *http.Request) {
	units, err := s.store.AvailableUnits(r.Context())
	s.writeUnits(w, units, err)
}

func (s *Server) handleUncleanedUnits(w http.ResponseWriter, r *http.Request) {
	units, err := s.store.UncleanedAvailableUnits(r.Context())
	s.writeUnits(w, units, err)
}

func (s *Server) writeUnits(w http.ResponseWriter, units []domain.Unit, err error) {
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"units": units})
}

func (s *Server) handleDailyReport(w http.ResponseWriter, r *http.Request) {
	points, err := s.reports.GetDaily(r.Context(), intQuery(r, "days", 7))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": points})
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	s.logger.Error("request failed", zap.Error(err))
	http.Error(w, "internal error", http.StatusInternalServerError)
}
