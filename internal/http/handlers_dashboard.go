package http

import (
	"net/http"

	"greekledger/internal/core"
)

func (s *Server) handleSpendingByCategory(w http.ResponseWriter, r *http.Request) {
	report, err := s.deps.Analytics.SpendingByCategory(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleSpendingTrends(w http.ResponseWriter, r *http.Request) {
	months, err := QueryInt(r, "months", core.DefaultTrendMonths)
	if err != nil {
		writeError(w, r, err)
		return
	}
	trends, err := s.deps.Analytics.SpendingTrends(r.Context(), months)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trends)
}

func (s *Server) handleSpendingPerMember(w http.ResponseWriter, r *http.Request) {
	report, err := s.deps.Analytics.SpendingPerMember(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleDashboard returns the landing-page summary. Any failed read fails
// the whole response.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.deps.Analytics.Dashboard(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
