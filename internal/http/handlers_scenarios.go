package http

import (
	"net/http"

	"greekledger/internal/core"
	"greekledger/internal/log"
)

func (s *Server) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Scenarios.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleSaveScenario computes the outlook for the input and stores it.
func (s *Server) handleSaveScenario(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in core.ScenarioInput
	if err := DecodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	sc, err := s.deps.Scenarios.Save(ctx, in)
	log.FromContext(ctx).Op(ctx, log.OpCreate, err, "scenario_id", sc.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sc)
}

func (s *Server) handlePreviewScenario(w http.ResponseWriter, r *http.Request) {
	var in core.ScenarioInput
	if err := DecodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	preview, err := s.deps.Scenarios.Preview(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

func (s *Server) handleDeleteScenario(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	err := s.deps.Scenarios.Delete(ctx, r.PathValue("id"))
	log.FromContext(ctx).Op(ctx, log.OpDelete, err, "scenario_id", r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Scenario deleted successfully")
}

// Settings responses never carry the SMTP password or the bot token.

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.deps.Store.GetSettings(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings.Public())
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var u core.SettingsUpdate
	if err := DecodeJSON(w, r, &u); err != nil {
		writeError(w, r, err)
		return
	}
	settings, err := s.deps.Store.UpdateSettings(ctx, u)
	log.FromContext(ctx).Op(ctx, log.OpUpdate, err, "resource", "settings")
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings.Public())
}
