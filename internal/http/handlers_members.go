package http

import (
	"net/http"
	"strings"

	"greekledger/internal/core"
	"greekledger/internal/log"
	"greekledger/internal/storage"
)

type memberRequest struct {
	FirstName   string            `json:"firstName"`
	LastName    string            `json:"lastName"`
	Email       string            `json:"email"`
	PhoneNumber string            `json:"phoneNumber"`
	PledgeClass string            `json:"pledgeClass"`
	Status      core.MemberStatus `json:"status"`
	DuesOwed    *core.Money       `json:"duesOwed"`
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	status := core.MemberStatus(strings.ToUpper(r.URL.Query().Get("status")))
	if status != "" && !status.Valid() {
		writeError(w, r, core.Invalid("invalid member status %q", status))
		return
	}
	members, err := s.deps.Store.ListMembers(r.Context(), storage.MemberFilter{Status: status})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func (s *Server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	m, err := s.deps.Store.GetMemberDetail(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// handleCreateMember defaults a missing duesOwed to the chapter's semester
// dues and a missing status to ACTIVE.
func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req memberRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	m := core.Member{
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		Email:       strings.TrimSpace(req.Email),
		PhoneNumber: strings.TrimSpace(req.PhoneNumber),
		PledgeClass: req.PledgeClass,
		Status:      req.Status,
	}
	if m.Status == "" {
		m.Status = core.MemberActive
	}
	if req.DuesOwed != nil {
		m.DuesOwed = *req.DuesOwed
	} else {
		settings, err := s.deps.Store.GetSettings(ctx)
		if err != nil {
			writeError(w, r, err)
			return
		}
		m.DuesOwed = settings.SemesterDuesAmount
	}
	if err := m.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	err := s.deps.Store.CreateMember(ctx, &m)
	log.FromContext(ctx).Op(ctx, log.OpCreate, err, log.FieldMemberID, m.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var u core.MemberUpdate
	if err := DecodeJSON(w, r, &u); err != nil {
		writeError(w, r, err)
		return
	}
	m, err := s.deps.Store.UpdateMember(ctx, r.PathValue("id"), u)
	log.FromContext(ctx).Op(ctx, log.OpUpdate, err, log.FieldMemberID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	err := s.deps.Store.DeleteMember(ctx, r.PathValue("id"))
	log.FromContext(ctx).Op(ctx, log.OpDelete, err, log.FieldMemberID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Member deleted successfully")
}

func (s *Server) handleDuesSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.deps.Analytics.DuesSummary(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
