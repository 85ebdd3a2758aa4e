package http

import (
	"net/http"
	"strings"

	"greekledger/internal/core"
	"greekledger/internal/log"
)

type recurringRequest struct {
	Name      *string               `json:"name"`
	Type      *core.TransactionType `json:"type"`
	Amount    *core.Money           `json:"amount"`
	Category  *string               `json:"category"`
	Frequency *core.Frequency       `json:"frequency"`
	StartDate *Date                 `json:"startDate"`
	EndDate   *Date                 `json:"endDate"`
	IsActive  *bool                 `json:"isActive"`
}

// apply merges the request over rt. An explicit empty endDate clears it.
func (req recurringRequest) apply(rt core.RecurringTransaction) core.RecurringTransaction {
	if req.Name != nil {
		rt.Name = strings.TrimSpace(*req.Name)
	}
	if req.Type != nil {
		rt.Type = core.TransactionType(strings.ToUpper(string(*req.Type)))
	}
	if req.Amount != nil {
		rt.Amount = *req.Amount
	}
	if req.Category != nil {
		rt.Category = *req.Category
	}
	if req.Frequency != nil {
		rt.Frequency = core.Frequency(strings.ToUpper(string(*req.Frequency)))
	}
	if d := req.StartDate.Ptr(); d != nil {
		rt.StartDate = *d
	}
	if req.EndDate != nil {
		rt.EndDate = req.EndDate.Ptr()
	}
	if req.IsActive != nil {
		rt.IsActive = *req.IsActive
	}
	return rt
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	txs, err := s.deps.Store.ListActiveRecurring(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleGetRecurring(w http.ResponseWriter, r *http.Request) {
	rt, err := s.deps.Store.GetRecurring(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rt)
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req recurringRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rt := req.apply(core.RecurringTransaction{IsActive: true})
	if err := rt.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	err := s.deps.Store.CreateRecurring(ctx, &rt)
	log.FromContext(ctx).Op(ctx, log.OpCreate, err, "recurring_id", rt.ID, "frequency", rt.Frequency)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rt)
}

func (s *Server) handleUpdateRecurring(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req recurringRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	current, err := s.deps.Store.GetRecurring(ctx, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	rt := req.apply(current)
	if err := rt.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	err = s.deps.Store.UpdateRecurring(ctx, rt)
	log.FromContext(ctx).Op(ctx, log.OpUpdate, err, "recurring_id", rt.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rt)
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	err := s.deps.Store.DeleteRecurring(ctx, r.PathValue("id"))
	log.FromContext(ctx).Op(ctx, log.OpDelete, err, "recurring_id", r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Recurring transaction deleted successfully")
}

func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	months, err := QueryInt(r, "months", core.DefaultProjectionMonths)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.deps.Cashflow.Projection(ctx, months)
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(ctx).DebugContext(ctx, "Projection computed", log.FieldOperation, log.OpProject, "months", months)
	writeJSON(w, http.StatusOK, p)
}
