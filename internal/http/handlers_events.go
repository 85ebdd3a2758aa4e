package http

import (
	"net/http"
	"strings"

	"greekledger/internal/core"
	"greekledger/internal/log"
)

type eventRequest struct {
	Name            string                `json:"name"`
	Description     string                `json:"description"`
	Date            *Date                 `json:"date"`
	Category        core.Category         `json:"category"`
	Status          core.EventStatus      `json:"status"`
	PlannedBudget   core.Money            `json:"plannedBudget"`
	BudgetBreakdown map[string]core.Money `json:"budgetBreakdown"`
	ActualBreakdown map[string]core.Money `json:"actualBreakdown"`
}

type eventUpdateRequest struct {
	Name            *string               `json:"name"`
	Description     *string               `json:"description"`
	Date            *Date                 `json:"date"`
	Category        *core.Category        `json:"category"`
	Status          *core.EventStatus     `json:"status"`
	PlannedBudget   *core.Money           `json:"plannedBudget"`
	BudgetBreakdown map[string]core.Money `json:"budgetBreakdown"`
	ActualBreakdown map[string]core.Money `json:"actualBreakdown"`
}

type expenseRequest struct {
	Description string     `json:"description"`
	Amount      core.Money `json:"amount"`
	Category    string     `json:"category"`
	Date        *Date      `json:"date"`
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.deps.Store.ListEvents(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	e, err := s.deps.Store.GetEvent(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req eventRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	e := core.Event{
		Name:            strings.TrimSpace(req.Name),
		Description:     req.Description,
		Category:        req.Category,
		Status:          req.Status,
		PlannedBudget:   req.PlannedBudget,
		BudgetBreakdown: req.BudgetBreakdown,
		ActualBreakdown: req.ActualBreakdown,
	}
	if d := req.Date.Ptr(); d != nil {
		e.Date = *d
	}
	if e.Status == "" {
		e.Status = core.EventUpcoming
	}
	if err := e.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	err := s.deps.Store.CreateEvent(ctx, &e)
	log.FromContext(ctx).Op(ctx, log.OpCreate, err, log.FieldEventID, e.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req eventUpdateRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	u := core.EventUpdate{
		Name:            req.Name,
		Description:     req.Description,
		Date:            req.Date.Ptr(),
		Category:        req.Category,
		Status:          req.Status,
		PlannedBudget:   req.PlannedBudget,
		BudgetBreakdown: req.BudgetBreakdown,
		ActualBreakdown: req.ActualBreakdown,
	}
	e, err := s.deps.Store.UpdateEvent(ctx, r.PathValue("id"), u)
	log.FromContext(ctx).Op(ctx, log.OpUpdate, err, log.FieldEventID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	err := s.deps.Store.DeleteEvent(ctx, r.PathValue("id"))
	log.FromContext(ctx).Op(ctx, log.OpDelete, err, log.FieldEventID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Event deleted successfully")
}

// handleAddExpense records an expense and returns it; the event's actual
// spend is recomputed in the same transaction.
func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req expenseRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	x := core.EventExpense{
		Description: strings.TrimSpace(req.Description),
		Amount:      req.Amount,
		Category:    req.Category,
	}
	if d := req.Date.Ptr(); d != nil {
		x.Date = *d
	}
	if err := x.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	e, err := s.deps.Store.AddEventExpense(ctx, r.PathValue("id"), &x)
	log.FromContext(ctx).Op(ctx, log.OpCreate, err, log.FieldEventID, r.PathValue("id"),
		log.FieldAmountCents, x.Amount.Cents, "actual_spent_cents", e.ActualSpent.Cents)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, x)
}

func (s *Server) handleEventComparison(w http.ResponseWriter, r *http.Request) {
	cmp, err := s.deps.Analytics.EventComparison(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

func (s *Server) handleTopEvents(w http.ResponseWriter, r *http.Request) {
	limit, err := QueryInt(r, "limit", core.DefaultTopEvents)
	if err != nil {
		writeError(w, r, err)
		return
	}
	events, err := s.deps.Analytics.TopEventsByCost(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}
