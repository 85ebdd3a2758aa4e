package http

import (
	"net/http"
	"strings"

	"greekledger/internal/core"
	"greekledger/internal/log"
	"greekledger/internal/storage"
)

type paymentRequest struct {
	MemberID    string     `json:"memberId"`
	Amount      core.Money `json:"amount"`
	LateFee     core.Money `json:"lateFee"`
	PaymentDate *Date      `json:"paymentDate"`
	Semester    string     `json:"semester"`
	Notes       string     `json:"notes"`
}

type paymentUpdateRequest struct {
	Amount      *core.Money `json:"amount"`
	LateFee     *core.Money `json:"lateFee"`
	PaymentDate *Date       `json:"paymentDate"`
	Semester    *string     `json:"semester"`
	Notes       *string     `json:"notes"`
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := s.deps.Store.ListPayments(r.Context(), storage.PaymentFilter{})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

func (s *Server) handleMemberPayments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	memberID := r.PathValue("memberId")
	if _, err := s.deps.Store.GetMember(ctx, memberID); err != nil {
		writeError(w, r, err)
		return
	}
	payments, err := s.deps.Store.ListPayments(ctx, storage.PaymentFilter{MemberID: memberID})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

func (s *Server) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.Store.GetPayment(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req paymentRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	p := core.Payment{
		MemberID: strings.TrimSpace(req.MemberID),
		Amount:   req.Amount,
		LateFee:  req.LateFee,
		Semester: strings.TrimSpace(req.Semester),
		Notes:    req.Notes,
	}
	if d := req.PaymentDate.Ptr(); d != nil {
		p.PaymentDate = *d
	}

	member, err := s.deps.Ledger.RecordPayment(ctx, &p)
	log.FromContext(ctx).Op(ctx, log.OpCreate, err,
		log.NewFields().WithPayment(p.ID, p.MemberID, p.Amount.Cents).ToSlice()...)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p.Member = member.Ref()
	writeJSON(w, http.StatusCreated, p)
}

// handleUpdatePayment edits bookkeeping fields only; the amount is fixed
// once the member ledger has been moved.
func (s *Server) handleUpdatePayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req paymentUpdateRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	u := core.PaymentUpdate{
		Amount:      req.Amount,
		LateFee:     req.LateFee,
		PaymentDate: req.PaymentDate.Ptr(),
		Semester:    req.Semester,
		Notes:       req.Notes,
	}
	p, err := s.deps.Store.UpdatePayment(ctx, r.PathValue("id"), u)
	log.FromContext(ctx).Op(ctx, log.OpUpdate, err, log.FieldPaymentID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := s.deps.Ledger.DeletePayment(ctx, r.PathValue("id"))
	log.FromContext(ctx).Op(ctx, log.OpDelete, err,
		log.NewFields().WithPayment(r.PathValue("id"), p.MemberID, p.Amount.Cents).ToSlice()...)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Payment deleted successfully")
}
