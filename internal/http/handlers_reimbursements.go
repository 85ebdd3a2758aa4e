package http

import (
	"context"
	"net/http"
	"strings"

	"greekledger/internal/core"
	"greekledger/internal/log"
	"greekledger/internal/storage"
)

type reimbursementRequest struct {
	MemberID    string        `json:"memberId"`
	Amount      core.Money    `json:"amount"`
	Description string        `json:"description"`
	Category    core.Category `json:"category"`
	Event       string        `json:"event"`
}

type statusRequest struct {
	Status      core.ReimbursementStatus `json:"status"`
	ReviewNotes string                   `json:"reviewNotes"`
}

func (s *Server) handleListReimbursements(w http.ResponseWriter, r *http.Request) {
	status := core.ReimbursementStatus(strings.ToUpper(r.URL.Query().Get("status")))
	if status != "" && !status.Valid() {
		writeError(w, r, core.Invalid("invalid reimbursement status %q", status))
		return
	}
	rs, err := s.deps.Store.ListReimbursements(r.Context(), storage.ReimbursementFilter{
		Status:   status,
		MemberID: r.URL.Query().Get("memberId"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

func (s *Server) handleGetReimbursement(w http.ResponseWriter, r *http.Request) {
	rb, err := s.deps.Store.GetReimbursement(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rb)
}

// handleCreateReimbursement accepts a JSON claim or a multipart form with
// an optional "receipt" file part.
func (s *Server) handleCreateReimbursement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		rb     core.Reimbursement
		upload *ReceiptUpload
		err    error
	)
	if isMultipart(r) {
		rb, upload, err = ParseReimbursementForm(w, r)
		defer upload.Close()
	} else {
		var req reimbursementRequest
		err = DecodeJSON(w, r, &req)
		rb = core.Reimbursement{
			MemberID:    strings.TrimSpace(req.MemberID),
			Amount:      req.Amount,
			Description: strings.TrimSpace(req.Description),
			Category:    req.Category,
			Event:       strings.TrimSpace(req.Event),
		}
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := rb.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	if upload != nil && s.deps.Receipts != nil {
		url, err := s.deps.Receipts.Save(ctx, upload.Filename, upload.File)
		if err != nil {
			writeError(w, r, err)
			return
		}
		rb.ReceiptURL = url
	}

	err = s.deps.Store.CreateReimbursement(ctx, &rb)
	log.FromContext(ctx).Op(ctx, log.OpCreate, err, log.FieldMemberID, rb.MemberID, log.FieldAmountCents, rb.Amount.Cents)
	if err != nil {
		s.discardReceipt(ctx, rb.ReceiptURL)
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rb)
}

func (s *Server) handleUpdateReimbursement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var u core.ReimbursementUpdate
	if err := DecodeJSON(w, r, &u); err != nil {
		writeError(w, r, err)
		return
	}
	rb, err := s.deps.Store.UpdateReimbursement(ctx, r.PathValue("id"), u)
	log.FromContext(ctx).Op(ctx, log.OpUpdate, err, "reimbursement_id", r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rb)
}

func (s *Server) handleReimbursementStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req statusRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	next := core.ReimbursementStatus(strings.ToUpper(string(req.Status)))
	if !next.Valid() {
		writeError(w, r, core.Invalid("invalid reimbursement status %q", req.Status))
		return
	}
	rb, err := s.deps.Store.TransitionReimbursement(ctx, r.PathValue("id"), next, req.ReviewNotes)
	log.FromContext(ctx).Op(ctx, log.OpUpdate, err, "reimbursement_id", r.PathValue("id"), "status", next)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rb)
}

func (s *Server) handleDeleteReimbursement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rb, err := s.deps.Store.DeleteReimbursement(ctx, r.PathValue("id"))
	log.FromContext(ctx).Op(ctx, log.OpDelete, err, "reimbursement_id", r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.discardReceipt(ctx, rb.ReceiptURL)
	writeMessage(w, http.StatusOK, "Reimbursement deleted successfully")
}

func (s *Server) handleReimbursementSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.deps.Analytics.ReimbursementSummary(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// discardReceipt removes a stored receipt. Failures only leave an orphaned
// file behind, so they are logged.
func (s *Server) discardReceipt(ctx context.Context, url string) {
	if url == "" || s.deps.Receipts == nil {
		return
	}
	if err := s.deps.Receipts.Delete(ctx, url); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Failed to delete receipt", "url", url, log.FieldError, err.Error())
	}
}
