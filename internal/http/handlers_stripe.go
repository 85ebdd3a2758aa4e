package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"greekledger/internal/core"
	"greekledger/internal/log"
)

const maxWebhookBody = 64 << 10

type paymentLinkRequest struct {
	MemberID    string     `json:"memberId"`
	Amount      core.Money `json:"amount"`
	Description string     `json:"description"`
}

func (s *Server) handleCreatePaymentLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req paymentLinkRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.deps.Billing.CreatePaymentLink(ctx, strings.TrimSpace(req.MemberID), req.Amount, req.Description)
	log.FromContext(ctx).Op(ctx, log.OpCreate, err, log.FieldMemberID, req.MemberID, log.FieldAmountCents, req.Amount.Cents)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCreateBulkPaymentLinks(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Billing.CreateBulkPaymentLinks(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req paymentLinkRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	session, err := s.deps.Billing.CreateCheckoutSession(ctx, strings.TrimSpace(req.MemberID), req.Amount, req.Description)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// handleStripeWebhook verifies and books a processor callback. The raw body
// is needed for signature verification, so it is read before any decoding.
func (s *Server) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Webhook Error: unreadable body"})
		return
	}

	err = s.deps.Billing.HandleWebhook(ctx, payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if StatusFor(err) == http.StatusBadRequest && !errors.Is(err, core.ErrNotConfigured) {
			log.FromContext(ctx).WarnContext(ctx, "Webhook rejected", log.FieldError, err.Error())
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Webhook Error: " + err.Error()})
			return
		}
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (s *Server) handlePaymentHistory(w http.ResponseWriter, r *http.Request) {
	payments, err := s.deps.Billing.PaymentHistory(r.Context(), r.PathValue("memberId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}
