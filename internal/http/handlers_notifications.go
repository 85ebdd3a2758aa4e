package http

import (
	"net/http"
	"strings"

	"greekledger/internal/core"
	"greekledger/internal/log"
	"greekledger/internal/services"
)

type smsReminderRequest struct {
	PaymentLink string `json:"paymentLink"`
}

type smsBulkRequest struct {
	PaymentLinks []services.MemberLink `json:"paymentLinks"`
}

type smsConfirmationRequest struct {
	Amount core.Money `json:"amount"`
}

type smsCustomRequest struct {
	Message string `json:"message"`
}

type lowReserveRequest struct {
	PhoneNumber string `json:"phoneNumber"`
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Notifications.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleSendReminder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	memberID := r.PathValue("memberId")
	n, err := s.deps.Notifications.SendReminder(ctx, memberID)
	log.FromContext(ctx).Op(ctx, log.OpSend, err, log.FieldMemberID, memberID, log.FieldChannel, n.Channel)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":      "Reminder sent successfully",
		"notification": n,
	})
}

func (s *Server) handleSendBulkReminders(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Notifications.SendBulkReminders(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSMSReminder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req smsReminderRequest
	if err := DecodeOptionalJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	memberID := r.PathValue("memberId")
	err := s.deps.SMS.SendReminder(ctx, memberID, strings.TrimSpace(req.PaymentLink))
	log.FromContext(ctx).Op(ctx, log.OpSend, err, log.FieldMemberID, memberID, log.FieldChannel, core.ChannelSMS)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "SMS reminder sent successfully")
}

func (s *Server) handleSMSBulkReminders(w http.ResponseWriter, r *http.Request) {
	var req smsBulkRequest
	if err := DecodeOptionalJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.deps.SMS.SendBulkReminders(r.Context(), req.PaymentLinks)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSMSConfirmation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req smsConfirmationRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	memberID := r.PathValue("memberId")
	err := s.deps.SMS.SendConfirmation(ctx, memberID, req.Amount)
	log.FromContext(ctx).Op(ctx, log.OpSend, err, log.FieldMemberID, memberID, log.FieldChannel, core.ChannelSMS)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Confirmation SMS sent successfully")
}

func (s *Server) handleSMSCustom(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req smsCustomRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	memberID := r.PathValue("memberId")
	err := s.deps.SMS.SendCustom(ctx, memberID, req.Message)
	log.FromContext(ctx).Op(ctx, log.OpSend, err, log.FieldMemberID, memberID, log.FieldChannel, core.ChannelSMS)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Custom SMS sent successfully")
}

func (s *Server) handleSMSLowReserve(w http.ResponseWriter, r *http.Request) {
	var req lowReserveRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	sent, err := s.deps.SMS.SendLowReserveAlert(r.Context(), req.PhoneNumber)
	if err != nil {
		writeError(w, r, err)
		return
	}
	msg := "Reserves are above the threshold; no alert sent"
	if sent {
		msg = "Low reserve alert sent successfully"
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": msg, "sent": sent})
}
