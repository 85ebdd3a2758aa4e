package http

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"greekledger/internal/core"
	"greekledger/internal/log"
	"greekledger/internal/storage"
)

var (
	memberCSVHeader  = []string{"id", "first_name", "last_name", "email", "phone", "pledge_class", "status", "dues_owed", "dues_paid", "outstanding_balance"}
	paymentCSVHeader = []string{"id", "member_id", "member_name", "amount", "late_fee", "payment_date", "semester", "notes"}
)

func (s *Server) handleExportMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.deps.Store.ListMembers(r.Context(), storage.MemberFilter{})
	if err != nil {
		writeError(w, r, err)
		return
	}
	rows := make([][]string, 0, len(members))
	for _, m := range members {
		rows = append(rows, []string{
			m.ID, m.FirstName, m.LastName, m.Email, m.PhoneNumber, m.PledgeClass, string(m.Status),
			m.DuesOwed.String(), m.DuesPaid.String(), m.OutstandingBalance.String(),
		})
	}
	writeCSV(w, r, "members", memberCSVHeader, rows)
}

func (s *Server) handleExportPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := s.deps.Store.ListPayments(r.Context(), storage.PaymentFilter{})
	if err != nil {
		writeError(w, r, err)
		return
	}
	rows := make([][]string, 0, len(payments))
	for _, p := range payments {
		rows = append(rows, []string{
			p.ID, p.MemberID, memberName(p.Member), p.Amount.String(), p.LateFee.String(),
			p.PaymentDate.Format(time.DateOnly), p.Semester, p.Notes,
		})
	}
	writeCSV(w, r, "payments", paymentCSVHeader, rows)
}

func memberName(ref *core.MemberRef) string {
	if ref == nil {
		return ""
	}
	return ref.FirstName + " " + ref.LastName
}

func writeCSV(w http.ResponseWriter, r *http.Request, name string, header []string, rows [][]string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s-%s.csv"`, name, time.Now().UTC().Format(time.DateOnly)))

	// WriteAll flushes and reports any earlier write error too.
	cw := csv.NewWriter(w)
	_ = cw.Write(header)
	if err := cw.WriteAll(rows); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "CSV export failed",
			"export", name, log.FieldError, err.Error())
	}
}
