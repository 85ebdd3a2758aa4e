package core

import (
	"fmt"
	"time"
)

// ApplyPayment credits amount to the member and recomputes the outstanding
// balance from dues owed, clamped at zero.
func ApplyPayment(m *Member, amount Money) {
	m.DuesPaid = m.DuesPaid.Add(amount)
	m.OutstandingBalance = m.DuesOwed.Sub(m.DuesPaid).ClampZero()
}

// ReversePayment undoes a payment of amount. Dues paid is clamped at zero
// but the outstanding balance grows by the raw amount, so after an earlier
// overpayment it can exceed DuesOwed-DuesPaid.
func ReversePayment(m *Member, amount Money) {
	m.DuesPaid = m.DuesPaid.Sub(amount).ClampZero()
	m.OutstandingBalance = m.OutstandingBalance.Add(amount)
}

// SetDuesOwed changes what the member owes and re-derives the balance.
func (m *Member) SetDuesOwed(owed Money) {
	m.DuesOwed = owed
	m.OutstandingBalance = owed.Sub(m.DuesPaid).ClampZero()
}

// SemesterFor names the academic term a date falls in: January through May
// is Spring, the rest of the year Fall.
func SemesterFor(t time.Time) string {
	if t.Month() < time.June {
		return fmt.Sprintf("Spring %d", t.Year())
	}
	return fmt.Sprintf("Fall %d", t.Year())
}

// Transition moves a reimbursement to next, stamping review and payout
// times. Allowed moves: PENDING to APPROVED or DENIED, APPROVED to PAID.
func (r *Reimbursement) Transition(next ReimbursementStatus, notes string, now time.Time) error {
	if !next.Valid() {
		return invalid("invalid reimbursement status %q", next)
	}
	ok := false
	switch r.Status {
	case ReimbursementPending:
		ok = next == ReimbursementApproved || next == ReimbursementDenied
	case ReimbursementApproved:
		ok = next == ReimbursementPaid
	}
	if !ok {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, r.Status, next)
	}
	r.Status = next
	if notes != "" {
		r.ReviewNotes = notes
	}
	switch next {
	case ReimbursementApproved, ReimbursementDenied:
		r.ReviewedAt = &now
	case ReimbursementPaid:
		r.PaidAt = &now
	}
	return nil
}
