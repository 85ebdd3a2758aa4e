package core

import (
	"strings"
	"time"
)

// Partial updates decoded from PUT/PATCH bodies. Nil means unchanged.
// Ledger columns (DuesPaid, OutstandingBalance, ActualSpent) are never
// writable this way; they only move through payments and expenses.
type (
	MemberUpdate struct {
		FirstName   *string       `json:"firstName"`
		LastName    *string       `json:"lastName"`
		Email       *string       `json:"email"`
		PhoneNumber *string       `json:"phoneNumber"`
		PledgeClass *string       `json:"pledgeClass"`
		Status      *MemberStatus `json:"status"`
		DuesOwed    *Money        `json:"duesOwed"`
	}

	PaymentUpdate struct {
		Amount      *Money     `json:"amount"`
		LateFee     *Money     `json:"lateFee"`
		PaymentDate *time.Time `json:"paymentDate"`
		Semester    *string    `json:"semester"`
		Notes       *string    `json:"notes"`
	}

	ReimbursementUpdate struct {
		Amount      *Money    `json:"amount"`
		Description *string   `json:"description"`
		Category    *Category `json:"category"`
		Event       *string   `json:"event"`
	}

	EventUpdate struct {
		Name            *string          `json:"name"`
		Description     *string          `json:"description"`
		Date            *time.Time       `json:"date"`
		Category        *Category        `json:"category"`
		Status          *EventStatus     `json:"status"`
		PlannedBudget   *Money           `json:"plannedBudget"`
		BudgetBreakdown map[string]Money `json:"budgetBreakdown"`
		ActualBreakdown map[string]Money `json:"actualBreakdown"`
	}
)

func (u MemberUpdate) Apply(m Member) (Member, error) {
	if u.FirstName != nil {
		m.FirstName = strings.TrimSpace(*u.FirstName)
	}
	if u.LastName != nil {
		m.LastName = strings.TrimSpace(*u.LastName)
	}
	if u.Email != nil {
		m.Email = strings.TrimSpace(*u.Email)
	}
	if u.PhoneNumber != nil {
		m.PhoneNumber = strings.TrimSpace(*u.PhoneNumber)
	}
	if u.PledgeClass != nil {
		m.PledgeClass = *u.PledgeClass
	}
	if u.Status != nil {
		m.Status = *u.Status
	}
	if u.DuesOwed != nil {
		m.SetDuesOwed(*u.DuesOwed)
	}
	return m, m.Validate()
}

// Apply rejects amount changes: the member ledger was already moved by the
// original amount, so a payment is deleted and re-recorded instead.
func (u PaymentUpdate) Apply(p Payment) (Payment, error) {
	if u.Amount != nil && *u.Amount != p.Amount {
		return p, invalid("payment amount cannot be changed; delete and re-record the payment")
	}
	if u.LateFee != nil {
		p.LateFee = *u.LateFee
	}
	if u.PaymentDate != nil {
		p.PaymentDate = *u.PaymentDate
	}
	if u.Semester != nil {
		p.Semester = *u.Semester
	}
	if u.Notes != nil {
		p.Notes = *u.Notes
	}
	return p, p.Validate()
}

func (u ReimbursementUpdate) Apply(r Reimbursement) (Reimbursement, error) {
	if r.Status != ReimbursementPending {
		return r, invalid("only pending reimbursements can be edited")
	}
	if u.Amount != nil {
		r.Amount = *u.Amount
	}
	if u.Description != nil {
		r.Description = *u.Description
	}
	if u.Category != nil {
		r.Category = *u.Category
	}
	if u.Event != nil {
		r.Event = *u.Event
	}
	return r, r.Validate()
}

func (u EventUpdate) Apply(e Event) (Event, error) {
	if u.Name != nil {
		e.Name = *u.Name
	}
	if u.Description != nil {
		e.Description = *u.Description
	}
	if u.Date != nil {
		e.Date = *u.Date
	}
	if u.Category != nil {
		e.Category = *u.Category
	}
	if u.Status != nil {
		e.Status = *u.Status
	}
	if u.PlannedBudget != nil {
		e.PlannedBudget = *u.PlannedBudget
	}
	if u.BudgetBreakdown != nil {
		e.BudgetBreakdown = u.BudgetBreakdown
	}
	if u.ActualBreakdown != nil {
		e.ActualBreakdown = u.ActualBreakdown
	}
	return e, e.Validate()
}
