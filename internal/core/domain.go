package core

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

const (
	MemberActive   MemberStatus = "ACTIVE"
	MemberInactive MemberStatus = "INACTIVE"
	MemberAlumni   MemberStatus = "ALUMNI"
	MemberPledge   MemberStatus = "PLEDGE"

	ReimbursementPending  ReimbursementStatus = "PENDING"
	ReimbursementApproved ReimbursementStatus = "APPROVED"
	ReimbursementDenied   ReimbursementStatus = "DENIED"
	ReimbursementPaid     ReimbursementStatus = "PAID"

	EventUpcoming   EventStatus = "UPCOMING"
	EventInProgress EventStatus = "IN_PROGRESS"
	EventCompleted  EventStatus = "COMPLETED"
	EventCancelled  EventStatus = "CANCELLED"

	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"

	Monthly   Frequency = "MONTHLY"
	Quarterly Frequency = "QUARTERLY"
	Semester  Frequency = "SEMESTER"
	Annually  Frequency = "ANNUALLY"

	CategorySocial       Category = "SOCIAL"
	CategoryPhilanthropy Category = "PHILANTHROPY"
	CategoryOperations   Category = "OPERATIONS"
	CategoryRecruitment  Category = "RECRUITMENT"
	CategoryNationals    Category = "NATIONALS"
	CategoryHousing      Category = "HOUSING"
	CategoryAthletics    Category = "ATHLETICS"
	CategoryAcademic     Category = "ACADEMIC"
	CategoryOther        Category = "OTHER"
)

type (
	MemberStatus        string
	ReimbursementStatus string
	EventStatus         string
	TransactionType     string
	Frequency           string
	Category            string

	Member struct {
		ID                 string       `json:"id"`
		FirstName          string       `json:"firstName"`
		LastName           string       `json:"lastName"`
		Email              string       `json:"email"`
		PhoneNumber        string       `json:"phoneNumber,omitempty"`
		PledgeClass        string       `json:"pledgeClass"`
		Status             MemberStatus `json:"status"`
		DuesOwed           Money        `json:"duesOwed"`
		DuesPaid           Money        `json:"duesPaid"`
		OutstandingBalance Money        `json:"outstandingBalance"`
		CreatedAt          time.Time    `json:"createdAt"`
		UpdatedAt          time.Time    `json:"updatedAt"`

		Payments       []Payment       `json:"payments,omitempty"`
		Reimbursements []Reimbursement `json:"reimbursements,omitempty"`
	}

	Payment struct {
		ID          string     `json:"id"`
		MemberID    string     `json:"memberId"`
		Amount      Money      `json:"amount"`
		LateFee     Money      `json:"lateFee"`
		PaymentDate time.Time  `json:"paymentDate"`
		Semester    string     `json:"semester"`
		Notes       string     `json:"notes,omitempty"`
		CreatedAt   time.Time  `json:"createdAt"`
		SyncedAt    *time.Time `json:"syncedAt,omitempty"`
		// ExternalRef is the payment processor's object ID for payments
		// booked from a webhook. It is unique and not editable.
		ExternalRef string `json:"externalRef,omitempty"`

		Member *MemberRef `json:"member,omitempty"`
	}

	// MemberRef is the slim member projection embedded in list responses.
	MemberRef struct {
		ID        string `json:"id"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Email     string `json:"email"`
	}

	Reimbursement struct {
		ID          string              `json:"id"`
		MemberID    string              `json:"memberId"`
		Amount      Money               `json:"amount"`
		Description string              `json:"description"`
		Category    Category            `json:"category"`
		Event       string              `json:"event,omitempty"`
		Status      ReimbursementStatus `json:"status"`
		ReceiptURL  string              `json:"receiptUrl,omitempty"`
		ReviewNotes string              `json:"reviewNotes,omitempty"`
		SubmittedAt time.Time           `json:"submittedAt"`
		ReviewedAt  *time.Time          `json:"reviewedAt,omitempty"`
		PaidAt      *time.Time          `json:"paidAt,omitempty"`

		Member *MemberRef `json:"member,omitempty"`
	}

	Event struct {
		ID              string           `json:"id"`
		Name            string           `json:"name"`
		Description     string           `json:"description,omitempty"`
		Date            time.Time        `json:"date"`
		Category        Category         `json:"category"`
		Status          EventStatus      `json:"status"`
		PlannedBudget   Money            `json:"plannedBudget"`
		ActualSpent     Money            `json:"actualSpent"`
		BudgetBreakdown map[string]Money `json:"budgetBreakdown,omitempty"`
		ActualBreakdown map[string]Money `json:"actualBreakdown,omitempty"`
		CreatedAt       time.Time        `json:"createdAt"`

		Expenses []EventExpense `json:"expenses,omitempty"`
	}

	EventExpense struct {
		ID          string    `json:"id"`
		EventID     string    `json:"eventId"`
		Description string    `json:"description"`
		Amount      Money     `json:"amount"`
		Category    string    `json:"category,omitempty"`
		Date        time.Time `json:"date"`
	}

	RecurringTransaction struct {
		ID        string          `json:"id"`
		Name      string          `json:"name"`
		Type      TransactionType `json:"type"`
		Amount    Money           `json:"amount"`
		Category  string          `json:"category,omitempty"`
		Frequency Frequency       `json:"frequency"`
		StartDate time.Time       `json:"startDate"`
		EndDate   *time.Time      `json:"endDate,omitempty"`
		IsActive  bool            `json:"isActive"`
	}

	Scenario struct {
		ID               string    `json:"id"`
		Name             string    `json:"name"`
		MemberCount      int       `json:"memberCount"`
		DuesAmount       Money     `json:"duesAmount"`
		ExpectedExpenses Money     `json:"expectedExpenses"`
		TotalDuesIncome  Money     `json:"totalDuesIncome"`
		ProjectedSurplus Money     `json:"projectedSurplus"`
		MaxEventBudget   Money     `json:"maxEventBudget"`
		PerMemberBudget  Money     `json:"perMemberBudget"`
		CreatedAt        time.Time `json:"createdAt"`
	}
)

var (
	ErrNotFound             = errors.New("not found")
	ErrValidation           = errors.New("validation failed")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrNotConfigured        = errors.New("service not configured")
	ErrNoOutstandingBalance = errors.New("member has no outstanding balance")
	ErrInvalidAmount        = fmt.Errorf("%w: invalid amount", ErrValidation)
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}

func (s MemberStatus) Valid() bool {
	switch s {
	case MemberActive, MemberInactive, MemberAlumni, MemberPledge:
		return true
	}
	return false
}

func (s ReimbursementStatus) Valid() bool {
	switch s {
	case ReimbursementPending, ReimbursementApproved, ReimbursementDenied, ReimbursementPaid:
		return true
	}
	return false
}

func (s EventStatus) Valid() bool {
	switch s {
	case EventUpcoming, EventInProgress, EventCompleted, EventCancelled:
		return true
	}
	return false
}

func (t TransactionType) Valid() bool { return t == Income || t == Expense }

func (f Frequency) Valid() bool {
	switch f {
	case Monthly, Quarterly, Semester, Annually:
		return true
	}
	return false
}

func (c Category) Valid() bool {
	switch c {
	case CategorySocial, CategoryPhilanthropy, CategoryOperations, CategoryRecruitment,
		CategoryNationals, CategoryHousing, CategoryAthletics, CategoryAcademic, CategoryOther:
		return true
	}
	return false
}

func (m Member) FullName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

func (m Member) Ref() *MemberRef {
	return &MemberRef{ID: m.ID, FirstName: m.FirstName, LastName: m.LastName, Email: m.Email}
}

func (m Member) Validate() error {
	if strings.TrimSpace(m.FirstName) == "" || strings.TrimSpace(m.LastName) == "" {
		return invalid("first and last name are required")
	}
	if _, err := mail.ParseAddress(m.Email); err != nil {
		return invalid("invalid email %q", m.Email)
	}
	if !m.Status.Valid() {
		return invalid("invalid member status %q", m.Status)
	}
	if m.DuesOwed.Cents < 0 || m.DuesPaid.Cents < 0 {
		return invalid("dues cannot be negative")
	}
	return nil
}

func (p Payment) Validate() error {
	if p.MemberID == "" {
		return invalid("memberId is required")
	}
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	if p.LateFee.Cents < 0 {
		return invalid("lateFee cannot be negative")
	}
	if strings.TrimSpace(p.Semester) == "" {
		return invalid("semester is required")
	}
	return nil
}

func (r Reimbursement) Validate() error {
	if r.MemberID == "" {
		return invalid("memberId is required")
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.Description) == "" {
		return invalid("description is required")
	}
	if !r.Category.Valid() {
		return invalid("invalid category %q", r.Category)
	}
	return nil
}

func (e Event) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return invalid("name is required")
	}
	if e.Date.IsZero() {
		return invalid("date is required")
	}
	if !e.Category.Valid() {
		return invalid("invalid category %q", e.Category)
	}
	if !e.Status.Valid() {
		return invalid("invalid event status %q", e.Status)
	}
	if e.PlannedBudget.Cents < 0 {
		return invalid("plannedBudget cannot be negative")
	}
	return nil
}

func (x EventExpense) Validate() error {
	if strings.TrimSpace(x.Description) == "" {
		return invalid("description is required")
	}
	return x.Amount.Validate()
}

func (rt RecurringTransaction) Validate() error {
	if strings.TrimSpace(rt.Name) == "" {
		return invalid("name is required")
	}
	if !rt.Type.Valid() {
		return invalid("invalid transaction type %q", rt.Type)
	}
	if !rt.Frequency.Valid() {
		return invalid("invalid frequency %q", rt.Frequency)
	}
	if err := rt.Amount.Validate(); err != nil {
		return err
	}
	if rt.StartDate.IsZero() {
		return invalid("startDate is required")
	}
	if rt.EndDate != nil && rt.EndDate.Before(rt.StartDate) {
		return invalid("endDate must not be before startDate")
	}
	return nil
}

// Invalid builds an ErrValidation error for inputs checked outside core.
func Invalid(format string, args ...any) error {
	return invalid(format, args...)
}
