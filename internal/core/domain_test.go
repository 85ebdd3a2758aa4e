package core

import (
	"errors"
	"testing"
	"time"
)

func TestMemberValidate(t *testing.T) {
	good := Member{FirstName: "Sam", LastName: "Reed", Email: "sam@example.com", Status: MemberActive}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Member{
		{FirstName: "", LastName: "Reed", Email: "sam@example.com", Status: MemberActive},
		{FirstName: "Sam", LastName: "Reed", Email: "nope", Status: MemberActive},
		{FirstName: "Sam", LastName: "Reed", Email: "sam@example.com", Status: "GONE"},
		{FirstName: "Sam", LastName: "Reed", Email: "sam@example.com", Status: MemberActive, DuesOwed: Money{Cents: -1}},
	}
	for i, m := range bads {
		err := m.Validate()
		if err == nil {
			t.Fatalf("case %d expected error", i)
		}
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d expected ErrValidation, got %v", i, err)
		}
	}
}

func TestRecurringTransactionValidate(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	before := start.AddDate(0, -1, 0)
	good := RecurringTransaction{Name: "Rent", Type: Expense, Amount: Dollars(800), Frequency: Monthly, StartDate: start}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bad := good
	bad.EndDate = &before
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for end before start")
	}
	bad = good
	bad.Frequency = "WEEKLY"
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for unknown frequency")
	}
	bad = good
	bad.Amount = Money{}
	if err := bad.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestReimbursementTransition(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		from    ReimbursementStatus
		to      ReimbursementStatus
		wantErr error
	}{
		{"approve pending", ReimbursementPending, ReimbursementApproved, nil},
		{"deny pending", ReimbursementPending, ReimbursementDenied, nil},
		{"pay approved", ReimbursementApproved, ReimbursementPaid, nil},
		{"pay pending", ReimbursementPending, ReimbursementPaid, ErrInvalidTransition},
		{"reopen denied", ReimbursementDenied, ReimbursementPending, ErrInvalidTransition},
		{"approve paid", ReimbursementPaid, ReimbursementApproved, ErrInvalidTransition},
		{"same state", ReimbursementApproved, ReimbursementApproved, ErrInvalidTransition},
		{"unknown", ReimbursementPending, "LOST", ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Reimbursement{Status: tt.from}
			err := r.Transition(tt.to, "ok", now)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if r.Status != tt.from {
					t.Fatalf("status changed on failed transition")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.Status != tt.to {
				t.Fatalf("expected %s, got %s", tt.to, r.Status)
			}
			switch tt.to {
			case ReimbursementPaid:
				if r.PaidAt == nil || !r.PaidAt.Equal(now) {
					t.Fatal("paidAt not stamped")
				}
			default:
				if r.ReviewedAt == nil || r.ReviewNotes != "ok" {
					t.Fatal("review not stamped")
				}
			}
		})
	}
}

func TestSettingsPublicAndApply(t *testing.T) {
	s := DefaultSettings()
	s.EmailPassword = "hunter2"
	s.DiscordBotToken = "tok"
	pub := s.Public()
	if pub.EmailPassword != "" || pub.DiscordBotToken != "" {
		t.Fatal("secrets leaked")
	}
	if s.EmailPassword == "" {
		t.Fatal("Public mutated the receiver")
	}

	name := "Alpha Beta"
	dues := Dollars(650)
	got, err := s.Apply(SettingsUpdate{ChapterName: &name, SemesterDuesAmount: &dues})
	if err != nil {
		t.Fatal(err)
	}
	if got.ChapterName != name || got.SemesterDuesAmount != dues || got.MinReserveThreshold != DefaultMinReserve {
		t.Fatalf("unexpected merge %+v", got)
	}

	freq := ReminderFrequency("HOURLY")
	if _, err := s.Apply(SettingsUpdate{ReminderFrequency: &freq}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSemesterFor(t *testing.T) {
	if got := SemesterFor(time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC)); got != "Spring 2025" {
		t.Fatalf("got %q", got)
	}
	if got := SemesterFor(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)); got != "Fall 2025" {
		t.Fatalf("got %q", got)
	}
}
