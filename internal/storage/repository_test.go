package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"greekledger/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedMember(t *testing.T, repo *SQLiteRepository, email string, owed int64) core.Member {
	t.Helper()
	m := core.Member{FirstName: "Alex", LastName: "Kim", Email: email, Status: core.MemberActive, DuesOwed: core.Dollars(owed)}
	if err := repo.CreateMember(context.Background(), &m); err != nil {
		t.Fatalf("create member: %v", err)
	}
	return m
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")
	first, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatal(err)
	}
	first.Close()
	second, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	second.Close()
}

func TestMemberCRUD(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	m := seedMember(t, repo, "alex@example.com", 500)
	if m.ID == "" || m.OutstandingBalance != core.Dollars(500) {
		t.Fatalf("unexpected created member %+v", m)
	}

	dup := core.Member{FirstName: "B", LastName: "C", Email: "alex@example.com", Status: core.MemberActive}
	if err := repo.CreateMember(ctx, &dup); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected duplicate email validation error, got %v", err)
	}

	owed := core.Dollars(650)
	status := core.MemberAlumni
	updated, err := repo.UpdateMember(ctx, m.ID, core.MemberUpdate{DuesOwed: &owed, Status: &status})
	if err != nil {
		t.Fatal(err)
	}
	if updated.OutstandingBalance != core.Dollars(650) || updated.Status != core.MemberAlumni {
		t.Fatalf("unexpected update %+v", updated)
	}

	active, err := repo.ListMembers(ctx, MemberFilter{Status: core.MemberActive})
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 0 {
		t.Fatalf("expected no active members, got %d", len(active))
	}

	if err := repo.DeleteMember(ctx, m.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.GetMember(ctx, m.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := repo.DeleteMember(ctx, m.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestListMembersOrderedByLastName(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	for _, last := range []string{"Young", "Adams", "Miller"} {
		m := core.Member{FirstName: "X", LastName: last, Email: last + "@example.com", Status: core.MemberActive}
		if err := repo.CreateMember(ctx, &m); err != nil {
			t.Fatal(err)
		}
	}
	all, err := repo.ListMembers(ctx, MemberFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if all[0].LastName != "Adams" || all[2].LastName != "Young" {
		t.Fatalf("unexpected order %s, %s", all[0].LastName, all[2].LastName)
	}
}

func TestRecordAndDeletePayment(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	m := seedMember(t, repo, "pay@example.com", 500)

	p1 := core.Payment{MemberID: m.ID, Amount: core.Dollars(200), Semester: "Fall 2025"}
	after, err := repo.RecordPayment(ctx, &p1)
	if err != nil {
		t.Fatal(err)
	}
	if after.DuesPaid != core.Dollars(200) || after.OutstandingBalance != core.Dollars(300) {
		t.Fatalf("after first payment %+v", after)
	}

	p2 := core.Payment{MemberID: m.ID, Amount: core.Dollars(400), Semester: "Fall 2025"}
	after, err = repo.RecordPayment(ctx, &p2)
	if err != nil {
		t.Fatal(err)
	}
	if after.DuesPaid != core.Dollars(600) || !after.OutstandingBalance.IsZero() {
		t.Fatalf("after second payment %+v", after)
	}

	stored, err := repo.GetMember(ctx, m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.DuesPaid != core.Dollars(600) || !stored.OutstandingBalance.IsZero() {
		t.Fatalf("persisted member %+v", stored)
	}

	deleted, after, err := repo.DeletePayment(ctx, p2.ID)
	if err != nil {
		t.Fatal(err)
	}
	if deleted.Amount != core.Dollars(400) {
		t.Fatalf("deleted %+v", deleted)
	}
	if after.DuesPaid != core.Dollars(200) || after.OutstandingBalance != core.Dollars(400) {
		t.Fatalf("after delete %+v", after)
	}

	if _, _, err := repo.DeletePayment(ctx, p2.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	payments, err := repo.ListPayments(ctx, PaymentFilter{MemberID: m.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(payments) != 1 || payments[0].Member == nil || payments[0].Member.Email != "pay@example.com" {
		t.Fatalf("unexpected payments %+v", payments)
	}
}

func TestRecordPaymentUnknownMemberRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	p := core.Payment{MemberID: "missing", Amount: core.Dollars(10), Semester: "Fall 2025"}
	if _, err := repo.RecordPayment(ctx, &p); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	all, err := repo.ListPayments(ctx, PaymentFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 0 {
		t.Fatalf("payment persisted despite failure")
	}
}

func TestUpdatePaymentRejectsAmountChange(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	m := seedMember(t, repo, "edit@example.com", 500)
	p := core.Payment{MemberID: m.ID, Amount: core.Dollars(100), Semester: "Fall 2025"}
	if _, err := repo.RecordPayment(ctx, &p); err != nil {
		t.Fatal(err)
	}

	amount := core.Dollars(150)
	if _, err := repo.UpdatePayment(ctx, p.ID, core.PaymentUpdate{Amount: &amount}); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	notes := "cash at chapter meeting"
	got, err := repo.UpdatePayment(ctx, p.ID, core.PaymentUpdate{Notes: &notes})
	if err != nil {
		t.Fatal(err)
	}
	if got.Notes != notes || got.Amount != core.Dollars(100) {
		t.Fatalf("unexpected update %+v", got)
	}
}

func TestPaymentSyncTracking(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	m := seedMember(t, repo, "sync@example.com", 500)
	p := core.Payment{MemberID: m.ID, Amount: core.Dollars(50), Semester: "Fall 2025", Notes: "Stripe payment - cs_123"}
	if _, err := repo.RecordPayment(ctx, &p); err != nil {
		t.Fatal(err)
	}

	pending, err := repo.ListPayments(ctx, PaymentFilter{Unsynced: true})
	if err != nil || len(pending) != 1 {
		t.Fatalf("expected one unsynced payment, got %d (%v)", len(pending), err)
	}
	if err := repo.MarkPaymentSynced(ctx, p.ID, time.Now()); err != nil {
		t.Fatal(err)
	}
	pending, _ = repo.ListPayments(ctx, PaymentFilter{Unsynced: true})
	if len(pending) != 0 {
		t.Fatalf("expected none unsynced, got %d", len(pending))
	}

	stripe, err := repo.ListPayments(ctx, PaymentFilter{MemberID: m.ID, NotesContains: "Stripe"})
	if err != nil || len(stripe) != 1 {
		t.Fatalf("expected stripe payment, got %d (%v)", len(stripe), err)
	}
}

func TestPaymentExternalRefIsUniqueAndExact(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	m := seedMember(t, repo, "ref@example.com", 500)

	p := core.Payment{MemberID: m.ID, Amount: core.Dollars(50), Semester: "Fall 2025", ExternalRef: "cs_12"}
	if _, err := repo.RecordPayment(ctx, &p); err != nil {
		t.Fatal(err)
	}
	manual := core.Payment{MemberID: m.ID, Amount: core.Dollars(10), Semester: "Fall 2025", Notes: "cash"}
	if _, err := repo.RecordPayment(ctx, &manual); err != nil {
		t.Fatalf("payments without a ref must not collide: %v", err)
	}

	dup := core.Payment{MemberID: m.ID, Amount: core.Dollars(50), Semester: "Fall 2025", ExternalRef: "cs_12"}
	if _, err := repo.RecordPayment(ctx, &dup); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("duplicate ref: got %v", err)
	}
	got, err := repo.GetMember(ctx, m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.DuesPaid != core.Dollars(60) {
		t.Errorf("rejected duplicate moved the ledger: paid=%s", got.DuesPaid)
	}

	if found, _ := repo.ListPayments(ctx, PaymentFilter{ExternalRef: "cs_1"}); len(found) != 0 {
		t.Errorf("prefix matched %d payments", len(found))
	}
	found, err := repo.ListPayments(ctx, PaymentFilter{ExternalRef: "cs_12"})
	if err != nil || len(found) != 1 || found[0].ID != p.ID || found[0].ExternalRef != "cs_12" {
		t.Fatalf("exact lookup %+v (%v)", found, err)
	}
}

func TestReimbursementLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	m := seedMember(t, repo, "claim@example.com", 0)

	rb := core.Reimbursement{MemberID: m.ID, Amount: core.Dollars(45), Description: "Pizza", Category: core.CategorySocial}
	if err := repo.CreateReimbursement(ctx, &rb); err != nil {
		t.Fatal(err)
	}
	if rb.Status != core.ReimbursementPending {
		t.Fatalf("new claim status %s", rb.Status)
	}

	if _, err := repo.TransitionReimbursement(ctx, rb.ID, core.ReimbursementPaid, ""); !errors.Is(err, core.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	approved, err := repo.TransitionReimbursement(ctx, rb.ID, core.ReimbursementApproved, "looks good")
	if err != nil {
		t.Fatal(err)
	}
	if approved.ReviewedAt == nil || approved.ReviewNotes != "looks good" {
		t.Fatalf("review not stored %+v", approved)
	}
	paid, err := repo.TransitionReimbursement(ctx, rb.ID, core.ReimbursementPaid, "")
	if err != nil {
		t.Fatal(err)
	}
	if paid.PaidAt == nil {
		t.Fatal("paidAt not stored")
	}

	desc := "Different"
	if _, err := repo.UpdateReimbursement(ctx, rb.ID, core.ReimbursementUpdate{Description: &desc}); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected paid claim to be read-only, got %v", err)
	}

	onlyPaid, err := repo.ListReimbursements(ctx, ReimbursementFilter{Status: core.ReimbursementPaid})
	if err != nil || len(onlyPaid) != 1 {
		t.Fatalf("status filter returned %d (%v)", len(onlyPaid), err)
	}

	balance, err := repo.CurrentBalance(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if balance != core.Dollars(-45) {
		t.Fatalf("balance %s", balance)
	}

	gone, err := repo.DeleteReimbursement(ctx, rb.ID)
	if err != nil || gone.ID != rb.ID {
		t.Fatalf("delete returned %+v (%v)", gone, err)
	}
}

func TestEventExpensesRecomputeActualSpent(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	e := core.Event{
		Name: "Formal", Date: time.Now().Add(72 * time.Hour), Category: core.CategorySocial,
		Status: core.EventUpcoming, PlannedBudget: core.Dollars(1000),
		BudgetBreakdown: map[string]core.Money{"venue": core.Dollars(600), "food": core.Dollars(400)},
	}
	if err := repo.CreateEvent(ctx, &e); err != nil {
		t.Fatal(err)
	}

	for _, amt := range []int64{250, 125} {
		x := core.EventExpense{Description: "deposit", Amount: core.Dollars(amt)}
		if _, err := repo.AddEventExpense(ctx, e.ID, &x); err != nil {
			t.Fatal(err)
		}
	}
	got, err := repo.GetEvent(ctx, e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ActualSpent != core.Dollars(375) || len(got.Expenses) != 2 {
		t.Fatalf("unexpected event %+v", got)
	}
	if got.BudgetBreakdown["venue"] != core.Dollars(600) {
		t.Fatalf("breakdown not round-tripped: %+v", got.BudgetBreakdown)
	}

	n, err := repo.CountUpcomingEvents(ctx, time.Now())
	if err != nil || n != 1 {
		t.Fatalf("upcoming %d (%v)", n, err)
	}

	x := core.EventExpense{Description: "ghost", Amount: core.Dollars(1)}
	if _, err := repo.AddEventExpense(ctx, "missing", &x); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	balance, err := repo.CurrentBalance(ctx)
	if err != nil || balance != core.Dollars(-375) {
		t.Fatalf("balance %s (%v)", balance, err)
	}
}

func TestRecurringTransactions(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	end := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	active := core.RecurringTransaction{Name: "Rent", Type: core.Expense, Amount: core.Dollars(800),
		Frequency: core.Monthly, StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), EndDate: &end, IsActive: true}
	paused := core.RecurringTransaction{Name: "Old", Type: core.Income, Amount: core.Dollars(10),
		Frequency: core.Annually, StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	for _, rt := range []*core.RecurringTransaction{&active, &paused} {
		if err := repo.CreateRecurring(ctx, rt); err != nil {
			t.Fatal(err)
		}
	}

	list, err := repo.ListActiveRecurring(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].EndDate == nil || !list[0].EndDate.Equal(end) {
		t.Fatalf("unexpected active list %+v", list)
	}

	paused.IsActive = true
	if err := repo.UpdateRecurring(ctx, paused); err != nil {
		t.Fatal(err)
	}
	list, _ = repo.ListActiveRecurring(ctx)
	if len(list) != 2 || list[0].Name != "Rent" {
		t.Fatalf("expected both, latest start first: %+v", list)
	}

	if err := repo.DeleteRecurring(ctx, active.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.GetRecurring(ctx, active.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSettingsDefaultsAndUpdate(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	s, err := repo.GetSettings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s.ChapterName != core.DefaultChapterName || s.SemesterDuesAmount != core.Dollars(500) || s.MinReserveThreshold != core.Dollars(2000) {
		t.Fatalf("unexpected defaults %+v", s)
	}

	pw := "app-password"
	on := true
	host := "smtp.example.com"
	updated, err := repo.UpdateSettings(ctx, core.SettingsUpdate{EmailPassword: &pw, EmailEnabled: &on, EmailHost: &host})
	if err != nil {
		t.Fatal(err)
	}
	if updated.EmailPassword != pw || !updated.EmailEnabled {
		t.Fatalf("update not applied %+v", updated)
	}

	again, err := repo.GetSettings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if again.EmailHost != host || again.EmailPassword != pw || !again.LateFeePercentage.Equal(s.LateFeePercentage) {
		t.Fatalf("settings not persisted %+v", again)
	}
}

func TestSettingsEditsVisibleAcrossRepositories(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shared.db")
	api, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatal(err)
	}
	defer api.Close()
	worker, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatal(err)
	}
	defer worker.Close()

	before, err := worker.GetSettings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if before.MinReserveThreshold != core.DefaultMinReserve {
		t.Fatalf("threshold before = %s", before.MinReserveThreshold)
	}

	threshold := core.Dollars(9000)
	off := false
	if _, err := api.UpdateSettings(ctx, core.SettingsUpdate{MinReserveThreshold: &threshold, EmailEnabled: &off}); err != nil {
		t.Fatal(err)
	}

	after, err := worker.GetSettings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if after.MinReserveThreshold != threshold || after.EmailEnabled {
		t.Fatalf("worker sees threshold=%s email=%v, want %s and false", after.MinReserveThreshold, after.EmailEnabled, threshold)
	}
}

func TestNotificationsAndScenarios(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	m := seedMember(t, repo, "n@example.com", 100)

	n := core.Notification{Type: core.NotifyPaymentReminder, Channel: core.ChannelEmail, Recipient: m.Email, Message: "hi", MemberID: m.ID}
	if err := repo.CreateNotification(ctx, &n); err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	if err := repo.MarkNotification(ctx, n.ID, core.NotificationSent, &now); err != nil {
		t.Fatal(err)
	}
	list, err := repo.ListNotifications(ctx)
	if err != nil || len(list) != 1 || list[0].Status != core.NotificationSent || list[0].SentAt == nil {
		t.Fatalf("unexpected notifications %+v (%v)", list, err)
	}

	sc := core.NewScenario(core.ScenarioInput{MemberCount: 50, DuesAmount: core.Dollars(500), ExpectedExpenses: core.Dollars(20000)}, now)
	if err := repo.CreateScenario(ctx, &sc); err != nil {
		t.Fatal(err)
	}
	scenarios, err := repo.ListScenarios(ctx)
	if err != nil || len(scenarios) != 1 || scenarios[0].MaxEventBudget != core.Dollars(4250) {
		t.Fatalf("unexpected scenarios %+v (%v)", scenarios, err)
	}
	if err := repo.DeleteScenario(ctx, sc.ID); err != nil {
		t.Fatal(err)
	}
	if err := repo.DeleteScenario(ctx, sc.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
