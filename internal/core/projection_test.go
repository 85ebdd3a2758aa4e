package core

import (
	"slices"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMatches(t *testing.T) {
	start := date(2025, 1, 15)
	end := date(2025, 12, 1)
	tests := []struct {
		name   string
		freq   Frequency
		end    *time.Time
		target time.Time
		want   bool
	}{
		{"before start", Monthly, nil, date(2024, 12, 31), false},
		{"start month earlier day", Monthly, nil, date(2025, 1, 1), true},
		{"monthly later", Monthly, nil, date(2026, 7, 20), true},
		{"monthly end month inclusive", Monthly, &end, date(2025, 12, 31), true},
		{"monthly after end", Monthly, &end, date(2026, 1, 1), false},
		{"quarterly start", Quarterly, nil, date(2025, 1, 1), true},
		{"quarterly +3", Quarterly, nil, date(2025, 4, 1), true},
		{"quarterly +2", Quarterly, nil, date(2025, 3, 1), false},
		{"semester +6", Semester, nil, date(2025, 7, 1), true},
		{"semester +3", Semester, nil, date(2025, 4, 1), false},
		{"annual +12", Annually, nil, date(2026, 1, 1), true},
		{"annual +6", Annually, nil, date(2025, 7, 1), false},
		{"unknown frequency", "WEEKLY", nil, date(2025, 1, 1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := RecurringTransaction{Frequency: tt.freq, StartDate: start, EndDate: tt.end}
			if got := Matches(rt, tt.target); got != tt.want {
				t.Fatalf("Matches(%s) = %v, want %v", tt.target.Format("2006-01-02"), got, tt.want)
			}
		})
	}
}

func TestMatchesStartMonthAlways(t *testing.T) {
	for _, f := range []Frequency{Monthly, Quarterly, Semester, Annually} {
		rt := RecurringTransaction{Frequency: f, StartDate: date(2025, 9, 30)}
		if !Matches(rt, date(2025, 9, 1)) {
			t.Fatalf("%s did not match its start month", f)
		}
	}
}

func TestMatchesQuarterlyCadence(t *testing.T) {
	rt := RecurringTransaction{Frequency: Quarterly, StartDate: date(2025, 2, 1)}
	var hits []string
	for i := 0; i < 12; i++ {
		m := date(2025, 2, 1).AddDate(0, i, 0)
		if Matches(rt, m) {
			hits = append(hits, m.Format("2006-01"))
		}
	}
	want := []string{"2025-02", "2025-05", "2025-08", "2025-11"}
	if !slices.Equal(hits, want) {
		t.Fatalf("got %v, want %v", hits, want)
	}
}

func TestProject(t *testing.T) {
	now := date(2025, 1, 31)
	txs := []RecurringTransaction{
		{Type: Income, Amount: Dollars(1000), Frequency: Monthly, StartDate: date(2024, 9, 1)},
		{Type: Expense, Amount: Dollars(700), Frequency: Monthly, StartDate: date(2025, 1, 1)},
		{Type: Expense, Amount: Dollars(2500), Frequency: Quarterly, StartDate: date(2025, 2, 1)},
	}

	got := slices.Collect(Project(Dollars(2000), txs, Dollars(2000), 4, now))
	if len(got) != 4 {
		t.Fatalf("expected 4 months, got %d", len(got))
	}
	wantMonths := []string{"2025-01", "2025-02", "2025-03", "2025-04"}
	wantBalance := []int64{2300, 100, 400, 700}
	wantBelow := []bool{false, true, true, true}
	for i, p := range got {
		if p.Month != wantMonths[i] {
			t.Fatalf("entry %d month %s, want %s", i, p.Month, wantMonths[i])
		}
		if p.ProjectedBalance != Dollars(wantBalance[i]) {
			t.Fatalf("entry %d balance %s, want %d", i, p.ProjectedBalance, wantBalance[i])
		}
		if p.BelowThreshold != wantBelow[i] {
			t.Fatalf("entry %d below %v, want %v", i, p.BelowThreshold, wantBelow[i])
		}
		if p.NetChange != p.Income.Sub(p.Expenses) {
			t.Fatalf("entry %d net change mismatch", i)
		}
	}
	if got[1].Expenses != Dollars(3200) {
		t.Fatalf("february expenses %s", got[1].Expenses)
	}
}

func TestProjectEdges(t *testing.T) {
	now := date(2025, 3, 10)
	txs := []RecurringTransaction{
		{Type: Income, Amount: Dollars(300), Frequency: Monthly, StartDate: date(2025, 1, 1)},
		{Type: Expense, Amount: Dollars(50), Frequency: Annually, StartDate: date(2024, 3, 1)},
	}
	if n := len(slices.Collect(Project(Dollars(10), txs, Money{}, 0, now))); n != 0 {
		t.Fatalf("months=0 yielded %d entries", n)
	}
	if n := len(slices.Collect(Project(Dollars(10), txs, Money{}, -3, now))); n != 0 {
		t.Fatalf("months<0 yielded %d entries", n)
	}
	one := slices.Collect(Project(Dollars(10), txs, Money{}, 1, now))
	if len(one) != 1 || one[0].ProjectedBalance != Dollars(260) {
		t.Fatalf("months=1 got %+v", one)
	}
}

func TestProjectStopsEarly(t *testing.T) {
	n := 0
	for range Project(Money{}, nil, Money{}, 24, date(2025, 1, 1)) {
		n++
		if n == 3 {
			break
		}
	}
	if n != 3 {
		t.Fatalf("expected to stop after 3, got %d", n)
	}
}

func TestProjectMonthEnd(t *testing.T) {
	// Starting on the 31st must not skip February.
	got := slices.Collect(Project(Money{}, nil, Money{}, 3, date(2025, 1, 31)))
	if got[1].Month != "2025-02" || got[2].Month != "2025-03" {
		t.Fatalf("unexpected months %s %s", got[1].Month, got[2].Month)
	}
}
