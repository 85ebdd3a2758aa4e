package core

import (
	"cmp"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultTrendMonths   = 12
	DefaultTopEvents     = 5
	comparisonEventLimit = 10
)

type (
	// CategoryAmount is one row of the spending-by-category report.
	CategoryAmount struct {
		Category   string  `json:"category"`
		Amount     Money   `json:"amount"`
		Percentage float64 `json:"percentage"`
	}

	CategoryReport struct {
		Data  []CategoryAmount `json:"data"`
		Total Money            `json:"total"`
	}

	// TrendBucket is the spending of one month split by category.
	TrendBucket struct {
		Month      string           `json:"month"` // YYYY-MM
		Categories map[string]Money `json:"categories"`
		Total      Money            `json:"total"`
	}

	PerMemberReport struct {
		TotalSpending     Money `json:"totalSpending"`
		ActiveMembers     int   `json:"activeMembers"`
		SpendingPerMember Money `json:"spendingPerMember"`
	}

	DuesSummary struct {
		TotalMembers         int     `json:"totalMembers"`
		TotalDuesExpected    Money   `json:"totalDuesExpected"`
		TotalCollected       Money   `json:"totalCollected"`
		TotalOutstanding     Money   `json:"totalOutstanding"`
		CollectionPercentage float64 `json:"collectionPercentage"`
		PaidCount            int     `json:"paidCount"`
		PartialCount         int     `json:"partialCount"`
		OverdueCount         int     `json:"overdueCount"`
	}

	EventVariance struct {
		ID                 string      `json:"id"`
		Name               string      `json:"name"`
		Date               time.Time   `json:"date"`
		Category           Category    `json:"category"`
		Status             EventStatus `json:"status"`
		PlannedBudget      Money       `json:"plannedBudget"`
		ActualSpent        Money       `json:"actualSpent"`
		Variance           Money       `json:"variance"`
		VariancePercentage float64     `json:"variancePercentage"`
	}

	ReimbursementSummary struct {
		Counts  StatusCounts  `json:"counts"`
		Amounts StatusAmounts `json:"amounts"`
	}

	StatusCounts struct {
		Pending  int `json:"pending"`
		Approved int `json:"approved"`
		Paid     int `json:"paid"`
	}

	StatusAmounts struct {
		Pending  Money `json:"pending"`
		Approved Money `json:"approved"`
		Paid     Money `json:"paid"`
	}
)

// spendingItem is a dated, categorized outflow; both paid reimbursements and
// events reduce to it.
type spendingItem struct {
	when     time.Time
	category string
	amount   Money
}

func spending(reimbursements []Reimbursement, events []Event) []spendingItem {
	items := make([]spendingItem, 0, len(reimbursements)+len(events))
	for _, r := range reimbursements {
		if r.Status != ReimbursementPaid {
			continue
		}
		when := r.SubmittedAt
		if r.PaidAt != nil {
			when = *r.PaidAt
		}
		items = append(items, spendingItem{when: when, category: string(r.Category), amount: r.Amount})
	}
	for _, e := range events {
		items = append(items, spendingItem{when: e.Date, category: string(e.Category), amount: e.ActualSpent})
	}
	return items
}

// SpendingByCategory totals paid reimbursements and event spending per
// category, largest first.
func SpendingByCategory(reimbursements []Reimbursement, events []Event) CategoryReport {
	byCat := map[string]Money{}
	var total Money
	for _, it := range spending(reimbursements, events) {
		byCat[it.category] = byCat[it.category].Add(it.amount)
		total = total.Add(it.amount)
	}
	data := make([]CategoryAmount, 0, len(byCat))
	for c, amt := range byCat {
		data = append(data, CategoryAmount{Category: c, Amount: amt, Percentage: Percent(amt, total)})
	}
	slices.SortFunc(data, func(a, b CategoryAmount) int {
		if c := cmp.Compare(b.Amount.Cents, a.Amount.Cents); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})
	return CategoryReport{Data: data, Total: total}
}

// SpendingTrends buckets spending by month and category and keeps the most
// recent months buckets in ascending order.
func SpendingTrends(reimbursements []Reimbursement, events []Event, months int) []TrendBucket {
	buckets := map[string]*TrendBucket{}
	for _, it := range spending(reimbursements, events) {
		key := it.when.Format("2006-01")
		b, ok := buckets[key]
		if !ok {
			b = &TrendBucket{Month: key, Categories: map[string]Money{}}
			buckets[key] = b
		}
		b.Categories[it.category] = b.Categories[it.category].Add(it.amount)
		b.Total = b.Total.Add(it.amount)
	}
	out := make([]TrendBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	slices.SortFunc(out, func(a, b TrendBucket) int { return cmp.Compare(a.Month, b.Month) })
	if months < 0 {
		months = 0
	}
	if len(out) > months {
		out = out[len(out)-months:]
	}
	return out
}

// SpendingPerMember divides all paid-out spending across active members.
func SpendingPerMember(reimbursements []Reimbursement, events []Event, activeMembers int) PerMemberReport {
	var total Money
	for _, it := range spending(reimbursements, events) {
		total = total.Add(it.amount)
	}
	rep := PerMemberReport{TotalSpending: total, ActiveMembers: activeMembers}
	if activeMembers > 0 {
		rep.SpendingPerMember = MoneyFromDecimal(total.Decimal().Div(decimal.NewFromInt(int64(activeMembers))))
	}
	return rep
}

// SummarizeDues reports collection progress over active members.
func SummarizeDues(members []Member) DuesSummary {
	var s DuesSummary
	for _, m := range members {
		if m.Status != MemberActive {
			continue
		}
		s.TotalMembers++
		s.TotalDuesExpected = s.TotalDuesExpected.Add(m.DuesOwed)
		s.TotalCollected = s.TotalCollected.Add(m.DuesPaid)
		s.TotalOutstanding = s.TotalOutstanding.Add(m.OutstandingBalance)
		switch {
		case m.OutstandingBalance.IsZero():
			s.PaidCount++
		case m.DuesPaid.IsPositive():
			s.PartialCount++
		case m.DuesOwed.IsPositive():
			s.OverdueCount++
		}
	}
	s.CollectionPercentage = Percent(s.TotalCollected, s.TotalDuesExpected)
	return s
}

func variance(e Event) EventVariance {
	v := e.ActualSpent.Sub(e.PlannedBudget)
	return EventVariance{
		ID:                 e.ID,
		Name:               e.Name,
		Date:               e.Date,
		Category:           e.Category,
		Status:             e.Status,
		PlannedBudget:      e.PlannedBudget,
		ActualSpent:        e.ActualSpent,
		Variance:           v,
		VariancePercentage: Percent(v, e.PlannedBudget),
	}
}

// CompareEvents returns budget-vs-actual for the ten most recent events.
func CompareEvents(events []Event) []EventVariance {
	sorted := slices.Clone(events)
	slices.SortFunc(sorted, func(a, b Event) int { return b.Date.Compare(a.Date) })
	if len(sorted) > comparisonEventLimit {
		sorted = sorted[:comparisonEventLimit]
	}
	out := make([]EventVariance, 0, len(sorted))
	for _, e := range sorted {
		out = append(out, variance(e))
	}
	return out
}

// TopEventsByCost returns up to limit events by actual spend, highest first.
func TopEventsByCost(events []Event, limit int) []Event {
	if limit <= 0 {
		limit = DefaultTopEvents
	}
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b Event) int {
		return cmp.Compare(b.ActualSpent.Cents, a.ActualSpent.Cents)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// SummarizeReimbursements counts and totals claims per open status.
func SummarizeReimbursements(rs []Reimbursement) ReimbursementSummary {
	var s ReimbursementSummary
	for _, r := range rs {
		switch r.Status {
		case ReimbursementPending:
			s.Counts.Pending++
			s.Amounts.Pending = s.Amounts.Pending.Add(r.Amount)
		case ReimbursementApproved:
			s.Counts.Approved++
			s.Amounts.Approved = s.Amounts.Approved.Add(r.Amount)
		case ReimbursementPaid:
			s.Counts.Paid++
			s.Amounts.Paid = s.Amounts.Paid.Add(r.Amount)
		}
	}
	return s
}
