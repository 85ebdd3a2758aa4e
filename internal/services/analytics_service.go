package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"greekledger/internal/core"
	"greekledger/internal/storage"
)

const recentActivityLimit = 5

// AnalyticsService assembles the read-only reports. Every report reads
// fresh rows; a storage error fails the whole report.
type AnalyticsService struct {
	store AnalyticsStore
	now   func() time.Time
}

func NewAnalyticsService(store AnalyticsStore) *AnalyticsService {
	return &AnalyticsService{store: store, now: time.Now}
}

// spendingInputs loads paid reimbursements and all events concurrently.
func (s *AnalyticsService) spendingInputs(ctx context.Context) ([]core.Reimbursement, []core.Event, error) {
	var (
		paid   []core.Reimbursement
		events []core.Event
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		paid, err = s.store.ListReimbursements(gctx, storage.ReimbursementFilter{Status: core.ReimbursementPaid})
		return err
	})
	g.Go(func() error {
		var err error
		events, err = s.store.ListEvents(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return paid, events, nil
}

func (s *AnalyticsService) SpendingByCategory(ctx context.Context) (core.CategoryReport, error) {
	paid, events, err := s.spendingInputs(ctx)
	if err != nil {
		return core.CategoryReport{}, err
	}
	return core.SpendingByCategory(paid, events), nil
}

func (s *AnalyticsService) SpendingTrends(ctx context.Context, months int) ([]core.TrendBucket, error) {
	if months <= 0 {
		months = core.DefaultTrendMonths
	}
	paid, events, err := s.spendingInputs(ctx)
	if err != nil {
		return nil, err
	}
	return core.SpendingTrends(paid, events, months), nil
}

func (s *AnalyticsService) SpendingPerMember(ctx context.Context) (core.PerMemberReport, error) {
	var (
		paid   []core.Reimbursement
		events []core.Event
		active int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		paid, events, err = s.spendingInputs(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		active, err = s.store.CountActiveMembers(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.PerMemberReport{}, err
	}
	return core.SpendingPerMember(paid, events, active), nil
}

// Dashboard fans the landing-page reads out concurrently.
func (s *AnalyticsService) Dashboard(ctx context.Context) (core.Dashboard, error) {
	var (
		d       core.Dashboard
		members []core.Member
		pending []core.Reimbursement
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		members, err = s.store.ListMembers(gctx, storage.MemberFilter{Status: core.MemberActive})
		return err
	})
	g.Go(func() error {
		var err error
		pending, err = s.store.ListReimbursements(gctx, storage.ReimbursementFilter{Status: core.ReimbursementPending})
		return err
	})
	g.Go(func() error {
		var err error
		d.Events.Upcoming, err = s.store.CountUpcomingEvents(gctx, s.now())
		return err
	})
	g.Go(func() error {
		var err error
		d.RecentActivity.Payments, err = s.store.ListPayments(gctx, storage.PaymentFilter{Limit: recentActivityLimit})
		return err
	})
	g.Go(func() error {
		var err error
		d.RecentActivity.Reimbursements, err = s.store.ListReimbursements(gctx, storage.ReimbursementFilter{Limit: recentActivityLimit})
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Dashboard{}, err
	}

	d.Members = core.DashboardMemberTotals(members)
	d.Reimbursements.Pending = len(pending)
	for _, r := range pending {
		d.Reimbursements.PendingAmount = d.Reimbursements.PendingAmount.Add(r.Amount)
	}
	return d, nil
}

// DuesSummary backs the members stats endpoint.
func (s *AnalyticsService) DuesSummary(ctx context.Context) (core.DuesSummary, error) {
	members, err := s.store.ListMembers(ctx, storage.MemberFilter{Status: core.MemberActive})
	if err != nil {
		return core.DuesSummary{}, err
	}
	return core.SummarizeDues(members), nil
}

func (s *AnalyticsService) ReimbursementSummary(ctx context.Context) (core.ReimbursementSummary, error) {
	rs, err := s.store.ListReimbursements(ctx, storage.ReimbursementFilter{})
	if err != nil {
		return core.ReimbursementSummary{}, err
	}
	return core.SummarizeReimbursements(rs), nil
}

func (s *AnalyticsService) EventComparison(ctx context.Context) ([]core.EventVariance, error) {
	events, err := s.store.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	return core.CompareEvents(events), nil
}

func (s *AnalyticsService) TopEventsByCost(ctx context.Context, limit int) ([]core.Event, error) {
	if limit <= 0 {
		limit = core.DefaultTopEvents
	}
	events, err := s.store.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	return core.TopEventsByCost(events, limit), nil
}
