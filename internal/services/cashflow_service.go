package services

import (
	"context"
	"time"

	"greekledger/internal/core"
)

const maxProjectionMonths = 60

type CashflowService struct {
	store CashflowStore
	now   func() time.Time
}

func NewCashflowService(store CashflowStore) *CashflowService {
	return &CashflowService{store: store, now: time.Now}
}

// Projection walks the active recurring transactions forward from the
// current balance.
func (s *CashflowService) Projection(ctx context.Context, months int) (core.Projection, error) {
	if months < 1 || months > maxProjectionMonths {
		return core.Projection{}, core.Invalid("months must be between 1 and %d", maxProjectionMonths)
	}

	balance, err := s.store.CurrentBalance(ctx)
	if err != nil {
		return core.Projection{}, err
	}
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return core.Projection{}, err
	}
	txs, err := s.store.ListActiveRecurring(ctx)
	if err != nil {
		return core.Projection{}, err
	}

	out := core.Projection{
		CurrentBalance:      balance,
		MinReserveThreshold: settings.MinReserveThreshold,
		Projection:          make([]core.MonthProjection, 0, months),
	}
	for p := range core.Project(balance, txs, settings.MinReserveThreshold, months, s.now().UTC()) {
		out.Projection = append(out.Projection, p)
	}
	return out, nil
}
