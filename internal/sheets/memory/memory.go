package memory

import (
	"context"
	"fmt"
	"sync"

	ports "greekledger/internal/sheets"
)

// Store is an in-process ledger mirror. The worker falls back to it when no
// spreadsheet is configured so the sync pipeline can still be exercised.
type Store struct {
	mu   sync.Mutex
	rows []ports.LedgerRow
}

var _ ports.LedgerWriter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// AppendLedgerRow stores the row and returns a synthetic row reference.
func (s *Store) AppendLedgerRow(_ context.Context, row ports.LedgerRow) (string, error) {
	if row.PaymentID == "" {
		return "", fmt.Errorf("ledger row without payment id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []ports.LedgerRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.LedgerRow(nil), s.rows...)
}
