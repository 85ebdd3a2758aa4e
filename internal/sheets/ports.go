package sheets

import (
	"context"
	"time"

	"greekledger/internal/core"
)

// LedgerRow is one line of the treasurer's spreadsheet mirror. The mirror is
// append-only: a deleted payment is written as a reversal row with a
// negative amount.
type LedgerRow struct {
	Date        time.Time
	Kind        string
	PaymentID   string
	MemberName  string
	Semester    string
	Amount      core.Money
	LateFee     core.Money
	Outstanding core.Money
	Notes       string
}

// Ports for outbound adapters.
type LedgerWriter interface {
	AppendLedgerRow(ctx context.Context, row LedgerRow) (rowRef string, err error)
}
