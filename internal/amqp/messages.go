package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"greekledger/internal/core"
)

// Ledger event kinds.
const (
	PaymentRecorded = "payment.recorded"
	PaymentDeleted  = "payment.deleted"
)

// LedgerEventMessage describes one ledger movement. It carries the full
// payment so consumers can act on deletions without reading the database.
type LedgerEventMessage struct {
	Type             string    `json:"type"`
	PaymentID        string    `json:"paymentId"`
	MemberID         string    `json:"memberId"`
	MemberName       string    `json:"memberName"`
	AmountCents      int64     `json:"amountCents"`
	LateFeeCents     int64     `json:"lateFeeCents"`
	Semester         string    `json:"semester"`
	PaymentDate      time.Time `json:"paymentDate"`
	Notes            string    `json:"notes,omitempty"`
	OutstandingCents int64     `json:"outstandingCents"`
	Timestamp        time.Time `json:"timestamp"`
}

// NewLedgerEventMessage builds a message for kind from a payment and the
// member state after the movement.
func NewLedgerEventMessage(kind string, p core.Payment, m core.Member) *LedgerEventMessage {
	return &LedgerEventMessage{
		Type:             kind,
		PaymentID:        p.ID,
		MemberID:         p.MemberID,
		MemberName:       m.FullName(),
		AmountCents:      p.Amount.Cents,
		LateFeeCents:     p.LateFee.Cents,
		Semester:         p.Semester,
		PaymentDate:      p.PaymentDate,
		Notes:            p.Notes,
		OutstandingCents: m.OutstandingBalance.Cents,
		Timestamp:        time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventMessageFromJSON decodes and sanity-checks a message body.
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Type != PaymentRecorded && msg.Type != PaymentDeleted {
		return nil, fmt.Errorf("unknown ledger event type %q", msg.Type)
	}
	if msg.PaymentID == "" {
		return nil, fmt.Errorf("ledger event without payment id")
	}
	return &msg, nil
}
