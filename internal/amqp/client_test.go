package amqp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"greekledger/internal/core"
)

type recordingAcker struct {
	acks     int
	nacks    int
	requeued int
}

func (a *recordingAcker) Ack(tag uint64, multiple bool) error { a.acks++; return nil }

func (a *recordingAcker) Nack(tag uint64, multiple, requeue bool) error {
	a.nacks++
	if requeue {
		a.requeued++
	}
	return nil
}

func (a *recordingAcker) Reject(tag uint64, requeue bool) error { return a.Nack(tag, false, requeue) }

func sampleMessage(t *testing.T) []byte {
	t.Helper()
	p := core.Payment{ID: "p1", MemberID: "m1", Amount: core.Dollars(200), Semester: "Fall 2025",
		PaymentDate: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)}
	m := core.Member{ID: "m1", FirstName: "Jo", LastName: "Park", OutstandingBalance: core.Dollars(300)}
	body, err := NewLedgerEventMessage(PaymentRecorded, p, m).ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func TestLedgerEventRoundTrip(t *testing.T) {
	msg, err := LedgerEventMessageFromJSON(sampleMessage(t))
	if err != nil {
		t.Fatal(err)
	}
	if msg.MemberName != "Jo Park" || msg.AmountCents != 20000 || msg.OutstandingCents != 30000 {
		t.Fatalf("unexpected message %+v", msg)
	}
}

func TestLedgerEventRejectsUnknownType(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{`},
		{"unknown type", `{"type":"payment.refunded","paymentId":"p1"}`},
		{"missing id", `{"type":"payment.recorded"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LedgerEventMessageFromJSON([]byte(tt.body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestHandleDelivery(t *testing.T) {
	tests := []struct {
		name        string
		body        []byte
		handlerErr  error
		wantAck     int
		wantNack    int
		wantRequeue int
	}{
		{"success acks", sampleMessage(t), nil, 1, 0, 0},
		{"handler failure requeues", sampleMessage(t), errors.New("sheets down"), 0, 1, 1},
		{"bad body is dropped", []byte("garbage"), nil, 0, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acker := &recordingAcker{}
			called := 0
			handler := func(context.Context, *LedgerEventMessage) error {
				called++
				return tt.handlerErr
			}
			handleDelivery(context.Background(), amqp091.Delivery{Acknowledger: acker, DeliveryTag: 1, Body: tt.body}, handler)
			if acker.acks != tt.wantAck || acker.nacks != tt.wantNack || acker.requeued != tt.wantRequeue {
				t.Fatalf("acks=%d nacks=%d requeued=%d", acker.acks, acker.nacks, acker.requeued)
			}
			if string(tt.body) == "garbage" && called != 0 {
				t.Fatal("handler called for undecodable body")
			}
		})
	}
}
