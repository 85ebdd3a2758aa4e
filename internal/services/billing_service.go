package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"greekledger/internal/billing"
	"greekledger/internal/core"
	"greekledger/internal/storage"
)

const stripeNotePrefix = "Stripe payment - "

type BillingStore interface {
	MemberReader
	NotificationStore
	ListPayments(ctx context.Context, f storage.PaymentFilter) ([]core.Payment, error)
}

// BillingService issues hosted payment pages and books completed payments
// reported by the processor's webhook.
type BillingService struct {
	store  BillingStore
	issuer billing.PaymentLinkIssuer
	ledger *LedgerService
	now    func() time.Time
}

func NewBillingService(store BillingStore, issuer billing.PaymentLinkIssuer, ledger *LedgerService) *BillingService {
	if issuer == nil {
		issuer = billing.Disabled{}
	}
	return &BillingService{store: store, issuer: issuer, ledger: ledger, now: time.Now}
}

type LinkMember struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type PaymentLinkResult struct {
	PaymentLink string     `json:"paymentLink"`
	Amount      core.Money `json:"amount"`
	Member      LinkMember `json:"member"`
}

type BulkLinksResult struct {
	Count        int          `json:"count"`
	PaymentLinks []MemberLink `json:"paymentLinks"`
}

func (s *BillingService) Enabled() bool { return s.issuer.Enabled() }

func (s *BillingService) CreatePaymentLink(ctx context.Context, memberID string, amount core.Money, description string) (PaymentLinkResult, error) {
	if !s.issuer.Enabled() {
		return PaymentLinkResult{}, billing.ErrDisabled
	}
	member, err := s.store.GetMember(ctx, memberID)
	if err != nil {
		return PaymentLinkResult{}, err
	}
	if err := amount.Validate(); err != nil {
		return PaymentLinkResult{}, err
	}

	url, err := s.issuer.CreatePaymentLink(ctx, linkRequest(member, amount, description))
	if err != nil {
		return PaymentLinkResult{}, err
	}
	return PaymentLinkResult{
		PaymentLink: url,
		Amount:      amount,
		Member:      LinkMember{ID: member.ID, Name: member.FullName()},
	}, nil
}

// CreateBulkPaymentLinks issues a link for each active member's full
// outstanding balance. The first provider error aborts the batch.
func (s *BillingService) CreateBulkPaymentLinks(ctx context.Context) (BulkLinksResult, error) {
	if !s.issuer.Enabled() {
		return BulkLinksResult{}, billing.ErrDisabled
	}
	members, err := owingMembers(ctx, s.store)
	if err != nil {
		return BulkLinksResult{}, err
	}

	links := make([]MemberLink, 0, len(members))
	for _, m := range members {
		url, err := s.issuer.CreatePaymentLink(ctx, linkRequest(m, m.OutstandingBalance, "Outstanding Dues"))
		if err != nil {
			return BulkLinksResult{}, fmt.Errorf("payment link for member %s: %w", m.ID, err)
		}
		links = append(links, MemberLink{
			MemberID:    m.ID,
			MemberName:  m.FullName(),
			Amount:      m.OutstandingBalance,
			PaymentLink: url,
		})
	}
	return BulkLinksResult{Count: len(links), PaymentLinks: links}, nil
}

func (s *BillingService) CreateCheckoutSession(ctx context.Context, memberID string, amount core.Money, description string) (billing.CheckoutSession, error) {
	if !s.issuer.Enabled() {
		return billing.CheckoutSession{}, billing.ErrDisabled
	}
	member, err := s.store.GetMember(ctx, memberID)
	if err != nil {
		return billing.CheckoutSession{}, err
	}
	if err := amount.Validate(); err != nil {
		return billing.CheckoutSession{}, err
	}
	return s.issuer.CreateCheckoutSession(ctx, linkRequest(member, amount, description))
}

// HandleWebhook books a completed payment against the member named in the
// event metadata. Redelivered events for an already booked session are
// ignored.
func (s *BillingService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.issuer.ParseWebhook(payload, signature)
	if err != nil {
		return err
	}

	switch {
	case event.Completed():
	case event.Type == billing.EventPaymentFailed:
		slog.WarnContext(ctx, "Payment failed", "object_id", event.ObjectID)
		return nil
	default:
		slog.InfoContext(ctx, "Unhandled webhook event", "type", event.Type)
		return nil
	}

	if event.MemberID == "" {
		slog.InfoContext(ctx, "Webhook payment without member metadata", "object_id", event.ObjectID)
		return nil
	}
	if !event.Amount.IsPositive() {
		return core.Invalid("webhook payment without amount")
	}

	booked, err := s.alreadyBooked(ctx, event.ObjectID)
	if err != nil {
		return err
	}
	if booked {
		slog.InfoContext(ctx, "Webhook payment already recorded", "object_id", event.ObjectID)
		return nil
	}

	now := s.now().UTC().Truncate(time.Second)
	payment := core.Payment{
		MemberID:    event.MemberID,
		Amount:      event.Amount,
		PaymentDate: now,
		Semester:    core.SemesterFor(now),
		Notes:       stripeNotePrefix + event.ObjectID,
		ExternalRef: event.ObjectID,
	}
	member, err := s.ledger.RecordPayment(ctx, &payment)
	if errors.Is(err, core.ErrNotFound) {
		slog.WarnContext(ctx, "Webhook payment for unknown member", "member_id", event.MemberID)
		return nil
	}
	if err != nil {
		// A concurrent delivery of the same event loses on the unique index.
		if booked, lookupErr := s.alreadyBooked(ctx, event.ObjectID); lookupErr == nil && booked {
			slog.InfoContext(ctx, "Webhook payment already recorded", "object_id", event.ObjectID)
			return nil
		}
		return fmt.Errorf("record webhook payment: %w", err)
	}

	n := core.Notification{
		Type:      core.NotifyPaymentConfirmation,
		Channel:   core.ChannelEmail,
		Recipient: member.Email,
		Subject:   confirmationSubject,
		Message:   paymentReceivedMessage(event.Amount),
		MemberID:  member.ID,
		Status:    core.NotificationSent,
		SentAt:    &now,
	}
	if err := s.store.CreateNotification(ctx, &n); err != nil {
		slog.ErrorContext(ctx, "Failed to record payment confirmation", "member_id", member.ID, "error", err)
	}

	slog.InfoContext(ctx, "Payment recorded from webhook",
		"member_id", member.ID,
		"payment_id", payment.ID,
		"amount_cents", payment.Amount.Cents)
	return nil
}

// alreadyBooked reports whether a payment exists for the processor object.
func (s *BillingService) alreadyBooked(ctx context.Context, objectID string) (bool, error) {
	existing, err := s.store.ListPayments(ctx, storage.PaymentFilter{ExternalRef: objectID, Limit: 1})
	if err != nil {
		return false, err
	}
	return len(existing) > 0, nil
}

// PaymentHistory lists the member's payments that came through Stripe.
func (s *BillingService) PaymentHistory(ctx context.Context, memberID string) ([]core.Payment, error) {
	if !s.issuer.Enabled() {
		return nil, billing.ErrDisabled
	}
	return s.store.ListPayments(ctx, storage.PaymentFilter{MemberID: memberID, NotesContains: "Stripe"})
}

func linkRequest(m core.Member, amount core.Money, description string) billing.LinkRequest {
	return billing.LinkRequest{
		MemberID:    m.ID,
		MemberName:  m.FullName(),
		Email:       m.Email,
		Amount:      amount,
		Description: description,
	}
}
