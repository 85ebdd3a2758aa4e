// Package billing issues hosted payment pages for member dues and decodes
// the payment provider's completion webhooks.
package billing

import (
	"context"
	"errors"

	"greekledger/internal/core"
)

// Webhook event kinds the ledger reacts to.
const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventPaymentSucceeded  = "payment_intent.succeeded"
	EventPaymentFailed     = "payment_intent.payment_failed"
)

const defaultDescription = "Semester Dues"

var ErrInvalidSignature = errors.New("webhook signature verification failed")

// LinkRequest describes a payment page for one member.
type LinkRequest struct {
	MemberID    string
	MemberName  string
	Email       string
	Amount      core.Money
	Description string
}

func (r LinkRequest) description() string {
	if r.Description == "" {
		return defaultDescription
	}
	return r.Description
}

func (r LinkRequest) metadata() map[string]string {
	return map[string]string{
		"memberId":   r.MemberID,
		"memberName": r.MemberName,
		"type":       "dues_payment",
	}
}

type CheckoutSession struct {
	ID  string `json:"sessionId"`
	URL string `json:"url"`
}

// WebhookEvent is the provider-neutral view of a webhook delivery. MemberID
// is empty when the payment was not created by this application.
type WebhookEvent struct {
	Type     string
	ObjectID string
	MemberID string
	Amount   core.Money
}

// Completed reports whether the event settles a payment.
func (e WebhookEvent) Completed() bool {
	return e.Type == EventCheckoutCompleted || e.Type == EventPaymentSucceeded
}

type PaymentLinkIssuer interface {
	Enabled() bool
	CreatePaymentLink(ctx context.Context, req LinkRequest) (string, error)
	CreateCheckoutSession(ctx context.Context, req LinkRequest) (CheckoutSession, error)
	ParseWebhook(payload []byte, signature string) (WebhookEvent, error)
}

type Disabled struct{}

// ErrDisabled is returned by every Disabled operation. It wraps
// core.ErrNotConfigured.
var ErrDisabled error = &notConfiguredError{}

type notConfiguredError struct{}

func (*notConfiguredError) Error() string {
	return "Stripe not configured. Please add STRIPE_SECRET_KEY to environment variables."
}

func (*notConfiguredError) Unwrap() error { return core.ErrNotConfigured }

func (Disabled) Enabled() bool { return false }

func (Disabled) CreatePaymentLink(context.Context, LinkRequest) (string, error) {
	return "", ErrDisabled
}

func (Disabled) CreateCheckoutSession(context.Context, LinkRequest) (CheckoutSession, error) {
	return CheckoutSession{}, ErrDisabled
}

func (Disabled) ParseWebhook([]byte, string) (WebhookEvent, error) {
	return WebhookEvent{}, ErrDisabled
}
