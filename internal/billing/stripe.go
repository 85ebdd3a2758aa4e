package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"greekledger/internal/core"
)

// Stripe issues payment links and checkout sessions through the Stripe API.
type Stripe struct {
	api           *client.API
	webhookSecret string
	frontendURL   string
}

// NewStripe returns a Stripe issuer, or Disabled when secretKey is empty.
func NewStripe(secretKey, webhookSecret, frontendURL string) PaymentLinkIssuer {
	if secretKey == "" {
		return Disabled{}
	}
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Stripe{
		api:           api,
		webhookSecret: webhookSecret,
		frontendURL:   strings.TrimRight(frontendURL, "/"),
	}
}

func (s *Stripe) Enabled() bool { return true }

// CreatePaymentLink creates a one-off price for the amount and wraps it in a
// payment link that redirects to the frontend on completion.
func (s *Stripe) CreatePaymentLink(ctx context.Context, req LinkRequest) (string, error) {
	if err := req.Amount.Validate(); err != nil {
		return "", err
	}

	priceParams := &stripe.PriceParams{
		Currency:   stripe.String(string(stripe.CurrencyUSD)),
		UnitAmount: stripe.Int64(req.Amount.Cents),
		ProductData: &stripe.PriceProductDataParams{
			Name: stripe.String(req.description()),
		},
	}
	priceParams.Context = ctx
	price, err := s.api.Prices.New(priceParams)
	if err != nil {
		return "", fmt.Errorf("create stripe price: %w", err)
	}

	linkParams := &stripe.PaymentLinkParams{
		LineItems: []*stripe.PaymentLinkLineItemParams{{
			Price:    stripe.String(price.ID),
			Quantity: stripe.Int64(1),
		}},
		Metadata: req.metadata(),
		AfterCompletion: &stripe.PaymentLinkAfterCompletionParams{
			Type: stripe.String(string(stripe.PaymentLinkAfterCompletionTypeRedirect)),
			Redirect: &stripe.PaymentLinkAfterCompletionRedirectParams{
				URL: stripe.String(s.frontendURL + "/payments/success"),
			},
		},
	}
	linkParams.Context = ctx
	link, err := s.api.PaymentLinks.New(linkParams)
	if err != nil {
		return "", fmt.Errorf("create stripe payment link: %w", err)
	}
	return link.URL, nil
}

func (s *Stripe) CreateCheckoutSession(ctx context.Context, req LinkRequest) (CheckoutSession, error) {
	if err := req.Amount.Validate(); err != nil {
		return CheckoutSession{}, err
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(string(stripe.CurrencyUSD)),
				UnitAmount: stripe.Int64(req.Amount.Cents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(req.description()),
					Description: stripe.String("Payment for " + req.MemberName),
				},
			},
			Quantity: stripe.Int64(1),
		}},
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.frontendURL + "/payments/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(s.frontendURL + "/payments/cancel"),
		Metadata:   req.metadata(),
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	params.Context = ctx

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("create stripe checkout session: %w", err)
	}
	return CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// ParseWebhook verifies the Stripe-Signature header when a webhook secret
// is configured and decodes the event otherwise.
func (s *Stripe) ParseWebhook(payload []byte, signature string) (WebhookEvent, error) {
	return parseStripeEvent(payload, signature, s.webhookSecret)
}

type stripeObject struct {
	ID          string            `json:"id"`
	AmountTotal int64             `json:"amount_total"`
	Amount      int64             `json:"amount"`
	Metadata    map[string]string `json:"metadata"`
}

func parseStripeEvent(payload []byte, signature, secret string) (WebhookEvent, error) {
	var (
		event stripe.Event
		err   error
	)
	if secret != "" {
		event, err = webhook.ConstructEventWithOptions(payload, signature, secret,
			webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
		if err != nil {
			return WebhookEvent{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
	} else if err := json.Unmarshal(payload, &event); err != nil {
		return WebhookEvent{}, fmt.Errorf("decode webhook: %v: %w", err, core.ErrValidation)
	}

	out := WebhookEvent{Type: string(event.Type)}
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return out, nil
	}

	var obj stripeObject
	if err := json.Unmarshal(event.Data.Raw, &obj); err != nil {
		return WebhookEvent{}, fmt.Errorf("decode webhook object: %v: %w", err, core.ErrValidation)
	}
	out.ObjectID = obj.ID
	out.MemberID = obj.Metadata["memberId"]
	// Checkout sessions report amount_total, payment intents report amount.
	if obj.AmountTotal > 0 {
		out.Amount = core.Money{Cents: obj.AmountTotal}
	} else {
		out.Amount = core.Money{Cents: obj.Amount}
	}
	return out, nil
}
