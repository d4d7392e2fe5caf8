package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

const paymentIDMetadataKey = "payment_id"

// StripeConfig holds the Stripe credentials and redirect URLs
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
}

// StripeGateway implements Gateway with Stripe Checkout
type StripeGateway struct {
	api    *client.API
	config StripeConfig
	logger zerolog.Logger
}

// NewStripeGateway creates a StripeGateway
func NewStripeGateway(config StripeConfig, logger zerolog.Logger) *StripeGateway {
	return &StripeGateway{
		api:    client.New(config.SecretKey, nil),
		config: config,
		logger: logger,
	}
}

// CreateCheckout opens a hosted checkout session carrying the payment id in its metadata
func (g *StripeGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(g.config.SuccessURL),
		CancelURL:         stripe.String(g.config.CancelURL),
		ClientReferenceID: stripe.String(strconv.FormatInt(req.PaymentID, 10)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(req.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
					UnitAmount: stripe.Int64(req.Amount),
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	params.Context = ctx
	params.AddMetadata(paymentIDMetadataKey, strconv.FormatInt(req.PaymentID, 10))

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		g.logger.Error().Err(err).Int64("paymentID", req.PaymentID).Msg("Failed to create checkout session")
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

const (
	eventSessionCompleted = "checkout.session.completed"
	eventSessionExpired   = "checkout.session.expired"
	eventAsyncSucceeded   = "checkout.session.async_payment_succeeded"
	eventAsyncFailed      = "checkout.session.async_payment_failed"
)

// ParseWebhook verifies the Stripe-Signature header and extracts the checkout session
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	return parseStripeWebhook(payload, signature, g.config.WebhookSecret)
}

func parseStripeWebhook(payload []byte, signature, secret string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWebhook, err)
	}

	switch event.Type {
	case eventSessionCompleted, eventSessionExpired, eventAsyncSucceeded, eventAsyncFailed:
	default:
		return &WebhookEvent{Type: WebhookIgnored}, nil
	}

	var sess stripe.CheckoutSession
	if event.Data == nil || json.Unmarshal(event.Data.Raw, &sess) != nil {
		return nil, fmt.Errorf("%w: malformed checkout session", ErrInvalidWebhook)
	}

	outcome := WebhookIgnored
	switch event.Type {
	case eventSessionCompleted:
		// delayed methods complete the session before the money arrives
		if sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid {
			outcome = CheckoutCompleted
		}
	case eventAsyncSucceeded:
		outcome = CheckoutCompleted
	case eventSessionExpired, eventAsyncFailed:
		outcome = CheckoutFailed
	}
	if outcome == WebhookIgnored {
		return &WebhookEvent{Type: WebhookIgnored}, nil
	}

	paymentID, err := strconv.ParseInt(sess.Metadata[paymentIDMetadataKey], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: missing payment id metadata", ErrInvalidWebhook)
	}

	out := &WebhookEvent{
		Type:      outcome,
		SessionID: sess.ID,
		PaymentID: paymentID,
	}
	if sess.PaymentIntent != nil {
		out.ChargeID = sess.PaymentIntent.ID
	}
	return out, nil
}
