package payments

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when no payment provider is configured
var ErrUnavailable = errors.New("payment provider not configured")

// ErrInvalidWebhook is returned for payloads that fail signature or shape checks
var ErrInvalidWebhook = errors.New("invalid webhook")

// CheckoutRequest describes a single-item hosted checkout
type CheckoutRequest struct {
	PaymentID     int64
	Amount        int64
	Currency      string
	Description   string
	CustomerEmail string
}

// CheckoutSession is the provider's hosted checkout page
type CheckoutSession struct {
	ID  string
	URL string
}

// WebhookEventType is the outcome of a provider callback
type WebhookEventType string

const (
	// CheckoutCompleted means the money has been collected
	CheckoutCompleted WebhookEventType = "completed"
	// CheckoutFailed means the session expired or the delayed payment failed
	CheckoutFailed WebhookEventType = "failed"
	WebhookIgnored WebhookEventType = "ignored"
)

// WebhookEvent is a verified provider callback
type WebhookEvent struct {
	Type      WebhookEventType
	SessionID string
	PaymentID int64
	ChargeID  string
}

// Gateway starts checkouts and verifies callbacks
type Gateway interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

// DisabledGateway rejects every call
type DisabledGateway struct{}

// CreateCheckout always fails with ErrUnavailable
func (DisabledGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	return nil, ErrUnavailable
}

// ParseWebhook always fails with ErrUnavailable
func (DisabledGateway) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	return nil, ErrUnavailable
}
