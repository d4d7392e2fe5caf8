package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "whsec_test"

func sign(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts, payload)))
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func checkoutEvent(eventType, paymentID string) []byte {
	return checkoutEventWithStatus(eventType, paymentID, "paid")
}

func checkoutEventWithStatus(eventType, paymentID, paymentStatus string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_1",
		"object": "event",
		"type": %q,
		"data": {"object": {
			"id": "cs_test_1",
			"object": "checkout.session",
			"payment_intent": "pi_123",
			"payment_status": %q,
			"metadata": {"payment_id": %q}
		}}
	}`, eventType, paymentStatus, paymentID))
}

func TestParseWebhookCompleted(t *testing.T) {
	payload := checkoutEvent("checkout.session.completed", "12")

	ev, err := parseStripeWebhook(payload, sign(payload, testWebhookSecret), testWebhookSecret)
	require.NoError(t, err)
	assert.Equal(t, CheckoutCompleted, ev.Type)
	assert.Equal(t, "cs_test_1", ev.SessionID)
	assert.Equal(t, int64(12), ev.PaymentID)
	assert.Equal(t, "pi_123", ev.ChargeID)
}

func TestParseWebhookDelayedPayment(t *testing.T) {
	tests := []struct {
		name      string
		eventType string
		status    string
		want      WebhookEventType
	}{
		{"completed but unpaid", "checkout.session.completed", "unpaid", WebhookIgnored},
		{"async success", "checkout.session.async_payment_succeeded", "paid", CheckoutCompleted},
		{"async failure", "checkout.session.async_payment_failed", "unpaid", CheckoutFailed},
		{"expired", "checkout.session.expired", "unpaid", CheckoutFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := checkoutEventWithStatus(tt.eventType, "7", tt.status)
			ev, err := parseStripeWebhook(payload, sign(payload, testWebhookSecret), testWebhookSecret)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ev.Type)
			if tt.want != WebhookIgnored {
				assert.Equal(t, int64(7), ev.PaymentID)
			}
		})
	}
}

func TestParseWebhookBadSignature(t *testing.T) {
	payload := checkoutEvent("checkout.session.completed", "12")

	_, err := parseStripeWebhook(payload, sign(payload, "wrong"), testWebhookSecret)
	assert.ErrorIs(t, err, ErrInvalidWebhook)
}

func TestParseWebhookIgnoresOtherEvents(t *testing.T) {
	payload := checkoutEvent("customer.created", "12")

	ev, err := parseStripeWebhook(payload, sign(payload, testWebhookSecret), testWebhookSecret)
	require.NoError(t, err)
	assert.Equal(t, WebhookIgnored, ev.Type)
}

func TestParseWebhookMissingMetadata(t *testing.T) {
	payload := checkoutEvent("checkout.session.expired", "")

	_, err := parseStripeWebhook(payload, sign(payload, testWebhookSecret), testWebhookSecret)
	assert.ErrorIs(t, err, ErrInvalidWebhook)
}
