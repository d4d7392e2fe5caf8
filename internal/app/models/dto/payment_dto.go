package dto

import "github.com/yigit/societyhub/internal/app/models"

// CheckoutRequest starts a payment for a society membership or an event place
type CheckoutRequest struct {
	Purpose     models.PaymentPurpose `json:"purpose" binding:"required,oneof=society event"`
	ReferenceID int64                 `json:"referenceId" binding:"required,min=1"`
}

// CheckoutResponse tells the client where to send the user
type CheckoutResponse struct {
	PaymentID   int64  `json:"paymentId"`
	CheckoutURL string `json:"checkoutUrl"`
	SessionID   string `json:"sessionId"`
}
