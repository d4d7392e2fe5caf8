package models

import "time"

// PaymentStatus tracks a checkout through the payment provider
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// PaymentPurpose tags what is being paid for
type PaymentPurpose string

const (
	PurposeSociety PaymentPurpose = "society"
	PurposeEvent   PaymentPurpose = "event"
)

// Payment is one checkout attempt
type Payment struct {
	ID          int64          `json:"id" db:"id"`
	UserID      int64          `json:"userId" db:"user_id"`
	Amount      int64          `json:"amount" db:"amount"`
	Currency    string         `json:"currency" db:"currency"`
	Status      PaymentStatus  `json:"status" db:"status"`
	Purpose     PaymentPurpose `json:"purpose" db:"purpose"`
	ReferenceID int64          `json:"referenceId" db:"reference_id"`
	ExternalID  *string        `json:"externalId,omitempty" db:"external_id"`
	ChargeID    *string        `json:"chargeId,omitempty" db:"charge_id"`
	CreatedAt   time.Time      `json:"createdAt" db:"created_at"`
	PaidAt      *time.Time     `json:"paidAt,omitempty" db:"paid_at"`
}
