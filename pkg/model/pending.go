package model

import "time"

const (
	PaymentTypeIncentive       = "incentive_payment"
	PaymentTypeCancellationFee = "cancellation_fee"
	PaymentTypePlatformFee     = "platform_fee"
)

// PendingPayment is a derived line item, never persisted. It is produced by
// the reconciliation engine for display and for selecting which underlying
// fee records get settled by the next payment.
type PendingPayment struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	AmountCents int64     `json:"amount_cents"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	InviteUID   string    `json:"invite_uid"`
	Status      string    `json:"status,omitempty"`
}
