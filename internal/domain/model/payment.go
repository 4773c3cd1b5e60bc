package model

import "time"

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"  // redirected to gateway; awaiting a verified callback
	PaymentStatusVerified PaymentStatus = "verified" // callback signature checked out and reported success
	PaymentStatusFailed   PaymentStatus = "failed"   // gateway reported failure on a verified callback
)

// Payment records one outbound charge attempt. The transaction id is
// generated locally before anything is sent to the gateway, and the row
// is persisted as pending before the user is redirected. A payment is
// consumed exactly once: only a pending payment can transition.
type Payment struct {
	ID          string // UUID
	UserID      string
	PlanTier    Tier   // which tier the user intends to buy
	Gateway     string // "payu" | "phonepe"
	TxnID       string // locally generated, unique per attempt
	AmountPaise int64  // stored in paise (integer), to avoid float errors
	Currency    string
	Status      PaymentStatus
	RefID       string // gateway payment id once known (mihpayid etc.)
	CreatedAt   time.Time
	UpdatedAt   time.Time
	VerifiedAt  *time.Time // set when the callback verified successfully
}
