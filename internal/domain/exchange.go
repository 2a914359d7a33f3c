package domain

import (
	"time"
)

type ExchangeStatus string

const (
	ExchangeHoldActive ExchangeStatus = "hold_active"
	ExchangeCompleted  ExchangeStatus = "completed"
	ExchangeCanceled   ExchangeStatus = "canceled"
)

// Exchange tracks a courier-fee escrow between two pharmacies. It is created
// atomically with the 50/50 hold and is terminal once completed or canceled.
type Exchange struct {
	ID           string         `json:"id" db:"id"`
	AID          string         `json:"a_id" db:"a_id"`
	BID          string         `json:"b_id" db:"b_id"`
	CourierFee   int64          `json:"courier_fee" db:"courier_fee"`
	HoldA        int64          `json:"hold_a" db:"hold_a"`
	HoldB        int64          `json:"hold_b" db:"hold_b"`
	Currency     string         `json:"currency" db:"currency"`
	Status       ExchangeStatus `json:"status" db:"status"`
	CourierID    string         `json:"courier_id,omitempty" db:"courier_id"`
	SaleAmount   int64          `json:"sale_amount,omitempty" db:"sale_amount"`
	SellerID     string         `json:"seller_id,omitempty" db:"seller_id"`
	BuyerID      string         `json:"buyer_id,omitempty" db:"buyer_id"`
	CancelReason string         `json:"cancel_reason,omitempty" db:"cancel_reason"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty" db:"completed_at"`
	CanceledAt   *time.Time     `json:"canceled_at,omitempty" db:"canceled_at"`
}

// SplitCourierFee computes the 50/50 hold split. The odd unit lands on B so
// the halves always sum back to the fee.
func SplitCourierFee(courierFee int64) (halfA, halfB int64) {
	halfA = courierFee / 2
	halfB = courierFee - halfA
	return halfA, halfB
}
