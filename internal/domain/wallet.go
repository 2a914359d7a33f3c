package domain

import (
	"time"
)

// BalanceField names one of the three wallet buckets. Money only moves between
// buckets through balanced shifts; it enters through webhook credits and
// leaves through delivery settlement.
type BalanceField string

const (
	BalanceAvailable BalanceField = "available"
	BalanceHeld      BalanceField = "held"
	BalanceDeducted  BalanceField = "deducted"
)

type Wallet struct {
	UserID    string    `json:"user_id" db:"user_id"`
	Available int64     `json:"available" db:"available"`
	Held      int64     `json:"held" db:"held"`
	Deducted  int64     `json:"deducted" db:"deducted"`
	Currency  string    `json:"currency" db:"currency"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Total is the sum of all buckets, used by reconciliation and tests.
func (w *Wallet) Total() int64 {
	return w.Available + w.Held + w.Deducted
}

type LedgerEntryType string

const (
	LedgerHold            LedgerEntryType = "hold"
	LedgerHoldRelease     LedgerEntryType = "hold_release"
	LedgerCourierPayment  LedgerEntryType = "courier_payment"
	LedgerTopup           LedgerEntryType = "topup"
	LedgerPurchase        LedgerEntryType = "pharmaceutical_purchase"
	LedgerSale            LedgerEntryType = "pharmaceutical_sale"
	LedgerDeliveryPayment LedgerEntryType = "delivery_payment"
	LedgerSandboxCredit   LedgerEntryType = "sandbox_credit"
)

// LedgerEntry is an immutable record of one balance movement. Entries are only
// ever appended.
type LedgerEntry struct {
	ID         string          `json:"id" db:"id"`
	UserID     string          `json:"user_id" db:"user_id"`
	Type       LedgerEntryType `json:"type" db:"type"`
	Amount     int64           `json:"amount" db:"amount"`
	Currency   string          `json:"currency" db:"currency"`
	From       string          `json:"from,omitempty" db:"from_party"`
	To         string          `json:"to,omitempty" db:"to_party"`
	ExchangeID string          `json:"exchange_id,omitempty" db:"exchange_id"`
	ProposalID string          `json:"proposal_id,omitempty" db:"proposal_id"`
	PaymentID  string          `json:"payment_id,omitempty" db:"payment_id"`
	Provider   string          `json:"provider,omitempty" db:"provider"`
	Reason     string          `json:"reason,omitempty" db:"reason"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}
