package domain

import (
	"encoding/json"
	"time"
)

type PaymentProvider string

const (
	ProviderMomo   PaymentProvider = "mtn_momo"
	ProviderOrange PaymentProvider = "orange_money"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentSucceeded PaymentStatus = "succeeded"
)

type Payment struct {
	ID         string        `json:"id" db:"id"`
	UserID     string        `json:"user_id" db:"user_id"`
	Method     string        `json:"method" db:"method"`
	Amount     int64         `json:"amount" db:"amount"`
	Currency   string        `json:"currency" db:"currency"`
	MSISDN     string        `json:"msisdn,omitempty" db:"msisdn"`
	Status     PaymentStatus `json:"status" db:"status"`
	GatewayRef string        `json:"gateway_ref,omitempty" db:"gateway_ref"`
	CreatedAt  time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at" db:"updated_at"`
}

// WebhookEvent is the raw inbound callback, kept for reconciliation and
// expired by retention policy via ExpireAt.
type WebhookEvent struct {
	ID            string          `json:"id" db:"id"`
	Provider      PaymentProvider `json:"provider" db:"provider"`
	ProviderTxnID string          `json:"provider_txn_id" db:"provider_txn_id"`
	PaymentID     string          `json:"payment_id" db:"payment_id"`
	Headers       json.RawMessage `json:"headers,omitempty" db:"headers"`
	Payload       json.RawMessage `json:"payload,omitempty" db:"payload"`
	ReceivedAt    time.Time       `json:"received_at" db:"received_at"`
	ExpireAt      time.Time       `json:"expire_at" db:"expire_at"`
}

// WebhookNotice is the provider-agnostic extraction of a callback body.
// PaymentID and Amount may be absent; the processor still acknowledges.
type WebhookNotice struct {
	Provider      PaymentProvider
	ProviderTxnID string
	PaymentID     string
	Amount        int64
	Currency      string
}
