package domain

import (
	"time"
)

type ProposalType string

const (
	ProposalPurchase ProposalType = "purchase"
	ProposalExchange ProposalType = "exchange"
)

type ProposalStatus string

const (
	ProposalStatusPending   ProposalStatus = "pending"
	ProposalStatusAccepted  ProposalStatus = "accepted"
	ProposalStatusCompleted ProposalStatus = "completed"
	ProposalStatusCancelled ProposalStatus = "cancelled"
	ProposalStatusRejected  ProposalStatus = "rejected"
)

type ProposalDetails struct {
	Type                    ProposalType `json:"type" db:"type"`
	Quantity                int64        `json:"quantity" db:"quantity"`
	TotalPrice              int64        `json:"total_price,omitempty" db:"total_price"`
	Currency                string       `json:"currency,omitempty" db:"currency"`
	ExchangeInventoryItemID string       `json:"exchange_inventory_item_id,omitempty" db:"exchange_inventory_item_id"`
	ExchangeQuantity        int64        `json:"exchange_quantity,omitempty" db:"exchange_quantity"`
	Notes                   string       `json:"notes,omitempty" db:"notes"`
}

// Reservations records what was locked when the proposal was created. Both
// fields are cleared exactly once on the terminal transition, which makes the
// release idempotent under replay.
type Reservations struct {
	WalletReserved    *int64 `json:"wallet_reserved" db:"wallet_reserved"`
	InventoryReserved *int64 `json:"inventory_reserved" db:"inventory_reserved"`
}

type Proposal struct {
	ID              string          `json:"id" db:"id"`
	FromPharmacyID  string          `json:"from_pharmacy_id" db:"from_pharmacy_id"`
	ToPharmacyID    string          `json:"to_pharmacy_id" db:"to_pharmacy_id"`
	InventoryItemID string          `json:"inventory_item_id" db:"inventory_item_id"`
	Details         ProposalDetails `json:"details"`
	Status          ProposalStatus  `json:"status" db:"status"`
	Reservations    Reservations    `json:"reservations"`
	DeliveryID      string          `json:"delivery_id,omitempty" db:"delivery_id"`
	ExpiresAt       time.Time       `json:"expires_at" db:"expires_at"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "pending"
	DeliveryStatusAssigned  DeliveryStatus = "assigned"
	DeliveryStatusPickedUp  DeliveryStatus = "picked_up"
	DeliveryStatusInTransit DeliveryStatus = "in_transit"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
)

// CanComplete reports whether the courier may finalize the delivery.
func (s DeliveryStatus) CanComplete() bool {
	return s == DeliveryStatusPickedUp || s == DeliveryStatusInTransit
}

// Delivery is created when a proposal is accepted. Courier assignment and the
// pickup/transit transitions are driven by the dispatch system; this service
// only creates the record and finalizes it.
type Delivery struct {
	ID             string         `json:"id" db:"id"`
	ProposalID     string         `json:"proposal_id" db:"proposal_id"`
	FromPharmacyID string         `json:"from_pharmacy_id" db:"from_pharmacy_id"`
	ToPharmacyID   string         `json:"to_pharmacy_id" db:"to_pharmacy_id"`
	CourierID      string         `json:"courier_id,omitempty" db:"courier_id"`
	Status         DeliveryStatus `json:"status" db:"status"`
	ProposalType   ProposalType   `json:"proposal_type" db:"proposal_type"`
	TotalPrice     int64          `json:"total_price" db:"total_price"`
	Currency       string         `json:"currency" db:"currency"`
	CourierFee     int64          `json:"courier_fee" db:"courier_fee"`
	PaymentStatus  string         `json:"payment_status" db:"payment_status"`
	QRCodePickup   string         `json:"qr_code_pickup" db:"qr_code_pickup"`
	QRCodeDelivery string         `json:"qr_code_delivery" db:"qr_code_delivery"`
	PhotoProofURL  string         `json:"photo_proof_url,omitempty" db:"photo_proof_url"`
	Notes          string         `json:"notes,omitempty" db:"notes"`
	AcceptedAt     *time.Time     `json:"accepted_at,omitempty" db:"accepted_at"`
	DeliveredAt    *time.Time     `json:"delivered_at,omitempty" db:"delivered_at"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

// CourierFeeForPurchase is the delivery fee withheld from a purchase
// settlement: 10% of the total, rounded half away from zero.
func CourierFeeForPurchase(totalAmount int64) int64 {
	return (totalAmount*10 + 50) / 100
}
