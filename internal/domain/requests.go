package domain

// CreateHoldRequest opens a courier-fee escrow between two pharmacies. The
// idempotency key derives from ExchangeID when present, then IdempotencyKey,
// then the (AID, BID, CourierFee, Currency) composite.
type CreateHoldRequest struct {
	ExchangeID     string `json:"exchangeId"`
	AID            string `json:"aId"`
	BID            string `json:"bId"`
	CourierFee     int64  `json:"courierFee"`
	Currency       string `json:"currency"`
	IdempotencyKey string `json:"idempotencyKey"`
}

type CaptureRequest struct {
	ExchangeID string `json:"exchangeId"`
	CourierID  string `json:"courierId"`
	SaleAmount int64  `json:"saleAmount"`
	SellerID   string `json:"sellerId"`
	BuyerID    string `json:"buyerId"`
}

type CancelRequest struct {
	ExchangeID string `json:"exchangeId"`
	Reason     string `json:"reason"`
}

type CreateProposalRequest struct {
	ToPharmacyID            string       `json:"toPharmacyId"`
	InventoryItemID         string       `json:"inventoryItemId"`
	Type                    ProposalType `json:"type"`
	Quantity                int64        `json:"quantity"`
	TotalPrice              int64        `json:"totalPrice"`
	Currency                string       `json:"currency"`
	ExchangeInventoryItemID string       `json:"exchangeInventoryItemId"`
	ExchangeQuantity        int64        `json:"exchangeQuantity"`
	Notes                   string       `json:"notes"`
}

type CompleteDeliveryRequest struct {
	PhotoProofURL string `json:"photoProofUrl"`
	Notes         string `json:"notes"`
}

type TopupRequest struct {
	UserID   string `json:"userId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Method   string `json:"method"`
	MSISDN   string `json:"msisdn"`
}

type SandboxCreditRequest struct {
	UserID   string `json:"userId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}
