package proposalservice

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crepmaster/pharmapp/internal/domain"
	"github.com/crepmaster/pharmapp/internal/infrastructure/events"
	"github.com/crepmaster/pharmapp/internal/repositories/repotest"
	"github.com/crepmaster/pharmapp/pkg/config"
)

type subscriptionStub struct {
	eligible bool
	status   string
}

func (s subscriptionStub) Eligible(ctx context.Context, userID string) (bool, string, error) {
	return s.eligible, s.status, nil
}

func newService(t *testing.T, store *repotest.Store, subs domain.SubscriptionValidator) IProposalService {
	t.Helper()
	if subs == nil {
		subs = subscriptionStub{eligible: true, status: "active"}
	}
	cfg := config.EscrowConfig{DefaultCurrency: "XAF", ProposalTTL: 48 * time.Hour}
	return New(store, store.ProposalRepo(), store.DeliveryRepo(), store.InventoryRepo(), store.WalletRepo(), store.LedgerRepo(), subs, events.NewNop(), cfg, zerolog.Nop())
}

func seedItem(store *repotest.Store, id, pharmacyID string, available int64) {
	store.Inventory[id] = domain.InventoryItem{
		ID:                id,
		PharmacyID:        pharmacyID,
		MedicineID:        "med-" + id,
		MedicineName:      "Paracetamol 500mg",
		AvailableQuantity: available,
		TotalQuantity:     available,
	}
}

func purchaseReq(target, itemID string, qty, price int64) domain.CreateProposalRequest {
	return domain.CreateProposalRequest{
		ToPharmacyID:    target,
		InventoryItemID: itemID,
		Type:            domain.ProposalPurchase,
		Quantity:        qty,
		TotalPrice:      price,
	}
}

func TestCreatePurchaseReservesBuyerFunds(t *testing.T) {
	store := repotest.NewStore()
	store.SeedWallet("buyer", 1000)
	seedItem(store, "item-1", "seller", 10)
	svc := newService(t, store, nil)

	p, err := svc.Create(context.Background(), "buyer", purchaseReq("seller", "item-1", 5, 1000))
	require.NoError(t, err)

	assert.Equal(t, domain.ProposalStatusPending, p.Status)
	require.NotNil(t, p.Reservations.WalletReserved)
	assert.Equal(t, int64(1000), *p.Reservations.WalletReserved)
	assert.WithinDuration(t, time.Now().Add(48*time.Hour), p.ExpiresAt, time.Minute)

	assert.Equal(t, int64(0), store.Wallets["buyer"].Available)
	assert.Equal(t, int64(1000), store.Wallets["buyer"].Held)
	assert.Equal(t, 1, store.LedgerByType(domain.LedgerHold))
}

func TestCreatePurchaseInsufficientFundsLeavesNoWrites(t *testing.T) {
	store := repotest.NewStore()
	store.SeedWallet("buyer", 100)
	seedItem(store, "item-1", "seller", 10)
	svc := newService(t, store, nil)

	_, err := svc.Create(context.Background(), "buyer", purchaseReq("seller", "item-1", 5, 1000))
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeInsufficientFunds))

	assert.Equal(t, int64(100), store.Wallets["buyer"].Available)
	assert.Empty(t, store.Proposals)
	assert.Empty(t, store.Ledger)
}

func TestCreatePurchaseInsufficientStock(t *testing.T) {
	store := repotest.NewStore()
	store.SeedWallet("buyer", 1000)
	seedItem(store, "item-1", "seller", 2)
	svc := newService(t, store, nil)

	_, err := svc.Create(context.Background(), "buyer", purchaseReq("seller", "item-1", 5, 1000))
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeInsufficientQuantity))
}

func TestCreateRejectsExpiredBatch(t *testing.T) {
	store := repotest.NewStore()
	store.SeedWallet("buyer", 1000)
	seedItem(store, "item-1", "seller", 10)
	expired := time.Now().Add(-24 * time.Hour)
	item := store.Inventory["item-1"]
	item.ExpiresAt = &expired
	store.Inventory["item-1"] = item
	svc := newService(t, store, nil)

	_, err := svc.Create(context.Background(), "buyer", purchaseReq("seller", "item-1", 5, 1000))
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeInventoryExpired))
}

func TestCreateRejectsItemNotOwnedByTarget(t *testing.T) {
	store := repotest.NewStore()
	store.SeedWallet("buyer", 1000)
	seedItem(store, "item-1", "someone-else", 10)
	svc := newService(t, store, nil)

	_, err := svc.Create(context.Background(), "buyer", purchaseReq("seller", "item-1", 5, 1000))
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeInventoryNotFound))
}

func TestCreateRequiresEligibleSubscription(t *testing.T) {
	store := repotest.NewStore()
	store.SeedWallet("buyer", 1000)
	seedItem(store, "item-1", "seller", 10)
	svc := newService(t, store, subscriptionStub{eligible: false, status: "expired"})

	_, err := svc.Create(context.Background(), "buyer", purchaseReq("seller", "item-1", 5, 1000))
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeSubscriptionRequired))
}

func TestCreateExchangeReservesOfferedStock(t *testing.T) {
	store := repotest.NewStore()
	seedItem(store, "item-target", "seller", 10)
	seedItem(store, "item-offered", "buyer", 8)
	svc := newService(t, store, nil)

	p, err := svc.Create(context.Background(), "buyer", domain.CreateProposalRequest{
		ToPharmacyID:            "seller",
		InventoryItemID:         "item-target",
		Type:                    domain.ProposalExchange,
		Quantity:                5,
		ExchangeInventoryItemID: "item-offered",
		ExchangeQuantity:        4,
	})
	require.NoError(t, err)

	require.NotNil(t, p.Reservations.InventoryReserved)
	assert.Equal(t, int64(4), *p.Reservations.InventoryReserved)
	assert.Equal(t, int64(4), store.Inventory["item-offered"].AvailableQuantity)
	assert.Equal(t, int64(4), store.Inventory["item-offered"].ReservedQuantity)
}

func TestCreateValidation(t *testing.T) {
	store := repotest.NewStore()
	svc := newService(t, store, nil)

	_, err := svc.Create(context.Background(), "buyer", domain.CreateProposalRequest{
		ToPharmacyID:    "buyer",
		InventoryItemID: "",
		Type:            "barter",
	})
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeValidation))
}

func TestAcceptMovesHeldToDeductedAndCreatesDelivery(t *testing.T) {
	store := repotest.NewStore()
	store.SeedWallet("buyer", 1000)
	seedItem(store, "item-1", "seller", 10)
	svc := newService(t, store, nil)

	p, err := svc.Create(context.Background(), "buyer", purchaseReq("seller", "item-1", 5, 1000))
	require.NoError(t, err)

	accepted, err := svc.Accept(context.Background(), p.ID, "seller", "ready friday")
	require.NoError(t, err)
	assert.Equal(t, domain.ProposalStatusAccepted, accepted.Status)
	require.NotEmpty(t, accepted.DeliveryID)

	assert.Equal(t, int64(0), store.Wallets["buyer"].Held)
	assert.Equal(t, int64(1000), store.Wallets["buyer"].Deducted)

	d := store.Deliveries[accepted.DeliveryID]
	assert.Equal(t, p.ID, d.ProposalID)
	assert.Equal(t, "seller", d.FromPharmacyID)
	assert.Equal(t, "buyer", d.ToPharmacyID)
	assert.Equal(t, domain.DeliveryStatusPending, d.Status)
	assert.NotEmpty(t, d.QRCodePickup)
	assert.NotEmpty(t, d.QRCodeDelivery)
}

func TestAcceptOnlyByTargetPharmacy(t *testing.T) {
	store := repotest.NewStore()
	store.SeedWallet("buyer", 1000)
	seedItem(store, "item-1", "seller", 10)
	svc := newService(t, store, nil)

	p, err := svc.Create(context.Background(), "buyer", purchaseReq("seller", "item-1", 5, 1000))
	require.NoError(t, err)

	_, err = svc.Accept(context.Background(), p.ID, "buyer", "")
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodePermissionDenied))
	assert.Equal(t, int64(1000), store.Wallets["buyer"].Held)
}

func TestAcceptRejectsNonPending(t *testing.T) {
	store := repotest.NewStore()
	store.SeedWallet("buyer", 1000)
	seedItem(store, "item-1", "seller", 10)
	svc := newService(t, store, nil)

	p, err := svc.Create(context.Background(), "buyer", purchaseReq("seller", "item-1", 5, 1000))
	require.NoError(t, err)
	_, err = svc.Accept(context.Background(), p.ID, "seller", "")
	require.NoError(t, err)

	_, err = svc.Accept(context.Background(), p.ID, "seller", "")
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeProposalInvalidStatus))
}

func TestCancelByCreatorReleasesFunds(t *testing.T) {
	store := repotest.NewStore()
	store.SeedWallet("buyer", 1000)
	seedItem(store, "item-1", "seller", 10)
	svc := newService(t, store, nil)

	p, err := svc.Create(context.Background(), "buyer", purchaseReq("seller", "item-1", 5, 1000))
	require.NoError(t, err)

	closed, err := svc.Cancel(context.Background(), p.ID, "buyer", "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, domain.ProposalStatusCancelled, closed.Status)
	assert.Nil(t, closed.Reservations.WalletReserved)

	assert.Equal(t, int64(1000), store.Wallets["buyer"].Available)
	assert.Equal(t, int64(0), store.Wallets["buyer"].Held)
	assert.Equal(t, 1, store.LedgerByType(domain.LedgerHoldRelease))
}

func TestCancelByTargetRejects(t *testing.T) {
	store := repotest.NewStore()
	seedItem(store, "item-target", "seller", 10)
	seedItem(store, "item-offered", "buyer", 8)
	svc := newService(t, store, nil)

	p, err := svc.Create(context.Background(), "buyer", domain.CreateProposalRequest{
		ToPharmacyID:            "seller",
		InventoryItemID:         "item-target",
		Type:                    domain.ProposalExchange,
		Quantity:                5,
		ExchangeInventoryItemID: "item-offered",
		ExchangeQuantity:        4,
	})
	require.NoError(t, err)

	closed, err := svc.Cancel(context.Background(), p.ID, "seller", "not interested")
	require.NoError(t, err)
	assert.Equal(t, domain.ProposalStatusRejected, closed.Status)

	assert.Equal(t, int64(8), store.Inventory["item-offered"].AvailableQuantity)
	assert.Equal(t, int64(0), store.Inventory["item-offered"].ReservedQuantity)
}

func TestCancelByOutsiderDenied(t *testing.T) {
	store := repotest.NewStore()
	store.SeedWallet("buyer", 1000)
	seedItem(store, "item-1", "seller", 10)
	svc := newService(t, store, nil)

	p, err := svc.Create(context.Background(), "buyer", purchaseReq("seller", "item-1", 5, 1000))
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), p.ID, "stranger", "")
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodePermissionDenied))
}

func TestCancelAcceptedProposalFails(t *testing.T) {
	store := repotest.NewStore()
	store.SeedWallet("buyer", 1000)
	seedItem(store, "item-1", "seller", 10)
	svc := newService(t, store, nil)

	p, err := svc.Create(context.Background(), "buyer", purchaseReq("seller", "item-1", 5, 1000))
	require.NoError(t, err)
	_, err = svc.Accept(context.Background(), p.ID, "seller", "")
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), p.ID, "buyer", "")
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeProposalInvalidStatus))
	assert.Equal(t, int64(1000), store.Wallets["buyer"].Deducted)
}

func assignCourier(store *repotest.Store, deliveryID, courierID string) {
	d := store.Deliveries[deliveryID]
	d.CourierID = courierID
	d.Status = domain.DeliveryStatusPickedUp
	store.Deliveries[deliveryID] = d
}

func TestCompleteDeliverySettlesPurchase(t *testing.T) {
	store := repotest.NewStore()
	store.SeedWallet("buyer", 1000)
	seedItem(store, "item-1", "seller", 10)
	svc := newService(t, store, nil)

	p, err := svc.Create(context.Background(), "buyer", purchaseReq("seller", "item-1", 5, 1000))
	require.NoError(t, err)
	accepted, err := svc.Accept(context.Background(), p.ID, "seller", "")
	require.NoError(t, err)
	assignCourier(store, accepted.DeliveryID, "courier-1")
	before := store.TotalBalance()

	d, err := svc.CompleteDelivery(context.Background(), accepted.DeliveryID, "courier-1", domain.CompleteDeliveryRequest{
		PhotoProofURL: "https://cdn.example.com/proof.jpg",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DeliveryStatusDelivered, d.Status)
	assert.Equal(t, int64(100), d.CourierFee)
	assert.Equal(t, "paid", d.PaymentStatus)

	assert.Equal(t, int64(0), store.Wallets["buyer"].Deducted)
	assert.Equal(t, int64(900), store.Wallets["seller"].Available)
	assert.Equal(t, int64(100), store.Wallets["courier-1"].Available)
	assert.Equal(t, before, store.TotalBalance())

	assert.Equal(t, domain.ProposalStatusCompleted, store.Proposals[p.ID].Status)
	assert.Equal(t, 1, store.LedgerByType(domain.LedgerDeliveryPayment))
}

func TestCompleteDeliveryTransfersExchangedStock(t *testing.T) {
	store := repotest.NewStore()
	seedItem(store, "item-target", "seller", 10)
	seedItem(store, "item-offered", "buyer", 8)
	svc := newService(t, store, nil)

	p, err := svc.Create(context.Background(), "buyer", domain.CreateProposalRequest{
		ToPharmacyID:            "seller",
		InventoryItemID:         "item-target",
		Type:                    domain.ProposalExchange,
		Quantity:                5,
		ExchangeInventoryItemID: "item-offered",
		ExchangeQuantity:        4,
	})
	require.NoError(t, err)
	accepted, err := svc.Accept(context.Background(), p.ID, "seller", "")
	require.NoError(t, err)
	assignCourier(store, accepted.DeliveryID, "courier-1")

	d, err := svc.CompleteDelivery(context.Background(), accepted.DeliveryID, "courier-1", domain.CompleteDeliveryRequest{})
	require.NoError(t, err)
	assert.Equal(t, "n/a", d.PaymentStatus)
	assert.Zero(t, d.CourierFee)

	offered := store.Inventory["item-offered"]
	assert.Equal(t, int64(0), offered.ReservedQuantity)
	assert.Equal(t, int64(4), offered.TotalQuantity)

	var gained domain.InventoryItem
	for _, item := range store.Inventory {
		if item.PharmacyID == "seller" && item.MedicineID == "med-item-offered" {
			gained = item
			break
		}
	}
	require.NotEmpty(t, gained.ID)
	assert.Equal(t, int64(4), gained.AvailableQuantity)
}

func TestCompleteDeliveryWrongCourier(t *testing.T) {
	store := repotest.NewStore()
	store.SeedWallet("buyer", 1000)
	seedItem(store, "item-1", "seller", 10)
	svc := newService(t, store, nil)

	p, err := svc.Create(context.Background(), "buyer", purchaseReq("seller", "item-1", 5, 1000))
	require.NoError(t, err)
	accepted, err := svc.Accept(context.Background(), p.ID, "seller", "")
	require.NoError(t, err)
	assignCourier(store, accepted.DeliveryID, "courier-1")

	_, err = svc.CompleteDelivery(context.Background(), accepted.DeliveryID, "courier-2", domain.CompleteDeliveryRequest{})
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodePermissionDenied))
	assert.Equal(t, int64(1000), store.Wallets["buyer"].Deducted)
}

func TestCompleteDeliveryRequiresPickedUp(t *testing.T) {
	store := repotest.NewStore()
	store.SeedWallet("buyer", 1000)
	seedItem(store, "item-1", "seller", 10)
	svc := newService(t, store, nil)

	p, err := svc.Create(context.Background(), "buyer", purchaseReq("seller", "item-1", 5, 1000))
	require.NoError(t, err)
	accepted, err := svc.Accept(context.Background(), p.ID, "seller", "")
	require.NoError(t, err)

	d := store.Deliveries[accepted.DeliveryID]
	d.CourierID = "courier-1"
	store.Deliveries[accepted.DeliveryID] = d

	_, err = svc.CompleteDelivery(context.Background(), accepted.DeliveryID, "courier-1", domain.CompleteDeliveryRequest{})
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeDeliveryInvalidStatus))
}

func TestCourierFeeRounding(t *testing.T) {
	assert.Equal(t, int64(100), domain.CourierFeeForPurchase(1000))
	assert.Equal(t, int64(100), domain.CourierFeeForPurchase(999))
	assert.Equal(t, int64(99), domain.CourierFeeForPurchase(994))
	assert.Equal(t, int64(0), domain.CourierFeeForPurchase(0))
}
