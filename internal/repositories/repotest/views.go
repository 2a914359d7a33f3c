package repotest

import (
	"context"
	"time"

	"github.com/crepmaster/pharmapp/internal/domain"
	"github.com/crepmaster/pharmapp/internal/infrastructure/database"
	"github.com/crepmaster/pharmapp/internal/repositories/deliveryrepo"
	"github.com/crepmaster/pharmapp/internal/repositories/exchangerepo"
	"github.com/crepmaster/pharmapp/internal/repositories/idempotencyrepo"
	"github.com/crepmaster/pharmapp/internal/repositories/inventoryrepo"
	"github.com/crepmaster/pharmapp/internal/repositories/ledgerrepo"
	"github.com/crepmaster/pharmapp/internal/repositories/paymentrepo"
	"github.com/crepmaster/pharmapp/internal/repositories/proposalrepo"
	"github.com/crepmaster/pharmapp/internal/repositories/walletrepo"
)

// Repository views over the shared store. The store's own methods carry
// entity-qualified names where interfaces would collide; these adapters map
// them back onto the repository contracts.

func (s *Store) WalletRepo() walletrepo.IWalletRepository           { return s }
func (s *Store) LedgerRepo() ledgerrepo.ILedgerRepository           { return s }
func (s *Store) IdempotencyRepo() idempotencyrepo.IIdempotencyRepository {
	return s
}
func (s *Store) ExchangeRepo() exchangerepo.IExchangeRepository { return exchangeView{s} }
func (s *Store) ProposalRepo() proposalrepo.IProposalRepository { return proposalView{s} }
func (s *Store) DeliveryRepo() deliveryrepo.IDeliveryRepository { return deliveryView{s} }
func (s *Store) InventoryRepo() inventoryrepo.IInventoryRepository {
	return inventoryView{s}
}
func (s *Store) PaymentRepo() paymentrepo.IPaymentRepository { return paymentView{s} }

type exchangeView struct{ s *Store }

func (v exchangeView) Create(ctx context.Context, q database.Querier, exchange *domain.Exchange) error {
	return v.s.Create(ctx, q, exchange)
}

func (v exchangeView) Get(ctx context.Context, q database.Querier, exchangeID string) (*domain.Exchange, error) {
	return v.s.GetExchange(ctx, q, exchangeID)
}

func (v exchangeView) GetForUpdate(ctx context.Context, q database.Querier, exchangeID string) (*domain.Exchange, error) {
	return v.s.GetExchange(ctx, q, exchangeID)
}

func (v exchangeView) MarkCompleted(ctx context.Context, q database.Querier, exchange *domain.Exchange) error {
	return v.s.MarkCompleted(ctx, q, exchange)
}

func (v exchangeView) MarkCanceled(ctx context.Context, q database.Querier, exchangeID, reason string) error {
	return v.s.MarkCanceled(ctx, q, exchangeID, reason)
}

func (v exchangeView) ListExpiredHolds(ctx context.Context, q database.Querier, cutoff time.Time, after *exchangerepo.Cursor, limit int) ([]domain.Exchange, error) {
	return v.s.ListExpiredHolds(ctx, q, cutoff, after, limit)
}

type proposalView struct{ s *Store }

func (v proposalView) Create(ctx context.Context, q database.Querier, proposal *domain.Proposal) error {
	return v.s.CreateProposal(ctx, q, proposal)
}

func (v proposalView) GetForUpdate(ctx context.Context, q database.Querier, proposalID string) (*domain.Proposal, error) {
	return v.s.GetProposalForUpdate(ctx, q, proposalID)
}

func (v proposalView) MarkAccepted(ctx context.Context, q database.Querier, proposalID, deliveryID, notes string) error {
	return v.s.MarkAccepted(ctx, q, proposalID, deliveryID, notes)
}

func (v proposalView) MarkClosed(ctx context.Context, q database.Querier, proposalID string, status domain.ProposalStatus, reason string) error {
	return v.s.MarkClosed(ctx, q, proposalID, status, reason)
}

type deliveryView struct{ s *Store }

func (v deliveryView) Create(ctx context.Context, q database.Querier, delivery *domain.Delivery) error {
	return v.s.CreateDelivery(ctx, q, delivery)
}

func (v deliveryView) GetForUpdate(ctx context.Context, q database.Querier, deliveryID string) (*domain.Delivery, error) {
	return v.s.GetDeliveryForUpdate(ctx, q, deliveryID)
}

func (v deliveryView) MarkDelivered(ctx context.Context, q database.Querier, deliveryID, photoProofURL, notes, paymentStatus string, courierFee int64) error {
	return v.s.MarkDelivered(ctx, q, deliveryID, photoProofURL, notes, paymentStatus, courierFee)
}

type inventoryView struct{ s *Store }

func (v inventoryView) GetForUpdate(ctx context.Context, q database.Querier, itemID string) (*domain.InventoryItem, error) {
	return v.s.GetInventoryForUpdate(ctx, q, itemID)
}

func (v inventoryView) Reserve(ctx context.Context, q database.Querier, itemID string, quantity int64) error {
	return v.s.Reserve(ctx, q, itemID, quantity)
}

func (v inventoryView) Release(ctx context.Context, q database.Querier, itemID string, quantity int64) error {
	return v.s.Release(ctx, q, itemID, quantity)
}

func (v inventoryView) ConsumeReserved(ctx context.Context, q database.Querier, itemID string, quantity int64) error {
	return v.s.ConsumeReserved(ctx, q, itemID, quantity)
}

func (v inventoryView) AddStock(ctx context.Context, q database.Querier, item *domain.InventoryItem) error {
	return v.s.AddStock(ctx, q, item)
}

type paymentView struct{ s *Store }

func (v paymentView) CreateIntent(ctx context.Context, q database.Querier, payment *domain.Payment) error {
	return v.s.CreateIntent(ctx, q, payment)
}

func (v paymentView) GetForUpdate(ctx context.Context, q database.Querier, paymentID string) (*domain.Payment, error) {
	return v.s.GetPaymentForUpdate(ctx, q, paymentID)
}

func (v paymentView) UpsertSucceeded(ctx context.Context, q database.Querier, payment *domain.Payment) error {
	return v.s.UpsertSucceeded(ctx, q, payment)
}

func (v paymentView) LogWebhook(ctx context.Context, q database.Querier, event *domain.WebhookEvent) error {
	return v.s.LogWebhook(ctx, q, event)
}
