// Package repotest provides an in-memory implementation of every repository
// interface plus a TxRunner whose rollback restores a snapshot, so service
// tests can assert that failed transactions leave zero writes behind.
package repotest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/crepmaster/pharmapp/internal/domain"
	"github.com/crepmaster/pharmapp/internal/infrastructure/database"
	"github.com/crepmaster/pharmapp/internal/repositories/exchangerepo"
)

type Store struct {
	Wallets     map[string]domain.Wallet
	Exchanges   map[string]domain.Exchange
	Proposals   map[string]domain.Proposal
	Deliveries  map[string]domain.Delivery
	Inventory   map[string]domain.InventoryItem
	Payments    map[string]domain.Payment
	WebhookLogs map[string]domain.WebhookEvent
	Ledger      []domain.LedgerEntry
	Keys        map[string]bool

	now time.Time
}

func NewStore() *Store {
	return &Store{
		Wallets:     map[string]domain.Wallet{},
		Exchanges:   map[string]domain.Exchange{},
		Proposals:   map[string]domain.Proposal{},
		Deliveries:  map[string]domain.Delivery{},
		Inventory:   map[string]domain.InventoryItem{},
		Payments:    map[string]domain.Payment{},
		WebhookLogs: map[string]domain.WebhookEvent{},
		Keys:        map[string]bool{},
		now:         time.Now(),
	}
}

// Querier returns a placeholder connection. The fake repositories never touch
// it; it only satisfies constructor signatures.
func (s *Store) Querier() database.Querier {
	return nopQuerier{}
}

// WithinTx snapshots the store, runs fn, and restores the snapshot when fn
// fails, mirroring transactional rollback.
func (s *Store) WithinTx(ctx context.Context, fn func(q database.Querier) error) error {
	snapshot := s.clone()
	if err := fn(nopQuerier{}); err != nil {
		s.restore(snapshot)
		return err
	}
	return nil
}

func (s *Store) clone() *Store {
	c := NewStore()
	for k, v := range s.Wallets {
		c.Wallets[k] = v
	}
	for k, v := range s.Exchanges {
		c.Exchanges[k] = v
	}
	for k, v := range s.Proposals {
		v.Reservations = cloneReservations(v.Reservations)
		c.Proposals[k] = v
	}
	for k, v := range s.Deliveries {
		c.Deliveries[k] = v
	}
	for k, v := range s.Inventory {
		c.Inventory[k] = v
	}
	for k, v := range s.Payments {
		c.Payments[k] = v
	}
	for k, v := range s.WebhookLogs {
		c.WebhookLogs[k] = v
	}
	c.Ledger = append([]domain.LedgerEntry(nil), s.Ledger...)
	for k, v := range s.Keys {
		c.Keys[k] = v
	}
	return c
}

func (s *Store) restore(snapshot *Store) {
	s.Wallets = snapshot.Wallets
	s.Exchanges = snapshot.Exchanges
	s.Proposals = snapshot.Proposals
	s.Deliveries = snapshot.Deliveries
	s.Inventory = snapshot.Inventory
	s.Payments = snapshot.Payments
	s.WebhookLogs = snapshot.WebhookLogs
	s.Ledger = snapshot.Ledger
	s.Keys = snapshot.Keys
}

func cloneReservations(r domain.Reservations) domain.Reservations {
	var out domain.Reservations
	if r.WalletReserved != nil {
		v := *r.WalletReserved
		out.WalletReserved = &v
	}
	if r.InventoryReserved != nil {
		v := *r.InventoryReserved
		out.InventoryReserved = &v
	}
	return out
}

// SeedWallet adds a wallet with the given available balance.
func (s *Store) SeedWallet(userID string, available int64) {
	s.Wallets[userID] = domain.Wallet{
		UserID:    userID,
		Available: available,
		Currency:  "XAF",
		UpdatedAt: s.now,
	}
}

// TotalBalance sums every bucket of every wallet, for conservation checks.
func (s *Store) TotalBalance() int64 {
	var total int64
	for _, w := range s.Wallets {
		total += w.Available + w.Held + w.Deducted
	}
	return total
}

// LedgerByType counts appended entries per type.
func (s *Store) LedgerByType(t domain.LedgerEntryType) int {
	n := 0
	for _, e := range s.Ledger {
		if e.Type == t {
			n++
		}
	}
	return n
}

// --- wallets ---

func (s *Store) Get(ctx context.Context, q database.Querier, userID string) (*domain.Wallet, error) {
	w, ok := s.Wallets[userID]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (s *Store) GetForUpdate(ctx context.Context, q database.Querier, userID string) (*domain.Wallet, error) {
	return s.Get(ctx, q, userID)
}

func (s *Store) GetPairForUpdate(ctx context.Context, q database.Querier, userID1, userID2 string) (*domain.Wallet, *domain.Wallet, error) {
	w1, _ := s.Get(ctx, q, userID1)
	w2, _ := s.Get(ctx, q, userID2)
	return w1, w2, nil
}

func (s *Store) Shift(ctx context.Context, q database.Querier, userID string, from, to domain.BalanceField, amount int64) error {
	w, ok := s.Wallets[userID]
	if !ok || *balanceField(&w, from) < amount {
		return domain.ErrInsufficientFunds(fmt.Sprintf("user %s: %s < %d", userID, from, amount))
	}
	*balanceField(&w, from) -= amount
	*balanceField(&w, to) += amount
	s.Wallets[userID] = w
	return nil
}

func (s *Store) Credit(ctx context.Context, q database.Querier, userID string, field domain.BalanceField, amount int64, currency string) error {
	w, ok := s.Wallets[userID]
	if !ok {
		w = domain.Wallet{UserID: userID, Currency: currency}
	}
	*balanceField(&w, field) += amount
	s.Wallets[userID] = w
	return nil
}

func (s *Store) Debit(ctx context.Context, q database.Querier, userID string, field domain.BalanceField, amount int64) error {
	w, ok := s.Wallets[userID]
	if !ok || *balanceField(&w, field) < amount {
		return domain.ErrInsufficientFunds(fmt.Sprintf("user %s: %s < %d", userID, field, amount))
	}
	*balanceField(&w, field) -= amount
	s.Wallets[userID] = w
	return nil
}

func balanceField(w *domain.Wallet, field domain.BalanceField) *int64 {
	switch field {
	case domain.BalanceAvailable:
		return &w.Available
	case domain.BalanceHeld:
		return &w.Held
	default:
		return &w.Deducted
	}
}

// --- ledger ---

func (s *Store) Append(ctx context.Context, q database.Querier, entry *domain.LedgerEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.CreatedAt = s.now
	s.Ledger = append(s.Ledger, *entry)
	return nil
}

func (s *Store) ListByUser(ctx context.Context, q database.Querier, userID string, limit, offset int) ([]domain.LedgerEntry, error) {
	var out []domain.LedgerEntry
	for _, e := range s.Ledger {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- exchanges ---

func (s *Store) Create(ctx context.Context, q database.Querier, exchange *domain.Exchange) error {
	exchange.CreatedAt = s.now
	exchange.UpdatedAt = s.now
	s.Exchanges[exchange.ID] = *exchange
	return nil
}

func (s *Store) GetExchange(ctx context.Context, q database.Querier, exchangeID string) (*domain.Exchange, error) {
	ex, ok := s.Exchanges[exchangeID]
	if !ok {
		return nil, nil
	}
	return &ex, nil
}

func (s *Store) MarkCompleted(ctx context.Context, q database.Querier, exchange *domain.Exchange) error {
	ex := s.Exchanges[exchange.ID]
	now := s.now
	ex.Status = domain.ExchangeCompleted
	ex.CourierID = exchange.CourierID
	ex.SaleAmount = exchange.SaleAmount
	ex.SellerID = exchange.SellerID
	ex.BuyerID = exchange.BuyerID
	ex.CompletedAt = &now
	ex.UpdatedAt = now
	s.Exchanges[exchange.ID] = ex
	return nil
}

func (s *Store) MarkCanceled(ctx context.Context, q database.Querier, exchangeID, reason string) error {
	ex := s.Exchanges[exchangeID]
	now := s.now
	ex.Status = domain.ExchangeCanceled
	ex.CancelReason = reason
	ex.CanceledAt = &now
	ex.UpdatedAt = now
	s.Exchanges[exchangeID] = ex
	return nil
}

func (s *Store) ListExpiredHolds(ctx context.Context, q database.Querier, cutoff time.Time, after *exchangerepo.Cursor, limit int) ([]domain.Exchange, error) {
	var all []domain.Exchange
	for _, ex := range s.Exchanges {
		if ex.Status == domain.ExchangeHoldActive && ex.CreatedAt.Before(cutoff) {
			all = append(all, ex)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})

	var out []domain.Exchange
	for _, ex := range all {
		if after != nil {
			if ex.CreatedAt.Before(after.CreatedAt) {
				continue
			}
			if ex.CreatedAt.Equal(after.CreatedAt) && ex.ID <= after.ID {
				continue
			}
		}
		out = append(out, ex)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// --- proposals ---

func (s *Store) CreateProposal(ctx context.Context, q database.Querier, p *domain.Proposal) error {
	p.CreatedAt = s.now
	p.UpdatedAt = s.now
	clone := *p
	clone.Reservations = cloneReservations(p.Reservations)
	s.Proposals[p.ID] = clone
	return nil
}

func (s *Store) GetProposalForUpdate(ctx context.Context, q database.Querier, proposalID string) (*domain.Proposal, error) {
	p, ok := s.Proposals[proposalID]
	if !ok {
		return nil, nil
	}
	p.Reservations = cloneReservations(p.Reservations)
	return &p, nil
}

func (s *Store) MarkAccepted(ctx context.Context, q database.Querier, proposalID, deliveryID, notes string) error {
	p := s.Proposals[proposalID]
	p.Status = domain.ProposalStatusAccepted
	p.DeliveryID = deliveryID
	p.UpdatedAt = s.now
	s.Proposals[proposalID] = p
	return nil
}

func (s *Store) MarkClosed(ctx context.Context, q database.Querier, proposalID string, status domain.ProposalStatus, reason string) error {
	p := s.Proposals[proposalID]
	p.Status = status
	p.Reservations = domain.Reservations{}
	p.UpdatedAt = s.now
	s.Proposals[proposalID] = p
	return nil
}

// --- deliveries ---

func (s *Store) CreateDelivery(ctx context.Context, q database.Querier, d *domain.Delivery) error {
	d.CreatedAt = s.now
	d.UpdatedAt = s.now
	s.Deliveries[d.ID] = *d
	return nil
}

func (s *Store) GetDeliveryForUpdate(ctx context.Context, q database.Querier, deliveryID string) (*domain.Delivery, error) {
	d, ok := s.Deliveries[deliveryID]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (s *Store) MarkDelivered(ctx context.Context, q database.Querier, deliveryID, photoProofURL, notes, paymentStatus string, courierFee int64) error {
	d := s.Deliveries[deliveryID]
	now := s.now
	d.Status = domain.DeliveryStatusDelivered
	d.PhotoProofURL = photoProofURL
	d.Notes = notes
	d.PaymentStatus = paymentStatus
	d.CourierFee = courierFee
	d.DeliveredAt = &now
	d.UpdatedAt = now
	s.Deliveries[deliveryID] = d
	return nil
}

// --- inventory ---

func (s *Store) GetInventoryForUpdate(ctx context.Context, q database.Querier, itemID string) (*domain.InventoryItem, error) {
	item, ok := s.Inventory[itemID]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (s *Store) Reserve(ctx context.Context, q database.Querier, itemID string, quantity int64) error {
	item, ok := s.Inventory[itemID]
	if !ok || item.AvailableQuantity < quantity {
		return domain.ErrInsufficientQuantity(item.AvailableQuantity, quantity)
	}
	item.AvailableQuantity -= quantity
	item.ReservedQuantity += quantity
	s.Inventory[itemID] = item
	return nil
}

func (s *Store) Release(ctx context.Context, q database.Querier, itemID string, quantity int64) error {
	item := s.Inventory[itemID]
	item.AvailableQuantity += quantity
	item.ReservedQuantity -= quantity
	s.Inventory[itemID] = item
	return nil
}

func (s *Store) ConsumeReserved(ctx context.Context, q database.Querier, itemID string, quantity int64) error {
	item := s.Inventory[itemID]
	item.ReservedQuantity -= quantity
	item.TotalQuantity -= quantity
	s.Inventory[itemID] = item
	return nil
}

func (s *Store) AddStock(ctx context.Context, q database.Querier, item *domain.InventoryItem) error {
	for id, existing := range s.Inventory {
		if existing.PharmacyID == item.PharmacyID && existing.MedicineID == item.MedicineID {
			existing.AvailableQuantity += item.AvailableQuantity
			existing.TotalQuantity += item.AvailableQuantity
			s.Inventory[id] = existing
			return nil
		}
	}
	stored := *item
	stored.TotalQuantity = item.AvailableQuantity
	stored.CreatedAt = s.now
	stored.UpdatedAt = s.now
	s.Inventory[stored.ID] = stored
	return nil
}

// --- payments ---

func (s *Store) CreateIntent(ctx context.Context, q database.Querier, payment *domain.Payment) error {
	payment.CreatedAt = s.now
	payment.UpdatedAt = s.now
	s.Payments[payment.ID] = *payment
	return nil
}

func (s *Store) GetPaymentForUpdate(ctx context.Context, q database.Querier, paymentID string) (*domain.Payment, error) {
	p, ok := s.Payments[paymentID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *Store) UpsertSucceeded(ctx context.Context, q database.Querier, payment *domain.Payment) error {
	stored := *payment
	stored.Status = domain.PaymentSucceeded
	if existing, ok := s.Payments[payment.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
		if stored.MSISDN == "" {
			stored.MSISDN = existing.MSISDN
		}
	} else {
		stored.CreatedAt = s.now
	}
	stored.UpdatedAt = s.now
	s.Payments[payment.ID] = stored
	return nil
}

func (s *Store) LogWebhook(ctx context.Context, q database.Querier, event *domain.WebhookEvent) error {
	event.ReceivedAt = s.now
	s.WebhookLogs[event.ID] = *event
	return nil
}

// --- idempotency ---

func (s *Store) TryInsert(ctx context.Context, q database.Querier, key string) (bool, error) {
	if s.Keys[key] {
		return false, nil
	}
	s.Keys[key] = true
	return true, nil
}
