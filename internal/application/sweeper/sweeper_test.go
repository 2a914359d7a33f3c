package sweeper

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crepmaster/pharmapp/internal/application/escrowservice"
	"github.com/crepmaster/pharmapp/internal/application/idempotency"
	"github.com/crepmaster/pharmapp/internal/domain"
	"github.com/crepmaster/pharmapp/internal/infrastructure/events"
	"github.com/crepmaster/pharmapp/internal/repositories/repotest"
	"github.com/crepmaster/pharmapp/pkg/config"
)

func newSweeper(t *testing.T, store *repotest.Store, pageSize int) *Sweeper {
	t.Helper()
	log := zerolog.Nop()
	guard := idempotency.NewGuard(store, store.IdempotencyRepo(), log)
	escrow := escrowservice.New(store.Querier(), store, guard, store.WalletRepo(), store.ExchangeRepo(), store.LedgerRepo(), events.NewNop(), config.EscrowConfig{DefaultCurrency: "XAF"}, log)
	return New(store.Querier(), store.ExchangeRepo(), escrow, config.SweeperConfig{HoldTTL: 6 * time.Hour, PageSize: pageSize}, log)
}

// seedHold wires an active hold directly into the store: the exchange record
// plus wallets whose held buckets match it.
func seedHold(store *repotest.Store, id, aID, bID string, age time.Duration) {
	store.SeedWallet(aID, 750)
	store.SeedWallet(bID, 750)
	for _, userID := range []string{aID, bID} {
		w := store.Wallets[userID]
		w.Held = 250
		store.Wallets[userID] = w
	}
	store.Exchanges[id] = domain.Exchange{
		ID:         id,
		AID:        aID,
		BID:        bID,
		CourierFee: 500,
		HoldA:      250,
		HoldB:      250,
		Currency:   "XAF",
		Status:     domain.ExchangeHoldActive,
		CreatedAt:  time.Now().Add(-age),
	}
}

func TestSweepOnceCancelsStaleHolds(t *testing.T) {
	store := repotest.NewStore()
	seedHold(store, "ex-old-1", "a1", "b1", 7*time.Hour)
	seedHold(store, "ex-old-2", "a2", "b2", 8*time.Hour)
	seedHold(store, "ex-fresh", "a3", "b3", time.Hour)
	s := newSweeper(t, store, 200)

	swept, err := s.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, swept)

	assert.Equal(t, domain.ExchangeCanceled, store.Exchanges["ex-old-1"].Status)
	assert.Equal(t, domain.ExchangeCanceled, store.Exchanges["ex-old-2"].Status)
	assert.Equal(t, domain.ExchangeHoldActive, store.Exchanges["ex-fresh"].Status)

	assert.Equal(t, int64(1000), store.Wallets["a1"].Available)
	assert.Equal(t, int64(0), store.Wallets["a1"].Held)
	assert.Equal(t, int64(750), store.Wallets["a3"].Available)
}

func TestSweepOncePaginates(t *testing.T) {
	store := repotest.NewStore()
	seedHold(store, "ex-old-1", "a1", "b1", 7*time.Hour)
	seedHold(store, "ex-old-2", "a2", "b2", 8*time.Hour)
	seedHold(store, "ex-old-3", "a3", "b3", 9*time.Hour)
	s := newSweeper(t, store, 1)

	swept, err := s.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, swept)
	for _, id := range []string{"ex-old-1", "ex-old-2", "ex-old-3"} {
		assert.Equal(t, domain.ExchangeCanceled, store.Exchanges[id].Status)
	}
}

func TestSweepOnceIsolatesFailures(t *testing.T) {
	store := repotest.NewStore()
	seedHold(store, "ex-old-1", "a1", "b1", 7*time.Hour)
	seedHold(store, "ex-old-2", "a2", "b2", 8*time.Hour)

	// Corrupt one hold so its release fails; the other must still be swept.
	w := store.Wallets["a1"]
	w.Held = 0
	store.Wallets["a1"] = w

	s := newSweeper(t, store, 200)
	swept, err := s.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	assert.Equal(t, domain.ExchangeHoldActive, store.Exchanges["ex-old-1"].Status)
	assert.Equal(t, domain.ExchangeCanceled, store.Exchanges["ex-old-2"].Status)
	assert.Equal(t, int64(1000), store.Wallets["a2"].Available)
}

func TestSweepOnceRerunIsHarmless(t *testing.T) {
	store := repotest.NewStore()
	seedHold(store, "ex-old-1", "a1", "b1", 7*time.Hour)
	s := newSweeper(t, store, 200)

	swept, err := s.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	swept, err = s.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, swept)
	assert.Equal(t, int64(1000), store.Wallets["a1"].Available)
	assert.Equal(t, 2, store.LedgerByType(domain.LedgerHoldRelease))
}
