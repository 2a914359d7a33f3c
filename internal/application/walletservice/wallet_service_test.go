package walletservice

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crepmaster/pharmapp/internal/application/idempotency"
	"github.com/crepmaster/pharmapp/internal/domain"
	"github.com/crepmaster/pharmapp/internal/infrastructure/cache"
	"github.com/crepmaster/pharmapp/internal/infrastructure/events"
	"github.com/crepmaster/pharmapp/internal/repositories/repotest"
	"github.com/crepmaster/pharmapp/pkg/config"
)

func newService(t *testing.T, store *repotest.Store, environment string) IWalletService {
	t.Helper()
	cfg := &config.Config{}
	cfg.Server.Environment = environment
	cfg.Escrow = config.EscrowConfig{DefaultCurrency: "XAF", MaxSandboxCredit: 100000}
	cfg.Webhooks.LogRetention = 720 * time.Hour
	log := zerolog.Nop()
	guard := idempotency.NewGuard(store, store.IdempotencyRepo(), log)
	return New(store.Querier(), store, guard, store.WalletRepo(), store.LedgerRepo(), store.PaymentRepo(), cache.NewNop(), events.NewNop(), cfg, log)
}

func TestGetWalletNotFound(t *testing.T) {
	store := repotest.NewStore()
	svc := newService(t, store, "development")

	_, err := svc.GetWallet(context.Background(), "nobody")
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeWalletNotFound))
}

func TestGetWallet(t *testing.T) {
	store := repotest.NewStore()
	store.SeedWallet("user-1", 5000)
	svc := newService(t, store, "development")

	w, err := svc.GetWallet(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), w.Available)
}

func TestCreateTopupIntentValidation(t *testing.T) {
	store := repotest.NewStore()
	svc := newService(t, store, "development")

	_, err := svc.CreateTopupIntent(context.Background(), domain.TopupRequest{
		UserID: "user-1",
		Amount: 5000,
		Method: "bank_transfer",
	})
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeValidation))
	assert.Empty(t, store.Payments)
}

func TestCreateTopupIntent(t *testing.T) {
	store := repotest.NewStore()
	svc := newService(t, store, "development")

	p, err := svc.CreateTopupIntent(context.Background(), domain.TopupRequest{
		UserID: "user-1",
		Amount: 5000,
		Method: string(domain.ProviderMomo),
		MSISDN: "237670000001",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPending, p.Status)
	assert.Equal(t, "XAF", p.Currency)
	assert.Len(t, store.Payments, 1)
}

func TestProcessWebhookCreditsWallet(t *testing.T) {
	store := repotest.NewStore()
	svc := newService(t, store, "development")

	intent, err := svc.CreateTopupIntent(context.Background(), domain.TopupRequest{
		UserID: "user-1",
		Amount: 5000,
		Method: string(domain.ProviderMomo),
	})
	require.NoError(t, err)

	executed, err := svc.ProcessWebhook(context.Background(), domain.WebhookNotice{
		Provider:      domain.ProviderMomo,
		ProviderTxnID: "momo-txn-1",
		PaymentID:     intent.ID,
	}, json.RawMessage(`{}`), json.RawMessage(`{"status":"SUCCESSFUL"}`))
	require.NoError(t, err)
	assert.True(t, executed)

	assert.Equal(t, int64(5000), store.Wallets["user-1"].Available)
	assert.Equal(t, 1, store.LedgerByType(domain.LedgerTopup))
	assert.Equal(t, domain.PaymentSucceeded, store.Payments[intent.ID].Status)
	assert.Equal(t, "momo-txn-1", store.Payments[intent.ID].GatewayRef)
	assert.Len(t, store.WebhookLogs, 1)
}

func TestProcessWebhookDuplicateDelivery(t *testing.T) {
	store := repotest.NewStore()
	svc := newService(t, store, "development")

	intent, err := svc.CreateTopupIntent(context.Background(), domain.TopupRequest{
		UserID: "user-1",
		Amount: 5000,
		Method: string(domain.ProviderMomo),
	})
	require.NoError(t, err)

	notice := domain.WebhookNotice{
		Provider:      domain.ProviderMomo,
		ProviderTxnID: "momo-txn-1",
		PaymentID:     intent.ID,
	}
	_, err = svc.ProcessWebhook(context.Background(), notice, nil, nil)
	require.NoError(t, err)

	executed, err := svc.ProcessWebhook(context.Background(), notice, nil, nil)
	require.NoError(t, err)
	assert.False(t, executed)

	assert.Equal(t, int64(5000), store.Wallets["user-1"].Available)
	assert.Equal(t, 1, store.LedgerByType(domain.LedgerTopup))
}

func TestProcessWebhookUnresolvedSkipsCredit(t *testing.T) {
	store := repotest.NewStore()
	svc := newService(t, store, "development")

	executed, err := svc.ProcessWebhook(context.Background(), domain.WebhookNotice{
		Provider:      domain.ProviderOrange,
		ProviderTxnID: "orange-txn-9",
	}, nil, json.RawMessage(`{"txnid":"orange-txn-9"}`))
	require.NoError(t, err)
	assert.True(t, executed)

	assert.Empty(t, store.Wallets)
	assert.Empty(t, store.Ledger)
	// The payment and log rows are still written for reconciliation.
	assert.Len(t, store.Payments, 1)
	assert.Len(t, store.WebhookLogs, 1)
	assert.Equal(t, domain.PaymentSucceeded, store.Payments["orange-txn-9"].Status)
}

func TestProcessWebhookRequiresProviderTxnID(t *testing.T) {
	store := repotest.NewStore()
	svc := newService(t, store, "development")

	_, err := svc.ProcessWebhook(context.Background(), domain.WebhookNotice{Provider: domain.ProviderMomo}, nil, nil)
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeValidation))
}

func TestSandboxCredit(t *testing.T) {
	store := repotest.NewStore()
	svc := newService(t, store, "development")

	w, err := svc.SandboxCredit(context.Background(), domain.SandboxCreditRequest{
		UserID: "user-1",
		Amount: 5000,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5000), w.Available)
	assert.Equal(t, int64(5000), store.Wallets["user-1"].Available)
	assert.Equal(t, 1, store.LedgerByType(domain.LedgerSandboxCredit))
}

func TestSandboxCreditCapped(t *testing.T) {
	store := repotest.NewStore()
	svc := newService(t, store, "development")

	_, err := svc.SandboxCredit(context.Background(), domain.SandboxCreditRequest{
		UserID: "user-1",
		Amount: 200000,
	})
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeValidation))
	assert.Empty(t, store.Wallets)
}

func TestSandboxCreditDisabledInProduction(t *testing.T) {
	store := repotest.NewStore()
	svc := newService(t, store, "production")

	_, err := svc.SandboxCredit(context.Background(), domain.SandboxCreditRequest{
		UserID: "user-1",
		Amount: 5000,
	})
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodePermissionDenied))
}

func TestListLedgerClampsLimit(t *testing.T) {
	store := repotest.NewStore()
	svc := newService(t, store, "development")
	for i := 0; i < 60; i++ {
		_, err := svc.SandboxCredit(context.Background(), domain.SandboxCreditRequest{UserID: "user-1", Amount: 10})
		require.NoError(t, err)
	}

	entries, err := svc.ListLedger(context.Background(), "user-1", 0, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 50)
}
