package walletservice

import (
	"context"
	"encoding/json"

	"github.com/crepmaster/pharmapp/internal/domain"
)

// IWalletService covers the wallet read surface, top-up intents, sandbox
// credits and inbound payment webhooks.
type IWalletService interface {
	GetWallet(ctx context.Context, userID string) (*domain.Wallet, error)
	ListLedger(ctx context.Context, userID string, limit, offset int) ([]domain.LedgerEntry, error)
	// CreateTopupIntent records a pending payment for the provider flow to
	// confirm via webhook.
	CreateTopupIntent(ctx context.Context, req domain.TopupRequest) (*domain.Payment, error)
	// SandboxCredit adds bounded test funds. Refused in production.
	SandboxCredit(ctx context.Context, req domain.SandboxCreditRequest) (*domain.Wallet, error)
	// ProcessWebhook applies one provider callback at most once: it logs the
	// raw event, upserts the payment as succeeded, and credits the wallet when
	// the callback resolves to a known user and positive amount. The bool
	// reports whether this delivery was the first.
	ProcessWebhook(ctx context.Context, notice domain.WebhookNotice, headers, payload json.RawMessage) (bool, error)
}
