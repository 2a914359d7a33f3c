package walletrepo

import (
	"context"

	"github.com/crepmaster/pharmapp/internal/domain"
	"github.com/crepmaster/pharmapp/internal/infrastructure/database"
)

// IWalletRepository mutates per-user balance records. Every method runs on the
// caller-supplied Querier so the caller controls transaction scope.
type IWalletRepository interface {
	Get(ctx context.Context, q database.Querier, userID string) (*domain.Wallet, error)
	// GetForUpdate locks the wallet row for the remainder of the transaction.
	GetForUpdate(ctx context.Context, q database.Querier, userID string) (*domain.Wallet, error)
	// GetPairForUpdate locks two wallets in deterministic ID order to avoid
	// deadlocks between concurrent transactions.
	GetPairForUpdate(ctx context.Context, q database.Querier, userID1, userID2 string) (*domain.Wallet, *domain.Wallet, error)
	// Shift moves amount between two balance fields of one wallet. Fails with
	// InsufficientFunds when the source field is short.
	Shift(ctx context.Context, q database.Querier, userID string, from, to domain.BalanceField, amount int64) error
	// Credit adds to a balance field, creating a zeroed wallet on first write.
	Credit(ctx context.Context, q database.Querier, userID string, field domain.BalanceField, amount int64, currency string) error
	// Debit removes from a balance field; fails with InsufficientFunds.
	Debit(ctx context.Context, q database.Querier, userID string, field domain.BalanceField, amount int64) error
}
