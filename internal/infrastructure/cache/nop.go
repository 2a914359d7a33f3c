package cache

import (
	"context"

	"github.com/crepmaster/pharmapp/internal/domain"
)

// Store is what the read surface needs from the cache. WalletCache implements
// it; NewNop covers deployments without Redis.
type Store interface {
	Get(ctx context.Context, userID string) *domain.Wallet
	Set(ctx context.Context, wallet *domain.Wallet)
	Invalidate(ctx context.Context, userID string)
}

type nopStore struct{}

func NewNop() Store {
	return nopStore{}
}

func (nopStore) Get(context.Context, string) *domain.Wallet { return nil }
func (nopStore) Set(context.Context, *domain.Wallet)        {}
func (nopStore) Invalidate(context.Context, string)         {}
