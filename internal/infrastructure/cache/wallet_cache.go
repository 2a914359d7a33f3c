package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/crepmaster/pharmapp/internal/domain"
	"github.com/crepmaster/pharmapp/pkg/config"
)

// WalletCache is a read-through cache for the wallet read surface. Entries
// carry a short TTL; writes that bypass invalidation go stale for at most
// that long.
type WalletCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

func New(cfg *config.RedisConfig, logger zerolog.Logger) (*WalletCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &WalletCache{client: client, ttl: cfg.TTL, logger: logger}, nil
}

func walletKey(userID string) string {
	return fmt.Sprintf("wallet:%s", userID)
}

// Get returns the cached wallet, or nil on miss. Cache errors degrade to a
// miss.
func (c *WalletCache) Get(ctx context.Context, userID string) *domain.Wallet {
	raw, err := c.client.Get(ctx, walletKey(userID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn().Err(err).Str("user_id", userID).Msg("Wallet cache read failed")
		}
		return nil
	}

	var wallet domain.Wallet
	if err := json.Unmarshal(raw, &wallet); err != nil {
		c.logger.Warn().Err(err).Str("user_id", userID).Msg("Wallet cache entry corrupt")
		return nil
	}
	return &wallet
}

func (c *WalletCache) Set(ctx context.Context, wallet *domain.Wallet) {
	raw, err := json.Marshal(wallet)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, walletKey(wallet.UserID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("user_id", wallet.UserID).Msg("Wallet cache write failed")
	}
}

func (c *WalletCache) Invalidate(ctx context.Context, userID string) {
	if err := c.client.Del(ctx, walletKey(userID)).Err(); err != nil {
		c.logger.Warn().Err(err).Str("user_id", userID).Msg("Wallet cache invalidation failed")
	}
}

func (c *WalletCache) Close() error {
	return c.client.Close()
}
