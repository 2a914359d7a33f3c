package idempotency

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/crepmaster/pharmapp/internal/infrastructure/database"
	"github.com/crepmaster/pharmapp/internal/repositories/idempotencyrepo"
)

// Guard gives a named side effect at-most-once semantics. The marker row is
// committed in its own transaction before the effect runs, so a concurrent
// duplicate sees the marker and skips. If the effect fails after the marker
// committed, the key stays burned and the operation cannot be retried under
// it; callers that need retry must supply a fresh key.
type Guard struct {
	runner database.TxRunner
	repo   idempotencyrepo.IIdempotencyRepository
	logger zerolog.Logger
}

func NewGuard(runner database.TxRunner, repo idempotencyrepo.IIdempotencyRepository, logger zerolog.Logger) *Guard {
	return &Guard{runner: runner, repo: repo, logger: logger}
}

// Run executes effect unless key has already been claimed. Returns whether
// the effect ran. The effect runs outside the marker transaction.
func (g *Guard) Run(ctx context.Context, key string, effect func(ctx context.Context) error) (bool, error) {
	if key == "" {
		return false, fmt.Errorf("idempotency key must not be empty")
	}

	var created bool
	err := g.runner.WithinTx(ctx, func(q database.Querier) error {
		var err error
		created, err = g.repo.TryInsert(ctx, q, key)
		return err
	})
	if err != nil {
		return false, err
	}
	if !created {
		g.logger.Info().Str("key", key).Msg("Duplicate operation skipped")
		return false, nil
	}

	if err := effect(ctx); err != nil {
		g.logger.Error().Err(err).Str("key", key).Msg("Effect failed after idempotency marker was committed")
		return true, err
	}
	return true, nil
}

// Key joins the parts of a deterministic operation key, e.g.
// Key("cancel", exchangeID) or Key("mtn_momo", providerTxnID).
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}
