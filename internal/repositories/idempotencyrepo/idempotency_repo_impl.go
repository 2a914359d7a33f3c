package idempotencyrepo

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/crepmaster/pharmapp/internal/infrastructure/database"
)

type idempotencyRepository struct {
	logger zerolog.Logger
}

func New(logger zerolog.Logger) IIdempotencyRepository {
	return &idempotencyRepository{logger: logger}
}

func (r *idempotencyRepository) TryInsert(ctx context.Context, q database.Querier, key string) (bool, error) {
	tag, err := q.Exec(ctx,
		"INSERT INTO idempotency_keys (key, created_at) VALUES ($1, now()) ON CONFLICT (key) DO NOTHING",
		key)
	if err != nil {
		return false, fmt.Errorf("failed to insert idempotency key: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
