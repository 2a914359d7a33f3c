package idempotencyrepo

import (
	"context"

	"github.com/crepmaster/pharmapp/internal/infrastructure/database"
)

// IIdempotencyRepository stores one marker row per logical operation. The
// existence of the row is the only signal that the operation already ran.
type IIdempotencyRepository interface {
	// TryInsert creates the marker and reports whether it was newly created.
	TryInsert(ctx context.Context, q database.Querier, key string) (bool, error)
}
