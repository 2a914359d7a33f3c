package exchangerepo

import (
	"context"
	"time"

	"github.com/crepmaster/pharmapp/internal/domain"
	"github.com/crepmaster/pharmapp/internal/infrastructure/database"
)

// Cursor is a keyset pagination position over (created_at, id).
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

type IExchangeRepository interface {
	Create(ctx context.Context, q database.Querier, exchange *domain.Exchange) error
	Get(ctx context.Context, q database.Querier, exchangeID string) (*domain.Exchange, error)
	GetForUpdate(ctx context.Context, q database.Querier, exchangeID string) (*domain.Exchange, error)
	MarkCompleted(ctx context.Context, q database.Querier, exchange *domain.Exchange) error
	MarkCanceled(ctx context.Context, q database.Querier, exchangeID, reason string) error
	// ListExpiredHolds pages through hold_active exchanges created before
	// cutoff, ordered by (created_at, id) ascending.
	ListExpiredHolds(ctx context.Context, q database.Querier, cutoff time.Time, after *Cursor, limit int) ([]domain.Exchange, error)
}
