package ledgerrepo

import (
	"context"

	"github.com/crepmaster/pharmapp/internal/domain"
	"github.com/crepmaster/pharmapp/internal/infrastructure/database"
)

// ILedgerRepository appends immutable movement records. There is no update or
// delete path.
type ILedgerRepository interface {
	Append(ctx context.Context, q database.Querier, entry *domain.LedgerEntry) error
	ListByUser(ctx context.Context, q database.Querier, userID string, limit, offset int) ([]domain.LedgerEntry, error)
}
