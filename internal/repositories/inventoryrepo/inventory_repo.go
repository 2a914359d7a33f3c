package inventoryrepo

import (
	"context"

	"github.com/crepmaster/pharmapp/internal/domain"
	"github.com/crepmaster/pharmapp/internal/infrastructure/database"
)

type IInventoryRepository interface {
	GetForUpdate(ctx context.Context, q database.Querier, itemID string) (*domain.InventoryItem, error)
	// Reserve moves units from available to reserved; fails with
	// InsufficientQuantity when not enough stock is available.
	Reserve(ctx context.Context, q database.Querier, itemID string, quantity int64) error
	// Release moves units back from reserved to available.
	Release(ctx context.Context, q database.Querier, itemID string, quantity int64) error
	// ConsumeReserved burns reserved units out of the total on completion.
	ConsumeReserved(ctx context.Context, q database.Querier, itemID string, quantity int64) error
	// AddStock upserts the receiving pharmacy's item for the same medicine.
	AddStock(ctx context.Context, q database.Querier, item *domain.InventoryItem) error
}
