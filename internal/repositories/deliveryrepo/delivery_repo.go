package deliveryrepo

import (
	"context"

	"github.com/crepmaster/pharmapp/internal/domain"
	"github.com/crepmaster/pharmapp/internal/infrastructure/database"
)

type IDeliveryRepository interface {
	Create(ctx context.Context, q database.Querier, delivery *domain.Delivery) error
	GetForUpdate(ctx context.Context, q database.Querier, deliveryID string) (*domain.Delivery, error)
	// MarkDelivered finalizes the delivery with proof and the settled courier fee.
	MarkDelivered(ctx context.Context, q database.Querier, deliveryID, photoProofURL, notes, paymentStatus string, courierFee int64) error
}
