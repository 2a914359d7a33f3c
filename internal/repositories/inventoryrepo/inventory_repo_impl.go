package inventoryrepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/crepmaster/pharmapp/internal/domain"
	"github.com/crepmaster/pharmapp/internal/infrastructure/database"
)

type inventoryRepository struct {
	logger zerolog.Logger
}

func New(logger zerolog.Logger) IInventoryRepository {
	return &inventoryRepository{logger: logger}
}

func (r *inventoryRepository) GetForUpdate(ctx context.Context, q database.Querier, itemID string) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	err := q.QueryRow(ctx,
		`SELECT id, pharmacy_id, medicine_id, medicine_name,
		        COALESCE(dosage, ''), COALESCE(form, ''), COALESCE(packaging, ''),
		        available_quantity, reserved_quantity, total_quantity,
		        expires_at, created_at, updated_at
		 FROM pharmacy_inventory WHERE id = $1 FOR UPDATE`, itemID).
		Scan(&item.ID, &item.PharmacyID, &item.MedicineID, &item.MedicineName,
			&item.Dosage, &item.Form, &item.Packaging,
			&item.AvailableQuantity, &item.ReservedQuantity, &item.TotalQuantity,
			&item.ExpiresAt, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock inventory item: %w", err)
	}
	return &item, nil
}

func (r *inventoryRepository) Reserve(ctx context.Context, q database.Querier, itemID string, quantity int64) error {
	tag, err := q.Exec(ctx,
		`UPDATE pharmacy_inventory
		 SET available_quantity = available_quantity - $1,
		     reserved_quantity = reserved_quantity + $1,
		     updated_at = now()
		 WHERE id = $2 AND available_quantity >= $1`,
		quantity, itemID)
	if err != nil {
		return fmt.Errorf("failed to reserve inventory: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInsufficientQuantity(0, quantity)
	}
	return nil
}

func (r *inventoryRepository) Release(ctx context.Context, q database.Querier, itemID string, quantity int64) error {
	_, err := q.Exec(ctx,
		`UPDATE pharmacy_inventory
		 SET available_quantity = available_quantity + $1,
		     reserved_quantity = reserved_quantity - $1,
		     updated_at = now()
		 WHERE id = $2`,
		quantity, itemID)
	if err != nil {
		return fmt.Errorf("failed to release inventory: %w", err)
	}
	return nil
}

func (r *inventoryRepository) ConsumeReserved(ctx context.Context, q database.Querier, itemID string, quantity int64) error {
	_, err := q.Exec(ctx,
		`UPDATE pharmacy_inventory
		 SET reserved_quantity = reserved_quantity - $1,
		     total_quantity = total_quantity - $1,
		     updated_at = now()
		 WHERE id = $2`,
		quantity, itemID)
	if err != nil {
		return fmt.Errorf("failed to consume reserved inventory: %w", err)
	}
	return nil
}

func (r *inventoryRepository) AddStock(ctx context.Context, q database.Querier, item *domain.InventoryItem) error {
	_, err := q.Exec(ctx,
		`INSERT INTO pharmacy_inventory (id, pharmacy_id, medicine_id, medicine_name, dosage, form, packaging,
		                                 available_quantity, reserved_quantity, total_quantity, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $8, now(), now())
		 ON CONFLICT (pharmacy_id, medicine_id) DO UPDATE
		 SET available_quantity = pharmacy_inventory.available_quantity + $8,
		     total_quantity = pharmacy_inventory.total_quantity + $8,
		     updated_at = now()`,
		item.ID, item.PharmacyID, item.MedicineID, item.MedicineName,
		item.Dosage, item.Form, item.Packaging, item.AvailableQuantity)
	if err != nil {
		r.logger.Error().Err(err).Str("pharmacy_id", item.PharmacyID).Str("medicine_id", item.MedicineID).Msg("Failed to add stock")
		return fmt.Errorf("failed to add stock: %w", err)
	}
	return nil
}
