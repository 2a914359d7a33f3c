package deliveryrepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/crepmaster/pharmapp/internal/domain"
	"github.com/crepmaster/pharmapp/internal/infrastructure/database"
)

type deliveryRepository struct {
	logger zerolog.Logger
}

func New(logger zerolog.Logger) IDeliveryRepository {
	return &deliveryRepository{logger: logger}
}

func (r *deliveryRepository) Create(ctx context.Context, q database.Querier, d *domain.Delivery) error {
	_, err := q.Exec(ctx,
		`INSERT INTO deliveries (id, proposal_id, from_pharmacy_id, to_pharmacy_id,
		                         status, proposal_type, total_price, currency, courier_fee,
		                         payment_status, qr_code_pickup, qr_code_delivery, notes,
		                         accepted_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now(), now(), now())`,
		d.ID, d.ProposalID, d.FromPharmacyID, d.ToPharmacyID,
		d.Status, d.ProposalType, d.TotalPrice, d.Currency, d.CourierFee,
		d.PaymentStatus, d.QRCodePickup, d.QRCodeDelivery, d.Notes)
	if err != nil {
		r.logger.Error().Err(err).Str("delivery_id", d.ID).Msg("Failed to create delivery")
		return fmt.Errorf("failed to create delivery: %w", err)
	}
	return nil
}

func (r *deliveryRepository) GetForUpdate(ctx context.Context, q database.Querier, deliveryID string) (*domain.Delivery, error) {
	var d domain.Delivery
	err := q.QueryRow(ctx,
		`SELECT id, proposal_id, from_pharmacy_id, to_pharmacy_id, COALESCE(courier_id, ''),
		        status, proposal_type, total_price, currency, courier_fee,
		        payment_status, qr_code_pickup, qr_code_delivery,
		        COALESCE(photo_proof_url, ''), COALESCE(notes, ''),
		        accepted_at, delivered_at, created_at, updated_at
		 FROM deliveries WHERE id = $1 FOR UPDATE`, deliveryID).
		Scan(&d.ID, &d.ProposalID, &d.FromPharmacyID, &d.ToPharmacyID, &d.CourierID,
			&d.Status, &d.ProposalType, &d.TotalPrice, &d.Currency, &d.CourierFee,
			&d.PaymentStatus, &d.QRCodePickup, &d.QRCodeDelivery,
			&d.PhotoProofURL, &d.Notes,
			&d.AcceptedAt, &d.DeliveredAt, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock delivery: %w", err)
	}
	return &d, nil
}

func (r *deliveryRepository) MarkDelivered(ctx context.Context, q database.Querier, deliveryID, photoProofURL, notes, paymentStatus string, courierFee int64) error {
	_, err := q.Exec(ctx,
		`UPDATE deliveries
		 SET status = $2, photo_proof_url = $3, notes = $4, payment_status = $5, courier_fee = $6,
		     delivered_at = now(), updated_at = now()
		 WHERE id = $1`,
		deliveryID, domain.DeliveryStatusDelivered, nullable(photoProofURL), notes, paymentStatus, courierFee)
	if err != nil {
		r.logger.Error().Err(err).Str("delivery_id", deliveryID).Msg("Failed to mark delivery delivered")
		return fmt.Errorf("failed to mark delivery delivered: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
