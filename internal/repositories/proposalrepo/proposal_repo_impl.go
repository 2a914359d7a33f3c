package proposalrepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/crepmaster/pharmapp/internal/domain"
	"github.com/crepmaster/pharmapp/internal/infrastructure/database"
)

type proposalRepository struct {
	logger zerolog.Logger
}

func New(logger zerolog.Logger) IProposalRepository {
	return &proposalRepository{logger: logger}
}

func (r *proposalRepository) Create(ctx context.Context, q database.Querier, p *domain.Proposal) error {
	_, err := q.Exec(ctx,
		`INSERT INTO proposals (id, from_pharmacy_id, to_pharmacy_id, inventory_item_id,
		                        type, quantity, total_price, currency,
		                        exchange_inventory_item_id, exchange_quantity, notes,
		                        status, wallet_reserved, inventory_reserved,
		                        expires_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, now(), now())`,
		p.ID, p.FromPharmacyID, p.ToPharmacyID, p.InventoryItemID,
		p.Details.Type, p.Details.Quantity, p.Details.TotalPrice, p.Details.Currency,
		nullable(p.Details.ExchangeInventoryItemID), p.Details.ExchangeQuantity, p.Details.Notes,
		p.Status, p.Reservations.WalletReserved, p.Reservations.InventoryReserved,
		p.ExpiresAt)
	if err != nil {
		r.logger.Error().Err(err).Str("proposal_id", p.ID).Msg("Failed to create proposal")
		return fmt.Errorf("failed to create proposal: %w", err)
	}
	return nil
}

func (r *proposalRepository) GetForUpdate(ctx context.Context, q database.Querier, proposalID string) (*domain.Proposal, error) {
	var p domain.Proposal
	err := q.QueryRow(ctx,
		`SELECT id, from_pharmacy_id, to_pharmacy_id, inventory_item_id,
		        type, quantity, total_price, COALESCE(currency, ''),
		        COALESCE(exchange_inventory_item_id, ''), exchange_quantity, COALESCE(notes, ''),
		        status, wallet_reserved, inventory_reserved, COALESCE(delivery_id, ''),
		        expires_at, created_at, updated_at
		 FROM proposals WHERE id = $1 FOR UPDATE`, proposalID).
		Scan(&p.ID, &p.FromPharmacyID, &p.ToPharmacyID, &p.InventoryItemID,
			&p.Details.Type, &p.Details.Quantity, &p.Details.TotalPrice, &p.Details.Currency,
			&p.Details.ExchangeInventoryItemID, &p.Details.ExchangeQuantity, &p.Details.Notes,
			&p.Status, &p.Reservations.WalletReserved, &p.Reservations.InventoryReserved, &p.DeliveryID,
			&p.ExpiresAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock proposal: %w", err)
	}
	return &p, nil
}

func (r *proposalRepository) MarkAccepted(ctx context.Context, q database.Querier, proposalID, deliveryID, notes string) error {
	_, err := q.Exec(ctx,
		`UPDATE proposals
		 SET status = $2, delivery_id = $3, acceptance_notes = $4, accepted_at = now(), updated_at = now()
		 WHERE id = $1`,
		proposalID, domain.ProposalStatusAccepted, deliveryID, notes)
	if err != nil {
		r.logger.Error().Err(err).Str("proposal_id", proposalID).Msg("Failed to accept proposal")
		return fmt.Errorf("failed to accept proposal: %w", err)
	}
	return nil
}

func (r *proposalRepository) MarkClosed(ctx context.Context, q database.Querier, proposalID string, status domain.ProposalStatus, reason string) error {
	_, err := q.Exec(ctx,
		`UPDATE proposals
		 SET status = $2, close_reason = $3,
		     wallet_reserved = NULL, inventory_reserved = NULL,
		     closed_at = now(), updated_at = now()
		 WHERE id = $1`,
		proposalID, status, reason)
	if err != nil {
		r.logger.Error().Err(err).Str("proposal_id", proposalID).Str("status", string(status)).Msg("Failed to close proposal")
		return fmt.Errorf("failed to close proposal: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
