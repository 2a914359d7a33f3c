package exchangerepo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/crepmaster/pharmapp/internal/domain"
	"github.com/crepmaster/pharmapp/internal/infrastructure/database"
)

type exchangeRepository struct {
	logger zerolog.Logger
}

func New(logger zerolog.Logger) IExchangeRepository {
	return &exchangeRepository{logger: logger}
}

const exchangeColumns = `id, a_id, b_id, courier_fee, hold_a, hold_b, currency, status,
	COALESCE(courier_id, ''), sale_amount, COALESCE(seller_id, ''), COALESCE(buyer_id, ''),
	COALESCE(cancel_reason, ''), created_at, updated_at, completed_at, canceled_at`

func scanExchange(row pgx.Row) (*domain.Exchange, error) {
	var ex domain.Exchange
	err := row.Scan(&ex.ID, &ex.AID, &ex.BID, &ex.CourierFee, &ex.HoldA, &ex.HoldB,
		&ex.Currency, &ex.Status, &ex.CourierID, &ex.SaleAmount, &ex.SellerID, &ex.BuyerID,
		&ex.CancelReason, &ex.CreatedAt, &ex.UpdatedAt, &ex.CompletedAt, &ex.CanceledAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &ex, nil
}

func (r *exchangeRepository) Create(ctx context.Context, q database.Querier, exchange *domain.Exchange) error {
	_, err := q.Exec(ctx,
		`INSERT INTO exchanges (id, a_id, b_id, courier_fee, hold_a, hold_b, currency, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())`,
		exchange.ID, exchange.AID, exchange.BID, exchange.CourierFee,
		exchange.HoldA, exchange.HoldB, exchange.Currency, exchange.Status)
	if err != nil {
		r.logger.Error().Err(err).Str("exchange_id", exchange.ID).Msg("Failed to create exchange")
		return fmt.Errorf("failed to create exchange: %w", err)
	}
	return nil
}

func (r *exchangeRepository) Get(ctx context.Context, q database.Querier, exchangeID string) (*domain.Exchange, error) {
	exchange, err := scanExchange(q.QueryRow(ctx,
		"SELECT "+exchangeColumns+" FROM exchanges WHERE id = $1", exchangeID))
	if err != nil {
		return nil, fmt.Errorf("failed to get exchange: %w", err)
	}
	return exchange, nil
}

func (r *exchangeRepository) GetForUpdate(ctx context.Context, q database.Querier, exchangeID string) (*domain.Exchange, error) {
	exchange, err := scanExchange(q.QueryRow(ctx,
		"SELECT "+exchangeColumns+" FROM exchanges WHERE id = $1 FOR UPDATE", exchangeID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock exchange: %w", err)
	}
	return exchange, nil
}

func (r *exchangeRepository) MarkCompleted(ctx context.Context, q database.Querier, exchange *domain.Exchange) error {
	_, err := q.Exec(ctx,
		`UPDATE exchanges
		 SET status = $2, courier_id = $3, sale_amount = $4, seller_id = $5, buyer_id = $6,
		     completed_at = now(), updated_at = now()
		 WHERE id = $1`,
		exchange.ID, domain.ExchangeCompleted, exchange.CourierID, exchange.SaleAmount,
		nullable(exchange.SellerID), nullable(exchange.BuyerID))
	if err != nil {
		r.logger.Error().Err(err).Str("exchange_id", exchange.ID).Msg("Failed to complete exchange")
		return fmt.Errorf("failed to complete exchange: %w", err)
	}
	return nil
}

func (r *exchangeRepository) MarkCanceled(ctx context.Context, q database.Querier, exchangeID, reason string) error {
	_, err := q.Exec(ctx,
		`UPDATE exchanges
		 SET status = $2, cancel_reason = $3, canceled_at = now(), updated_at = now()
		 WHERE id = $1`,
		exchangeID, domain.ExchangeCanceled, reason)
	if err != nil {
		r.logger.Error().Err(err).Str("exchange_id", exchangeID).Msg("Failed to cancel exchange")
		return fmt.Errorf("failed to cancel exchange: %w", err)
	}
	return nil
}

func (r *exchangeRepository) ListExpiredHolds(ctx context.Context, q database.Querier, cutoff time.Time, after *Cursor, limit int) ([]domain.Exchange, error) {
	query := "SELECT " + exchangeColumns + ` FROM exchanges
		 WHERE status = $1 AND created_at < $2`
	args := []any{domain.ExchangeHoldActive, cutoff}
	if after != nil {
		query += " AND (created_at, id) > ($3, $4)"
		args = append(args, after.CreatedAt, after.ID)
	}
	query += fmt.Sprintf(" ORDER BY created_at, id LIMIT %d", limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired holds: %w", err)
	}
	defer rows.Close()

	var exchanges []domain.Exchange
	for rows.Next() {
		ex, err := scanExchange(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan exchange: %w", err)
		}
		exchanges = append(exchanges, *ex)
	}
	return exchanges, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
