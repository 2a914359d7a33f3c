package ledgerrepo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/crepmaster/pharmapp/internal/domain"
	"github.com/crepmaster/pharmapp/internal/infrastructure/database"
)

type ledgerRepository struct {
	logger zerolog.Logger
}

func New(logger zerolog.Logger) ILedgerRepository {
	return &ledgerRepository{logger: logger}
}

func (r *ledgerRepository) Append(ctx context.Context, q database.Querier, entry *domain.LedgerEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	_, err := q.Exec(ctx,
		`INSERT INTO ledger (id, user_id, type, amount, currency, from_party, to_party,
		                     exchange_id, proposal_id, payment_id, provider, reason, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now())`,
		entry.ID, entry.UserID, entry.Type, entry.Amount, entry.Currency,
		nullable(entry.From), nullable(entry.To),
		nullable(entry.ExchangeID), nullable(entry.ProposalID), nullable(entry.PaymentID),
		nullable(entry.Provider), nullable(entry.Reason))
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", entry.UserID).Str("type", string(entry.Type)).Msg("Failed to append ledger entry")
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}

func (r *ledgerRepository) ListByUser(ctx context.Context, q database.Querier, userID string, limit, offset int) ([]domain.LedgerEntry, error) {
	rows, err := q.Query(ctx,
		`SELECT id, user_id, type, amount, currency,
		        COALESCE(from_party, ''), COALESCE(to_party, ''),
		        COALESCE(exchange_id, ''), COALESCE(proposal_id, ''), COALESCE(payment_id, ''),
		        COALESCE(provider, ''), COALESCE(reason, ''), created_at
		 FROM ledger WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Type, &e.Amount, &e.Currency,
			&e.From, &e.To, &e.ExchangeID, &e.ProposalID, &e.PaymentID,
			&e.Provider, &e.Reason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
