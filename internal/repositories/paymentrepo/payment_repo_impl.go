package paymentrepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/crepmaster/pharmapp/internal/domain"
	"github.com/crepmaster/pharmapp/internal/infrastructure/database"
)

type paymentRepository struct {
	logger zerolog.Logger
}

func New(logger zerolog.Logger) IPaymentRepository {
	return &paymentRepository{logger: logger}
}

func (r *paymentRepository) CreateIntent(ctx context.Context, q database.Querier, p *domain.Payment) error {
	_, err := q.Exec(ctx,
		`INSERT INTO payments (id, user_id, method, amount, currency, msisdn, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())`,
		p.ID, p.UserID, p.Method, p.Amount, p.Currency, nullable(p.MSISDN), p.Status)
	if err != nil {
		r.logger.Error().Err(err).Str("payment_id", p.ID).Msg("Failed to create payment intent")
		return fmt.Errorf("failed to create payment intent: %w", err)
	}
	return nil
}

func (r *paymentRepository) GetForUpdate(ctx context.Context, q database.Querier, paymentID string) (*domain.Payment, error) {
	var p domain.Payment
	err := q.QueryRow(ctx,
		`SELECT id, COALESCE(user_id, ''), method, amount, COALESCE(currency, ''),
		        COALESCE(msisdn, ''), status, COALESCE(gateway_ref, ''), created_at, updated_at
		 FROM payments WHERE id = $1 FOR UPDATE`, paymentID).
		Scan(&p.ID, &p.UserID, &p.Method, &p.Amount, &p.Currency,
			&p.MSISDN, &p.Status, &p.GatewayRef, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock payment: %w", err)
	}
	return &p, nil
}

func (r *paymentRepository) UpsertSucceeded(ctx context.Context, q database.Querier, p *domain.Payment) error {
	_, err := q.Exec(ctx,
		`INSERT INTO payments (id, user_id, method, amount, currency, status, gateway_ref, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		 ON CONFLICT (id) DO UPDATE
		 SET method = $3, amount = $4, currency = $5, status = $6, gateway_ref = $7, updated_at = now()`,
		p.ID, nullable(p.UserID), p.Method, p.Amount, p.Currency, domain.PaymentSucceeded, p.GatewayRef)
	if err != nil {
		r.logger.Error().Err(err).Str("payment_id", p.ID).Msg("Failed to upsert payment")
		return fmt.Errorf("failed to upsert payment: %w", err)
	}
	return nil
}

func (r *paymentRepository) LogWebhook(ctx context.Context, q database.Querier, e *domain.WebhookEvent) error {
	_, err := q.Exec(ctx,
		`INSERT INTO webhook_logs (id, provider, provider_txn_id, payment_id, headers, payload, received_at, expire_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now(), $7)
		 ON CONFLICT (id) DO UPDATE
		 SET payload = $6, received_at = now(), expire_at = $7`,
		e.ID, e.Provider, e.ProviderTxnID, e.PaymentID, e.Headers, e.Payload, e.ExpireAt)
	if err != nil {
		r.logger.Error().Err(err).Str("provider", string(e.Provider)).Str("provider_txn_id", e.ProviderTxnID).Msg("Failed to log webhook")
		return fmt.Errorf("failed to log webhook: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
