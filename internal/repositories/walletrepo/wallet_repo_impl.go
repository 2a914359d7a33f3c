package walletrepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/crepmaster/pharmapp/internal/domain"
	"github.com/crepmaster/pharmapp/internal/infrastructure/database"
)

type walletRepository struct {
	logger zerolog.Logger
}

func New(logger zerolog.Logger) IWalletRepository {
	return &walletRepository{logger: logger}
}

// column maps a balance field onto its wallet column. Field names are a closed
// set; anything else is a programming error.
func column(field domain.BalanceField) (string, error) {
	switch field {
	case domain.BalanceAvailable:
		return "available", nil
	case domain.BalanceHeld:
		return "held", nil
	case domain.BalanceDeducted:
		return "deducted", nil
	default:
		return "", fmt.Errorf("unknown balance field: %s", field)
	}
}

const walletColumns = "user_id, available, held, deducted, currency, updated_at"

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	var w domain.Wallet
	err := row.Scan(&w.UserID, &w.Available, &w.Held, &w.Deducted, &w.Currency, &w.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &w, nil
}

func (r *walletRepository) Get(ctx context.Context, q database.Querier, userID string) (*domain.Wallet, error) {
	wallet, err := scanWallet(q.QueryRow(ctx,
		"SELECT "+walletColumns+" FROM wallets WHERE user_id = $1", userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return wallet, nil
}

func (r *walletRepository) GetForUpdate(ctx context.Context, q database.Querier, userID string) (*domain.Wallet, error) {
	wallet, err := scanWallet(q.QueryRow(ctx,
		"SELECT "+walletColumns+" FROM wallets WHERE user_id = $1 FOR UPDATE", userID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock wallet: %w", err)
	}
	return wallet, nil
}

func (r *walletRepository) GetPairForUpdate(ctx context.Context, q database.Querier, userID1, userID2 string) (*domain.Wallet, *domain.Wallet, error) {
	first, second := userID1, userID2
	if first > second {
		first, second = second, first
	}

	byUser := make(map[string]*domain.Wallet, 2)
	for _, id := range []string{first, second} {
		wallet, err := r.GetForUpdate(ctx, q, id)
		if err != nil {
			return nil, nil, err
		}
		byUser[id] = wallet
	}

	return byUser[userID1], byUser[userID2], nil
}

func (r *walletRepository) Shift(ctx context.Context, q database.Querier, userID string, from, to domain.BalanceField, amount int64) error {
	fromCol, err := column(from)
	if err != nil {
		return err
	}
	toCol, err := column(to)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx, fmt.Sprintf(
		"UPDATE wallets SET %s = %s - $1, %s = %s + $1, updated_at = now() WHERE user_id = $2 AND %s >= $1",
		fromCol, fromCol, toCol, toCol, fromCol),
		amount, userID)
	if err != nil {
		return fmt.Errorf("failed to shift balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInsufficientFunds(fmt.Sprintf("user %s: %s < %d", userID, from, amount))
	}
	return nil
}

func (r *walletRepository) Credit(ctx context.Context, q database.Querier, userID string, field domain.BalanceField, amount int64, currency string) error {
	col, err := column(field)
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx, fmt.Sprintf(
		`INSERT INTO wallets (user_id, %s, currency, updated_at) VALUES ($1, $2, $3, now())
		 ON CONFLICT (user_id) DO UPDATE SET %s = wallets.%s + $2, updated_at = now()`,
		col, col, col),
		userID, amount, currency)
	if err != nil {
		return fmt.Errorf("failed to credit wallet: %w", err)
	}
	return nil
}

func (r *walletRepository) Debit(ctx context.Context, q database.Querier, userID string, field domain.BalanceField, amount int64) error {
	col, err := column(field)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx, fmt.Sprintf(
		"UPDATE wallets SET %s = %s - $1, updated_at = now() WHERE user_id = $2 AND %s >= $1",
		col, col, col),
		amount, userID)
	if err != nil {
		return fmt.Errorf("failed to debit wallet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInsufficientFunds(fmt.Sprintf("user %s: %s < %d", userID, field, amount))
	}
	return nil
}
