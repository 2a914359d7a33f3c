package paymentrepo

import (
	"context"

	"github.com/crepmaster/pharmapp/internal/domain"
	"github.com/crepmaster/pharmapp/internal/infrastructure/database"
)

type IPaymentRepository interface {
	CreateIntent(ctx context.Context, q database.Querier, payment *domain.Payment) error
	GetForUpdate(ctx context.Context, q database.Querier, paymentID string) (*domain.Payment, error)
	// UpsertSucceeded records the provider confirmation, creating the payment
	// row when the callback arrives before (or without) an intent.
	UpsertSucceeded(ctx context.Context, q database.Querier, payment *domain.Payment) error
	LogWebhook(ctx context.Context, q database.Querier, event *domain.WebhookEvent) error
}
