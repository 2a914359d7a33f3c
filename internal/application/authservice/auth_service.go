package authservice

import (
	"context"

	"github.com/crepmaster/pharmapp/internal/domain"
)

type IAuthService interface {
	VerifyToken(ctx context.Context, tokenString string) (*domain.Claim, error)
	GenerateToken(ctx context.Context, userID string, role domain.ActorRole) (string, error)
	VerifyAPIKey(ctx context.Context, apiKey string) error
}
