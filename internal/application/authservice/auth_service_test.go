package authservice

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crepmaster/pharmapp/internal/domain"
	"github.com/crepmaster/pharmapp/pkg/config"
)

func newTestService(secret, apiKey string) *AuthService {
	cfg := &config.Config{}
	cfg.JWT.Secret = secret
	cfg.JWT.Issuer = "pharmapp"
	cfg.Security.APIKey = apiKey
	return NewAuthService(cfg, zerolog.Nop())
}

func TestGenerateAndVerifyToken(t *testing.T) {
	svc := newTestService("test-secret", "")

	token, err := svc.GenerateToken(context.Background(), "user-1", domain.RolePharmacy)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.VerifyToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, domain.RolePharmacy, claims.Role)
	assert.Equal(t, "pharmapp", claims.Issuer)
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	issued := newTestService("secret-a", "")
	verifier := newTestService("secret-b", "")

	token, err := issued.GenerateToken(context.Background(), "user-1", domain.RoleCourier)
	require.NoError(t, err)

	_, err = verifier.VerifyToken(context.Background(), token)
	require.Error(t, err)
}

func TestVerifyTokenWrongIssuer(t *testing.T) {
	issuer := newTestService("test-secret", "")
	issuer.config.JWT.Issuer = "someone-else"
	token, err := issuer.GenerateToken(context.Background(), "user-1", domain.RolePharmacy)
	require.NoError(t, err)

	svc := newTestService("test-secret", "")
	_, err = svc.VerifyToken(context.Background(), token)
	require.Error(t, err)
}

func TestVerifyTokenRequiresConfiguredSecret(t *testing.T) {
	svc := newTestService("", "")

	_, err := svc.VerifyToken(context.Background(), "anything")
	require.Error(t, err)
	_, err = svc.GenerateToken(context.Background(), "user-1", domain.RolePharmacy)
	require.Error(t, err)
}

func TestVerifyAPIKey(t *testing.T) {
	svc := newTestService("", "api-key-1")

	require.NoError(t, svc.VerifyAPIKey(context.Background(), "api-key-1"))
	require.Error(t, svc.VerifyAPIKey(context.Background(), "wrong"))
}

func TestVerifyAPIKeyUnconfigured(t *testing.T) {
	svc := newTestService("", "")
	require.Error(t, svc.VerifyAPIKey(context.Background(), "anything"))
}
