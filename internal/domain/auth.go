package domain

import (
	"context"

	"github.com/dgrijalva/jwt-go"
)

type ActorRole string

const (
	RolePharmacy ActorRole = "pharmacy"
	RoleCourier  ActorRole = "courier"
	RoleAdmin    ActorRole = "admin"
)

type Claim struct {
	UserID string    `json:"user_id"`
	Role   ActorRole `json:"role"`
	jwt.StandardClaims
}

// SubscriptionValidator is the external eligibility check consulted before a
// proposal is created. Provisioning and plan management live elsewhere.
type SubscriptionValidator interface {
	Eligible(ctx context.Context, userID string) (bool, string, error)
}
