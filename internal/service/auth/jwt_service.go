// Package auth validates the bearer tokens minted by the identity service.
package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenType is the only token type accepted on API routes.
const AccessTokenType = "access"

// JWTService checks identity tokens and, for tooling and tests, mints them
// with the shared secret.
type JWTService interface {
	GenerateToken(ctx context.Context, userID uuid.UUID) (string, error)
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims is the identity service's token payload. The caller's user id is
// carried in uid; sub mirrors it for generic JWT consumers.
type Claims struct {
	UserID    uuid.UUID `json:"uid"`
	TokenType string    `json:"type"`
	jwt.RegisteredClaims
}
