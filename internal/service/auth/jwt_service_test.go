package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/montage-api/internal/config"
	"github.com/phrazzld/montage-api/internal/domain"
)

const testSecret = "test-jwt-secret-that-is-32-chars-long"

func newTestService(t *testing.T, opts ...Option) JWTService {
	t.Helper()
	svc, err := NewJWTService(config.AuthConfig{JWTSecret: testSecret, TokenLifetimeMinutes: 60}, opts...)
	require.NoError(t, err)
	return svc
}

func TestNewJWTService_ShortSecret(t *testing.T) {
	t.Parallel()

	_, err := NewJWTService(config.AuthConfig{JWTSecret: "short", TokenLifetimeMinutes: 60})
	assert.Error(t, err)
}

func TestGenerateAndValidateToken(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestService(t)
	userID := uuid.New()

	token, err := svc.GenerateToken(ctx, userID)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, AccessTokenType, claims.TokenType)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.NotEmpty(t, claims.ID)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestValidateToken_Failures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestService(t)
	userID := uuid.New()

	sign := func(claims *Claims, method jwt.SigningMethod, key any) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	now := time.Now()
	base := func() *Claims {
		return &Claims{
			UserID:    userID,
			TokenType: AccessTokenType,
			RegisteredClaims: jwt.RegisteredClaims{
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		}
	}

	expired := base()
	expired.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Hour))

	notYet := base()
	notYet.NotBefore = jwt.NewNumericDate(now.Add(time.Hour))

	refresh := base()
	refresh.TokenType = "refresh"

	anonymous := base()
	anonymous.UserID = uuid.Nil

	key := []byte(testSecret)
	tests := []struct {
		name     string
		token    string
		expected error
	}{
		{"empty", "", ErrMissingToken},
		{"malformed", "not.a.jwt", ErrInvalidToken},
		{"wrong_secret", sign(base(), jwt.SigningMethodHS256, []byte("another-secret-that-is-32-chars-long!")), ErrInvalidToken},
		{"wrong_method", sign(base(), jwt.SigningMethodHS512, key), ErrInvalidToken},
		{"expired", sign(expired, jwt.SigningMethodHS256, key), ErrExpiredToken},
		{"not_yet_valid", sign(notYet, jwt.SigningMethodHS256, key), ErrTokenNotYetValid},
		{"refresh_token", sign(refresh, jwt.SigningMethodHS256, key), ErrWrongTokenType},
		{"no_user", sign(anonymous, jwt.SigningMethodHS256, key), ErrInvalidToken},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.ValidateToken(ctx, tc.token)
			assert.ErrorIs(t, err, tc.expected)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}
}

func TestValidateToken_Leeway(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	issued := time.Now()
	clock := issued.Add(-time.Hour)
	svc := newTestService(t, WithClock(func() time.Time { return clock }))

	token, err := svc.GenerateToken(ctx, uuid.New())
	require.NoError(t, err)

	// One minute past expiry is inside DefaultLeeway.
	clock = issued.Add(time.Minute)
	_, err = svc.ValidateToken(ctx, token)
	assert.NoError(t, err)

	clock = issued.Add(5 * time.Minute)
	_, err = svc.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, ErrExpiredToken)

	strict := newTestService(t, WithLeeway(0), WithClock(func() time.Time { return issued.Add(time.Minute) }))
	_, err = strict.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}
