package auth

import (
	"fmt"

	"github.com/phrazzld/montage-api/internal/domain"
)

// Token failures all match domain.ErrUnauthorized.
var (
	ErrMissingToken     = fmt.Errorf("%w: missing bearer token", domain.ErrUnauthorized)
	ErrInvalidToken     = fmt.Errorf("%w: invalid bearer token", domain.ErrUnauthorized)
	ErrExpiredToken     = fmt.Errorf("%w: bearer token expired", domain.ErrUnauthorized)
	ErrTokenNotYetValid = fmt.Errorf("%w: bearer token not yet valid", domain.ErrUnauthorized)
	ErrWrongTokenType   = fmt.Errorf("%w: bearer token is not an access token", domain.ErrUnauthorized)
)
