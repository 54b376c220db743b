package auth

import (
	"fmt"

	"lantern-backend/internal/gameerr"
)

var (
	ErrUnauthorized = fmt.Errorf("auth: %w", gameerr.ErrUnauthorized)
	ErrForbidden    = fmt.Errorf("auth: forbidden: %w", gameerr.ErrNotAllowed)
	ErrInvalidToken = fmt.Errorf("auth: invalid token: %w", gameerr.ErrUnauthorized)
)
