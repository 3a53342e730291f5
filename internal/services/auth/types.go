package auth

import (
	"errors"
	"time"

	"github.com/ivankudzin/automarket/backend/internal/domain/enums"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
)

type AccessClaims struct {
	UserID    int64
	SID       string
	Role      enums.Role
	ExpiresAt time.Time
}

type Token struct {
	AccessToken string
	ExpiresAt   time.Time
	Identity    Identity
}
