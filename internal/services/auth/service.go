package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ivankudzin/automarket/backend/internal/domain/enums"
	"github.com/ivankudzin/automarket/backend/internal/domain/errs"
	"github.com/ivankudzin/automarket/backend/internal/domain/model"
)

type AccountReader interface {
	Get(ctx context.Context, id int64) (model.Account, error)
}

// Service resolves bearer tokens into identities. The role is re-read from
// the account on every request so that a role change or a ban applies
// without waiting for the token to expire.
type Service struct {
	jwt      *JWTManager
	accounts AccountReader
}

func NewService(jwtManager *JWTManager, accounts AccountReader) *Service {
	return &Service{
		jwt:      jwtManager,
		accounts: accounts,
	}
}

// IssueToken mints an access token for an existing account.
func (s *Service) IssueToken(ctx context.Context, accountID int64) (Token, error) {
	if s.jwt == nil || s.accounts == nil {
		return Token{}, fmt.Errorf("auth service dependencies are not configured")
	}
	if accountID <= 0 {
		return Token{}, ErrInvalidInput
	}

	account, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return Token{}, ErrUnauthorized
		}
		return Token{}, fmt.Errorf("load account: %w", err)
	}
	if account.Status == enums.AccountBanned {
		return Token{}, ErrUnauthorized
	}

	sid := uuid.NewString()
	access, expiresAt, err := s.jwt.GenerateAccessToken(account.ID, sid, account.Role)
	if err != nil {
		return Token{}, err
	}

	return Token{
		AccessToken: access,
		ExpiresAt:   expiresAt,
		Identity:    Identity{UserID: account.ID, SID: sid, Role: account.Role},
	}, nil
}

func (s *Service) Authenticate(ctx context.Context, rawToken string) (Identity, error) {
	if s.jwt == nil || s.accounts == nil {
		return Identity{}, fmt.Errorf("auth service dependencies are not configured")
	}

	claims, err := s.jwt.ParseAccessToken(strings.TrimSpace(rawToken))
	if err != nil {
		return Identity{}, ErrUnauthorized
	}

	account, err := s.accounts.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return Identity{}, ErrUnauthorized
		}
		return Identity{}, fmt.Errorf("load account: %w", err)
	}
	if account.Status == enums.AccountBanned {
		return Identity{}, ErrUnauthorized
	}

	return Identity{
		UserID: account.ID,
		SID:    claims.SID,
		Role:   account.Role,
	}, nil
}
