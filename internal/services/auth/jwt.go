package auth

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/ivankudzin/automarket/backend/internal/domain/enums"
)

const (
	tokenIssuer   = "automarket"
	tokenAudience = "automarket-api"
	clockSkew     = 30 * time.Second
)

// JWTManager signs and checks marketplace access tokens. The subject is the
// account id and the token id is the session id.
type JWTManager struct {
	secret    []byte
	accessTTL time.Duration
	issuer    string
	audience  string
	now       func() time.Time
}

type marketClaims struct {
	Role enums.Role `json:"role"`
	jwt.RegisteredClaims
}

func NewJWTManager(secret string, accessTTL time.Duration) *JWTManager {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	return &JWTManager{
		secret:    []byte(secret),
		accessTTL: accessTTL,
		issuer:    tokenIssuer,
		audience:  tokenAudience,
		now:       time.Now,
	}
}

func (m *JWTManager) GenerateAccessToken(accountID int64, sid string, role enums.Role) (string, time.Time, error) {
	if len(m.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("jwt secret is empty")
	}
	sid = strings.TrimSpace(sid)
	if accountID <= 0 || sid == "" || !role.Valid() {
		return "", time.Time{}, fmt.Errorf("invalid access token payload")
	}

	issuedAt := m.now().UTC()
	expiresAt := issuedAt.Add(m.accessTTL)
	claims := marketClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Audience:  jwt.ClaimStrings{m.audience},
			Subject:   strconv.FormatInt(accountID, 10),
			ID:        sid,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseAccessToken accepts only HS256 tokens issued by this service for the
// API audience. Every failure collapses to ErrUnauthorized.
func (m *JWTManager) ParseAccessToken(raw string) (AccessClaims, error) {
	if strings.TrimSpace(raw) == "" {
		return AccessClaims{}, ErrUnauthorized
	}

	claims := &marketClaims{}
	token, err := jwt.ParseWithClaims(raw, claims,
		func(_ *jwt.Token) (interface{}, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(m.audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || token == nil || !token.Valid {
		return AccessClaims{}, ErrUnauthorized
	}
	return claims.access()
}

func (c *marketClaims) access() (AccessClaims, error) {
	accountID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || accountID <= 0 {
		return AccessClaims{}, ErrUnauthorized
	}
	if strings.TrimSpace(c.ID) == "" || !c.Role.Valid() {
		return AccessClaims{}, ErrUnauthorized
	}
	return AccessClaims{
		UserID:    accountID,
		SID:       c.ID,
		Role:      c.Role,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}
