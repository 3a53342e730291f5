package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ivankudzin/automarket/backend/internal/domain/enums"
	"github.com/ivankudzin/automarket/backend/internal/domain/model"
	"github.com/ivankudzin/automarket/backend/internal/repo/memory"
	authsvc "github.com/ivankudzin/automarket/backend/internal/services/auth"
)

func newAuthServiceForTest(t *testing.T) (*authsvc.Service, *memory.DB) {
	t.Helper()
	db := memory.New()
	jwtManager := authsvc.NewJWTManager("test-secret", 15*time.Minute)
	return authsvc.NewService(jwtManager, db.Accounts()), db
}

func TestIssueAndAuthenticate(t *testing.T) {
	svc, db := newAuthServiceForTest(t)
	ctx := context.Background()

	account, err := db.Accounts().Create(ctx, model.Account{Email: "dealer@example.com", Role: enums.RoleDealer, Status: enums.AccountActive})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	token, err := svc.IssueToken(ctx, account.ID)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	identity, err := svc.Authenticate(ctx, token.AccessToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if identity.UserID != account.ID || identity.Role != enums.RoleDealer || identity.SID != token.Identity.SID {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestAuthenticateRejectsBannedAccount(t *testing.T) {
	svc, db := newAuthServiceForTest(t)
	ctx := context.Background()

	account, err := db.Accounts().Create(ctx, model.Account{Email: "x@example.com", Role: enums.RoleClient, Status: enums.AccountActive})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	token, err := svc.IssueToken(ctx, account.ID)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	account.Status = enums.AccountBanned
	if _, err := db.Accounts().Update(ctx, account); err != nil {
		t.Fatalf("ban account: %v", err)
	}

	if _, err := svc.Authenticate(ctx, token.AccessToken); !errors.Is(err, authsvc.ErrUnauthorized) {
		t.Fatalf("banned account should be unauthorized, got %v", err)
	}
}

func TestAuthenticateRejectsForeignSignature(t *testing.T) {
	svc, db := newAuthServiceForTest(t)
	ctx := context.Background()
	account, _ := db.Accounts().Create(ctx, model.Account{Email: "y@example.com", Role: enums.RoleClient, Status: enums.AccountActive})

	other := authsvc.NewJWTManager("other-secret", time.Minute)
	forged, _, err := other.GenerateAccessToken(account.ID, "sid", enums.RoleAdmin)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := svc.Authenticate(ctx, forged); !errors.Is(err, authsvc.ErrUnauthorized) {
		t.Fatalf("forged token should be unauthorized, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, ""); !errors.Is(err, authsvc.ErrUnauthorized) {
		t.Fatalf("empty token should be unauthorized, got %v", err)
	}
}
