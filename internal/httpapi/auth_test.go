package httpapi

import (
	"context"
	"errors"
	"testing"
	"time"

	"lumapos/backend/internal/domain"
	"lumapos/backend/internal/store/memory"
)

func newTestAuth() *AuthManager {
	return NewAuthManager("test-secret-key", time.Hour, 24*time.Hour, memory.New())
}

func TestRegisterIssuesTokens(t *testing.T) {
	auth := newTestAuth()

	resp, err := auth.Register(context.Background(), domain.RegisterRequest{
		Email:    "Owner@Example.COM",
		Password: "super-secret",
		FullName: "Owner One",
		Role:     "owner",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.User.Email != "owner@example.com" {
		t.Fatalf("email = %s, want lowercased", resp.User.Email)
	}
	if resp.User.Role != domain.RoleOwner {
		t.Fatalf("role = %s, want OWNER", resp.User.Role)
	}
	if resp.Tokens.AccessToken == "" || resp.Tokens.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", resp.Tokens)
	}

	actor, err := auth.ParseAccessToken(context.Background(), resp.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if actor.ID != resp.User.ID || actor.Role != domain.RoleOwner {
		t.Fatalf("actor = %+v, want registered user", actor)
	}
}

type userLookupRecorder struct {
	*memory.Store
	lastCtx context.Context
}

func (s *userLookupRecorder) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	s.lastCtx = ctx
	return s.Store.GetUserByID(ctx, id)
}

func TestParseAccessTokenUsesCallerContext(t *testing.T) {
	repo := &userLookupRecorder{Store: memory.New()}
	auth := NewAuthManager("test-secret-key", time.Hour, 24*time.Hour, repo)

	resp, err := auth.Register(context.Background(), domain.RegisterRequest{
		Email:    "cashier@example.com",
		Password: "super-secret",
		FullName: "Cashier One",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "request-scoped")
	if _, err := auth.ParseAccessToken(ctx, resp.Tokens.AccessToken); err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if repo.lastCtx == nil || repo.lastCtx.Value(ctxKey{}) != "request-scoped" {
		t.Fatalf("user lookup did not receive the caller context")
	}
}

func TestRegisterValidation(t *testing.T) {
	auth := newTestAuth()

	cases := []domain.RegisterRequest{
		{Email: "", Password: "super-secret", FullName: "X"},
		{Email: "not-an-email", Password: "super-secret", FullName: "X"},
		{Email: "a@b.co", Password: "short", FullName: "X"},
		{Email: "a@b.co", Password: "super-secret", FullName: ""},
		{Email: "a@b.co", Password: "super-secret", FullName: "X", Role: "SUPERADMIN"},
	}
	for i, req := range cases {
		if _, err := auth.Register(context.Background(), req); err == nil {
			t.Fatalf("case %d: expected register to fail", i)
		}
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	auth := newTestAuth()
	req := domain.RegisterRequest{Email: "a@b.co", Password: "super-secret", FullName: "X"}

	if _, err := auth.Register(context.Background(), req); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := auth.Register(context.Background(), req); err == nil {
		t.Fatalf("expected duplicate register to fail")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	auth := newTestAuth()
	if _, err := auth.Register(context.Background(), domain.RegisterRequest{
		Email: "a@b.co", Password: "super-secret", FullName: "X",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := auth.Login(context.Background(), domain.LoginRequest{Email: "a@b.co", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := auth.Login(context.Background(), domain.LoginRequest{Email: "nobody@b.co", Password: "super-secret"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials for unknown email", err)
	}

	resp, err := auth.Login(context.Background(), domain.LoginRequest{Email: "A@B.CO", Password: "super-secret"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Tokens.AccessToken == "" {
		t.Fatalf("expected access token")
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	auth := newTestAuth()
	first, err := auth.Register(context.Background(), domain.RegisterRequest{
		Email: "a@b.co", Password: "super-secret", FullName: "X",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	second, err := auth.Refresh(context.Background(), first.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if second.Tokens.RefreshToken == first.Tokens.RefreshToken {
		t.Fatalf("refresh token was not rotated")
	}

	// The consumed token must not work a second time.
	if _, err := auth.Refresh(context.Background(), first.Tokens.RefreshToken); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials on reuse", err)
	}

	if _, err := auth.Refresh(context.Background(), second.Tokens.RefreshToken); err != nil {
		t.Fatalf("refresh with rotated token: %v", err)
	}
}

func TestRefreshRejectsExpiredToken(t *testing.T) {
	repo := memory.New()
	auth := NewAuthManager("test-secret-key", time.Hour, 24*time.Hour, repo)

	resp, err := auth.Register(context.Background(), domain.RegisterRequest{
		Email: "a@b.co", Password: "super-secret", FullName: "X",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := repo.CreateRefreshToken(context.Background(), domain.RefreshToken{
		ID:        "expired-token",
		UserID:    resp.User.ID,
		TokenHash: hashRefreshToken("stale"),
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
		CreatedAt: time.Now().UTC().Add(-25 * time.Hour),
	}); err != nil {
		t.Fatalf("create refresh token: %v", err)
	}

	if _, err := auth.Refresh(context.Background(), "stale"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials for expired token", err)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	auth := newTestAuth()
	resp, err := auth.Register(context.Background(), domain.RegisterRequest{
		Email: "a@b.co", Password: "super-secret", FullName: "X",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := auth.Logout(context.Background(), resp.Tokens.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := auth.Refresh(context.Background(), resp.Tokens.RefreshToken); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials after logout", err)
	}

	// Unknown tokens succeed silently.
	if err := auth.Logout(context.Background(), "never-issued"); err != nil {
		t.Fatalf("logout with unknown token: %v", err)
	}
}

func TestLogoutAllRevokesEverySession(t *testing.T) {
	auth := newTestAuth()
	first, err := auth.Register(context.Background(), domain.RegisterRequest{
		Email: "a@b.co", Password: "super-secret", FullName: "X",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	second, err := auth.Login(context.Background(), domain.LoginRequest{Email: "a@b.co", Password: "super-secret"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := auth.LogoutAll(context.Background(), first.User.ID); err != nil {
		t.Fatalf("logout all: %v", err)
	}
	if _, err := auth.Refresh(context.Background(), first.Tokens.RefreshToken); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials after logout-all", err)
	}
	if _, err := auth.Refresh(context.Background(), second.Tokens.RefreshToken); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials for second session too", err)
	}
}

func TestParseAccessTokenRejectsGarbage(t *testing.T) {
	auth := newTestAuth()
	if _, err := auth.ParseAccessToken(context.Background(), "not.a.jwt"); err == nil {
		t.Fatalf("expected parse to fail")
	}

	// Tokens signed with another secret must be rejected.
	other := NewAuthManager("different-secret", time.Hour, 24*time.Hour, memory.New())
	resp, err := other.Register(context.Background(), domain.RegisterRequest{
		Email: "a@b.co", Password: "super-secret", FullName: "X",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := auth.ParseAccessToken(context.Background(), resp.Tokens.AccessToken); err == nil {
		t.Fatalf("expected foreign-signed token to be rejected")
	}
}
