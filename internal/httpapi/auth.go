package httpapi

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"lumapos/backend/internal/domain"
	"lumapos/backend/internal/store"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type AuthManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	users      UserStore
}

// UserStore is the slice of the repository the auth layer needs.
type UserStore interface {
	CreateUser(ctx context.Context, user domain.User) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	CreateRefreshToken(ctx context.Context, token domain.RefreshToken) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, tokenHash string) error
	DeleteRefreshTokensForUser(ctx context.Context, userID string) error
}

type accessClaims struct {
	jwtlib.RegisteredClaims
	Role string `json:"role"`
}

func NewAuthManager(secret string, accessTTL, refreshTTL time.Duration, users UserStore) *AuthManager {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &AuthManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		users:      users,
	}
}

func (a *AuthManager) Register(ctx context.Context, req domain.RegisterRequest) (domain.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return domain.AuthResponse{}, fmt.Errorf("a valid email is required")
	}
	if strings.TrimSpace(req.FullName) == "" {
		return domain.AuthResponse{}, fmt.Errorf("full name is required")
	}
	if len(req.Password) < 8 {
		return domain.AuthResponse{}, fmt.Errorf("password must be at least 8 characters")
	}

	role := strings.ToUpper(strings.TrimSpace(req.Role))
	if role == "" {
		role = domain.RoleCashier
	}
	if role != domain.RoleOwner && role != domain.RoleCashier {
		return domain.AuthResponse{}, fmt.Errorf("unknown role %q", req.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.AuthResponse{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := a.users.CreateUser(ctx, domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     strings.TrimSpace(req.FullName),
		Role:         role,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return domain.AuthResponse{}, err
	}

	return a.issueTokens(ctx, user)
}

func (a *AuthManager) Login(ctx context.Context, req domain.LoginRequest) (domain.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := a.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.AuthResponse{}, ErrInvalidCredentials
		}
		return domain.AuthResponse{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return domain.AuthResponse{}, ErrInvalidCredentials
	}
	return a.issueTokens(ctx, user)
}

// Refresh rotates the presented refresh token: the old one is deleted and a
// fresh pair is issued. A reused or expired token fails closed.
func (a *AuthManager) Refresh(ctx context.Context, refreshToken string) (domain.AuthResponse, error) {
	hash := hashRefreshToken(refreshToken)
	stored, err := a.users.GetRefreshToken(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.AuthResponse{}, ErrInvalidCredentials
		}
		return domain.AuthResponse{}, err
	}
	if time.Now().UTC().After(stored.ExpiresAt) {
		_ = a.users.DeleteRefreshToken(ctx, hash)
		return domain.AuthResponse{}, ErrInvalidCredentials
	}

	user, err := a.users.GetUserByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.AuthResponse{}, ErrInvalidCredentials
		}
		return domain.AuthResponse{}, err
	}

	if err := a.users.DeleteRefreshToken(ctx, hash); err != nil && !errors.Is(err, store.ErrNotFound) {
		return domain.AuthResponse{}, err
	}
	return a.issueTokens(ctx, user)
}

// Logout revokes the presented refresh token. It reports success whether or
// not the token existed, so callers cannot use it to probe for valid tokens.
func (a *AuthManager) Logout(ctx context.Context, refreshToken string) error {
	err := a.users.DeleteRefreshToken(ctx, hashRefreshToken(refreshToken))
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}

// LogoutAll revokes every refresh token the user holds, ending all of
// their sessions at once.
func (a *AuthManager) LogoutAll(ctx context.Context, userID string) error {
	return a.users.DeleteRefreshTokensForUser(ctx, userID)
}

func (a *AuthManager) ParseAccessToken(ctx context.Context, tokenStr string) (domain.Actor, error) {
	claims := &accessClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return domain.Actor{}, errors.New("invalid or expired token")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return domain.Actor{}, errors.New("invalid token subject")
	}

	user, err := a.users.GetUserByID(ctx, sub)
	if err != nil {
		return domain.Actor{}, errors.New("invalid or expired token")
	}
	return domain.Actor{ID: user.ID, Email: user.Email, FullName: user.FullName, Role: claims.Role}, nil
}

func (a *AuthManager) issueTokens(ctx context.Context, user *domain.User) (domain.AuthResponse, error) {
	now := time.Now().UTC()
	claims := accessClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(a.accessTTL)),
			Issuer:    "lumapos",
		},
		Role: user.Role,
	}
	access, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return domain.AuthResponse{}, err
	}

	refresh, err := newRefreshToken()
	if err != nil {
		return domain.AuthResponse{}, err
	}
	err = a.users.CreateRefreshToken(ctx, domain.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: hashRefreshToken(refresh),
		ExpiresAt: now.Add(a.refreshTTL),
		CreatedAt: now,
	})
	if err != nil {
		return domain.AuthResponse{}, err
	}

	return domain.AuthResponse{
		User: domain.PublicUser{
			ID:       user.ID,
			Email:    user.Email,
			FullName: user.FullName,
			Role:     user.Role,
		},
		Tokens: domain.TokenPair{
			AccessToken:  access,
			RefreshToken: refresh,
			ExpiresAt:    now.Add(a.accessTTL).Format(time.RFC3339),
		},
	}, nil
}

// newRefreshToken returns 32 bytes of hex-encoded randomness. Only the
// SHA-256 of this value is persisted.
func newRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func hashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(token)))
	return hex.EncodeToString(sum[:])
}
