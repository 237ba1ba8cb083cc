package token

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/campolibero/campo_market/internal/apperr"
	"github.com/campolibero/campo_market/internal/logging"
	"github.com/campolibero/campo_market/internal/repo"
)

const (
	AccessTTL  = 15 * time.Minute
	RefreshTTL = 7 * 24 * time.Hour
)

// Service mints, verifies and rotates access/refresh token pairs. Access
// tokens are signed with JWTSecret and verified without touching the store;
// refresh tokens use the distinct RefreshSecret and are valid only while
// their row exists.
type Service struct {
	Repo          *repo.GormRepo
	JWTSecret     []byte
	RefreshSecret []byte

	// Overridable in tests to mint already-expired tokens.
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type Pair struct {
	Access  string
	Refresh string
}

func New(r *repo.GormRepo, jwtSecret, refreshSecret []byte) *Service {
	return &Service{
		Repo:          r,
		JWTSecret:     jwtSecret,
		RefreshSecret: refreshSecret,
		AccessTTL:     AccessTTL,
		RefreshTTL:    RefreshTTL,
	}
}

func (s *Service) signAccess(userID uuid.UUID) (string, error) {
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.AccessTTL)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.JWTSecret)
}

func (s *Service) signRefresh(userID uuid.UUID) (string, error) {
	claims := RefreshClaims{
		Typ: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.RefreshTTL)),
			ID:        uuid.NewString(),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.RefreshSecret)
}

// IssuePair mints a fresh access/refresh pair for userID and persists the
// refresh token. Every call adds one store row; concurrent sessions of the
// same user coexist.
func (s *Service) IssuePair(ctx context.Context, userID uuid.UUID) (*Pair, error) {
	access, err := s.signAccess(userID)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := s.signRefresh(userID)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	if err := s.Repo.SaveRefreshToken(ctx, refresh, userID); err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}

	return &Pair{Access: access, Refresh: refresh}, nil
}

// VerifyAccess checks signature and expiry only. No store access.
func (s *Service) VerifyAccess(raw string) (uuid.UUID, error) {
	claims, err := parseAccessClaims(raw, s.JWTSecret)
	if err != nil {
		return uuid.Nil, err
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid access token: %w", apperr.ErrUnauthorized)
	}
	return userID, nil
}

// Rotate redeems a refresh token for a new pair. A token can be redeemed at
// most once: the row delete is conditional, so of two racing rotations only
// the one that actually removed the row goes on to issue.
func (s *Service) Rotate(ctx context.Context, raw string) (*Pair, error) {
	stored, err := s.Repo.FindRefreshToken(ctx, raw)
	if err != nil {
		return nil, err
	}

	if _, err := parseRefreshClaims(raw, s.RefreshSecret); err != nil {
		// Row exists but the token is dead. Drop the row so it cannot be
		// presented again; never issue on this branch.
		if _, delErr := s.Repo.DeleteRefreshToken(ctx, raw); delErr != nil {
			logging.FromContext(ctx).Error("delete dead refresh token", "error", delErr)
		}
		return nil, err
	}

	deleted, err := s.Repo.DeleteRefreshToken(ctx, raw)
	if err != nil {
		return nil, err
	}
	if !deleted {
		// Lost the race against a concurrent rotation of the same token.
		return nil, apperr.ErrUnauthorized
	}

	return s.IssuePair(ctx, stored.UserID)
}

// Revoke drops the row for raw if present. Revoking an unknown token is not
// an error.
func (s *Service) Revoke(ctx context.Context, raw string) error {
	_, err := s.Repo.DeleteRefreshToken(ctx, raw)
	return err
}
