package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codezero/photomap/pkg/apperrors"
)

// TokenPair is returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// tokenStore is the persistence the session needs for refresh tokens.
type tokenStore interface {
	Save(ctx context.Context, memberID uuid.UUID, jti string, ttl time.Duration) error
	Revoke(ctx context.Context, memberID uuid.UUID, jti string) (bool, error)
	RevokeAll(ctx context.Context, memberID uuid.UUID) error
}

// Sessions issues, rotates and revokes token pairs.
type Sessions struct {
	jwt    *JWTService
	store  tokenStore
	logger *zap.Logger
}

// NewSessions creates a session manager.
func NewSessions(jwt *JWTService, store tokenStore, logger *zap.Logger) *Sessions {
	return &Sessions{jwt: jwt, store: store, logger: logger}
}

// Issue creates a new access/refresh pair for the member.
func (s *Sessions) Issue(ctx context.Context, memberID uuid.UUID, email string) (*TokenPair, error) {
	access, _, err := s.jwt.Generate(memberID, email, TokenAccess)
	if err != nil {
		return nil, apperrors.Wrap(err, "sign access token")
	}
	refresh, jti, err := s.jwt.Generate(memberID, email, TokenRefresh)
	if err != nil {
		return nil, apperrors.Wrap(err, "sign refresh token")
	}
	if err := s.store.Save(ctx, memberID, jti, s.jwt.RefreshTTL()); err != nil {
		return nil, apperrors.Wrap(err, "store refresh token")
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh validates refreshToken, revokes it and issues a new pair.
// A token that was already rotated or revoked is rejected.
func (s *Sessions) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.jwt.Validate(refreshToken, TokenRefresh)
	if err != nil {
		return nil, apperrors.Unauthorized("refresh token is expired or invalid")
	}
	live, err := s.store.Revoke(ctx, claims.MemberID, claims.ID)
	if err != nil {
		return nil, apperrors.Wrap(err, "revoke refresh token")
	}
	if !live {
		s.logger.Warn("refresh token reuse rejected", zap.String("member_id", claims.MemberID.String()))
		return nil, apperrors.Unauthorized("refresh token is expired or invalid")
	}
	return s.Issue(ctx, claims.MemberID, claims.Email)
}

// Logout revokes refreshToken when given, otherwise every token of memberID.
func (s *Sessions) Logout(ctx context.Context, memberID uuid.UUID, refreshToken string) error {
	if refreshToken == "" {
		return s.RevokeAll(ctx, memberID)
	}
	claims, err := s.jwt.Validate(refreshToken, TokenRefresh)
	if err != nil || claims.MemberID != memberID {
		return apperrors.Unauthorized("refresh token is expired or invalid")
	}
	if _, err := s.store.Revoke(ctx, memberID, claims.ID); err != nil {
		return apperrors.Wrap(err, "revoke refresh token")
	}
	return nil
}

// RevokeAll drops every refresh token of memberID.
func (s *Sessions) RevokeAll(ctx context.Context, memberID uuid.UUID) error {
	if err := s.store.RevokeAll(ctx, memberID); err != nil {
		return apperrors.Wrap(err, "revoke refresh tokens")
	}
	return nil
}

// ValidateAccess returns the claims of a valid access token.
func (s *Sessions) ValidateAccess(token string) (*Claims, error) {
	return s.jwt.Validate(token, TokenAccess)
}
