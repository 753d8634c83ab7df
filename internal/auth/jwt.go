package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
)

// TokenType separates access tokens from refresh tokens.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

// Claims holds JWT claims including member ID and token type.
type Claims struct {
	MemberID uuid.UUID `json:"member_id"`
	Email    string    `json:"email"`
	Type     TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// JWTService handles token generation and validation.
type JWTService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewJWTService creates a JWT service.
func NewJWTService(secret string, accessTTL, refreshTTL time.Duration) *JWTService {
	return &JWTService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// RefreshTTL returns how long refresh tokens live.
func (s *JWTService) RefreshTTL() time.Duration { return s.refreshTTL }

// Generate creates a signed token of type typ. It returns the token and its id (jti).
func (s *JWTService) Generate(memberID uuid.UUID, email string, typ TokenType) (string, string, error) {
	ttl := s.accessTTL
	if typ == TokenRefresh {
		ttl = s.refreshTTL
	}
	now := s.now()
	jti := uuid.New().String()
	claims := Claims{
		MemberID: memberID,
		Email:    email,
		Type:     typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   memberID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        jti,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", "", err
	}
	return signed, jti, nil
}

// Validate parses and validates a JWT of type want, returning claims or ErrInvalidToken.
func (s *JWTService) Validate(tokenString string, want TokenType) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Type != want {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
