package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medscan-health/medscan-api/internal/config"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// TokenClaims represents the claims carried by an access token
type TokenClaims struct {
	UserID    string    `json:"sub"` // UUID stored as string in token
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// TokenService defines the interface for token creation and validation.
// Implementations are JWTService (HS256) and PasetoService (PASETO v4.local).
type TokenService interface {
	CreateToken(userID uuid.UUID, duration time.Duration) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}

// NewTokenService selects a token service implementation from config
func NewTokenService(cfg config.AuthConfig) (TokenService, error) {
	switch cfg.TokenAlgorithm {
	case config.AlgorithmHS256:
		return NewJWTService(cfg.TokenSecret)
	case config.AlgorithmPaseto:
		return NewPasetoService(cfg.TokenSecret)
	default:
		return nil, fmt.Errorf("unsupported token algorithm %q", cfg.TokenAlgorithm)
	}
}
