package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "feegateway"

// ServiceClaims identify the calling school system and the tenant it acts for.
type ServiceClaims struct {
	Service  string `json:"service"`
	TenantID int64  `json:"tenant_id"`
	jwt.RegisteredClaims
}

// TokenIssuer mints service tokens, used by the token command.
type TokenIssuer interface {
	Issue(service string, tenantID int64, ttl time.Duration) (string, error)
}

type TokenVerifier interface {
	Verify(tokenString string) (*ServiceClaims, error)
}

var (
	ErrEmptySecret  = errors.New("jwt secret is empty")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
