package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTTokenService signs and checks HS256 service tokens.
type JWTTokenService struct {
	secret []byte
	now    func() time.Time
}

var (
	_ TokenIssuer   = (*JWTTokenService)(nil)
	_ TokenVerifier = (*JWTTokenService)(nil)
)

func NewJWTTokenService(secret string) (*JWTTokenService, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &JWTTokenService{secret: []byte(secret), now: time.Now}, nil
}

func (j *JWTTokenService) Issue(service string, tenantID int64, ttl time.Duration) (string, error) {
	if service == "" || tenantID <= 0 {
		return "", fmt.Errorf("issue token: service and positive tenant id are required")
	}

	now := j.now()
	claims := &ServiceClaims{
		Service:  service,
		TenantID: tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(tenantID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

func (j *JWTTokenService) Verify(tokenString string) (*ServiceClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ServiceClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*ServiceClaims)
	if !ok || !token.Valid || claims.TenantID <= 0 || claims.Service == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
