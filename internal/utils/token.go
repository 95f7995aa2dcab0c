package utils

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	tokenIssuer          = "geomark"
	secretEnv            = "JWT_SECRET_KEY"
	expireHoursEnv       = "TOKEN_EXPIRE_HOURS"
	defaultAccessExpire  = 100 * time.Hour
	refreshTokenLifetime = 30 * 24 * time.Hour
)

// TokenClaims carries the user id in the registered Subject field plus the
// username, so /me can answer from the token without a database lookup.
type TokenClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenPair is what login and registration hand back to the client.
type TokenPair struct {
	Access  string `json:"access_token"`
	Refresh string `json:"refresh_token"`
}

func jwtSecret() []byte {
	return []byte(os.Getenv(secretEnv))
}

func accessTokenLifetime() time.Duration {
	if h, err := strconv.Atoi(os.Getenv(expireHoursEnv)); err == nil && h > 0 {
		return time.Duration(h) * time.Hour
	}
	return defaultAccessExpire
}

// NewTokenPair signs an access and a refresh token for the given user.
func NewTokenPair(userID uint, username string) (*TokenPair, error) {
	access, err := signToken(userID, username, accessTokenLifetime())
	if err != nil {
		return nil, err
	}
	refresh, err := signToken(userID, username, refreshTokenLifetime)
	if err != nil {
		return nil, err
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

func signToken(userID uint, username string, lifetime time.Duration) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   fmt.Sprint(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret())
}

// ParseToken verifies a token string and returns its claims.
func ParseToken(token string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return jwtSecret(), nil
	})
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return claims, nil
}

// UserIDFromClaims decodes the numeric user id stored in the Subject field.
func UserIDFromClaims(claims *TokenClaims) (uint, error) {
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid subject claim %q: %w", claims.Subject, err)
	}
	return uint(id), nil
}
