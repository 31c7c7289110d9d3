// Package auth validates the bearer tokens that identify API callers.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/sharekeeper/internal/common"
)

// GenerateToken signs an HS256 token whose subject is the caller's external
// id. The server only verifies tokens; this is used by tests and tooling.
func GenerateToken(subject string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetSubjectFromToken verifies tokenString and returns its "sub" claim.
// Expired tokens yield common.ErrTokenExpired; any other defect yields
// common.ErrorUnauthorized.
func GetSubjectFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrorUnauthorized
	}

	if !token.Valid || claims.Subject == "" {
		return "", common.ErrorUnauthorized
	}

	return claims.Subject, nil
}
