// Package auth verifies Data API callers. A request is accepted when it
// carries the configured api-key or a jwtTokenString signed with the
// server secret.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/mindkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the registered claims plus the calling client's id.
type Claims struct {
	jwt.RegisteredClaims
	ClientID string
}

func GenerateToken(clientID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		ClientID: clientID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetClientIDFromToken validates an HS256 token and returns its client id.
// Expired tokens yield common.ErrTokenExpired; anything else unusable yields
// common.ErrInvalidToken.
func GetClientIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid {
		return "", common.ErrInvalidToken
	}

	return claims.ClientID, nil
}
