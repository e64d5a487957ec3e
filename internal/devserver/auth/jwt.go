// Package auth issues and checks the development backend's session tokens
// and csrf cookies.
package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/forttask/internal/errors"
)

var ErrInvalidToken = errors.New("invalid session token")

// Claims carries the user id in the standard subject claim.
type Claims struct {
	jwt.RegisteredClaims
}

// GenerateToken signs a session token for userID valid for ttl.
func GenerateToken(userID int, secretKey []byte, ttl time.Duration, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	s, err := token.SignedString(secretKey)
	if err != nil {
		return "", errors.Wrap(err, "sign session token")
	}
	return s, nil
}

// UserIDFromToken verifies tokenString and returns its user id. Expired,
// forged and malformed tokens all yield ErrInvalidToken.
func UserIDFromToken(tokenString string, secretKey []byte) (int, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return 0, errors.Wrapf(ErrInvalidToken, "%v", err)
	}

	id, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return 0, errors.Wrap(ErrInvalidToken, "subject is not a user id")
	}
	return id, nil
}
