// Package auth implements the session credential issuer. A credential is a
// signed, time-limited bearer token binding a participant's display name and
// chosen group number to a room code. Possession is proof of room membership;
// tokens are stateless and cannot be revoked before expiry except by the room
// itself expiring, which is why their lifetime is clamped to the room's.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned for malformed, tampered, or expired tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrMissingToken is returned when no credential was supplied at all.
	ErrMissingToken = errors.New("authorization token required")
)

// Claims is the payload of a session credential.
type Claims struct {
	Name        string `json:"name"`
	GroupNumber int    `json:"group_number"`
	RoomCode    string `json:"room_code"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies session credentials with a server-held secret.
type Issuer struct {
	secret []byte
}

// NewIssuer creates an issuer for the given signing secret. The secret should
// be a strong random string; configuration validation rejects an empty one
// before this is ever reached.
func NewIssuer(secret string) *Issuer {
	return &Issuer{secret: []byte(secret)}
}

// Issue signs a credential for the participant, expiring at roomExpiresAt so
// the token can never outlive the room it grants access to.
func (i *Issuer) Issue(name string, groupNumber int, roomCode string, roomExpiresAt time.Time) (string, error) {
	now := time.Now().UTC()
	claims := &Claims{
		Name:        name,
		GroupNumber: groupNumber,
		RoomCode:    roomCode,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(roomExpiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a credential, returning its claims. It checks
// the signature and expiry only; whether the referenced room still exists is
// the caller's concern (callers that need it re-fetch the room).
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return i.secret, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
