// Package auth verifies client-supplied credential tokens and extracts a
// typed identity from them. All token failure modes (malformed, expired,
// wrong signature, bad subject) are folded into ErrAuthFailed; callers only
// ever distinguish "authenticated as X" from "not authenticated".
package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrAuthFailed = errors.New("auth failed")

// Claims is the identity carried by a verified token. A connection with no
// verified token holds a nil *Claims - there is no zero-value sentinel
// identity.
type Claims struct {
	UserID uuid.UUID
	Name   string
}

type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify decodes tokenStr and returns its claims, or ErrAuthFailed.
func (v *Verifier) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrAuthFailed
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrAuthFailed
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return nil, ErrAuthFailed
	}

	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, ErrAuthFailed
	}

	name, _ := claims["name"].(string)

	return &Claims{UserID: userID, Name: name}, nil
}
