package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TTL is the fixed lifetime of every issued access token.
const TTL = 1800 * time.Second

var (
	// ErrInvalidToken covers bad signatures, malformed tokens and expiry.
	ErrInvalidToken = errors.New("invalid token")
	// ErrMissingSubject is returned when a well-signed token carries no sub claim.
	ErrMissingSubject = errors.New("token has no subject")
)

// Service issues and verifies HS256 access tokens. Now is overridable so
// tests can move the clock; nil means time.Now.
type Service struct {
	Secret []byte
	Now    func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Issue signs a token asserting userID until now+TTL.
func (s *Service) Issue(userID string) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": s.now().Add(TTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.Secret)
}

// Verify validates signature and expiry in one pass and returns the subject.
// Tokens are proof of prior issuance only; the caller still has to resolve
// the subject against the user store.
func (s *Service) Verify(raw string) (string, error) {
	t, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signature method: %v", t.Header["alg"])
		}
		return s.Secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !t.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", ErrMissingSubject
	}

	return sub, nil
}
