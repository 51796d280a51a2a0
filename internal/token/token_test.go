package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestIssueVerifyRoundTrip(t *testing.T) {
	s := &Service{Secret: []byte("test_secret")}

	raw, err := s.Issue("user-123")
	require.NoError(t, err)

	sub, err := s.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "user-123", sub)
}

func TestVerifyExpired(t *testing.T) {
	issued := time.Now()
	s := &Service{Secret: []byte("test_secret"), Now: func() time.Time { return issued }}

	raw, err := s.Issue("user-123")
	require.NoError(t, err)

	// still valid one second before the deadline
	s.Now = func() time.Time { return issued.Add(TTL - time.Second) }
	_, err = s.Verify(raw)
	require.NoError(t, err)

	s.Now = func() time.Time { return issued.Add(TTL + time.Second) }
	_, err = s.Verify(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer := &Service{Secret: []byte("secret-a")}
	verifier := &Service{Secret: []byte("secret-b")}

	raw, err := issuer.Issue("user-123")
	require.NoError(t, err)

	_, err = verifier.Verify(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyGarbage(t *testing.T) {
	s := &Service{Secret: []byte("test_secret")}

	_, err := s.Verify("not.a.token")
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.Verify("")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyMissingSubject(t *testing.T) {
	s := &Service{Secret: []byte("test_secret")}

	claims := jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	require.NoError(t, err)

	_, err = s.Verify(raw)
	require.ErrorIs(t, err, ErrMissingSubject)
}
