package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/crewhub/internal/auth"
	"github.com/gosuda/crewhub/internal/domain"
)

const (
	secret = "test-secret-key-very-long-and-secure"
	issuer = "crewhub"
)

func TestJWT_IssueAndValidateRoundTrip(t *testing.T) {
	t.Parallel()

	actor := domain.Actor{ID: uuid.New(), Name: "Mina Park", Role: domain.RoleCoordinator}

	token, err := auth.IssueToken(secret, issuer, actor, 5*time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := auth.ValidateToken(secret, issuer, token)
	require.NoError(t, err)
	assert.Equal(t, actor, *got)
}

func TestJWT_Rejections(t *testing.T) {
	t.Parallel()

	actor := domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin}

	valid, err := auth.IssueToken(secret, issuer, actor, time.Minute)
	require.NoError(t, err)
	expired, err := auth.IssueToken(secret, issuer, actor, -time.Second)
	require.NoError(t, err)
	otherIssuer, err := auth.IssueToken(secret, "someone-else", actor, time.Minute)
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "not-a-uuid",
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
		Role: "admin",
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
		Role: "superuser",
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.NewString(), Issuer: issuer},
		Role:             "admin",
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{name: "wrong secret", token: valid, secret: "another-secret-that-is-long-enough"},
		{name: "expired", token: expired, secret: secret},
		{name: "other issuer", token: otherIssuer, secret: secret},
		{name: "malformed", token: "totally.invalid.token", secret: secret},
		{name: "subject not a uuid", token: badSubject, secret: secret},
		{name: "unknown role", token: badRole, secret: secret},
		{name: "no expiry", token: noExpiry, secret: secret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := auth.ValidateToken(tt.secret, issuer, tt.token)
			require.ErrorIs(t, err, auth.ErrInvalidToken)
		})
	}
}

func TestIssueToken_RejectsBadActor(t *testing.T) {
	t.Parallel()

	_, err := auth.IssueToken(secret, issuer, domain.Actor{ID: uuid.New(), Role: "superuser"}, time.Minute)
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = auth.IssueToken(secret, issuer, domain.Actor{Role: domain.RoleViewer}, time.Minute)
	require.ErrorIs(t, err, domain.ErrValidation)
}
