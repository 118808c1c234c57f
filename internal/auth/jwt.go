package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gosuda/crewhub/internal/domain"
)

// Claims holds the JWT payload. The subject is the actor ID recorded on every
// stage transition the bearer performs.
type Claims struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
	Role string `json:"role"`
}

// ErrInvalidToken is returned when a JWT cannot be parsed, has expired or
// names an unknown actor.
var ErrInvalidToken = errors.New("auth: invalid or expired token")

// IssueToken creates a signed HS256 token for actor.
func IssueToken(secret, issuer string, actor domain.Actor, ttl time.Duration) (string, error) {
	if !actor.Role.Valid() {
		return "", fmt.Errorf("auth.IssueToken: %w: unknown role %q", domain.ErrValidation, actor.Role)
	}
	if actor.ID == uuid.Nil {
		return "", fmt.Errorf("auth.IssueToken: %w: actor id is required", domain.ErrValidation)
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
		Name: actor.Name,
		Role: string(actor.Role),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("auth.IssueToken: %w", err)
	}

	return signed, nil
}

// ValidateToken parses tokenString and returns the actor it names.
func ValidateToken(secret, issuer, tokenString string) (*domain.Actor, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("auth.ValidateToken: %w", ErrInvalidToken)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil || id == uuid.Nil {
		return nil, fmt.Errorf("auth.ValidateToken: %w: bad subject", ErrInvalidToken)
	}

	role := domain.Role(claims.Role)
	if !role.Valid() {
		return nil, fmt.Errorf("auth.ValidateToken: %w: unknown role", ErrInvalidToken)
	}

	return &domain.Actor{ID: id, Name: claims.Name, Role: role}, nil
}
