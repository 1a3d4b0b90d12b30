package security

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "punchclock"

var ErrInvalidToken = errors.New("invalid or expired token")

// SessionClaims identifies the employee a device session belongs to.
type SessionClaims struct {
	EmployeeName string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer decodes the base64 signing secret. A zero ttl issues tokens without expiry.
func NewTokenIssuer(base64Secret string, ttl time.Duration) (*TokenIssuer, error) {
	secretBytes, err := base64.StdEncoding.DecodeString(base64Secret)
	if err != nil {
		return nil, fmt.Errorf("failed to decode token secret: %w", err)
	}
	if len(secretBytes) == 0 {
		return nil, errors.New("token secret is empty")
	}
	return &TokenIssuer{secret: secretBytes, ttl: ttl, now: time.Now}, nil
}

func (t *TokenIssuer) Issue(employeeID, employeeName string) (string, error) {
	now := t.now()
	claims := SessionClaims{
		EmployeeName: employeeName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   issuer,
			Subject:  employeeID,
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if t.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(t.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify checks the signature and expiry and returns the claims.
func (t *TokenIssuer) Verify(tokenStr string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return t.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}
