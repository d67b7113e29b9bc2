package auth

import (
	"errors"
	"fmt"
	"time"

	"eventcalendar/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

type jwtClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// JWT signs and verifies HS256 tokens whose subject is the user ID.
type JWT struct {
	secret []byte
	now    func() time.Time
}

// NewJWT returns a JWT issuer/verifier using secret.
func NewJWT(secret string) *JWT {
	return &JWT{secret: []byte(secret), now: time.Now}
}

var (
	_ domain.TokenIssuer   = (*JWT)(nil)
	_ domain.TokenVerifier = (*JWT)(nil)
)

// Issue returns a signed token for userID that expires after expiry.
func (j *JWT) Issue(userID, email string, expiry time.Duration) (string, error) {
	now := j.now()
	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
		Email: email,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Verify parses token and returns its subject. Expired tokens that are otherwise
// well formed and correctly signed yield domain.ErrTokenExpired; everything else
// yields domain.ErrTokenInvalid.
func (j *JWT) Verify(token string) (string, error) {
	claims := &jwtClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", domain.ErrTokenExpired
	case err != nil || !parsed.Valid || claims.Subject == "":
		return "", domain.ErrTokenInvalid
	}
	return claims.Subject, nil
}
