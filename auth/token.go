package auth

import (
	"errors"
	"time"

	"github.com/dexten32/accuscanner/app/models"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// SessionCookie is the cookie name carrying the signed session token.
	SessionCookie = "token"
	// TokenTTL matches the session cookie lifetime.
	TokenTTL = 24 * time.Hour

	defaultLeeway = 30 * time.Second
)

type sessionClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Plan   string `json:"plan"`
	jwt.RegisteredClaims
}

// SignToken issues an HS256 session token for the given user identity.
func SignToken(secret string, userID, email string, plan models.Plan) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret must be set")
	}
	now := time.Now()
	claims := sessionClaims{
		UserID: userID,
		Email:  email,
		Plan:   string(plan),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// VerifyToken parses and validates a session token, returning its claims.
func VerifyToken(secret, tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(
		tokenString,
		&sessionClaims{},
		func(t *jwt.Token) (any, error) {
			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(defaultLeeway),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}

	sc, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if sc.UserID == "" {
		return nil, errors.New("token missing userId")
	}

	return &Claims{
		UserID: sc.UserID,
		Email:  sc.Email,
		Plan:   models.Plan(sc.Plan),
	}, nil
}
