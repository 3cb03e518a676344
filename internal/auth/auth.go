// Package auth issues and verifies the HS256 bearer tokens used by the API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthorized is returned for a missing, malformed, expired or
// wrongly-signed token.
var ErrUnauthorized = errors.New("unauthorized")

// DefaultTTL is the lifetime of tokens minted by Issue when ttl is zero.
const DefaultTTL = 24 * time.Hour

// Claims carries the learner id alongside the registered claims.
type Claims struct {
	UserID uint `json:"userId"`
	jwt.RegisteredClaims
}

// Authenticator signs and verifies tokens with one shared secret.
type Authenticator struct {
	secret []byte
	now    func() time.Time
}

func New(secret string) (*Authenticator, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	return &Authenticator{secret: []byte(secret), now: time.Now}, nil
}

// Issue mints a token for userID.
func (a *Authenticator) Issue(userID uint, ttl time.Duration) (string, error) {
	if userID == 0 {
		return "", fmt.Errorf("issue token: user id is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := a.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses tokenString and returns the learner id it was issued for.
func (a *Authenticator) Verify(tokenString string) (uint, error) {
	if tokenString == "" {
		return 0, ErrUnauthorized
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if claims.UserID == 0 {
		return 0, fmt.Errorf("%w: token has no userId", ErrUnauthorized)
	}
	return claims.UserID, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

type ctxKey struct{}

// WithUserID stores the authenticated learner id on ctx.
func WithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserIDFrom returns the learner id stored by WithUserID.
func UserIDFrom(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(ctxKey{}).(uint)
	return id, ok && id != 0
}
