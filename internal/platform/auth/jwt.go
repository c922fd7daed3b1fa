// Package auth verifies bearer tokens and exposes the caller's identity
// and role through the request context.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/example/rpg-platform/internal/platform/api"
)

type ctxKeyUserID struct{}
type ctxKeyRole struct{}

func UserIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyUserID{}).(string)
	return v, ok
}

// WithUserID injects user_id into context. Useful for testing.
func WithUserID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, ctxKeyUserID{}, uid)
}

func RoleFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyRole{}).(string)
	return v, ok
}

type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// JWTVerifier checks HS256 signatures against a shared secret.
type JWTVerifier struct {
	Secret []byte
}

var errInvalidToken = errors.New("invalid token")

func (v JWTVerifier) Parse(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(*jwt.Token) (any, error) { return v.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errInvalidToken
	}
	return claims, nil
}

// bearerToken extracts the token from an Authorization: Bearer header.
func bearerToken(r *http.Request) (string, bool) {
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	tok := strings.TrimSpace(parts[1])
	return tok, tok != ""
}

// RequireUser rejects requests without a valid bearer token and injects
// the token subject (and role, when present) into the request context.
func RequireUser(verifier JWTVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, ok := bearerToken(r)
			if !ok {
				api.Unauthorized(w, "UNAUTHORIZED", "bearer token required", "")
				return
			}
			claims, err := verifier.Parse(tok)
			if err != nil || strings.TrimSpace(claims.Subject) == "" {
				api.Unauthorized(w, "UNAUTHORIZED", "invalid or expired token", "")
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyUserID{}, claims.Subject)
			if strings.TrimSpace(claims.Role) != "" {
				ctx = context.WithValue(ctx, ctxKeyRole{}, claims.Role)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
