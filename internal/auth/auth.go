// internal/auth/auth.go
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"goldtrade-engine/internal/util"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const identityContextKey contextKey = "identity"

// Identity is the verified caller extracted from a token. Token
// issuance lives outside this engine; only verification happens here.
type Identity struct {
	UserID  int64
	IsAdmin bool
}

// Claims represents JWT claims for authenticated users.
type Claims struct {
	UserID  int64 `json:"uid"`
	IsAdmin bool  `json:"adm"`
	jwt.RegisteredClaims
}

// Gate verifies bearer tokens and exposes chi-compatible middleware.
type Gate struct {
	secret []byte
}

// NewGate creates a Gate with the given HS256 signing secret.
func NewGate(secret string) *Gate {
	return &Gate{secret: []byte(secret)}
}

// Verify parses and validates a token, returning the caller identity.
func (g *Gate) Verify(tokenStr string) (Identity, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return g.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return Identity{}, util.ErrUnauthorized
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Identity{}, util.ErrUnauthorized
	}
	return Identity{UserID: claims.UserID, IsAdmin: claims.IsAdmin}, nil
}

// RequireUser rejects requests without a valid bearer token and stores
// the identity on the request context.
func (g *Gate) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := g.identityFromRequest(r)
		if err != nil {
			http.Error(w, `{"error":"authentication required"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// RequireAdmin additionally rejects non-admin callers.
func (g *Gate) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := g.identityFromRequest(r)
		if err != nil {
			http.Error(w, `{"error":"authentication required"}`, http.StatusUnauthorized)
			return
		}
		if !identity.IsAdmin {
			http.Error(w, `{"error":"admin access required"}`, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

func (g *Gate) identityFromRequest(r *http.Request) (Identity, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return Identity{}, util.ErrUnauthorized
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return Identity{}, util.ErrUnauthorized
	}
	return g.Verify(parts[1])
}

// WithIdentity returns a context carrying the identity.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFrom extracts the verified identity from the context.
func IdentityFrom(ctx context.Context) (Identity, error) {
	identity, ok := ctx.Value(identityContextKey).(Identity)
	if !ok {
		return Identity{}, errors.New("no identity on context")
	}
	return identity, nil
}
