// Package auth guards the API with HS256 bearer tokens issued to chapter
// officers.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "greekledger"

var ErrMissingToken = errors.New("missing bearer token")

// Claims identifies the officer making the request.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type contextKey struct{}

// FromContext returns the claims of an authenticated request.
func FromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(contextKey{}).(*Claims)
	return c, ok
}

type Authenticator struct {
	secret []byte
	// public paths are served without a token; a trailing "/" matches the
	// whole subtree.
	public []string
}

func New(secret string, publicPaths ...string) *Authenticator {
	return &Authenticator{secret: []byte(secret), public: publicPaths}
}

// Enabled is false when no secret is configured; the middleware then lets
// every request through.
func (a *Authenticator) Enabled() bool { return len(a.secret) > 0 }

// Issue signs a token for subject valid for ttl.
func (a *Authenticator) Issue(subject, email, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Validate parses a token, rejecting anything not signed with HS256 by
// this server.
func (a *Authenticator) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func (a *Authenticator) isPublic(path string) bool {
	for _, p := range a.public {
		if path == p || (strings.HasSuffix(p, "/") && strings.HasPrefix(path, p)) {
			return true
		}
	}
	return false
}

// Middleware rejects unauthenticated requests through onUnauthorized.
// Preflight requests always pass so CORS can answer them.
func (a *Authenticator) Middleware(onUnauthorized func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !a.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || a.isPublic(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				onUnauthorized(w, r, ErrMissingToken)
				return
			}
			claims, err := a.Validate(strings.TrimSpace(raw))
			if err != nil {
				onUnauthorized(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, claims)))
		})
	}
}
