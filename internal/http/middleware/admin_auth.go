package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const adminClaimsKey contextKey = "adminClaims"

// ResearcherRole is the role claim required on admin tokens.
const ResearcherRole = "researcher"

// AdminClaims are the claims carried by researcher tokens.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IssueAdminToken signs a researcher token valid for ttl.
func IssueAdminToken(secret, subject string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("middleware: admin secret required")
	}
	now := time.Now()
	claims := AdminClaims{
		Role: ResearcherRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// AdminJWT guards researcher endpoints with an HMAC-signed token carrying the
// researcher role.
func AdminJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				http.Error(w, "admin auth disabled", http.StatusUnauthorized)
				return
			}
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}

			var claims AdminClaims
			token, err := jwt.ParseWithClaims(strings.TrimPrefix(auth, "Bearer "), &claims, func(token *jwt.Token) (any, error) {
				return []byte(secret), nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
			if err != nil || !token.Valid {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			if claims.Role != ResearcherRole {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			ctx := context.WithValue(r.Context(), adminClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminClaimsFromContext returns admin JWT claims if present.
func AdminClaimsFromContext(ctx context.Context) (AdminClaims, bool) {
	claims, ok := ctx.Value(adminClaimsKey).(AdminClaims)
	return claims, ok
}
