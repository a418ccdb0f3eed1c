package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"

	"github.com/medstore/pos-backend/internal/modules/audit"
)

type contextKey string

const operatorKey contextKey = "operator"

// Middleware validates the bearer token and injects the operator id into the
// request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}

		claims := &jwt.StandardClaims{}
		token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims,
			func(t *jwt.Token) (interface{}, error) { return jwtKey, nil })
		if err != nil || !token.Valid {
			http.Error(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}
		operatorID, err := uuid.Parse(claims.Subject)
		if err != nil {
			http.Error(w, "invalid token subject", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), operatorKey, operatorID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ActorFromRequest identifies who is performing the request and from where.
// Outside the middleware (or in tests) it degrades to a nil actor id.
func ActorFromRequest(r *http.Request) audit.Actor {
	actor := audit.Actor{Addr: r.RemoteAddr}
	if id, ok := r.Context().Value(operatorKey).(uuid.UUID); ok {
		actor.ID = id
	}
	return actor
}
