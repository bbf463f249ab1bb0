package auth

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/countboard/countboard/internal/httpjson"
)

type userIDKey struct{}
type roleKey struct{}

// RoleSuperAdmin marks tokens issued for the admin console.
const RoleSuperAdmin = "super_admin"

// UserIDFromContext retrieves the authenticated user ID from the context.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey{}).(uuid.UUID)
	return id, ok
}

// RoleFromContext retrieves the token role claim, if any.
func RoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(roleKey{}).(string)
	return role, ok
}

// Middleware validates the Authorization bearer token and places the user
// identity in the request context. Token issuance lives outside this
// service; only HS256 tokens whose `sub` claim is a user UUID are accepted.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httpjson.WriteError(w, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			httpjson.WriteError(w, http.StatusUnauthorized, "Invalid Authorization header format. Must be 'Bearer <token>'")
			return
		}

		secret := os.Getenv("JWT_SECRET")
		if secret == "" {
			log.Error().Msg("JWT_SECRET environment variable is not set")
			httpjson.WriteError(w, http.StatusInternalServerError, "Server configuration error: JWT secret missing")
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			log.Debug().Err(err).Msg("rejected invalid token")
			httpjson.WriteError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			httpjson.WriteError(w, http.StatusUnauthorized, "Invalid token claims")
			return
		}

		sub, ok := claims["sub"].(string)
		if !ok {
			httpjson.WriteError(w, http.StatusUnauthorized, "Invalid token: missing user ID")
			return
		}
		userID, err := uuid.Parse(sub)
		if err != nil {
			httpjson.WriteError(w, http.StatusUnauthorized, "Invalid token: malformed user ID")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey{}, userID)
		if role, ok := claims["role"].(string); ok {
			ctx = context.WithValue(ctx, roleKey{}, role)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminOnly rejects requests whose token does not carry the super_admin
// role. It must run after Middleware.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, ok := RoleFromContext(r.Context())
		if !ok || role != RoleSuperAdmin {
			httpjson.WriteError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
