package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"cashout/internal/jwttoken"
	id "cashout/pkg/domain"
	dErrors "cashout/pkg/domain-errors"
	"cashout/pkg/platform/httputil"
	"cashout/pkg/requestcontext"
)

// TokenValidator validates bearer tokens from the Authorization header.
type TokenValidator interface {
	ValidateToken(tokenString string) (*jwttoken.Claims, error)
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// RequireUser rejects requests lacking a valid user token and places the
// user ID in the request context.
func RequireUser(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"))
				return
			}
			claims, err := validator.ValidateToken(token)
			if err != nil {
				httputil.WriteError(w, err)
				return
			}
			userID, err := id.ParseUserID(claims.SubjectID)
			if err != nil {
				logger.WarnContext(r.Context(), "token carries malformed subject id", "error", err)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid token subject"))
				return
			}
			ctx := requestcontext.WithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects requests lacking a valid admin token and places the
// admin ID in the request context.
func RequireAdmin(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"))
				return
			}
			claims, err := validator.ValidateToken(token)
			if err != nil {
				httputil.WriteError(w, err)
				return
			}
			if claims.Role != jwttoken.RoleAdmin {
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "admin role required"))
				return
			}
			adminID, err := id.ParseAdminID(claims.SubjectID)
			if err != nil {
				logger.WarnContext(r.Context(), "token carries malformed subject id", "error", err)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid token subject"))
				return
			}
			ctx := requestcontext.WithAdminID(r.Context(), adminID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
