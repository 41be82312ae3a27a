package middleware

import (
	"context"
	"errors"
	"net/http"

	"code_arena/internal/common"
	"code_arena/internal/common/security"
	"code_arena/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
	"github.com/rs/zerolog/log"
)

type contextKey string

const AuthUserCtxKey contextKey = "authUser"

// Authenticator rejects requests whose token (verified earlier by
// jwtauth.Verifier) is missing or invalid, and stores the AuthUser.
func Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())

		if errors.Is(err, jwtauth.ErrNoTokenFound) || (err == nil && token == nil) {
			common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		if err != nil {
			log.Debug().Err(err).Str("path", r.URL.Path).Msg("token rejected")
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		user, err := security.AuthUserFromClaims(claims)
		if err != nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithAuthUser(r.Context(), user)))
	})
}

func WithAuthUser(ctx context.Context, user *model.AuthUser) context.Context {
	return context.WithValue(ctx, AuthUserCtxKey, user)
}

// Helper to get the authenticated user from context
func AuthUserFromContext(ctx context.Context) (*model.AuthUser, bool) {
	user, ok := ctx.Value(AuthUserCtxKey).(*model.AuthUser)
	return user, ok && user != nil
}
