package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/todolist/internal/apperror"
	"github.com/sakif/todolist/internal/model"
)

// contextKey is unexported so no other package can read or overwrite the
// authenticated user.
type contextKey string

const userKey contextKey = "user"

// TokenResolver turns a bearer token into the user it was issued to. It
// returns an apperror.ErrUnauthorized error for bad, expired or orphaned
// tokens; any other error is a storage failure.
type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) (*model.User, error)
}

const (
	unauthorizedBody = `{"error":"unauthorized","message":"valid authentication required"}`
	internalBody     = `{"error":"internal_error","message":"An internal error occurred"}`
)

// RequireAuth rejects the request with 401 unless it carries a bearer
// token that resolves to an existing user. The user is stored in the
// request context for handlers (see UserFromContext).
//
// Every failure produces the same response, whether the header is missing,
// the token is expired, or the email in it no longer has an account.
func RequireAuth(resolver TokenResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				writeUnauthorized(w)
				return
			}

			user, err := resolver.ResolveToken(r.Context(), token)
			if err != nil {
				if errors.Is(err, apperror.ErrUnauthorized) {
					logger.Debug("authentication rejected",
						slog.String("path", r.URL.Path),
						slog.String("reason", err.Error()),
					)
					writeUnauthorized(w)
					return
				}
				logger.Error("resolving token", slog.String("error", err.Error()))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(internalBody)) //nolint:errcheck
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
// The scheme is matched case-insensitively.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(unauthorizedBody)) //nolint:errcheck
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the user stored by RequireAuth.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}
