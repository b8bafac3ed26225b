package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sakif/recipe-api/internal/model"
)

// contextKey is an unexported type used for context keys in this package,
// so no other package can read or shadow the values stored here.
type contextKey string

const userKey contextKey = "user"

// TokenCookie is the cookie the GitHub login stores the access token in.
const TokenCookie = "token"

// UserLookup resolves the account a validated token belongs to.
// *sqlite.DB satisfies it.
type UserLookup interface {
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
}

var errNoCredentials = errors.New("auth: no credentials")

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// It reads the token from the Authorization header ("Token <jwt>" or
// "Bearer <jwt>") or, failing that, the "token" cookie, validates it and
// loads the user. A missing or invalid token, or one whose user no longer
// exists or has been deactivated, gets 401 Unauthorized and stops the chain.
//
// Chi applies middlewares in a chain: req → M1 → M2 → Handler → M2 → M1 → resp
func RequireAuth(tokens *TokenService, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := authenticate(r, tokens, users)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Token realm="api"`)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized","message":"valid authentication credentials were not provided"}` + "\n"))
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

// ContextWithUser returns a copy of ctx carrying the authenticated user.
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext retrieves the authenticated user from the request context.
//
// Returns (nil, false) if the request is anonymous.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}

// UserIDFromContext retrieves the authenticated user's id from the request context.
//
// Usage in handlers:
//
//	userID, ok := auth.UserIDFromContext(r.Context())
//	if !ok {
//	    // anonymous user
//	}
func UserIDFromContext(ctx context.Context) (int64, bool) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return 0, false
	}
	return user.ID, true
}

func authenticate(r *http.Request, tokens *TokenService, users UserLookup) (*model.User, error) {
	raw, err := extractToken(r)
	if err != nil {
		return nil, err
	}

	userID, err := tokens.Validate(raw)
	if err != nil {
		return nil, err
	}

	user, err := users.GetUserByID(r.Context(), userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, errors.New("auth: user is inactive")
	}
	return user, nil
}

// extractToken reads the raw token from the Authorization header or the
// token cookie. The header wins when both are present.
func extractToken(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, value, ok := strings.Cut(header, " ")
		if !ok {
			return "", errNoCredentials
		}
		switch strings.ToLower(scheme) {
		case "token", "bearer":
			if value = strings.TrimSpace(value); value != "" {
				return value, nil
			}
		}
		return "", errNoCredentials
	}

	cookie, err := r.Cookie(TokenCookie)
	if err != nil || cookie.Value == "" {
		return "", errNoCredentials
	}
	return cookie.Value, nil
}
