package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/qius-alx/social-network/internal/apperror"
	"github.com/qius-alx/social-network/internal/model"
)

// CookieName is the cookie the GitHub callback stores the token in.
const CookieName = "token"

type contextKey string

const profileKey contextKey = "profile"

// RequireAuth rejects requests without a valid session with 401 and stores
// the caller's profile in the request context otherwise.
func RequireAuth(gate *Gatekeeper) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			profile, err := gate.Authenticate(r.Context(), BearerToken(r))
			if err != nil {
				WriteAuthError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithProfile(r.Context(), profile)))
		})
	}
}

// WithProfile returns a copy of ctx carrying the authenticated profile.
func WithProfile(ctx context.Context, p *model.Profile) context.Context {
	return context.WithValue(ctx, profileKey, p)
}

// ProfileFromContext returns the profile RequireAuth stored, if any.
func ProfileFromContext(ctx context.Context) (*model.Profile, bool) {
	p, ok := ctx.Value(profileKey).(*model.Profile)
	return p, ok && p != nil
}

// UserIDFromContext returns the authenticated user id, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	p, ok := ProfileFromContext(ctx)
	if !ok {
		return "", false
	}
	return p.ID, true
}

// BearerToken reads the Authorization header, falling back to the cookie.
func BearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

// HandshakeToken is BearerToken plus the "token" query parameter, which is
// the only option browsers have when opening a websocket.
func HandshakeToken(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	return BearerToken(r)
}

// WriteAuthError writes a 401 for authentication failures and a 500 for
// anything else.
func WriteAuthError(w http.ResponseWriter, err error) {
	status := http.StatusUnauthorized
	body := map[string]string{"error": string(apperror.CodeUnauthenticated), "message": "valid authentication required"}

	var appErr *apperror.AppError
	switch {
	case errors.As(err, &appErr) && errors.Is(err, apperror.ErrUnauthenticated):
		body["error"] = string(appErr.Code)
		body["message"] = appErr.Message
	default:
		status = http.StatusInternalServerError
		body["error"] = "internal_error"
		body["message"] = "An internal error occurred"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
