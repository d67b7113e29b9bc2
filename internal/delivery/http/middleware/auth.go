package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	h "eventcalendar/internal/delivery/http/helpers"
	"eventcalendar/internal/domain"
)

type contextKey string

const userIDKey contextKey = "userID"

const authRealm = "eventcalendar"

// SetUserID returns a context carrying the authenticated caller.
func SetUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the authenticated caller, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

// Authenticator resolves the caller of a request from its bearer token.
type Authenticator struct {
	verifier domain.TokenVerifier
	logger   *slog.Logger
}

func NewAuthenticator(verifier domain.TokenVerifier, logger *slog.Logger) *Authenticator {
	return &Authenticator{verifier: verifier, logger: logger}
}

// Require runs next only for requests with a valid bearer token, with the caller
// on the request context. Rejections are 401 unauthorized with a Bearer challenge.
func (a *Authenticator) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			// No error attribute: the client has not attempted to authenticate.
			w.Header().Set("WWW-Authenticate", fmt.Sprintf("Bearer realm=%q", authRealm))
			h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing bearer token")
			return
		}

		userID, err := a.verifier.Verify(token)
		if err != nil {
			msg := domain.ErrTokenInvalid.Message
			if errors.Is(err, domain.ErrTokenExpired) {
				msg = domain.ErrTokenExpired.Message
			}
			a.logger.DebugContext(r.Context(), "token rejected", "path", r.URL.Path, "reason", msg)
			w.Header().Set("WWW-Authenticate",
				fmt.Sprintf("Bearer realm=%q, error=\"invalid_token\", error_description=%q", authRealm, msg))
			h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, msg)
			return
		}

		recordCaller(r.Context(), userID)
		next(w, r.WithContext(SetUserID(r.Context(), userID)))
	}
}

// bearerToken extracts the token from an Authorization header. The scheme is
// matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
