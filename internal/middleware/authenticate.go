package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/musihub/backend/internal/auth"
	"github.com/musihub/backend/internal/logging"
)

// TokenVerifier resolves an access token to the user it was issued to.
type TokenVerifier interface {
	Verify(accessToken string) (string, error)
}

// Authenticate requires a valid access token and stores the caller's user id in the
// request context. Browsers cannot set headers on websocket handshakes, so the
// access_token query parameter is accepted as a fallback.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "missing access token")
				return
			}

			userID, err := verifier.Verify(token)
			if err != nil {
				message := "invalid access token"
				if errors.Is(err, auth.ErrAccessTokenExpired) {
					message = "access token expired"
				}
				logging.FromContext(r.Context()).Warn("rejected access token", "error", err)
				writeError(w, http.StatusUnauthorized, message)
				return
			}

			ctx := auth.WithUserID(r.Context(), userID)
			ctx = logging.WithLogger(ctx, logging.FromContext(ctx).With("user_id", userID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return strings.TrimSpace(r.URL.Query().Get("access_token"))
}
