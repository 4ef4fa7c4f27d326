package auth

import (
	"errors"
	"net/http"
	"strings"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "session_token"

// ErrNoCredential means neither the session cookie nor a Bearer header
// carried a credential.
var ErrNoCredential = errors.New("no credential in request")

// ExtractToken pulls the raw session token out of an inbound request. The
// cookie takes precedence over the Authorization header.
func ExtractToken(r *http.Request) (string, error) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		const prefix = "bearer "
		if len(authHeader) > len(prefix) && strings.EqualFold(authHeader[:len(prefix)], prefix) {
			if token := strings.TrimSpace(authHeader[len(prefix):]); token != "" {
				return token, nil
			}
		}
	}

	return "", ErrNoCredential
}
