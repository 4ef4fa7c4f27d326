package auth

import (
	"net/http"
	"time"
)

// NewSessionCookie builds the session cookie set at login: HTTP-only,
// Secure, SameSite=Lax.
func NewSessionCookie(token string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearSessionCookie builds the expired cookie set at logout. The gateway
// keeps no revocation list; clearing the cookie is a client-side courtesy
// and token expiry remains the only kill-switch.
func ClearSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}
