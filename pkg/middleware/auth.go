// Package middleware provides the gateway's HTTP middleware: session
// resolution and login rate limiting.
package middleware

import (
	"errors"
	"net/http"

	"github.com/lycosidae/gateway/pkg/auth"
	"github.com/lycosidae/gateway/pkg/contextkeys"
	"github.com/lycosidae/gateway/pkg/httputil"
	"github.com/lycosidae/gateway/pkg/observability"
)

// SessionMiddleware resolves the session token on every request and injects
// the Principal into the request context. Requests without a valid principal
// are rejected with 401 before reaching the handler.
type SessionMiddleware struct {
	resolver *auth.Resolver
	metrics  *observability.Metrics
}

// NewSessionMiddleware creates a session middleware backed by the resolver.
func NewSessionMiddleware(resolver *auth.Resolver, metrics *observability.Metrics) *SessionMiddleware {
	return &SessionMiddleware{resolver: resolver, metrics: metrics}
}

// Handler wraps an HTTP handler with session resolution.
func (m *SessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := m.resolver.Resolve(r)
		m.observeDecode(err)
		if err != nil {
			httputil.WriteAppError(w, err)
			return
		}

		ctx := contextkeys.WithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// observeDecode counts token verification outcomes. Requests that carried no
// credential at all are not decode attempts and are skipped.
func (m *SessionMiddleware) observeDecode(err error) {
	if m.metrics == nil || errors.Is(err, auth.ErrNoCredential) {
		return
	}

	outcome := "ok"
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		outcome = "expired"
	case err != nil:
		outcome = "invalid"
	}
	m.metrics.TokenDecodesTotal.WithLabelValues(outcome).Inc()
}

// GetPrincipal extracts the authenticated principal from a request handled
// behind SessionMiddleware. Returns nil if the request was not authenticated.
func GetPrincipal(r *http.Request) *auth.Principal {
	value := r.Context().Value(contextkeys.PrincipalKey)
	if value == nil {
		return nil
	}
	principal, ok := value.(*auth.Principal)
	if !ok {
		return nil
	}
	return principal
}
