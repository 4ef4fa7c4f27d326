package auth

import (
	"errors"
	"net/http"

	"github.com/lycosidae/gateway/pkg/apperrors"
	"github.com/lycosidae/gateway/pkg/observability"
)

// ErrMalformedPrincipal means a structurally valid, unexpired token carried
// a payload missing required identity fields. Distinct from token-level
// failures so the layers stay independently testable.
var ErrMalformedPrincipal = errors.New("malformed principal")

// Resolver combines the credential extractor and token codec to produce an
// authenticated Principal from a request. Pure function of request + process
// secret; no side effects beyond diagnostic logging.
type Resolver struct {
	codec  *Codec
	logger *observability.Logger
}

// NewResolver creates a session resolver.
func NewResolver(codec *Codec, logger *observability.Logger) *Resolver {
	return &Resolver{codec: codec, logger: logger}
}

// Resolve authenticates a request. All failure modes surface to callers as
// Unauthenticated; the underlying cause (no credential, expired, invalid
// signature, malformed payload) stays wrapped for diagnostics.
func (r *Resolver) Resolve(req *http.Request) (*Principal, error) {
	tokenString, err := ExtractToken(req)
	if err != nil {
		r.logger.Debug("no valid credential in request")
		return nil, apperrors.Wrap(apperrors.KindUnauthenticated, "resolve_session", "user not authenticated", err)
	}

	claims, err := r.codec.Decode(tokenString)
	if err != nil {
		switch {
		case errors.Is(err, ErrTokenExpired):
			r.logger.Warn("session token expired")
			return nil, apperrors.Wrap(apperrors.KindUnauthenticated, "resolve_session", "token expired", err)
		default:
			r.logger.Warn("invalid session token")
			return nil, apperrors.Wrap(apperrors.KindUnauthenticated, "resolve_session", "invalid token", err)
		}
	}

	principal, err := principalFromClaims(claims)
	if err != nil {
		r.logger.WithError(err).Warn("token payload does not map to a principal")
		return nil, apperrors.Wrap(apperrors.KindUnauthenticated, "resolve_session", "invalid or malformed token", err)
	}

	return principal, nil
}

// principalFromClaims maps a verified claim set onto the Principal shape.
// A token can pass signature and expiry checks and still carry an
// incompatible payload, so each required field is checked explicitly.
func principalFromClaims(claims *Claims) (*Principal, error) {
	if claims.UserID == "" || claims.Username == "" || claims.Email == "" {
		return nil, ErrMalformedPrincipal
	}

	role, err := ParseRole(claims.Role)
	if err != nil {
		return nil, errors.Join(ErrMalformedPrincipal, err)
	}

	p := &Principal{
		ID:       claims.UserID,
		Username: claims.Username,
		Email:    claims.Email,
		Role:     role,
	}
	if claims.ExpiresAt != nil {
		p.Expiry = claims.ExpiresAt.Time
	}
	return p, nil
}
