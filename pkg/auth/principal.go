package auth

import (
	"fmt"
	"time"
)

// Role is the closed set of authorization roles. Policy predicates switch
// exhaustively over it, so adding a role is a compile-time exercise.
type Role string

const (
	// RoleAdmin bypasses all membership checks.
	RoleAdmin Role = "admin"
	// RoleStudent is a regular enrolled user.
	RoleStudent Role = "student"
	// RolePlayer is a competition participant.
	RolePlayer Role = "player"
)

// ParseRole validates a role string from a token claim. Unknown values are
// rejected rather than defaulted, so a forged or stale claim cannot silently
// land in a privileged branch.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleStudent, RolePlayer:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// IsAdmin reports whether the role carries admin privileges.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// Principal is the authenticated identity derived from a verified session
// token for the duration of one request. Immutable once issued; reconstructed
// fresh on every request and never persisted server-side.
type Principal struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`

	// Expiry is the token expiry carried along for diagnostics. The codec
	// has already rejected expired tokens by the time a Principal exists.
	Expiry time.Time `json:"-"`
}
