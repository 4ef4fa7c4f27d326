// Package authz implements the gateway's authorization policy: a family of
// predicates combining the principal's role with membership facts fetched
// fresh from the interpreter. Facts are inputs, never cached here, so every
// decision is a pure function of current truth.
package authz

import (
	"crypto/subtle"

	"github.com/lycosidae/gateway/pkg/apperrors"
	"github.com/lycosidae/gateway/pkg/auth"
	"github.com/lycosidae/gateway/pkg/interp"
)

// Decision is the outcome of a policy predicate. A deny always carries a
// human-readable reason; the policy never silently no-ops.
type Decision struct {
	Allowed bool
	Reason  string
}

// Allow returns an allowing decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny returns a denying decision with the given reason.
func Deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Err converts a deny into a Forbidden error; allows return nil.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return apperrors.Forbidden(d.Reason)
}

// CanViewOwnResource allows admins and the resource owner.
func CanViewOwnResource(p *auth.Principal, ownerID string) Decision {
	switch p.Role {
	case auth.RoleAdmin:
		return Allow()
	case auth.RoleStudent, auth.RolePlayer:
		if p.ID == ownerID {
			return Allow()
		}
		return Deny("access denied: you may only access your own record")
	}
	return Deny("access denied: unrecognized role")
}

// CanManageCompetitions gates competition/container/tag mutation and user
// listing. Admin only.
func CanManageCompetitions(p *auth.Principal) Decision {
	switch p.Role {
	case auth.RoleAdmin:
		return Allow()
	case auth.RoleStudent, auth.RolePlayer:
		return Deny("access denied: admin privileges required")
	}
	return Deny("access denied: unrecognized role")
}

// CanViewCompetitionExercises allows admins, and non-admins with an
// attendance record linking them to the competition. The same rule gates the
// scoreboard.
func CanViewCompetitionExercises(p *auth.Principal, compID string, attendance []interp.Attendance) Decision {
	switch p.Role {
	case auth.RoleAdmin:
		return Allow()
	case auth.RoleStudent, auth.RolePlayer:
		if isAttending(attendance, compID) {
			return Allow()
		}
		return Deny("you must join this competition first")
	}
	return Deny("access denied: unrecognized role")
}

// CanJoinTeam requires an attendance record for the team's competition and
// that the principal is not already on another team in that competition.
// Applies to team creation as well; admins follow the same membership rules
// when they play.
func CanJoinTeam(p *auth.Principal, compID string, attendance []interp.Attendance, teamsInComp []interp.Team) Decision {
	if !isAttending(attendance, compID) {
		return Deny("you must join the competition before joining a team")
	}
	for _, team := range teamsInComp {
		if team.HasMember(p.ID) {
			return Deny("you already belong to a team in this competition")
		}
	}
	return Allow()
}

// CanKickMember allows the team creator and admins to remove members.
func CanKickMember(p *auth.Principal, team *interp.Team) Decision {
	switch p.Role {
	case auth.RoleAdmin:
		return Allow()
	case auth.RoleStudent, auth.RolePlayer:
		if team.CreatorID == p.ID {
			return Allow()
		}
		return Deny("you do not have permission to remove members from this team")
	}
	return Deny("access denied: unrecognized role")
}

// CanJoinCompetitionByInvite validates a presented invite code. Invite codes
// are bearer secrets, so the comparison is constant-time.
func CanJoinCompetitionByInvite(inviteCode string, comp *interp.Competition) Decision {
	if subtle.ConstantTimeCompare([]byte(inviteCode), []byte(comp.InviteCode)) == 1 {
		return Allow()
	}
	return Deny("invalid invite code")
}

// CanRecordAttendance allows admins to record attendance for anyone and
// non-admins only for themselves.
func CanRecordAttendance(p *auth.Principal, targetUserID string) Decision {
	switch p.Role {
	case auth.RoleAdmin:
		return Allow()
	case auth.RoleStudent, auth.RolePlayer:
		if p.ID == targetUserID {
			return Allow()
		}
		return Deny("you may not record attendance for another user")
	}
	return Deny("access denied: unrecognized role")
}

func isAttending(attendance []interp.Attendance, compID string) bool {
	for _, a := range attendance {
		if a.CompetitionID == compID {
			return true
		}
	}
	return false
}
