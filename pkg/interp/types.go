package interp

// User is the caller-safe user record. The password hash never appears here.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// InternalUser is the login-flow record returned by get_user_internal. It
// carries the stored password hash and must never be serialized to callers.
type InternalUser struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"password"`
	IsAdmin      bool   `json:"is_admin"`
}

// NewUser is the registration payload. Password carries the salted hash
// computed by the gateway, never the plain text.
type NewUser struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserUpdate carries optional profile changes; nil fields are untouched.
type UserUpdate struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

// Competition is a CTF competition or training class.
type Competition struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	InviteCode  string `json:"invite_code,omitempty"`
}

// NewCompetition is the admin creation payload.
type NewCompetition struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	InviteCode  string `json:"invite_code"`
}

// CompetitionUpdate carries optional competition changes.
type CompetitionUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	InviteCode  *string `json:"invite_code,omitempty"`
}

// Exercise is a challenge within a competition.
type Exercise struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Points      int      `json:"points,omitempty"`
	TagIDs      []string `json:"tag_ids,omitempty"`
}

// Attendance links a user to a competition, meaning "enrolled/checked in".
// It is the canonical source of truth for competition membership.
type Attendance struct {
	ID            string `json:"id,omitempty"`
	UserID        string `json:"users_id"`
	CompetitionID string `json:"competitions_id"`
}

// Team is a roster within a competition.
type Team struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	CompetitionID string   `json:"competition_id"`
	CreatorID     string   `json:"creator_id"`
	MemberIDs     []string `json:"members_ids"`
}

// NewTeam is the team creation payload.
type NewTeam struct {
	Name      string `json:"name"`
	CreatorID string `json:"creator_id"`
}

// HasMember reports whether the user appears in the team's roster.
func (t Team) HasMember(userID string) bool {
	for _, id := range t.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Tag classifies exercises (web, pwn, crypto, ...).
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NewTag is the tag creation payload.
type NewTag struct {
	Name string `json:"name"`
}

// Container is an exercise's running environment with connection info.
type Container struct {
	ID             string `json:"id"`
	ExerciseID     string `json:"exercises_id"`
	ConnectionInfo string `json:"connection_info"`
	Active         bool   `json:"active"`
}

// NewContainer is the container registration payload.
type NewContainer struct {
	ConnectionInfo string `json:"connection_info"`
	Active         bool   `json:"active"`
}

// ScoreboardEntry is one row of a competition scoreboard.
type ScoreboardEntry struct {
	TeamID   string `json:"team_id"`
	TeamName string `json:"team_name"`
	Score    int    `json:"score"`
}
