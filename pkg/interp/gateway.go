// Package interp defines the interpreter gateway: the contract against the
// downstream data service that owns users, competitions, teams, attendance,
// containers, and tags, plus its HTTP client implementation.
//
// The gateway owns no durable state. Every membership fact is fetched fresh
// per request; this layer never caches and never retries.
package interp

import "context"

// Gateway is the interpreter contract consumed by the gateway's handlers and
// authorization policy. Each call may fail with a transport/availability
// error (GatewayUnavailable), distinct from a business NotFound/Conflict.
type Gateway interface {
	// Users
	GetUserByID(ctx context.Context, userID string) (*User, error)
	GetUserInternal(ctx context.Context, email string) (*InternalUser, error)
	RegisterUser(ctx context.Context, payload NewUser) (*User, error)
	UpdateUser(ctx context.Context, userID string, payload UserUpdate) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)

	// Competitions
	ListCompetitions(ctx context.Context) ([]Competition, error)
	GetCompetition(ctx context.Context, compID string) (*Competition, error)
	GetCompetitionTeams(ctx context.Context, compID string) ([]Team, error)
	GetCompetitionExercises(ctx context.Context, compID string) ([]Exercise, error)
	CreateCompetition(ctx context.Context, payload NewCompetition) (*Competition, error)
	UpdateCompetition(ctx context.Context, compID string, payload CompetitionUpdate) (*Competition, error)
	DeleteCompetition(ctx context.Context, compID string) error

	// Attendance
	RecordAttendance(ctx context.Context, attendance Attendance) (*Attendance, error)
	GetUserAttendance(ctx context.Context, userID string) ([]Attendance, error)

	// Teams
	GetTeam(ctx context.Context, teamID string) (*Team, error)
	CreateTeam(ctx context.Context, compID string, payload NewTeam) (*Team, error)
	JoinTeam(ctx context.Context, teamID, userID string) (*Team, error)
	LeaveTeam(ctx context.Context, teamID, userID string) error

	// Tags
	ListTags(ctx context.Context) ([]Tag, error)
	CreateTag(ctx context.Context, payload NewTag) (*Tag, error)
	DeleteTag(ctx context.Context, tagID string) error

	// Containers
	ListContainers(ctx context.Context) ([]Container, error)
	GetContainer(ctx context.Context, containerID string) (*Container, error)
	GetContainerByExercise(ctx context.Context, exerciseID string) (*Container, error)
	CreateContainer(ctx context.Context, exerciseID string, payload NewContainer) (*Container, error)
	RemoveContainer(ctx context.Context, containerID string) error

	// Scoreboard
	GetScoreboard(ctx context.Context, compID string) ([]ScoreboardEntry, error)
}
