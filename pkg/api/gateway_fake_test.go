package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lycosidae/gateway/pkg/apperrors"
	"github.com/lycosidae/gateway/pkg/auth"
	"github.com/lycosidae/gateway/pkg/config"
	"github.com/lycosidae/gateway/pkg/interp"
	"github.com/lycosidae/gateway/pkg/observability"
)

// fakeGateway is an in-memory interp.Gateway for handler tests.
type fakeGateway struct {
	mu sync.Mutex

	users        map[string]*interp.InternalUser // keyed by email
	competitions map[string]*interp.Competition
	exercises    map[string][]interp.Exercise // keyed by competition id
	attendance   []interp.Attendance
	teams        map[string]*interp.Team
	tags         map[string]*interp.Tag
	containers   map[string]*interp.Container
	scoreboards  map[string][]interp.ScoreboardEntry

	nextID int

	// failures maps an operation name to a forced error
	failures map[string]error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		users:        make(map[string]*interp.InternalUser),
		competitions: make(map[string]*interp.Competition),
		exercises:    make(map[string][]interp.Exercise),
		teams:        make(map[string]*interp.Team),
		tags:         make(map[string]*interp.Tag),
		containers:   make(map[string]*interp.Container),
		scoreboards:  make(map[string][]interp.ScoreboardEntry),
		failures:     make(map[string]error),
	}
}

func (f *fakeGateway) failWith(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op] = err
}

func (f *fakeGateway) forced(op string) error {
	return f.failures[op]
}

func (f *fakeGateway) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeGateway) GetUserByID(_ context.Context, userID string) (*interp.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.forced("get_user_by_id"); err != nil {
		return nil, err
	}
	for _, u := range f.users {
		if u.ID == userID {
			return &interp.User{ID: u.ID, Username: u.Username, Email: u.Email}, nil
		}
	}
	return nil, apperrors.NotFound("user not found")
}

func (f *fakeGateway) GetUserInternal(_ context.Context, email string) (*interp.InternalUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.forced("get_user_internal"); err != nil {
		return nil, err
	}
	u, ok := f.users[email]
	if !ok {
		return nil, apperrors.NotFound("user not found")
	}
	return u, nil
}

func (f *fakeGateway) RegisterUser(_ context.Context, payload interp.NewUser) (*interp.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.forced("register_user"); err != nil {
		return nil, err
	}
	if _, ok := f.users[payload.Email]; ok {
		return nil, apperrors.Conflict("email already registered")
	}
	u := &interp.InternalUser{
		ID:           f.id("u"),
		Username:     payload.Username,
		Email:        payload.Email,
		PasswordHash: payload.Password,
	}
	f.users[payload.Email] = u
	return &interp.User{ID: u.ID, Username: u.Username, Email: u.Email}, nil
}

func (f *fakeGateway) UpdateUser(_ context.Context, userID string, payload interp.UserUpdate) (*interp.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.forced("update_user"); err != nil {
		return nil, err
	}
	for email, u := range f.users {
		if u.ID != userID {
			continue
		}
		if payload.Username != nil {
			u.Username = *payload.Username
		}
		if payload.Password != nil {
			u.PasswordHash = *payload.Password
		}
		if payload.Email != nil && *payload.Email != email {
			delete(f.users, email)
			u.Email = *payload.Email
			f.users[u.Email] = u
		}
		return &interp.User{ID: u.ID, Username: u.Username, Email: u.Email}, nil
	}
	return nil, apperrors.NotFound("user not found")
}

func (f *fakeGateway) ListUsers(_ context.Context) ([]interp.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.forced("list_users"); err != nil {
		return nil, err
	}
	out := make([]interp.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, interp.User{ID: u.ID, Username: u.Username, Email: u.Email})
	}
	return out, nil
}

func (f *fakeGateway) ListCompetitions(_ context.Context) ([]interp.Competition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.forced("list_competitions"); err != nil {
		return nil, err
	}
	out := make([]interp.Competition, 0, len(f.competitions))
	for _, c := range f.competitions {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeGateway) GetCompetition(_ context.Context, compID string) (*interp.Competition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.forced("get_competition"); err != nil {
		return nil, err
	}
	c, ok := f.competitions[compID]
	if !ok {
		return nil, apperrors.NotFound("competition not found")
	}
	cp := *c
	return &cp, nil
}

func (f *fakeGateway) GetCompetitionTeams(_ context.Context, compID string) ([]interp.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.forced("get_competition_teams"); err != nil {
		return nil, err
	}
	out := make([]interp.Team, 0)
	for _, t := range f.teams {
		if t.CompetitionID == compID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeGateway) GetCompetitionExercises(_ context.Context, compID string) ([]interp.Exercise, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.forced("get_competition_exercises"); err != nil {
		return nil, err
	}
	if _, ok := f.competitions[compID]; !ok {
		return nil, apperrors.NotFound("competition not found")
	}
	return f.exercises[compID], nil
}

func (f *fakeGateway) CreateCompetition(_ context.Context, payload interp.NewCompetition) (*interp.Competition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.forced("create_competition"); err != nil {
		return nil, err
	}
	c := &interp.Competition{
		ID:          f.id("comp"),
		Name:        payload.Name,
		Description: payload.Description,
		InviteCode:  payload.InviteCode,
	}
	f.competitions[c.ID] = c
	return c, nil
}

func (f *fakeGateway) UpdateCompetition(_ context.Context, compID string, payload interp.CompetitionUpdate) (*interp.Competition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.forced("update_competition"); err != nil {
		return nil, err
	}
	c, ok := f.competitions[compID]
	if !ok {
		return nil, apperrors.NotFound("competition not found")
	}
	if payload.Name != nil {
		c.Name = *payload.Name
	}
	if payload.Description != nil {
		c.Description = *payload.Description
	}
	if payload.InviteCode != nil {
		c.InviteCode = *payload.InviteCode
	}
	cp := *c
	return &cp, nil
}

func (f *fakeGateway) DeleteCompetition(_ context.Context, compID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.forced("delete_competition"); err != nil {
		return err
	}
	if _, ok := f.competitions[compID]; !ok {
		return apperrors.NotFound("competition not found")
	}
	delete(f.competitions, compID)
	return nil
}

func (f *fakeGateway) RecordAttendance(_ context.Context, attendance interp.Attendance) (*interp.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.forced("record_attendance"); err != nil {
		return nil, err
	}
	attendance.ID = f.id("att")
	f.attendance = append(f.attendance, attendance)
	return &attendance, nil
}

func (f *fakeGateway) GetUserAttendance(_ context.Context, userID string) ([]interp.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.forced("get_user_attendance"); err != nil {
		return nil, err
	}
	out := make([]interp.Attendance, 0)
	for _, a := range f.attendance {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeGateway) GetTeam(_ context.Context, teamID string) (*interp.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.forced("get_team"); err != nil {
		return nil, err
	}
	t, ok := f.teams[teamID]
	if !ok {
		return nil, apperrors.NotFound("team not found")
	}
	cp := *t
	return &cp, nil
}

func (f *fakeGateway) CreateTeam(_ context.Context, compID string, payload interp.NewTeam) (*interp.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.forced("create_team"); err != nil {
		return nil, err
	}
	t := &interp.Team{
		ID:            f.id("team"),
		Name:          payload.Name,
		CompetitionID: compID,
		CreatorID:     payload.CreatorID,
		MemberIDs:     []string{payload.CreatorID},
	}
	f.teams[t.ID] = t
	cp := *t
	return &cp, nil
}

func (f *fakeGateway) JoinTeam(_ context.Context, teamID, userID string) (*interp.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.forced("join_team"); err != nil {
		return nil, err
	}
	t, ok := f.teams[teamID]
	if !ok {
		return nil, apperrors.NotFound("team not found")
	}
	t.MemberIDs = append(t.MemberIDs, userID)
	cp := *t
	return &cp, nil
}

func (f *fakeGateway) LeaveTeam(_ context.Context, teamID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.forced("leave_team"); err != nil {
		return err
	}
	t, ok := f.teams[teamID]
	if !ok {
		return apperrors.NotFound("team not found")
	}
	members := t.MemberIDs[:0]
	for _, id := range t.MemberIDs {
		if id != userID {
			members = append(members, id)
		}
	}
	t.MemberIDs = members
	return nil
}

func (f *fakeGateway) ListTags(_ context.Context) ([]interp.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.forced("list_tags"); err != nil {
		return nil, err
	}
	out := make([]interp.Tag, 0, len(f.tags))
	for _, t := range f.tags {
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeGateway) CreateTag(_ context.Context, payload interp.NewTag) (*interp.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.forced("create_tag"); err != nil {
		return nil, err
	}
	t := &interp.Tag{ID: f.id("tag"), Name: payload.Name}
	f.tags[t.ID] = t
	return t, nil
}

func (f *fakeGateway) DeleteTag(_ context.Context, tagID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.forced("delete_tag"); err != nil {
		return err
	}
	if _, ok := f.tags[tagID]; !ok {
		return apperrors.NotFound("tag not found")
	}
	delete(f.tags, tagID)
	return nil
}

func (f *fakeGateway) ListContainers(_ context.Context) ([]interp.Container, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.forced("list_containers"); err != nil {
		return nil, err
	}
	out := make([]interp.Container, 0, len(f.containers))
	for _, c := range f.containers {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeGateway) GetContainer(_ context.Context, containerID string) (*interp.Container, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.forced("get_container"); err != nil {
		return nil, err
	}
	c, ok := f.containers[containerID]
	if !ok {
		return nil, apperrors.NotFound("container not found")
	}
	cp := *c
	return &cp, nil
}

func (f *fakeGateway) GetContainerByExercise(_ context.Context, exerciseID string) (*interp.Container, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.forced("get_container_by_exercise"); err != nil {
		return nil, err
	}
	for _, c := range f.containers {
		if c.ExerciseID == exerciseID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("container not found")
}

func (f *fakeGateway) CreateContainer(_ context.Context, exerciseID string, payload interp.NewContainer) (*interp.Container, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.forced("create_container"); err != nil {
		return nil, err
	}
	c := &interp.Container{
		ID:             f.id("cont"),
		ExerciseID:     exerciseID,
		ConnectionInfo: payload.ConnectionInfo,
		Active:         payload.Active,
	}
	f.containers[c.ID] = c
	cp := *c
	return &cp, nil
}

func (f *fakeGateway) RemoveContainer(_ context.Context, containerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.forced("remove_container"); err != nil {
		return err
	}
	if _, ok := f.containers[containerID]; !ok {
		return apperrors.NotFound("container not found")
	}
	delete(f.containers, containerID)
	return nil
}

func (f *fakeGateway) GetScoreboard(_ context.Context, compID string) ([]interp.ScoreboardEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.forced("get_scoreboard"); err != nil {
		return nil, err
	}
	if _, ok := f.competitions[compID]; !ok {
		return nil, apperrors.NotFound("competition not found")
	}
	return f.scoreboards[compID], nil
}

var _ interp.Gateway = (*fakeGateway)(nil)

// testEnv bundles a server wired to a fake gateway for handler tests.
type testEnv struct {
	server  *Server
	gateway *fakeGateway
	codec   *auth.Codec
	hasher  *auth.PasswordHasher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:               "8080",
			HealthPort:         "9090",
			CORSAllowedOrigins: []string{"*"},
		},
		Auth: config.AuthConfig{
			JWTSecret:    "test-secret",
			TokenTTL:     30 * time.Minute,
			PassSalt:     "test-salt",
			CookieMaxAge: time.Hour,
		},
	}

	gateway := newFakeGateway()
	codec := auth.NewCodec(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	hasher := auth.NewPasswordHasher(cfg.Auth.PassSalt)
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)

	server := NewServer(cfg, gateway, codec, hasher, nil, logger, nil)
	return &testEnv{server: server, gateway: gateway, codec: codec, hasher: hasher}
}

// addUser seeds a user directly in the fake gateway and returns its id.
func (e *testEnv) addUser(t *testing.T, username, email, password string, isAdmin bool) string {
	t.Helper()
	u, err := e.gateway.RegisterUser(context.Background(), interp.NewUser{
		Username: username,
		Email:    email,
		Password: e.hasher.Hash(password),
	})
	require.NoError(t, err)
	e.gateway.users[email].IsAdmin = isAdmin
	return u.ID
}

// tokenFor mints a session token for the given seeded user.
func (e *testEnv) tokenFor(t *testing.T, email string) string {
	t.Helper()
	u := e.gateway.users[email]
	require.NotNil(t, u, "user %s not seeded", email)

	role := auth.RoleStudent
	if u.IsAdmin {
		role = auth.RoleAdmin
	}
	token, err := e.codec.Encode(auth.Principal{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     role,
	})
	require.NoError(t, err)
	return token
}

// do performs a request against the server, optionally authenticated with a
// session cookie.
func (e *testEnv) do(method, path, token string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}
