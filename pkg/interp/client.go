package interp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lycosidae/gateway/pkg/apperrors"
	"github.com/lycosidae/gateway/pkg/observability"
)

// Client is the HTTP implementation of the Gateway contract. Every call is
// bounded by the configured timeout and classified through the error
// taxonomy; transport failures are logged with the failing operation name.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *observability.Logger
	metrics    *observability.Metrics
}

// NewClient creates an interpreter client.
func NewClient(baseURL string, timeout time.Duration, logger *observability.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		timeout:    timeout,
		logger:     logger,
		metrics:    metrics,
	}
}

// interpError is the interpreter's JSON error body.
type interpError struct {
	Detail string `json:"detail"`
	Error  string `json:"error"`
}

func (e interpError) message(fallback string) string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.Error != "" {
		return e.Error
	}
	return fallback
}

// call performs one interpreter request. out may be nil for calls that
// discard the response body.
func (c *Client) call(ctx context.Context, op, method, path string, body, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return apperrors.Wrap(apperrors.KindUnknown, op, "encoding request", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return apperrors.Wrap(apperrors.KindUnknown, op, "building request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(op, "error", start)
		c.logger.WithError(err).WithField("operation", op).Error("interpreter call failed")
		return apperrors.GatewayUnavailable(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		c.observe(op, "ok", start)
		if out == nil {
			io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			c.logger.WithError(err).WithField("operation", op).Error("interpreter returned malformed JSON")
			return apperrors.GatewayUnavailable(op, fmt.Errorf("decoding response: %w", err))
		}
		return nil
	}

	var errBody interpError
	_ = json.NewDecoder(resp.Body).Decode(&errBody)

	switch resp.StatusCode {
	case http.StatusNotFound:
		c.observe(op, "not_found", start)
		return apperrors.New(apperrors.KindNotFound, op, errBody.message("resource not found"))
	case http.StatusBadRequest:
		c.observe(op, "invalid", start)
		return apperrors.New(apperrors.KindInvalid, op, errBody.message("invalid request"))
	case http.StatusConflict:
		c.observe(op, "conflict", start)
		return apperrors.New(apperrors.KindConflict, op, errBody.message("conflict"))
	default:
		c.observe(op, "error", start)
		c.logger.WithField("operation", op).WithField("status", resp.StatusCode).Error("interpreter returned unexpected status")
		return apperrors.GatewayUnavailable(op, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
}

func (c *Client) observe(op, status string, start time.Time) {
	if c.metrics != nil {
		c.metrics.ObserveInterpreterCall(op, status, time.Since(start))
	}
}

// GetUserByID fetches a user's safe record.
func (c *Client) GetUserByID(ctx context.Context, userID string) (*User, error) {
	var user User
	if err := c.call(ctx, "get_user_by_id", http.MethodGet, "/users/"+url.PathEscape(userID), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserInternal fetches the stored password hash and role flag for login.
func (c *Client) GetUserInternal(ctx context.Context, email string) (*InternalUser, error) {
	var user InternalUser
	path := "/users/internal?email=" + url.QueryEscape(email)
	if err := c.call(ctx, "get_user_internal", http.MethodGet, path, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// RegisterUser creates a new user record.
func (c *Client) RegisterUser(ctx context.Context, payload NewUser) (*User, error) {
	var user User
	if err := c.call(ctx, "register_user", http.MethodPost, "/users", payload, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser applies profile changes to a user record.
func (c *Client) UpdateUser(ctx context.Context, userID string, payload UserUpdate) (*User, error) {
	var user User
	if err := c.call(ctx, "update_user", http.MethodPut, "/users/"+url.PathEscape(userID), payload, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers lists all registered users.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.call(ctx, "list_users", http.MethodGet, "/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ListCompetitions lists all competitions.
func (c *Client) ListCompetitions(ctx context.Context) ([]Competition, error) {
	var comps []Competition
	if err := c.call(ctx, "list_competitions", http.MethodGet, "/competitions", nil, &comps); err != nil {
		return nil, err
	}
	return comps, nil
}

// GetCompetition fetches one competition, invite code included.
func (c *Client) GetCompetition(ctx context.Context, compID string) (*Competition, error) {
	var comp Competition
	if err := c.call(ctx, "get_competition", http.MethodGet, "/competitions/"+url.PathEscape(compID), nil, &comp); err != nil {
		return nil, err
	}
	return &comp, nil
}

// GetCompetitionTeams lists the teams registered in a competition.
func (c *Client) GetCompetitionTeams(ctx context.Context, compID string) ([]Team, error) {
	var teams []Team
	if err := c.call(ctx, "get_competition_teams", http.MethodGet, "/competitions/"+url.PathEscape(compID)+"/teams", nil, &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

// GetCompetitionExercises lists a competition's exercises.
func (c *Client) GetCompetitionExercises(ctx context.Context, compID string) ([]Exercise, error) {
	var exercises []Exercise
	if err := c.call(ctx, "get_competition_exercises", http.MethodGet, "/competitions/"+url.PathEscape(compID)+"/exercises", nil, &exercises); err != nil {
		return nil, err
	}
	return exercises, nil
}

// CreateCompetition creates a competition.
func (c *Client) CreateCompetition(ctx context.Context, payload NewCompetition) (*Competition, error) {
	var comp Competition
	if err := c.call(ctx, "create_competition", http.MethodPost, "/competitions", payload, &comp); err != nil {
		return nil, err
	}
	return &comp, nil
}

// UpdateCompetition applies changes to a competition.
func (c *Client) UpdateCompetition(ctx context.Context, compID string, payload CompetitionUpdate) (*Competition, error) {
	var comp Competition
	if err := c.call(ctx, "update_competition", http.MethodPatch, "/competitions/"+url.PathEscape(compID), payload, &comp); err != nil {
		return nil, err
	}
	return &comp, nil
}

// DeleteCompetition removes a competition.
func (c *Client) DeleteCompetition(ctx context.Context, compID string) error {
	return c.call(ctx, "delete_competition", http.MethodDelete, "/competitions/"+url.PathEscape(compID), nil, nil)
}

// RecordAttendance links a user to a competition.
func (c *Client) RecordAttendance(ctx context.Context, attendance Attendance) (*Attendance, error) {
	var created Attendance
	if err := c.call(ctx, "record_attendance", http.MethodPost, "/attendance", attendance, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// GetUserAttendance lists the competitions a user is enrolled in.
func (c *Client) GetUserAttendance(ctx context.Context, userID string) ([]Attendance, error) {
	var records []Attendance
	if err := c.call(ctx, "get_user_attendance", http.MethodGet, "/attendance/user/"+url.PathEscape(userID), nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// GetTeam fetches one team with its roster.
func (c *Client) GetTeam(ctx context.Context, teamID string) (*Team, error) {
	var team Team
	if err := c.call(ctx, "get_team", http.MethodGet, "/teams/"+url.PathEscape(teamID), nil, &team); err != nil {
		return nil, err
	}
	return &team, nil
}

// CreateTeam creates a team within a competition.
func (c *Client) CreateTeam(ctx context.Context, compID string, payload NewTeam) (*Team, error) {
	var team Team
	if err := c.call(ctx, "create_team", http.MethodPost, "/teams/competition/"+url.PathEscape(compID), payload, &team); err != nil {
		return nil, err
	}
	return &team, nil
}

// JoinTeam adds a user to a team's roster.
func (c *Client) JoinTeam(ctx context.Context, teamID, userID string) (*Team, error) {
	var team Team
	body := map[string]string{"users_id": userID}
	if err := c.call(ctx, "join_team", http.MethodPost, "/teams/"+url.PathEscape(teamID)+"/join", body, &team); err != nil {
		return nil, err
	}
	return &team, nil
}

// LeaveTeam removes a user from a team's roster.
func (c *Client) LeaveTeam(ctx context.Context, teamID, userID string) error {
	path := "/teams/" + url.PathEscape(teamID) + "/members/" + url.PathEscape(userID)
	return c.call(ctx, "leave_team", http.MethodDelete, path, nil, nil)
}

// ListTags lists all exercise tags.
func (c *Client) ListTags(ctx context.Context) ([]Tag, error) {
	var tags []Tag
	if err := c.call(ctx, "list_tags", http.MethodGet, "/tags", nil, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// CreateTag creates an exercise tag.
func (c *Client) CreateTag(ctx context.Context, payload NewTag) (*Tag, error) {
	var tag Tag
	if err := c.call(ctx, "create_tag", http.MethodPost, "/tags", payload, &tag); err != nil {
		return nil, err
	}
	return &tag, nil
}

// DeleteTag removes an exercise tag.
func (c *Client) DeleteTag(ctx context.Context, tagID string) error {
	return c.call(ctx, "delete_tag", http.MethodDelete, "/tags/"+url.PathEscape(tagID), nil, nil)
}

// ListContainers lists all container records.
func (c *Client) ListContainers(ctx context.Context) ([]Container, error) {
	var containers []Container
	if err := c.call(ctx, "list_containers", http.MethodGet, "/containers", nil, &containers); err != nil {
		return nil, err
	}
	return containers, nil
}

// GetContainer fetches one container record.
func (c *Client) GetContainer(ctx context.Context, containerID string) (*Container, error) {
	var container Container
	if err := c.call(ctx, "get_container", http.MethodGet, "/containers/"+url.PathEscape(containerID), nil, &container); err != nil {
		return nil, err
	}
	return &container, nil
}

// GetContainerByExercise fetches the active container for an exercise.
func (c *Client) GetContainerByExercise(ctx context.Context, exerciseID string) (*Container, error) {
	var container Container
	if err := c.call(ctx, "get_container_by_exercise", http.MethodGet, "/containers/exercise/"+url.PathEscape(exerciseID), nil, &container); err != nil {
		return nil, err
	}
	return &container, nil
}

// CreateContainer registers a container for an exercise.
func (c *Client) CreateContainer(ctx context.Context, exerciseID string, payload NewContainer) (*Container, error) {
	var container Container
	path := "/containers?exercises_id=" + url.QueryEscape(exerciseID)
	if err := c.call(ctx, "create_container", http.MethodPost, path, payload, &container); err != nil {
		return nil, err
	}
	return &container, nil
}

// RemoveContainer removes a container record.
func (c *Client) RemoveContainer(ctx context.Context, containerID string) error {
	return c.call(ctx, "remove_container", http.MethodDelete, "/containers/"+url.PathEscape(containerID), nil, nil)
}

// GetScoreboard fetches a competition's scoreboard, ordered by score.
func (c *Client) GetScoreboard(ctx context.Context, compID string) ([]ScoreboardEntry, error) {
	var entries []ScoreboardEntry
	if err := c.call(ctx, "get_scoreboard", http.MethodGet, "/scoreboard/"+url.PathEscape(compID), nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

var _ Gateway = (*Client)(nil)
