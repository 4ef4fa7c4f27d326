package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lycosidae/gateway/pkg/interp"
)

func TestRecordAttendance_SelfOrAdmin(t *testing.T) {
	env := newTestEnv(t)
	aliceID := env.addUser(t, "alice", "alice@example.com", "hunter2", false)
	bobID := env.addUser(t, "bob", "bob@example.com", "hunter2", false)
	env.addUser(t, "root", "root@example.com", "toor", true)

	alice := env.tokenFor(t, "alice@example.com")
	admin := env.tokenFor(t, "root@example.com")

	// Self-enrollment: omitted users_id defaults to the caller
	rec := env.do("POST", "/attendance", alice,
		strings.NewReader(`{"competitions_id":"comp-1"}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, env.gateway.attendance, 1)
	assert.Equal(t, aliceID, env.gateway.attendance[0].UserID)

	// A student cannot enroll someone else
	rec = env.do("POST", "/attendance", alice,
		strings.NewReader(`{"users_id":"`+bobID+`","competitions_id":"comp-1"}`))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// An admin can
	rec = env.do("POST", "/attendance", admin,
		strings.NewReader(`{"users_id":"`+bobID+`","competitions_id":"comp-1"}`))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestListAttendance_SelfOrAdmin(t *testing.T) {
	env := newTestEnv(t)
	aliceID := env.addUser(t, "alice", "alice@example.com", "hunter2", false)
	bobID := env.addUser(t, "bob", "bob@example.com", "hunter2", false)
	env.addUser(t, "root", "root@example.com", "toor", true)

	env.gateway.attendance = []interp.Attendance{
		{ID: "att-1", UserID: aliceID, CompetitionID: "comp-1"},
	}

	alice := env.tokenFor(t, "alice@example.com")
	admin := env.tokenFor(t, "root@example.com")

	rec := env.do("GET", "/attendance/user/"+aliceID, alice, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do("GET", "/attendance/user/"+bobID, alice, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do("GET", "/attendance/user/"+aliceID, admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
