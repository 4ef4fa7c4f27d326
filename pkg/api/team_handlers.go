package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/lycosidae/gateway/pkg/apperrors"
	"github.com/lycosidae/gateway/pkg/auth"
	"github.com/lycosidae/gateway/pkg/authz"
	"github.com/lycosidae/gateway/pkg/httputil"
	"github.com/lycosidae/gateway/pkg/interp"
	"github.com/lycosidae/gateway/pkg/middleware"
	"github.com/lycosidae/gateway/pkg/observability"
)

// TeamHandlers handles team roster requests.
type TeamHandlers struct {
	gateway interp.Gateway
	metrics *observability.Metrics
}

// NewTeamHandlers creates a new team handlers instance
func NewTeamHandlers(gateway interp.Gateway, metrics *observability.Metrics) *TeamHandlers {
	return &TeamHandlers{gateway: gateway, metrics: metrics}
}

// RegisterRoutes registers team routes
func (h *TeamHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/teams/competition/{comp_id}", h.create).Methods("POST")
	router.HandleFunc("/teams/{id}", h.get).Methods("GET")
	router.HandleFunc("/teams/{id}/join", h.join).Methods("POST")
	router.HandleFunc("/teams/{id}/leave", h.leave).Methods("DELETE")
	router.HandleFunc("/teams/{id}/kick/{user_id}", h.kick).Methods("DELETE")
}

// get handles GET /teams/{id}
func (h *TeamHandlers) get(w http.ResponseWriter, r *http.Request) {
	teamID, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	team, err := h.gateway.GetTeam(r.Context(), teamID)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteSuccess(w, team)
}

// create handles POST /teams/competition/{comp_id}. The creator must be
// enrolled in the competition and not already on a team there.
func (h *TeamHandlers) create(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	compID, ok := httputil.ParsePathStringOrError(w, r, "comp_id")
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Name, "name") {
		return
	}

	if !h.requireJoinable(w, r, p, compID) {
		return
	}

	team, err := h.gateway.CreateTeam(r.Context(), compID, interp.NewTeam{
		Name:      req.Name,
		CreatorID: p.ID,
	})
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteCreated(w, team)
}

// join handles POST /teams/{id}/join, under the same membership rules as
// team creation.
func (h *TeamHandlers) join(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	teamID, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	team, err := h.gateway.GetTeam(r.Context(), teamID)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	if !h.requireJoinable(w, r, p, team.CompetitionID) {
		return
	}

	joined, err := h.gateway.JoinTeam(r.Context(), teamID, p.ID)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteSuccess(w, joined)
}

// leave handles DELETE /teams/{id}/leave
func (h *TeamHandlers) leave(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	teamID, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	team, err := h.gateway.GetTeam(r.Context(), teamID)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	if !team.HasMember(p.ID) {
		httputil.WriteAppError(w, apperrors.Conflict("you are not a member of this team"))
		return
	}

	if err := h.gateway.LeaveTeam(r.Context(), teamID, p.ID); err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}

// kick handles DELETE /teams/{id}/kick/{user_id} (creator or admin)
func (h *TeamHandlers) kick(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	teamID, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	userID, ok := httputil.ParsePathStringOrError(w, r, "user_id")
	if !ok {
		return
	}

	team, err := h.gateway.GetTeam(r.Context(), teamID)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	if d := authz.CanKickMember(p, team); !d.Allowed {
		h.observeDenial("kick_member")
		httputil.WriteAppError(w, d.Err())
		return
	}

	if !team.HasMember(userID) {
		httputil.WriteAppError(w, apperrors.NotFound("user is not a member of this team"))
		return
	}

	if err := h.gateway.LeaveTeam(r.Context(), teamID, userID); err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}

// requireJoinable fetches the membership facts and enforces the join policy:
// enrolled in the competition, not already on one of its teams.
func (h *TeamHandlers) requireJoinable(w http.ResponseWriter, r *http.Request, p *auth.Principal, compID string) bool {
	attendance, err := h.gateway.GetUserAttendance(r.Context(), p.ID)
	if err != nil {
		httputil.WriteAppError(w, err)
		return false
	}

	teams, err := h.gateway.GetCompetitionTeams(r.Context(), compID)
	if err != nil {
		httputil.WriteAppError(w, err)
		return false
	}

	if d := authz.CanJoinTeam(p, compID, attendance, teams); !d.Allowed {
		h.observeDenial("join_team")
		httputil.WriteAppError(w, d.Err())
		return false
	}
	return true
}

func (h *TeamHandlers) observeDenial(predicate string) {
	if h.metrics != nil {
		h.metrics.PolicyDenialsTotal.WithLabelValues(predicate).Inc()
	}
}
