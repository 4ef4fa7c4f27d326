package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/lycosidae/gateway/pkg/apperrors"
	"github.com/lycosidae/gateway/pkg/async"
	"github.com/lycosidae/gateway/pkg/auth"
	"github.com/lycosidae/gateway/pkg/authz"
	"github.com/lycosidae/gateway/pkg/httputil"
	"github.com/lycosidae/gateway/pkg/interp"
	"github.com/lycosidae/gateway/pkg/middleware"
	"github.com/lycosidae/gateway/pkg/observability"
)

// attendingFanOutWorkers bounds the concurrent competition fetches behind
// GET /competitions/attending.
const attendingFanOutWorkers = 8

// CompetitionHandlers handles competition and scoreboard requests.
type CompetitionHandlers struct {
	gateway interp.Gateway
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewCompetitionHandlers creates a new competition handlers instance
func NewCompetitionHandlers(gateway interp.Gateway, logger *observability.Logger, metrics *observability.Metrics) *CompetitionHandlers {
	return &CompetitionHandlers{gateway: gateway, logger: logger, metrics: metrics}
}

// RegisterRoutes registers competition routes. The /competitions/attending
// route must precede /competitions/{id} so "attending" is not captured as an
// id.
func (h *CompetitionHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/competitions", h.list).Methods("GET")
	router.HandleFunc("/competitions", h.create).Methods("POST")
	router.HandleFunc("/competitions/attending", h.listAttending).Methods("GET")
	router.HandleFunc("/competitions/{id}", h.get).Methods("GET")
	router.HandleFunc("/competitions/{id}", h.update).Methods("PATCH")
	router.HandleFunc("/competitions/{id}", h.delete).Methods("DELETE")
	router.HandleFunc("/competitions/{id}/exercises", h.listExercises).Methods("GET")
	router.HandleFunc("/competitions/{id}/join", h.join).Methods("POST")
	router.HandleFunc("/scoreboard/{comp_id}", h.scoreboard).Methods("GET")
}

// list handles GET /competitions. Any authenticated caller may browse; the
// invite code is stripped for non-admins.
func (h *CompetitionHandlers) list(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)

	comps, err := h.gateway.ListCompetitions(r.Context())
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	if !p.Role.IsAdmin() {
		for i := range comps {
			comps[i].InviteCode = ""
		}
	}

	httputil.WriteSuccess(w, comps)
}

// get handles GET /competitions/{id}
func (h *CompetitionHandlers) get(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	compID, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	comp, err := h.gateway.GetCompetition(r.Context(), compID)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	if !p.Role.IsAdmin() {
		comp.InviteCode = ""
	}

	httputil.WriteSuccess(w, comp)
}

// create handles POST /competitions (admin only)
func (h *CompetitionHandlers) create(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)

	if d := authz.CanManageCompetitions(p); !d.Allowed {
		h.observeDenial("manage_competitions")
		httputil.WriteAppError(w, d.Err())
		return
	}

	var req interp.NewCompetition
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Name, "name") {
		return
	}
	if !httputil.RequireNonEmpty(w, req.InviteCode, "invite_code") {
		return
	}

	comp, err := h.gateway.CreateCompetition(r.Context(), req)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteCreated(w, comp)
}

// update handles PATCH /competitions/{id} (admin only)
func (h *CompetitionHandlers) update(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	compID, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	if d := authz.CanManageCompetitions(p); !d.Allowed {
		h.observeDenial("manage_competitions")
		httputil.WriteAppError(w, d.Err())
		return
	}

	var req interp.CompetitionUpdate
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	comp, err := h.gateway.UpdateCompetition(r.Context(), compID, req)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteSuccess(w, comp)
}

// delete handles DELETE /competitions/{id} (admin only)
func (h *CompetitionHandlers) delete(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	compID, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	if d := authz.CanManageCompetitions(p); !d.Allowed {
		h.observeDenial("manage_competitions")
		httputil.WriteAppError(w, d.Err())
		return
	}

	if err := h.gateway.DeleteCompetition(r.Context(), compID); err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}

// listExercises handles GET /competitions/{id}/exercises. Non-admins must
// have an attendance record for the competition.
func (h *CompetitionHandlers) listExercises(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	compID, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	if !h.requireAttendance(w, r, p, compID) {
		return
	}

	exercises, err := h.gateway.GetCompetitionExercises(r.Context(), compID)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteSuccess(w, exercises)
}

// join handles POST /competitions/{id}/join. A correct invite code records
// attendance; a wrong one is a 400, and joining twice is a 409.
func (h *CompetitionHandlers) join(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	compID, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		InviteCode string `json:"invite_code"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.InviteCode, "invite_code") {
		return
	}

	comp, err := h.gateway.GetCompetition(r.Context(), compID)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	if d := authz.CanJoinCompetitionByInvite(req.InviteCode, comp); !d.Allowed {
		h.observeDenial("join_by_invite")
		httputil.WriteAppError(w, apperrors.Invalid(d.Reason))
		return
	}

	attendance, err := h.gateway.GetUserAttendance(r.Context(), p.ID)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	for _, a := range attendance {
		if a.CompetitionID == compID {
			httputil.WriteAppError(w, apperrors.Conflict("you already joined this competition"))
			return
		}
	}

	recorded, err := h.gateway.RecordAttendance(r.Context(), interp.Attendance{
		UserID:        p.ID,
		CompetitionID: compID,
	})
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteCreated(w, recorded)
}

// listAttending handles GET /competitions/attending: the competitions the
// caller is enrolled in, fetched concurrently. A competition that fails to
// load is dropped from the response rather than failing the whole request.
func (h *CompetitionHandlers) listAttending(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)

	attendance, err := h.gateway.GetUserAttendance(r.Context(), p.ID)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	compIDs := make([]string, 0, len(attendance))
	for _, a := range attendance {
		compIDs = append(compIDs, a.CompetitionID)
	}

	results := async.Gather(r.Context(), compIDs, attendingFanOutWorkers,
		func(ctx context.Context, compID string) (*interp.Competition, error) {
			return h.gateway.GetCompetition(ctx, compID)
		})

	comps := async.Successes(results, func(i int, err error) {
		h.logger.WithField("competition_id", compIDs[i]).WithError(err).
			Warn("dropping competition that failed to load")
	})

	out := make([]interp.Competition, 0, len(comps))
	for _, c := range comps {
		if !p.Role.IsAdmin() {
			c.InviteCode = ""
		}
		out = append(out, *c)
	}

	httputil.WriteSuccess(w, out)
}

// scoreboard handles GET /scoreboard/{comp_id}, gated the same way as the
// competition's exercises.
func (h *CompetitionHandlers) scoreboard(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	compID, ok := httputil.ParsePathStringOrError(w, r, "comp_id")
	if !ok {
		return
	}

	if !h.requireAttendance(w, r, p, compID) {
		return
	}

	entries, err := h.gateway.GetScoreboard(r.Context(), compID)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteSuccess(w, entries)
}

// requireAttendance enforces the attendance gate shared by exercises and the
// scoreboard. Admins pass without a lookup; a failed lookup surfaces as-is,
// never as a deny.
func (h *CompetitionHandlers) requireAttendance(w http.ResponseWriter, r *http.Request, p *auth.Principal, compID string) bool {
	var attendance []interp.Attendance
	if !p.Role.IsAdmin() {
		var err error
		attendance, err = h.gateway.GetUserAttendance(r.Context(), p.ID)
		if err != nil {
			httputil.WriteAppError(w, err)
			return false
		}
	}

	if d := authz.CanViewCompetitionExercises(p, compID, attendance); !d.Allowed {
		h.observeDenial("view_competition_exercises")
		httputil.WriteAppError(w, d.Err())
		return false
	}
	return true
}

func (h *CompetitionHandlers) observeDenial(predicate string) {
	if h.metrics != nil {
		h.metrics.PolicyDenialsTotal.WithLabelValues(predicate).Inc()
	}
}
