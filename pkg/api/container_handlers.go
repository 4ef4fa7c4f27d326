package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/lycosidae/gateway/pkg/authz"
	"github.com/lycosidae/gateway/pkg/httputil"
	"github.com/lycosidae/gateway/pkg/interp"
	"github.com/lycosidae/gateway/pkg/middleware"
	"github.com/lycosidae/gateway/pkg/observability"
)

// ContainerHandlers handles exercise container requests.
type ContainerHandlers struct {
	gateway interp.Gateway
	metrics *observability.Metrics
}

// NewContainerHandlers creates a new container handlers instance
func NewContainerHandlers(gateway interp.Gateway, metrics *observability.Metrics) *ContainerHandlers {
	return &ContainerHandlers{gateway: gateway, metrics: metrics}
}

// RegisterRoutes registers container routes. The by-exercise lookup is open
// to any authenticated caller so players can reach their challenge
// environments; everything else is admin tooling.
func (h *ContainerHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/containers", h.list).Methods("GET")
	router.HandleFunc("/containers", h.create).Methods("POST")
	router.HandleFunc("/containers/exercise/{exercise_id}", h.getByExercise).Methods("GET")
	router.HandleFunc("/containers/{id}", h.get).Methods("GET")
	router.HandleFunc("/containers/{id}", h.delete).Methods("DELETE")
}

// list handles GET /containers (admin only)
func (h *ContainerHandlers) list(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)

	if d := authz.CanManageCompetitions(p); !d.Allowed {
		h.observeDenial("manage_competitions")
		httputil.WriteAppError(w, d.Err())
		return
	}

	containers, err := h.gateway.ListContainers(r.Context())
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteSuccess(w, containers)
}

// get handles GET /containers/{id} (admin only)
func (h *ContainerHandlers) get(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	containerID, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	if d := authz.CanManageCompetitions(p); !d.Allowed {
		h.observeDenial("manage_competitions")
		httputil.WriteAppError(w, d.Err())
		return
	}

	container, err := h.gateway.GetContainer(r.Context(), containerID)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteSuccess(w, container)
}

// getByExercise handles GET /containers/exercise/{exercise_id}
func (h *ContainerHandlers) getByExercise(w http.ResponseWriter, r *http.Request) {
	exerciseID, ok := httputil.ParsePathStringOrError(w, r, "exercise_id")
	if !ok {
		return
	}

	container, err := h.gateway.GetContainerByExercise(r.Context(), exerciseID)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteSuccess(w, container)
}

// create handles POST /containers (admin only)
func (h *ContainerHandlers) create(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)

	if d := authz.CanManageCompetitions(p); !d.Allowed {
		h.observeDenial("manage_competitions")
		httputil.WriteAppError(w, d.Err())
		return
	}

	var req struct {
		ExerciseID     string `json:"exercises_id"`
		ConnectionInfo string `json:"connection_info"`
		Active         bool   `json:"active"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.ExerciseID, "exercises_id") {
		return
	}

	container, err := h.gateway.CreateContainer(r.Context(), req.ExerciseID, interp.NewContainer{
		ConnectionInfo: req.ConnectionInfo,
		Active:         req.Active,
	})
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteCreated(w, container)
}

// delete handles DELETE /containers/{id} (admin only)
func (h *ContainerHandlers) delete(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	containerID, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	if d := authz.CanManageCompetitions(p); !d.Allowed {
		h.observeDenial("manage_competitions")
		httputil.WriteAppError(w, d.Err())
		return
	}

	if err := h.gateway.RemoveContainer(r.Context(), containerID); err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ContainerHandlers) observeDenial(predicate string) {
	if h.metrics != nil {
		h.metrics.PolicyDenialsTotal.WithLabelValues(predicate).Inc()
	}
}
