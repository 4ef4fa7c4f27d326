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

// TagHandlers handles exercise tag requests.
type TagHandlers struct {
	gateway interp.Gateway
	metrics *observability.Metrics
}

// NewTagHandlers creates a new tag handlers instance
func NewTagHandlers(gateway interp.Gateway, metrics *observability.Metrics) *TagHandlers {
	return &TagHandlers{gateway: gateway, metrics: metrics}
}

// RegisterRoutes registers tag routes
func (h *TagHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/tags", h.list).Methods("GET")
	router.HandleFunc("/tags", h.create).Methods("POST")
	router.HandleFunc("/tags/{id}", h.delete).Methods("DELETE")
}

// list handles GET /tags (any authenticated caller)
func (h *TagHandlers) list(w http.ResponseWriter, r *http.Request) {
	tags, err := h.gateway.ListTags(r.Context())
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteSuccess(w, tags)
}

// create handles POST /tags (admin only)
func (h *TagHandlers) create(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)

	if d := authz.CanManageCompetitions(p); !d.Allowed {
		h.observeDenial("manage_competitions")
		httputil.WriteAppError(w, d.Err())
		return
	}

	var req interp.NewTag
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Name, "name") {
		return
	}

	tag, err := h.gateway.CreateTag(r.Context(), req)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteCreated(w, tag)
}

// delete handles DELETE /tags/{id} (admin only)
func (h *TagHandlers) delete(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	tagID, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	if d := authz.CanManageCompetitions(p); !d.Allowed {
		h.observeDenial("manage_competitions")
		httputil.WriteAppError(w, d.Err())
		return
	}

	if err := h.gateway.DeleteTag(r.Context(), tagID); err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *TagHandlers) observeDenial(predicate string) {
	if h.metrics != nil {
		h.metrics.PolicyDenialsTotal.WithLabelValues(predicate).Inc()
	}
}
