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

// AttendanceHandlers handles enrollment record requests.
type AttendanceHandlers struct {
	gateway interp.Gateway
	metrics *observability.Metrics
}

// NewAttendanceHandlers creates a new attendance handlers instance
func NewAttendanceHandlers(gateway interp.Gateway, metrics *observability.Metrics) *AttendanceHandlers {
	return &AttendanceHandlers{gateway: gateway, metrics: metrics}
}

// RegisterRoutes registers attendance routes
func (h *AttendanceHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/attendance", h.record).Methods("POST")
	router.HandleFunc("/attendance/user/{user_id}", h.listForUser).Methods("GET")
}

// record handles POST /attendance. Admins may enroll anyone; everyone else
// only themselves.
func (h *AttendanceHandlers) record(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)

	var req struct {
		UserID        string `json:"users_id"`
		CompetitionID string `json:"competitions_id"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.UserID == "" {
		req.UserID = p.ID
	}
	if !httputil.RequireNonEmpty(w, req.CompetitionID, "competitions_id") {
		return
	}

	if d := authz.CanRecordAttendance(p, req.UserID); !d.Allowed {
		h.observeDenial("record_attendance")
		httputil.WriteAppError(w, d.Err())
		return
	}

	recorded, err := h.gateway.RecordAttendance(r.Context(), interp.Attendance{
		UserID:        req.UserID,
		CompetitionID: req.CompetitionID,
	})
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteCreated(w, recorded)
}

// listForUser handles GET /attendance/user/{user_id} (self or admin)
func (h *AttendanceHandlers) listForUser(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	userID, ok := httputil.ParsePathStringOrError(w, r, "user_id")
	if !ok {
		return
	}

	if d := authz.CanViewOwnResource(p, userID); !d.Allowed {
		h.observeDenial("view_own_resource")
		httputil.WriteAppError(w, d.Err())
		return
	}

	attendance, err := h.gateway.GetUserAttendance(r.Context(), userID)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteSuccess(w, attendance)
}

func (h *AttendanceHandlers) observeDenial(predicate string) {
	if h.metrics != nil {
		h.metrics.PolicyDenialsTotal.WithLabelValues(predicate).Inc()
	}
}
