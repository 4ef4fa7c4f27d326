package api

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/lycosidae/gateway/pkg/apperrors"
	"github.com/lycosidae/gateway/pkg/auth"
	"github.com/lycosidae/gateway/pkg/authz"
	"github.com/lycosidae/gateway/pkg/httputil"
	"github.com/lycosidae/gateway/pkg/interp"
	"github.com/lycosidae/gateway/pkg/middleware"
	"github.com/lycosidae/gateway/pkg/observability"
)

// AuthHandlers handles registration, login, logout, and profile requests.
type AuthHandlers struct {
	gateway      interp.Gateway
	codec        *auth.Codec
	hasher       *auth.PasswordHasher
	cookieMaxAge time.Duration
	logger       *observability.Logger
	metrics      *observability.Metrics
}

// NewAuthHandlers creates a new auth handlers instance
func NewAuthHandlers(
	gateway interp.Gateway,
	codec *auth.Codec,
	hasher *auth.PasswordHasher,
	cookieMaxAge time.Duration,
	logger *observability.Logger,
	metrics *observability.Metrics,
) *AuthHandlers {
	return &AuthHandlers{
		gateway:      gateway,
		codec:        codec,
		hasher:       hasher,
		cookieMaxAge: cookieMaxAge,
		logger:       logger,
		metrics:      metrics,
	}
}

// RegisterRoutes registers the session-protected auth routes. Register,
// login, and logout are wired separately because they must work without a
// session.
func (h *AuthHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/auth/me", h.me).Methods("GET")
	router.HandleFunc("/auth/me", h.updateMe).Methods("PUT")
	router.HandleFunc("/auth/users", h.listUsers).Methods("GET")
}

// register handles POST /auth/register
func (h *AuthHandlers) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Username, "username") {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Email, "email") {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Password, "password") {
		return
	}

	user, err := h.gateway.RegisterUser(r.Context(), interp.NewUser{
		Username: req.Username,
		Email:    req.Email,
		Password: h.hasher.Hash(req.Password),
	})
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteCreated(w, user)
}

// login handles POST /auth/login. Credentials are checked against the
// interpreter's stored hash; both unknown-email and wrong-password fail with
// the same 401 so callers cannot probe registered addresses.
func (h *AuthHandlers) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Email, "email") {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Password, "password") {
		return
	}

	user, err := h.gateway.GetUserInternal(r.Context(), req.Email)
	if err != nil {
		if apperrors.Is(err, apperrors.KindNotFound) {
			h.observeLogin("failure")
			httputil.WriteAppError(w, apperrors.Unauthenticated("incorrect email or password"))
			return
		}
		h.observeLogin("error")
		httputil.WriteAppError(w, err)
		return
	}

	presented := h.hasher.Hash(req.Password)
	if subtle.ConstantTimeCompare([]byte(presented), []byte(user.PasswordHash)) != 1 {
		h.observeLogin("failure")
		httputil.WriteAppError(w, apperrors.Unauthenticated("incorrect email or password"))
		return
	}

	role := auth.RoleStudent
	if user.IsAdmin {
		role = auth.RoleAdmin
	}

	token, err := h.codec.Encode(auth.Principal{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     role,
	})
	if err != nil {
		h.logger.WithError(err).Error("failed to sign session token")
		httputil.WriteAppError(w, err)
		return
	}

	h.observeLogin("success")
	http.SetCookie(w, auth.NewSessionCookie(token, h.cookieMaxAge))
	httputil.WriteSuccess(w, map[string]string{
		"message": "Login successful",
		"user":    user.Username,
		"token":   token,
	})
}

// logout handles POST /auth/logout. Sessions are stateless, so logout is
// just clearing the cookie client-side.
func (h *AuthHandlers) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, auth.ClearSessionCookie())
	httputil.WriteSuccess(w, map[string]string{"status": "logged out"})
}

// me handles GET /auth/me
func (h *AuthHandlers) me(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)

	user, err := h.gateway.GetUserByID(r.Context(), p.ID)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteSuccess(w, user)
}

// updateMe handles PUT /auth/me. Callers may only change their own record;
// password changes are re-hashed before leaving the gateway.
func (h *AuthHandlers) updateMe(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)

	var req struct {
		Username *string `json:"username"`
		Email    *string `json:"email"`
		Password *string `json:"password"`
	}

	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	update := interp.UserUpdate{
		Username: req.Username,
		Email:    req.Email,
	}
	if req.Password != nil {
		hashed := h.hasher.Hash(*req.Password)
		update.Password = &hashed
	}

	user, err := h.gateway.UpdateUser(r.Context(), p.ID, update)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteSuccess(w, user)
}

// listUsers handles GET /auth/users (admin only)
func (h *AuthHandlers) listUsers(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)

	if d := authz.CanManageCompetitions(p); !d.Allowed {
		h.observeDenial("manage_competitions")
		httputil.WriteAppError(w, d.Err())
		return
	}

	users, err := h.gateway.ListUsers(r.Context())
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteSuccess(w, users)
}

func (h *AuthHandlers) observeLogin(outcome string) {
	if h.metrics != nil {
		h.metrics.LoginsTotal.WithLabelValues(outcome).Inc()
	}
}

func (h *AuthHandlers) observeDenial(predicate string) {
	if h.metrics != nil {
		h.metrics.PolicyDenialsTotal.WithLabelValues(predicate).Inc()
	}
}
