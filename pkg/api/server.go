package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/lycosidae/gateway/pkg/auth"
	"github.com/lycosidae/gateway/pkg/config"
	"github.com/lycosidae/gateway/pkg/httputil"
	"github.com/lycosidae/gateway/pkg/interp"
	"github.com/lycosidae/gateway/pkg/middleware"
	"github.com/lycosidae/gateway/pkg/observability"
)

// Server represents the gateway API server
type Server struct {
	config  *config.Config
	router  *mux.Router
	gateway interp.Gateway
	logger  *observability.Logger
	metrics *observability.Metrics

	session      *middleware.SessionMiddleware
	loginLimiter *middleware.LoginRateLimiter

	authHandlers        *AuthHandlers
	competitionHandlers *CompetitionHandlers
	teamHandlers        *TeamHandlers
	attendanceHandlers  *AttendanceHandlers
	tagHandlers         *TagHandlers
	containerHandlers   *ContainerHandlers
}

// NewServer creates the gateway API server and wires all routes.
func NewServer(
	cfg *config.Config,
	gateway interp.Gateway,
	codec *auth.Codec,
	hasher *auth.PasswordHasher,
	loginLimiter *middleware.LoginRateLimiter,
	logger *observability.Logger,
	metrics *observability.Metrics,
) *Server {
	s := &Server{
		config:       cfg,
		router:       mux.NewRouter(),
		gateway:      gateway,
		logger:       logger,
		metrics:      metrics,
		session:      middleware.NewSessionMiddleware(auth.NewResolver(codec, logger), metrics),
		loginLimiter: loginLimiter,
	}

	s.authHandlers = NewAuthHandlers(gateway, codec, hasher, cfg.Auth.CookieMaxAge, logger, metrics)
	s.competitionHandlers = NewCompetitionHandlers(gateway, logger, metrics)
	s.teamHandlers = NewTeamHandlers(gateway, metrics)
	s.attendanceHandlers = NewAttendanceHandlers(gateway, metrics)
	s.tagHandlers = NewTagHandlers(gateway, metrics)
	s.containerHandlers = NewContainerHandlers(gateway, metrics)

	s.setupRoutes()
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	// Public routes: no session required
	s.router.HandleFunc("/auth/register", s.authHandlers.register).Methods("POST")
	if s.loginLimiter != nil {
		s.router.Handle("/auth/login",
			s.loginLimiter.Handler(http.HandlerFunc(s.authHandlers.login))).Methods("POST")
	} else {
		s.router.HandleFunc("/auth/login", s.authHandlers.login).Methods("POST")
	}
	s.router.HandleFunc("/auth/logout", s.authHandlers.logout).Methods("POST")

	// Everything else requires a resolved principal
	protected := s.router.NewRoute().Subrouter()
	protected.Use(s.session.Handler)

	s.authHandlers.RegisterRoutes(protected)
	s.competitionHandlers.RegisterRoutes(protected)
	s.teamHandlers.RegisterRoutes(protected)
	s.attendanceHandlers.RegisterRoutes(protected)
	s.tagHandlers.RegisterRoutes(protected)
	s.containerHandlers.RegisterRoutes(protected)
}

// Handler returns the fully wrapped HTTP handler: request id, logging,
// recovery, and CORS around the router.
func (s *Server) Handler() http.Handler {
	chain := httputil.Chain(
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(s.logger, s.metrics),
		httputil.RecoveryMiddleware(s.logger),
		httputil.CORSMiddleware(s.config.Server.CORSAllowedOrigins),
	)
	return chain(s.router)
}

// ServeHTTP implements http.Handler for use in tests; production traffic
// goes through Handler().
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// HealthHandler returns the handler for the health port: liveness plus the
// Prometheus scrape endpoint.
func (s *Server) HealthHandler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthy", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteSuccess(w, map[string]string{"status": "ok"})
	}).Methods("GET")
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	}
	return r
}
