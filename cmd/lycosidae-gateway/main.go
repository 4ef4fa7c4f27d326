package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lycosidae/gateway/pkg/api"
	"github.com/lycosidae/gateway/pkg/auth"
	"github.com/lycosidae/gateway/pkg/config"
	"github.com/lycosidae/gateway/pkg/interp"
	"github.com/lycosidae/gateway/pkg/middleware"
	"github.com/lycosidae/gateway/pkg/observability"
)

func main() {
	// Misconfiguration is fatal: the gateway never starts with an empty
	// signing secret or password salt.
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(prometheus.NewRegistry())
	}

	gateway := interp.NewClient(cfg.Interpreter.BaseURL, cfg.Interpreter.Timeout, logger, metrics)
	codec := auth.NewCodec(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	hasher := auth.NewPasswordHasher(cfg.Auth.PassSalt)

	shutdown := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout)

	var loginLimiter *middleware.LoginRateLimiter
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatalf("Invalid redis URL: %v", err)
		}
		if cfg.Redis.Password != "" {
			opts.Password = cfg.Redis.Password
		}
		redisClient := redis.NewClient(opts)
		loginLimiter = middleware.NewLoginRateLimiter(redisClient, nil, logger)
		shutdown.RegisterShutdownFunc(func(context.Context) error {
			return redisClient.Close()
		})
		logger.WithField("addr", opts.Addr).Info("login rate limiting enabled")
	} else {
		loginLimiter = middleware.NewLoginRateLimiter(nil, nil, logger)
		logger.Warn("LYCOSIDAE_REDIS_URL not set, login rate limiting disabled")
	}

	server := api.NewServer(cfg, gateway, codec, hasher, loginLimiter, logger, metrics)

	apiServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	healthServer := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler: server.HealthHandler(),
	}

	shutdown.RegisterServer(apiServer)
	shutdown.RegisterServer(healthServer)

	go func() {
		logger.WithField("addr", healthServer.Addr).Info("health server listening")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("health server failed")
		}
	}()

	go func() {
		logger.WithField("addr", apiServer.Addr).Info("gateway listening")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	if err := shutdown.WaitForShutdown(); err != nil {
		logger.WithError(err).Error("shutdown finished with errors")
		os.Exit(1)
	}
}
