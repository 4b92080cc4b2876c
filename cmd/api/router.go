package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/crucial707/sqlgate/internal/config"
	"github.com/crucial707/sqlgate/internal/gateway"
	"github.com/crucial707/sqlgate/internal/handlers"
	"github.com/crucial707/sqlgate/internal/middleware"
	"github.com/crucial707/sqlgate/internal/repo"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// requestTimeout bounds a whole request; gateway statements have their own, shorter limit.
const requestTimeout = 60 * time.Second

// newRouter wires every route. sqlLimiter may be nil to disable rate limiting on /sql.
func newRouter(conn *sqlx.DB, cfg config.Config, sqlLimiter *middleware.IPRateLimiter) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestLog(slog.Default()))
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(cfg.TLSCertFile != "" && cfg.TLSKeyFile != ""))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(chimw.Timeout(requestTimeout))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handlers.JSONError(w, r, http.StatusNotFound, "not_found", "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		handlers.JSONError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "Method Not Allowed")
	})

	// ==========================
	// Probes and metrics
	// ==========================
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		handlers.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := conn.PingContext(ctx); err != nil {
			slog.Warn("readiness check failed", "error", err)
			handlers.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		handlers.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	r.Handle("/metrics", promhttp.Handler())

	// ==========================
	// Users
	// ==========================
	userHandler := &handlers.UserHandler{Repo: repo.NewUserRepo(conn)}
	r.Route("/users", func(r chi.Router) {
		r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))
		r.Post("/", userHandler.CreateUser)
		r.Get("/", userHandler.ListUsers)
		r.Get("/{id}", userHandler.GetUser)
		r.Put("/{id}", userHandler.UpdateUser)
		r.Delete("/{id}", userHandler.DeleteUser)
	})

	// ==========================
	// SQL gateway
	// ==========================
	sqlHandler := &handlers.SQLHandler{
		Executor: gateway.NewExecutor(conn, gateway.Options{
			Policy: gateway.Policy{
				Enabled: cfg.SQLGatewayEnabled,
				Allow:   cfg.SQLGatewayAllow,
			},
			Timeout: cfg.SQLStatementTimeout,
			Logger:  slog.Default().With("component", "sql_gateway"),
		}),
		ExposeErrors: cfg.SQLGatewayExposeErrors,
	}
	r.Group(func(r chi.Router) {
		if sqlLimiter != nil {
			r.Use(sqlLimiter.Middleware)
		}
		r.Get("/sql", sqlHandler.Execute)
	})

	return r
}
