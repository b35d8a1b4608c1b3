package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/imunetrack/imunetrack-api/internal/api"
	apiMiddleware "github.com/imunetrack/imunetrack-api/internal/api/middleware"
	"github.com/imunetrack/imunetrack-api/internal/api/shared"
)

// rateLimitCleanupInterval is how often idle rate limit entries are purged.
const rateLimitCleanupInterval = 5 * time.Minute

// setupRouter creates the router with middleware and every route. Background
// work tied to the router, such as rate limiter cleanup, stops with ctx.
func (app *application) setupRouter(ctx context.Context) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.Trace(app.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	handlers := api.Handlers{
		Auth:     api.NewAuthHandler(app.userService, app.logger),
		Users:    api.NewUserHandler(app.userService, app.logger),
		Vaccines: api.NewVaccineHandler(app.vaccineService, app.logger),
		History:  api.NewHistoryHandler(app.doseService, app.logger),
	}
	if rl := app.config.RateLimit; rl.Enabled {
		limiter := apiMiddleware.NewRateLimiter(rl.AuthRPS, rl.AuthBurst)
		go limiter.Run(ctx, rateLimitCleanupInterval)
		handlers.AuthMiddleware = append(handlers.AuthMiddleware, limiter.Middleware)
	}

	r.Route("/api", func(r chi.Router) {
		api.RegisterRoutes(r, handlers)
	})

	r.Get("/health", app.health)

	return r
}

// health reports 200 when the database answers a ping.
func (app *application) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := app.db.PingContext(ctx); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusServiceUnavailable, "Database unavailable", err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
