package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"gorm.io/gorm"

	"statusping/internal/config"
)

// NewRouter creates the HTTP router. The scheduler reference may be nil
// when no scheduler runs in this context.
func NewRouter(cfg *config.Config, db *gorm.DB, sched MonitorScheduler, runner CheckRunner) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authLimiter := NewRateLimiter(1, 10)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", HandleHealth())

		r.Group(func(r chi.Router) {
			r.Use(RateLimitMiddleware(authLimiter))
			r.Post("/auth/register", HandleRegister(db, cfg))
			r.Post("/auth/login", HandleLogin(db, cfg))
		})

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(cfg.JWTSecret, db))

			r.Get("/auth/me", HandleGetCurrentUser())

			r.Get("/monitors", HandleListMonitors(db))
			r.Post("/monitors", HandleCreateMonitor(db, cfg, sched))
			r.Get("/monitors/{id}", HandleGetMonitor(db))
			r.Patch("/monitors/{id}", HandleUpdateMonitor(db, sched))
			r.Delete("/monitors/{id}", HandleDeleteMonitor(db, sched))
			r.Post("/monitors/{id}/check", HandleRunCheck(db, runner))
			r.Get("/monitors/{id}/results", HandleGetCheckResults(db))
			r.Get("/monitors/{id}/uptime", HandleGetUptime(db))
		})
	})

	// Public status page, no auth
	r.Get("/status/{slug}", HandleGetPublicStatusPage(db))

	return r
}
