package serverhttp

import (
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"hemostats/internal/config"
	distHnd "hemostats/internal/distribution/handler"
	"hemostats/internal/middleware"
	"hemostats/server/http/handlers"
)

func NewRouter(cfg config.Config, logger zerolog.Logger, dist *distHnd.Handler) *chi.Mux {
	r := chi.NewRouter()

	// order matters: recover -> requestID -> logging -> cors -> limit
	r.Use(middleware.Recover(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.AllowOrigins))
	r.Use(middleware.LimitBytes(int64(cfg.MaxUploadMB) * 1024 * 1024))

	r.Get("/health", handlers.Health)

	session := handlers.NewSession(cfg.JWTSecret, logger)

	r.Route("/api", func(r chi.Router) {
		r.Post("/session/login", session.Login)
		r.Post("/session/logout", session.Logout)

		r.Post("/refresh", dist.Refresh)
		r.Post("/import", dist.Import)
		r.Post("/insights", dist.Insights)

		r.Get("/status", dist.Status)
		r.Get("/sites", dist.Sites)
		r.Get("/rows", dist.Rows)
		r.Get("/stats", dist.Stats)
		r.Get("/annual", dist.Annual)
		r.Get("/synthesis/sites", dist.SynthesisSites)
		r.Get("/synthesis/products", dist.SynthesisProducts)
		r.Get("/synthesis/poles", dist.SynthesisPoles)
	})

	return r
}
