package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prevozkop/backend/config"
	"github.com/prevozkop/backend/errs"
	"github.com/rs/zerolog/log"
)

// setupRoutes wires the public surface and the session-protected admin surface.
// A wrong method is answered like an unknown path.
func setupRoutes(r *chi.Mux, cfg *config.Config, deps Dependencies, handlers *routeHandlers, authMiddleware authMiddleware) {
	// Path rewrites must run on the root mux, before routing.
	r.Use(stripPrefix(cfg.APIPrefix))
	r.Use(middleware.StripSlashes)
	r.Use(deps.Sessions.Middleware)

	notFound := NewResponder(log.Logger, cfg.Debug)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		notFound.WriteError(w, errs.NotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		notFound.WriteError(w, errs.NotFound)
	})

	r.HandleFunc("/", handlers.healthHandler.health())
	r.HandleFunc("/health", handlers.healthHandler.health())

	if cfg.MetricsEnabled {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	// Public endpoints
	r.Get("/projects", handlers.projectHandler.listProjects())
	r.Get("/projects/{slug}", handlers.projectHandler.getProjectBySlug())
	r.Get("/products", handlers.productHandler.listProducts())
	r.Get("/products/{slug}", handlers.productHandler.getProductBySlug())
	r.Post("/orders", handlers.orderHandler.createOrder())

	r.Route("/admin", func(r chi.Router) {
		r.Use(authMiddleware.checkOrigin)
		r.NotFound(authMiddleware.adminFallback)
		r.MethodNotAllowed(authMiddleware.adminFallback)

		r.Post("/login", handlers.authHandler.login())
		r.Post("/logout", handlers.authHandler.logout())

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.requireAuth)

			// Project endpoints
			r.Get("/projects", handlers.projectHandler.listProjects())
			r.Post("/projects", handlers.projectHandler.createProject())
			r.Get("/projects/{id:[0-9]+}", handlers.projectHandler.getProject())
			r.Put("/projects/{id:[0-9]+}", handlers.projectHandler.updateProject())
			r.Delete("/projects/{id:[0-9]+}", handlers.projectHandler.deleteProject())
			r.Post("/projects/{id:[0-9]+}/hero", handlers.projectHandler.uploadHero())
			r.Post("/projects/{id:[0-9]+}/media", handlers.projectHandler.uploadMedia())
			r.Delete("/projects/{id:[0-9]+}/media/{mediaId:[0-9]+}", handlers.projectHandler.deleteMedia())

			// Product endpoints
			r.Get("/products", handlers.productHandler.listProducts())
			r.Post("/products", handlers.productHandler.createProduct())
			r.Get("/products/{id:[0-9]+}", handlers.productHandler.getProduct())
			r.Put("/products/{id:[0-9]+}", handlers.productHandler.updateProduct())
			r.Delete("/products/{id:[0-9]+}", handlers.productHandler.deleteProduct())
			r.Post("/products/{id:[0-9]+}/image", handlers.productHandler.uploadImage())
			r.Post("/products/{id:[0-9]+}/document", handlers.productHandler.uploadDocument())

			// Order endpoints
			r.Get("/orders", handlers.orderHandler.listOrders())
			r.Put("/orders/{id:[0-9]+}", handlers.orderHandler.updateOrderStatus())
		})
	})
}
