package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pancakepress/posts-api/internal/api/http/handlers"
	"github.com/pancakepress/posts-api/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Posts    *handlers.PostsHandler
	Users    *handlers.UsersHandler
	Guard    *auth.Guard
	Gatherer prometheus.Gatherer
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/", handlers.Root)

	if cfg.Health != nil {
		app.Get("/health/live", cfg.Health.Live)
		app.Get("/health/ready", cfg.Health.Ready)
	}
	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	posts := app.Group("/posts")
	posts.Get("", cfg.Posts.List)
	posts.Get("/:id", cfg.Posts.Get)
	posts.Post("", cfg.Guard.Handle, cfg.Posts.Create)
	posts.Put("/:id", cfg.Guard.Handle, cfg.Posts.Update)
	posts.Delete("/:id", cfg.Guard.Handle, cfg.Posts.Delete)

	user := app.Group("/user")
	user.Post("/signup", cfg.Users.Signup)
	user.Post("/login", cfg.Users.Login)
}
