package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/issue-triage-service/internal/api/http/handlers"
	"github.com/spec-kit/issue-triage-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Issues         *handlers.IssuesHandler
	Admin          *handlers.AdminHandler
	Reports        *handlers.ReportsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Post("/password/change",
		cfg.AuthMiddleware.Handle, auth.RequireAuthenticated(), cfg.Users.ChangePassword)

	issues := app.Group("/issues", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	issues.Post("/", cfg.Issues.CreateIssue)
	issues.Get("/", cfg.Issues.ListIssues)
	issues.Post("/evidence", cfg.Issues.UploadEvidence)
	issues.Get("/duplicate-check", cfg.Issues.CheckDuplicate)
	issues.Get("/:id", cfg.Issues.GetIssue)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	admin.Get("/issues", cfg.Admin.ListIssues)
	admin.Get("/issues/:id", cfg.Admin.GetIssue)
	admin.Post("/issues/:id/transition", cfg.Admin.TransitionIssue)
	admin.Get("/reports/weekly", cfg.Reports.Weekly)
}
