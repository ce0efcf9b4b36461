package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/realtydesk/realty-service/internal/api/http/handlers"
	"github.com/realtydesk/realty-service/internal/auth"
	"github.com/realtydesk/realty-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Customers      *handlers.CustomersHandler
	Agents         *handlers.AgentsHandler
	Tickets        *handlers.TicketsHandler
	AgentTickets   *handlers.AgentTicketsHandler
	Payments       *handlers.PaymentsHandler
	Catalog        *handlers.CatalogHandler
	Stats          *handlers.StatsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/customers/register", cfg.Customers.Register)
	authGroup.Post("/customers/login", cfg.Customers.Login)
	authGroup.Post("/agents/login", cfg.Agents.Login)
	authGroup.Post("/password/reset/request", cfg.Customers.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Customers.ConfirmPasswordReset)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, auth.RequireAnyRole(), cfg.Customers.ChangePassword)

	// Customer-facing routes.
	customer := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireCustomer())
	customer.Get("/customers/me", cfg.Customers.Me)
	customer.Patch("/customers/me", cfg.Customers.UpdateProfile)

	customer.Post("/tickets", cfg.Tickets.CreateTicket)
	customer.Get("/tickets", cfg.Tickets.ListTickets)
	customer.Get("/tickets/:id", cfg.Tickets.GetTicket)
	customer.Post("/tickets/:id/comments", cfg.Tickets.AddComment)
	customer.Post("/tickets/:id/reopen", cfg.Tickets.Reopen)
	customer.Post("/tickets/:id/rating", cfg.Tickets.Rate)
	customer.Post("/tickets/:id/close", cfg.Tickets.CloseTicket)

	customer.Post("/payments", cfg.Payments.Initiate)
	customer.Get("/payments", cfg.Payments.ListPayments)
	customer.Get("/payments/:id", cfg.Payments.GetPayment)
	customer.Post("/payments/:id/refund", cfg.Payments.Refund)

	customer.Post("/enquiries", cfg.Catalog.CreateEnquiry)
	customer.Get("/enquiries", cfg.Catalog.ListMyEnquiries)

	// Catalog browsing is open to any authenticated principal.
	browse := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	browse.Get("/projects", cfg.Catalog.ListProjects)
	browse.Get("/projects/:id", cfg.Catalog.GetProject)

	// Back-office routes for agents and admins.
	agent := app.Group("/agent", cfg.AuthMiddleware.Handle, auth.RequireAgentRole())
	agent.Get("/tickets", cfg.AgentTickets.ListTickets)
	agent.Get("/tickets/:id", cfg.AgentTickets.GetTicket)
	agent.Post("/tickets/:id/comments", cfg.AgentTickets.AddComment)
	agent.Post("/tickets/:id/status", cfg.AgentTickets.UpdateStatus)
	agent.Post("/tickets/:id/resolve", cfg.AgentTickets.Resolve)

	agent.Get("/enquiries", cfg.Catalog.ListEnquiries)
	agent.Post("/enquiries/:id", cfg.Catalog.UpdateEnquiry)
	agent.Post("/customers/:id/stage", cfg.Customers.AdvanceStage)

	agent.Post("/payments/:id/processing", cfg.Payments.MarkProcessing)
	agent.Post("/payments/:id/confirm", cfg.Payments.Confirm)
	agent.Post("/payments/:id/fail", cfg.Payments.Fail)

	agent.Get("/stats/tickets", cfg.Stats.TicketReport)
	agent.Get("/stats/payments", cfg.Stats.PaymentReport)
	agent.Get("/stats/defaulters", cfg.Stats.EMIDefaulters)

	// Admin-only routes.
	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAgentRole(domain.AgentRoleAdmin))
	admin.Post("/agents", cfg.Agents.Register)
	admin.Get("/agents", cfg.Agents.List)
	admin.Post("/tickets/:id/assign", cfg.AgentTickets.Assign)
	admin.Post("/payments/:id/refund/complete", cfg.Payments.CompleteRefund)
	admin.Post("/projects", cfg.Catalog.CreateProject)
	admin.Put("/projects/:id", cfg.Catalog.UpdateProject)
	admin.Delete("/projects/:id", cfg.Catalog.DeleteProject)
}
