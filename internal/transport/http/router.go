package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/mbelyakov/sales_crm/internal/handlers"
	authmw "github.com/mbelyakov/sales_crm/internal/middleware/auth"
)

type Deps struct {
	Auth       *authmw.Middleware
	AuthH      *handlers.AuthHandler
	Customers  *handlers.CustomerHandler
	Deals      *handlers.DealHandler
	Notes      *handlers.NoteHandler
	Users      *handlers.UserHandler
	Analytics  *handlers.AnalyticsHandler
	AuditLogs  *handlers.AuditLogHandler
	Transfer   *handlers.TransferHandler
	Assistant  *handlers.AssistantHandler
	Search     *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	e.POST("/auth/register", d.AuthH.Register)
	e.POST("/auth/login", d.AuthH.Login)

	authed := e.Group("", d.Auth.RequireUser)

	authed.POST("/auth/refresh", d.AuthH.Refresh)
	authed.GET("/auth/me", d.AuthH.Me)
	authed.POST("/auth/change-password", d.AuthH.ChangePassword)

	authed.GET("/customers", d.Customers.List)
	authed.POST("/customers", d.Customers.Create)
	authed.GET("/customers/:id", d.Customers.Get)
	authed.PUT("/customers/:id", d.Customers.Update)
	authed.DELETE("/customers/:id", d.Customers.Delete)
	authed.PUT("/customers/:id/assign", d.Customers.Assign)
	authed.GET("/customers/:id/deals", d.Customers.ListDeals)
	authed.POST("/customers/:id/deals", d.Customers.CreateDeal)
	authed.GET("/customers/:id/notes", d.Customers.ListNotes)
	authed.POST("/customers/:id/notes", d.Customers.CreateNote)

	// /deals/pipeline has to be registered before /deals/:id.
	authed.GET("/deals/pipeline", d.Deals.Pipeline)
	authed.GET("/deals", d.Deals.List)
	authed.POST("/deals", d.Deals.Create)
	authed.GET("/deals/:id", d.Deals.Get)
	authed.PUT("/deals/:id", d.Deals.Update)
	authed.DELETE("/deals/:id", d.Deals.Delete)
	authed.PUT("/deals/:id/status", d.Deals.UpdateStatus)
	authed.PUT("/deals/:id/assign", d.Deals.Assign)

	authed.GET("/notes", d.Notes.List)
	authed.DELETE("/notes/:id", d.Notes.Delete)

	authed.GET("/users", d.Users.List)
	authed.POST("/users", d.Users.Create)
	authed.GET("/users/:id", d.Users.Get)
	authed.PUT("/users/:id", d.Users.Update)
	authed.DELETE("/users/:id", d.Users.Delete)
	authed.GET("/users/:id/dashboard", d.Users.Dashboard)
	authed.GET("/users/:id/customers", d.Users.Customers)
	authed.GET("/users/:id/deals", d.Users.Deals)

	authed.GET("/analytics/deals-summary", d.Analytics.DealsSummary)
	authed.GET("/analytics/customer-value/:id", d.Analytics.CustomerValue)
	authed.GET("/analytics/top-customers", d.Analytics.TopCustomers)
	authed.GET("/analytics/team-performance", d.Analytics.TeamPerformance)

	authed.GET("/audit-logs", d.AuditLogs.List)
	authed.GET("/audit-logs/user/:id", d.AuditLogs.UserLogs)
	authed.GET("/audit-logs/resource/:type/:id", d.AuditLogs.ResourceLogs)

	authed.GET("/export/customers", d.Transfer.ExportCustomers)
	authed.GET("/export/deals", d.Transfer.ExportDeals)
	authed.GET("/export/notes", d.Transfer.ExportNotes)
	authed.GET("/export/all", d.Transfer.ExportAll)
	authed.POST("/import/customers", d.Transfer.ImportCustomers)
	authed.POST("/import/deals", d.Transfer.ImportDeals)

	authed.GET("/motivation", d.Assistant.Motivation)
	authed.GET("/fun-fact", d.Assistant.FunFact)
	authed.POST("/generate-email", d.Assistant.GenerateEmail)
	authed.POST("/handle-objection", d.Assistant.HandleObjection)
	authed.POST("/meeting-prep", d.Assistant.MeetingPrep)

	if d.Search != nil && d.Search.ES != nil {
		authed.GET("/search/customers", d.Search.Customers)
	}
}
