package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"orgdirectory/internal/auth"
	"orgdirectory/internal/http/handlers"
	"orgdirectory/internal/logger"
	"orgdirectory/internal/metrics"
	"orgdirectory/internal/rbac"
	"orgdirectory/internal/service"
)

// Deps is everything the router needs. Every route is registered in
// NewRouter; nothing is discovered at runtime.
type Deps struct {
	ServiceName string
	DB          *gorm.DB
	Sessions    *auth.Manager
	// ExcludedPrefixes are the paths the active-account check skips.
	ExcludedPrefixes []string
	Log              *zap.Logger
	Metrics          *metrics.Metrics
	// RecentOrganizations is how many organizations the dashboard lists.
	RecentOrganizations int
	// HealthChecks are pinged by /healthz next to the database.
	HealthChecks map[string]handlers.Pinger
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(d.ServiceName))
	r.Use(logger.GinMiddleware(d.Log))
	r.Use(d.Metrics.Middleware())

	gate := &auth.Gate{
		DB:               d.DB,
		Sessions:         d.Sessions,
		LoginPath:        handlers.LoginPath,
		ExcludedPrefixes: d.ExcludedPrefixes,
		Log:              d.Log,
		OnTerminate:      d.Metrics.GateTerminated,
	}

	accounts := &service.Accounts{DB: d.DB}
	profiles := &service.Profiles{DB: d.DB}
	categories := &service.Categories{DB: d.DB}
	orgs := &service.Organizations{DB: d.DB}
	audit := &service.Audit{DB: d.DB}

	// favicon fix
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/healthz", handlers.Healthz(d.DB, d.HealthChecks))
	r.GET("/metrics", d.Metrics.Handler())

	app := r.Group("/", gate.Middleware())

	// Public
	for _, p := range []string{"/", "/login"} {
		app.GET(p, handlers.LoginPage())
		app.POST(p, handlers.LoginHandler(accounts, d.Sessions, d.Log))
	}
	app.GET("/signup/", handlers.SignupPage())
	app.POST("/signup/", handlers.SignupHandler(accounts, d.Metrics))
	app.GET("/logout/", handlers.LogoutHandler(d.Sessions, d.Log))
	app.POST("/logout/", handlers.LogoutHandler(d.Sessions, d.Log))
	app.GET("/check-status/", handlers.CheckStatus(accounts))
	app.POST("/check-status/", handlers.CheckStatus(accounts))
	app.GET("/feed/", handlers.Feed(orgs, categories))

	// Signed-in, active accounts
	member := app.Group("/", requireGuards(rbac.Active))
	{
		member.GET("/dashboard/", handlers.Dashboard(profiles, orgs, d.RecentOrganizations))
		member.GET("/dashboard/feed/", handlers.Feed(orgs, categories))

		oh := &handlers.OrganizationHandlers{Profiles: profiles, Organizations: orgs, Categories: categories}
		member.GET("/organizations/", oh.List())
		member.GET("/organizations/create/", oh.Form())
		member.POST("/organizations/create/", oh.Create())
		member.GET("/organizations/:id/", oh.Detail())
		member.GET("/organizations/:id/edit/", oh.EditForm())
		member.POST("/organizations/:id/edit/", oh.Update())
		member.POST("/organizations/:id/delete/", oh.Delete())

		member.GET("/profile/edit/", handlers.ProfileHandler(profiles))
		member.POST("/profile/edit/", handlers.UpdateProfile(profiles))
	}

	// Staff
	staff := app.Group("/", requireGuards(rbac.Staff))
	{
		staff.GET("/categories/", handlers.ListCategories(categories))
		staff.POST("/categories/create/", handlers.CreateCategory(categories))
		staff.GET("/categories/:id/edit/", handlers.GetCategory(categories))
		staff.POST("/categories/:id/edit/", handlers.UpdateCategory(categories))
		staff.POST("/categories/:id/toggle/", handlers.ToggleCategory(categories))

		staff.GET("/admin/pending-users/", handlers.ListPendingUsers(accounts))
		staff.POST("/admin/activate-user/:id/", handlers.ActivateUser(accounts, d.Metrics))
		staff.POST("/admin/deactivate-user/:id/", handlers.DeactivateUser(accounts, d.Metrics))
		staff.POST("/admin/users/status", handlers.SetUsersStatus(accounts, d.Metrics))
		staff.GET("/admin/audit/", handlers.ListAudit(audit))
	}

	return r
}

func requireGuards(guards ...rbac.Guard) gin.HandlerFunc {
	return rbac.Require(handlers.LoginPath, handlers.DashboardPath, guards...)
}
