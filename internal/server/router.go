package server

import (
	"net/http"

	"grc-backend/internal/config"
	"grc-backend/internal/handlers"
	"grc-backend/internal/middleware"
	"grc-backend/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

func NewRouter(cfg *config.Config) *gin.Engine {
	r := gin.Default()

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("grc_session", store))

	r.Use(middleware.InjectUser())

	// AUTH
	r.POST("/api/register", handlers.Register)
	r.POST("/api/login", handlers.Login)
	r.POST("/api/logout", handlers.Logout)

	api := r.Group("/api")
	api.Use(middleware.RequireAuth())

	// CUSTOMERS
	api.GET("/customers", handlers.ListCustomers)
	api.POST("/customers",
		middleware.RequireRole(models.RoleAdmin, models.RoleManager),
		handlers.CreateCustomer,
	)
	api.GET("/customers/:id", handlers.ShowCustomer)

	// PROVISIONING
	api.POST("/customers/:id/provision",
		middleware.RequireRole(models.RoleAdmin, models.RoleAnalyst),
		handlers.ProvisionCustomer,
	)

	// LIBRARY CATALOG
	api.GET("/library/scenarios",
		middleware.RequireRole(models.RoleAdmin, models.RoleAnalyst),
		handlers.ListLibraryScenarios,
	)
	api.POST("/library/scenarios",
		middleware.RequireRole(models.RoleAdmin, models.RoleAnalyst),
		handlers.CreateLibraryScenario,
	)
	api.GET("/library/controls",
		middleware.RequireRole(models.RoleAdmin, models.RoleAnalyst),
		handlers.ListLibraryControls,
	)
	api.POST("/library/controls",
		middleware.RequireRole(models.RoleAdmin, models.RoleAnalyst),
		handlers.CreateLibraryControl,
	)

	// LIVE SCENARIOS
	api.GET("/scenarios", handlers.ListScenarios)
	api.POST("/scenarios",
		middleware.RequireRole(models.RoleAdmin, models.RoleAnalyst),
		handlers.CreateScenario,
	)
	api.DELETE("/scenarios/:id",
		middleware.RequireRole(models.RoleAdmin, models.RoleAnalyst),
		handlers.DeleteScenario,
	)
	api.POST("/scenarios/:id/restore",
		middleware.RequireRole(models.RoleAdmin),
		handlers.RestoreScenario,
	)

	// LIVE CONTROLS
	api.GET("/controls", handlers.ListControls)
	api.POST("/controls",
		middleware.RequireRole(models.RoleAdmin, models.RoleAnalyst),
		handlers.CreateControl,
	)
	api.GET("/controls/:id", handlers.ShowControl)
	api.PATCH("/controls/:id",
		middleware.RequireRole(models.RoleAdmin, models.RoleAnalyst),
		handlers.UpdateControlMetrics,
	)
	api.GET("/controls/:id/readiness", handlers.ControlReadiness)
	api.POST("/controls/:id/status",
		middleware.RequireRole(models.RoleAdmin, models.RoleAnalyst, models.RoleManager),
		handlers.ChangeControlStatus,
	)
	api.POST("/controls/:id/scenarios",
		middleware.RequireRole(models.RoleAdmin, models.RoleAnalyst),
		handlers.SetControlScenarios,
	)
	api.POST("/controls/:id/tags",
		middleware.RequireRole(models.RoleAdmin, models.RoleAnalyst),
		handlers.SetControlTags,
	)
	api.POST("/controls/:id/industries",
		middleware.RequireRole(models.RoleAdmin, models.RoleAnalyst),
		handlers.SetControlIndustries,
	)
	api.DELETE("/controls/:id",
		middleware.RequireRole(models.RoleAdmin),
		handlers.DeleteControl,
	)
	api.POST("/controls/:id/restore",
		middleware.RequireRole(models.RoleAdmin),
		handlers.RestoreControl,
	)

	// REMEDIATION TASKS
	api.GET("/todos", handlers.ListToDos)
	api.POST("/todos",
		middleware.RequireRole(models.RoleAdmin, models.RoleAnalyst),
		handlers.CreateToDo,
	)
	api.POST("/todos/:id/dependency",
		middleware.RequireRole(models.RoleAdmin, models.RoleAnalyst),
		handlers.SetToDoDependency,
	)
	api.POST("/todos/:id/schedule",
		middleware.RequireRole(models.RoleAdmin, models.RoleAnalyst),
		handlers.ScheduleToDo,
	)
	api.POST("/todos/:id/done",
		middleware.RequireRole(models.RoleAdmin, models.RoleAnalyst, models.RoleManager),
		handlers.CompleteToDo,
	)
	api.DELETE("/todos/:id",
		middleware.RequireRole(models.RoleAdmin, models.RoleAnalyst),
		handlers.DeleteToDo,
	)
	api.POST("/todos/:id/restore",
		middleware.RequireRole(models.RoleAdmin),
		handlers.RestoreToDo,
	)

	// AUDIT
	api.GET("/audit",
		middleware.RequireRole(models.RoleAdmin, models.RoleViewer),
		handlers.ListAuditLogs,
	)

	// HEALTHCHECK
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	return r
}
