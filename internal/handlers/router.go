package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/permits/api/internal/logger"
	"github.com/stwalsh4118/permits/api/internal/middleware"
)

// RouterConfig carries everything the router needs.
type RouterConfig struct {
	Log          *logger.Logger
	Health       *HealthHandler
	Properties   *PropertyHandler
	Permits      *PermitHandler
	Compliance   *ComplianceHandler
	Goals        *GoalHandler
	Applications *ApplicationHandler
	CORSOrigins  []string
}

// NewRouter builds the gin engine with the middleware chain and every route.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()

	// Add middleware in order: RequestID -> Logger -> Recovery -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(cfg.Log))
	router.Use(middleware.Recovery(cfg.Log))
	router.Use(middleware.CORS(cfg.CORSOrigins))

	router.GET("/health", cfg.Health.Health)
	router.GET("/health/ready", cfg.Health.Ready)

	limit := middleware.BodyLimit(middleware.DefaultMaxBodyBytes)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/info", cfg.Health.Info)

		properties := v1.Group("/properties")
		{
			properties.GET("/search", cfg.Properties.Search)
			properties.GET("/:id", cfg.Properties.Get)
			properties.GET("/:id/compliance-history", cfg.Compliance.History)
		}

		permitTypes := v1.Group("/permit-types")
		{
			permitTypes.GET("", cfg.Permits.List)
			permitTypes.GET("/:id", cfg.Permits.Get)
			permitTypes.GET("/:id/requirements", cfg.Permits.Requirements)
		}

		v1.POST("/fees/calculate", limit, cfg.Permits.CalculateFee)

		compliance := v1.Group("/compliance")
		{
			compliance.POST("/check", limit, cfg.Compliance.Check)
			compliance.POST("/direct", limit, cfg.Compliance.Direct)
			compliance.GET("/checks/:id", cfg.Compliance.GetCheck)
		}

		goals := v1.Group("/goals")
		{
			goals.POST("/applicable", limit, cfg.Goals.Applicable)
			goals.POST("/:number/evaluate", limit, cfg.Goals.Evaluate)
		}

		applications := v1.Group("/applications")
		{
			applications.POST("", limit, cfg.Applications.Create)
			applications.GET("", cfg.Applications.List)
			applications.GET("/:id", cfg.Applications.Get)
			applications.PATCH("/:id", limit, cfg.Applications.Update)
			applications.POST("/:id/compliance-check", limit, cfg.Applications.Check)
		}

		v1.GET("/dashboard/stats", cfg.Applications.Stats)
	}

	return router
}
