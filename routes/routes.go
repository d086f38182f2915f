package routes

import (
	"stayhub-backend/config"
	"stayhub-backend/controllers"
	"stayhub-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers bundles the controllers the router mounts.
type Handlers struct {
	Auth      *controllers.AuthController
	Schedules *controllers.ScheduleController
	Scheduler *controllers.SchedulerController
	Templates *controllers.TemplateController
	Campaigns *controllers.CampaignController
}

func SetupRouter(cfg *config.Config, h Handlers, logger *zap.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.Use(config.PerformanceLogger(logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	authMiddleware := utils.AuthMiddleware(cfg.Auth.JWTSecret)

	auth := r.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.GET("/me", authMiddleware, h.Auth.Me)
	}

	api := r.Group("/api")
	api.Use(authMiddleware)
	{
		schedules := api.Group("/template-schedules")
		{
			schedules.GET("", h.Schedules.ListSchedules)
			schedules.POST("", h.Schedules.CreateSchedule)
			schedules.POST("/sync", h.Schedules.SyncSchedules)
			schedules.GET("/:id", h.Schedules.GetSchedule)
			schedules.PUT("/:id", h.Schedules.UpdateSchedule)
			schedules.DELETE("/:id", h.Schedules.DeleteSchedule)
			schedules.POST("/:id/run", h.Schedules.RunSchedule)
			schedules.GET("/:id/preview", h.Schedules.PreviewTargets)
		}

		scheduler := api.Group("/scheduler")
		{
			scheduler.GET("/status", h.Scheduler.Status)
			scheduler.GET("/jobs", h.Scheduler.ListJobs)
			scheduler.GET("/jobs/:key", h.Scheduler.GetJob)
			scheduler.POST("/jobs/:key/pause", h.Scheduler.PauseJob)
			scheduler.POST("/jobs/:key/resume", h.Scheduler.ResumeJob)
			scheduler.POST("/jobs/:key/run", h.Scheduler.RunJob)
		}

		templates := api.Group("/templates")
		{
			templates.GET("", h.Templates.ListTemplates)
			templates.POST("", h.Templates.CreateTemplate)
			templates.GET("/variables", h.Templates.ListVariables)
			templates.GET("/:id", h.Templates.GetTemplate)
			templates.PUT("/:id", h.Templates.UpdateTemplate)
			templates.DELETE("/:id", h.Templates.DeleteTemplate)
			templates.POST("/:id/preview", h.Templates.PreviewTemplate)
		}

		campaigns := api.Group("/campaigns")
		{
			campaigns.GET("", h.Campaigns.ListCampaigns)
			campaigns.POST("/tag", h.Campaigns.SendTagCampaign)
			campaigns.GET("/:id", h.Campaigns.GetCampaign)
		}
	}

	return r
}
