package app

import (
	"istas_backend/docs"
	"istas_backend/internal/config"
	"istas_backend/internal/middleware"
	"istas_backend/internal/model"
	"istas_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.Host = ""
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	public := router.Group("/api")
	{
		public.POST("/login", c.auth.Login)
		public.GET("/health", c.health.HealthCheck)
	}

	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware(cfg))
	{
		api.GET("/forms", c.catalog.ListForms)
		api.GET("/forms/:id", c.catalog.GetForm)
		api.GET("/companies", c.catalog.ListCompanies)
		api.GET("/companies/:id/employees", c.catalog.ListEmployees)

		registerSessionRoutes(api, c)
	}

	registerAdminRoutes(router, c, cfg)
}

func registerSessionRoutes(api *gin.RouterGroup, c *controllers) {
	api.GET("/evaluations/session", c.evaluation.Current)
	api.DELETE("/evaluations/session", c.evaluation.Reset)
	api.GET("/employees/:id/evaluations", c.evaluation.History)

	// viewers may browse but never write
	sess := api.Group("/evaluations/session")
	sess.Use(middleware.RoleMiddleware(model.Analyst))
	{
		sess.POST("", c.evaluation.Start)
		sess.PUT("/forms/:formId", c.evaluation.SelectForm)
		sess.PUT("/answers/:questionId", c.evaluation.Answer)
		sess.PUT("/answers/:questionId/observation", c.evaluation.SetObservation)
		sess.PUT("/answers/:questionId/options", c.evaluation.SetOptions)
		sess.PUT("/notes", c.evaluation.SetNotes)
		sess.POST("/sections/:sectionId", c.evaluation.GoToSection)
		sess.POST("/next", c.evaluation.NextSection)
		sess.POST("/previous", c.evaluation.PreviousSection)
		sess.POST("/save", c.evaluation.Save)
		sess.POST("/complete", c.evaluation.Complete)
		sess.POST("/new", c.evaluation.StartNew)
		sess.POST("/exit", c.evaluation.ExitResults)
		sess.POST("/history/:evaluationId/view", c.evaluation.ViewEvaluation)
		sess.POST("/history/:evaluationId/reopen", c.evaluation.Reopen)
	}
}

func registerAdminRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg))
	{
		reports := admin.Group("/reports")
		reports.Use(middleware.RoleMiddleware(model.Analyst))
		{
			reports.GET("/companies/:id/forms/:formId", c.report.CompanyReport)
			reports.POST("/companies/:id/forms/:formId/export", c.report.Export)
		}

		adminOnly := admin.Group("")
		adminOnly.Use(middleware.RoleMiddleware(model.Admin))
		{
			adminOnly.DELETE("/evaluations/:id", c.evaluation.Delete)
			adminOnly.POST("/catalog/import", c.catalog.Import)
		}
	}
}
