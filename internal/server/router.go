package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/intellexhq/intellex-backend/internal/handlers"
	"github.com/intellexhq/intellex-backend/internal/middleware"
)

type RouterConfig struct {
	Mode                string
	AllowedOrigins      []string
	AuthMiddleware      *middleware.AuthMiddleware
	HealthcheckHandler  *handlers.HealthcheckHandler
	AuthHandler         *handlers.AuthHandler
	UserHandler         *handlers.UserHandler
	ProjectHandler      *handlers.ProjectHandler
	OrchestratorHandler *handlers.OrchestratorHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	if strings.EqualFold(cfg.Mode, "prod") {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", cfg.HealthcheckHandler.Healthcheck)
	router.POST("/api/auth/login", cfg.AuthHandler.Login)
	// Worker callback; gated by the shared secret, not user auth.
	router.POST("/orchestrator/callback", cfg.OrchestratorHandler.Callback)

	// ===============
	// || Protected ||
	// ===============
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())
	// Auth
	api.GET("/auth/me", cfg.AuthHandler.Me)
	// User
	api.GET("/users/api-keys", cfg.UserHandler.GetAPIKeys)
	api.POST("/users/api-keys", cfg.UserHandler.SaveAPIKeys)
	api.DELETE("/users/account", cfg.UserHandler.DeleteAccount)
	// Projects
	api.GET("/projects", cfg.ProjectHandler.List)
	api.POST("/projects", cfg.ProjectHandler.Create)
	api.GET("/projects/stats", cfg.ProjectHandler.Stats)
	api.GET("/projects/activity", cfg.ProjectHandler.Activity)
	api.GET("/projects/:projectId", cfg.ProjectHandler.Get)
	api.PATCH("/projects/:projectId", cfg.ProjectHandler.Update)
	api.DELETE("/projects/:projectId", cfg.ProjectHandler.Delete)
	api.GET("/projects/:projectId/plan", cfg.ProjectHandler.GetPlan)
	api.GET("/projects/:projectId/messages", cfg.ProjectHandler.ListMessages)
	api.POST("/projects/:projectId/messages", cfg.ProjectHandler.SendMessage)
	api.GET("/projects/:projectId/shares", cfg.ProjectHandler.ListShares)
	api.POST("/projects/:projectId/shares", cfg.ProjectHandler.Share)
	api.DELETE("/projects/:projectId/shares/:shareId", cfg.ProjectHandler.RevokeShare)

	return router
}
