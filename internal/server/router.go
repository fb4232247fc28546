package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/handlers"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/middleware"
)

type RouterConfig struct {
	AuthMiddleware      *middleware.AuthMiddleware
	UserHandler         *handlers.UserHandler
	UniverseHandler     *handlers.UniverseHandler
	ContentHandler      *handlers.ContentHandler
	RelationshipHandler *handlers.RelationshipHandler
	ProgressHandler     *handlers.ProgressHandler
	SSEHandler          *handlers.SSEHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:3000",
			"http://localhost:5173",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())

	// Identity
	api.GET("/me", cfg.UserHandler.Me)

	// Universes
	api.POST("/universes", cfg.UniverseHandler.Create)
	api.GET("/universes", cfg.UniverseHandler.List)
	api.GET("/universes/:id", cfg.UniverseHandler.Get)
	api.PATCH("/universes/:id", cfg.UniverseHandler.Update)
	api.DELETE("/universes/:id", cfg.UniverseHandler.Delete)

	// Hierarchy reads
	api.GET("/universes/:id/content", cfg.ContentHandler.ListForUniverse)
	api.GET("/universes/:id/tree", cfg.ContentHandler.Tree)
	api.GET("/universes/:id/children", cfg.ContentHandler.Children)
	api.GET("/universes/:id/content/:contentId/path", cfg.ContentHandler.AncestorPath)
	api.GET("/universes/:id/progress", cfg.ProgressHandler.UniverseProgress)

	// Content
	api.POST("/content", cfg.ContentHandler.Create)
	api.GET("/content/:id", cfg.ContentHandler.Get)
	api.PATCH("/content/:id", cfg.ContentHandler.Update)
	api.DELETE("/content/:id", cfg.ContentHandler.Delete)

	// Relationships
	api.POST("/relationships", cfg.RelationshipHandler.Create)
	api.DELETE("/relationships/:id", cfg.RelationshipHandler.Delete)
	api.PUT("/content/:id/children/order", cfg.RelationshipHandler.ReorderChildren)

	// Progress
	api.PUT("/content/:id/progress", cfg.ProgressHandler.SetProgress)
	api.GET("/content/:id/progress", cfg.ProgressHandler.GetProgress)
	api.GET("/progress", cfg.ProgressHandler.RollupAll)

	// SSE
	api.GET("/sse/stream", cfg.SSEHandler.Stream)

	return router
}
