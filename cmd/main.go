package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/db"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/handlers"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/logger"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/middleware"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/repos"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/server"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/services"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/sse"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	universeRepo := repos.NewUniverseRepo(thePG, log)
	contentRepo := repos.NewContentRepo(thePG, log)
	relationshipRepo := repos.NewRelationshipRepo(thePG, log)

	// SSE
	log.Info("Setting up SSE hub now...")
	sseHub := sse.NewSSEHub(log)
	emitter := services.SSEEmitter(&services.HubEmitter{Hub: sseHub})

	// Optional redis fan-out across instances
	if os.Getenv("REDIS_ADDR") != "" {
		sseBus, err := services.NewRedisSSEBus(log)
		if err != nil {
			log.Error("Could not init RedisSSEBus", "error", err)
			os.Exit(1)
		}
		if err := sseBus.StartForwarder(context.Background(), func(m sse.SSEMessage) {
			sseHub.Broadcast(m)
		}); err != nil {
			log.Error("Could not start SSE forwarder", "error", err)
			os.Exit(1)
		}
		emitter = &services.BusEmitter{Bus: sseBus}
	}

	// Services
	log.Info("Setting up Services from main...")
	notifier := services.NewProgressNotifier(emitter)
	userService := services.NewUserService(thePG, log, userRepo)
	universeService := services.NewUniverseService(thePG, log, universeRepo, contentRepo, relationshipRepo)
	hierarchyService := services.NewHierarchyService(thePG, log, universeRepo, contentRepo, relationshipRepo)
	relationshipService := services.NewRelationshipService(thePG, log, contentRepo, relationshipRepo, notifier)
	progressService := services.NewProgressService(thePG, log, universeRepo, contentRepo, relationshipRepo, notifier)
	contentService := services.NewContentService(thePG, log, universeRepo, contentRepo, relationshipRepo, relationshipService, progressService, notifier)

	// Handlers
	log.Info("Setting up handlers from main...")
	userHandler := handlers.NewUserHandler(userService)
	universeHandler := handlers.NewUniverseHandler(universeService)
	contentHandler := handlers.NewContentHandler(contentService, hierarchyService)
	relationshipHandler := handlers.NewRelationshipHandler(relationshipService)
	progressHandler := handlers.NewProgressHandler(progressService)
	sseHandler := handlers.NewSSEHandler(log, sseHub)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(log, jwtSecretKey)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		AuthMiddleware:      authMiddleware,
		UserHandler:         userHandler,
		UniverseHandler:     universeHandler,
		ContentHandler:      contentHandler,
		RelationshipHandler: relationshipHandler,
		ProgressHandler:     progressHandler,
		SSEHandler:          sseHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}
