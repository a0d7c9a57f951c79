package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/intellexhq/intellex-backend/internal/clients/comms"
	"github.com/intellexhq/intellex-backend/internal/clients/openai"
	redisclient "github.com/intellexhq/intellex-backend/internal/clients/redis"
	"github.com/intellexhq/intellex-backend/internal/db"
	"github.com/intellexhq/intellex-backend/internal/handlers"
	"github.com/intellexhq/intellex-backend/internal/logger"
	"github.com/intellexhq/intellex-backend/internal/middleware"
	"github.com/intellexhq/intellex-backend/internal/repos"
	"github.com/intellexhq/intellex-backend/internal/server"
	"github.com/intellexhq/intellex-backend/internal/services"
	"github.com/intellexhq/intellex-backend/internal/utils"
)

func main() {
	_ = godotenv.Load()

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
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	callbackSecret := os.Getenv("ORCHESTRATOR_CALLBACK_SECRET")
	if callbackSecret == "" {
		log.Warn("ORCHESTRATOR_CALLBACK_SECRET is not set; the callback endpoint is open")
	}
	var encryptionKey *[32]byte
	if raw := os.Getenv("API_KEY_ENCRYPTION_KEY"); raw != "" {
		encryptionKey, err = utils.ParseSecretKey(raw)
		if err != nil {
			log.Fatal("Invalid API_KEY_ENCRYPTION_KEY", "error", err)
		}
	} else {
		log.Warn("API_KEY_ENCRYPTION_KEY is not set; API key storage is disabled")
	}

	// Database
	dbService, err := db.NewDatabaseService(log)
	if err != nil {
		log.Fatal("Database init failed", "error", err)
	}
	if err = dbService.AutoMigrateAll(); err != nil {
		log.Fatal("Auto migration failed", "error", err)
	}
	gdb := dbService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(gdb, log)
	projectRepo := repos.NewProjectRepo(gdb, log)
	planRepo := repos.NewResearchPlanRepo(gdb, log)
	messageRepo := repos.NewMessageRepo(gdb, log)
	shareRepo := repos.NewProjectShareRepo(gdb, log)

	// Clients
	log.Info("Setting up Clients from main...")
	llmClient := openai.NewClient(log)
	commsClient := comms.NewClient(log)
	var queue redisclient.MessageQueue
	if q, err := redisclient.NewMessageQueue(log); err != nil {
		log.Warn("Message queue unavailable, responses will be generated inline", "error", err)
	} else {
		queue = q
		defer queue.Close()
	}

	// Services
	log.Info("Setting up Services from main...")
	userService := services.NewUserService(gdb, log, userRepo, projectRepo, planRepo, messageRepo, shareRepo, encryptionKey)
	authService := services.NewAuthService(log, userService, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second)
	planService := services.NewPlanService(log, planRepo)
	orchestratorService := services.NewOrchestratorService(log, llmClient)
	chatService := services.NewChatService(log, messageRepo, projectRepo, planService, orchestratorService, queue)
	projectService := services.NewProjectService(gdb, log, projectRepo, planRepo, messageRepo, shareRepo, planService, commsClient)

	// Handlers
	log.Info("Setting up Handlers from main...")
	healthcheckHandler := handlers.NewHealthcheckHandler(dbService)
	authHandler := handlers.NewAuthHandler(authService, userService)
	userHandler := handlers.NewUserHandler(userService)
	projectHandler := handlers.NewProjectHandler(projectService, planService, chatService)
	orchestratorHandler := handlers.NewOrchestratorHandler(log, chatService, callbackSecret)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	var origins []string
	if raw := os.Getenv("CORS_ALLOWED_ORIGINS"); raw != "" {
		for _, origin := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				origins = append(origins, trimmed)
			}
		}
	}
	router := server.NewRouter(server.RouterConfig{
		Mode:                logMode,
		AllowedOrigins:      origins,
		AuthMiddleware:      authMiddleware,
		HealthcheckHandler:  healthcheckHandler,
		AuthHandler:         authHandler,
		UserHandler:         userHandler,
		ProjectHandler:      projectHandler,
		OrchestratorHandler: orchestratorHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("Server exited with error", "error", err)
	}
	log.Info("Server stopped")
}
