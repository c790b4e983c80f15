package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"edms/internal/config"
	"edms/internal/database"
	"edms/internal/handler"
	"edms/internal/repository"
	"edms/internal/retention"
	"edms/internal/service"
	"edms/internal/websocket"
	"edms/internal/workflow"

	"github.com/gin-gonic/gin"
)

// @title           EDMS Routing API
// @version         1.0
// @description     Routes document requests through the unit review chain and reports filed records against the retention schedule.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load("configs/.env")
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := cfg.NewLogger()
	slog.SetDefault(logger)
	retention.Location = cfg.RecordsLocation

	db, err := database.NewConnection(cfg.DSN())
	if err != nil {
		logger.Error("Database connection failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to PostgreSQL successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Set up dependencies (Repository -> Service -> Handler)
	requestRepo := repository.NewRequestRepository(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	txManager := repository.NewTransactionManager(db)
	engine := workflow.NewEngine(cfg.CommandSections)

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(logger, userRepo)
	go wsHub.Run(ctx)

	requestService := service.NewRequestService(requestRepo, userRepo, auditRepo, txManager, engine,
		service.WithNotifier(wsHub),
		service.WithLogger(logger),
		service.WithRetry(cfg.PersistRetries, cfg.PersistRetryBackoff),
	)
	recordsService := service.NewRecordsService(requestRepo, userRepo)
	userService := service.NewUserService(userRepo, auditRepo, txManager)
	auditService := service.NewAuditService(auditRepo, userRepo)

	if os.Getenv("GIN_MODE") == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handler.NewRouter(handler.RouterConfig{
		Logger:      logger,
		JWTSecret:   cfg.JWTSecret,
		CORSOrigins: cfg.CORSOrigins,
		Hub:         wsHub,
		Roster:      userRepo,
		Requests:    requestService,
		Records:     recordsService,
		Users:       userService,
		Audit:       auditService,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
