package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"tasktracker/internal/config"
	"tasktracker/internal/db"
	"tasktracker/internal/handler"
	"tasktracker/internal/httpserver"
	"tasktracker/internal/mq"
	redisclient "tasktracker/internal/redis"
	"tasktracker/internal/repository"
	"tasktracker/internal/service/auth"
	"tasktracker/internal/service/task"
	"tasktracker/pkg/logger"
)

func main() {
	log := logger.NewLogger()
	defer log.Sync()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal("Config load failed", zap.Error(err))
	}

	dbCfg := cfg.Database()
	log.Info("Starting task tracker...",
		zap.String("mode", cfg.Mode),
		zap.String("db_host", dbCfg.Host),
		zap.String("db_name", dbCfg.Name),
	)

	// DB
	dbConn, err := db.NewConnection(dbCfg, log)
	if err != nil {
		log.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	schemaCtx, schemaCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.EnsureSchema(schemaCtx, dbConn); err != nil {
		schemaCancel()
		log.Fatal("Schema bootstrap failed", zap.Error(err))
	}
	schemaCancel()

	// Redis
	rdb := redisclient.NewClient(cfg.Redis)
	defer rdb.Close()
	denylist := redisclient.NewDenylist(rdb, log)

	// MQ publisher, optional
	var publisher *mq.Publisher
	var events task.EventPublisher
	if cfg.MQ.URL != "" {
		publisher, err = mq.NewPublisher(cfg.MQ.URL)
		if err != nil {
			log.Fatal("Failed to init publisher", zap.Error(err))
		}
		defer publisher.Close()
		events = publisher
	}

	// Repositories
	userRepo := repository.NewUserRepository(dbConn)
	taskRepo := repository.NewTaskRepository(dbConn, log)
	historyRepo := repository.NewHistoryRepository(dbConn, log)

	// Services
	authService := auth.NewService(userRepo, denylist, cfg.JWT.Secret)
	taskService := task.NewService(taskRepo, historyRepo, userRepo, events, log)

	// Handlers + router
	authHandler := handler.NewAuthHandler(authService, log)
	taskHandler := handler.NewTaskHandler(taskService, log)
	router := httpserver.NewRouter(authHandler, taskHandler, denylist, cfg.JWT.Secret, log, dbConn, publisher)

	port := cfg.Server.Port
	if port == "" {
		port = ":8000"
	}

	srv := &http.Server{
		Addr:    port,
		Handler: router.Engine,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	log.Info("task tracker shutdown complete")
}
