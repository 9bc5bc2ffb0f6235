package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"voicegraph/backend/internal/services"
	"voicegraph/backend/pkg/config"
	"voicegraph/backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Env, cfg.LogLevel); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	if cfg.LogFile != "" {
		logger.EnableFile(cfg.LogFile)
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting HTTP API server...")

	// Initialize dependencies
	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	manager := services.NewServiceManager(log, cfg)
	if err := manager.StartAll(startCtx); err != nil {
		cancelStart()
		log.Fatal("Failed to start services", zap.Error(err))
	}
	if nodes, edges, err := manager.GraphStats(startCtx); err == nil {
		log.Info("Knowledge graph loaded",
			zap.Int("nodes", nodes),
			zap.Int("edges", edges),
			zap.Bool("history", manager.IsHistoryEnabled()),
		)
	} else {
		log.Warn("Could not count graph contents", zap.Error(err))
	}
	cancelStart()
	defer manager.StopAll()

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := newRouter(manager.Pipeline(), manager.GraphStats, log)

	// Start server
	// Write timeout outlasts every retry of a model call
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      time.Duration(cfg.LLMMaxRetries+1)*cfg.LLMTimeout + 10*time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// In-flight turns may still be waiting on the model
	ctx, cancel := context.WithTimeout(context.Background(), cfg.LLMTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}
