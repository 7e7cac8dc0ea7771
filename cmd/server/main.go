package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cp-ai-assist-go/internal/agents"
	"github.com/cp-ai-assist-go/internal/config"
	"github.com/cp-ai-assist-go/internal/handlers"
	"github.com/cp-ai-assist-go/internal/i18n"
	"github.com/cp-ai-assist-go/internal/middleware"
	"github.com/cp-ai-assist-go/internal/router"
	"github.com/cp-ai-assist-go/internal/services/ai"
	"github.com/cp-ai-assist-go/internal/services/cache"
	"github.com/cp-ai-assist-go/internal/services/history"
	"github.com/cp-ai-assist-go/pkg/logger"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	envFile := flag.String("env", ".env", "Path to .env file")
	flag.Parse()

	// Load .env file if exists
	if err := godotenv.Load(*envFile); err != nil {
		// It's okay if .env doesn't exist
		fmt.Printf("Warning: .env file not found: %v\n", err)
	}

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.Info("Starting CP Assistant API...")

	// Initialize metrics
	metrics := middleware.NewMetrics()

	// Initialize model client
	aiService := ai.NewClient(&cfg.Models, metrics, log)
	modelID := cfg.Models.Default
	if _, err := aiService.GetModelByID(modelID); err != nil {
		log.WithError(err).Fatal("Default model is not configured")
	}

	// Initialize history stores
	hintStore := history.NewHintStore(log)
	chatStore := history.NewChatStore(cfg.Chat.MaxMessages, log)

	// Initialize answer cache
	cacheService, err := cache.NewService(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize cache")
	}

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter(cfg, log)

	// Initialize i18n
	localizer, err := i18n.NewLocalizer(&cfg.I18n)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize i18n")
	}

	// Start metrics server if enabled
	if cfg.Monitoring.Metrics.Enabled {
		go func() {
			log.WithFields(logrus.Fields{
				"port": cfg.Monitoring.Metrics.Port,
				"path": cfg.Monitoring.Metrics.Path,
			}).Info("Starting metrics server")

			if err := middleware.StartMetricsServer(cfg.Monitoring.Metrics.Port, cfg.Monitoring.Metrics.Path); err != nil {
				log.WithError(err).Error("Metrics server failed")
			}
		}()
	}

	// Initialize router
	classifier := router.NewClassifier(aiService, modelID, router.LabelSet(cfg.Classifier.LabelSet), log)
	rt := router.New(router.Deps{
		Classifier: classifier,
		Explain:    agents.NewExplainAgent(aiService, modelID, log),
		Debug:      agents.NewDebugAgent(aiService, modelID, log),
		Suggest:    agents.NewSuggestAgent(aiService, modelID, log),
		Solver:     agents.NewSolverAgent(aiService, modelID, log),
		Hint:       agents.NewHintAgent(aiService, modelID, log),
		Query:      agents.NewQueryAgent(aiService, modelID, log),
		Hints:      hintStore,
		Chat:       chatStore,
		Cache:      cacheService,
		MaxHints:   cfg.Hints.Max,
		ModelID:    modelID,
		Localizer:  localizer,
		Metrics:    metrics,
		Logger:     log,
	})

	// Initialize HTTP handlers
	askHandler := handlers.NewAskHandler(cfg, rt, aiService, rateLimiter, metrics, localizer, log)

	muxRouter := mux.NewRouter()
	askHandler.Register(muxRouter)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      muxRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.WithField("addr", addr).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown failed")
	}

	log.Info("Server stopped")
}
