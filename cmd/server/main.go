package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"reputation-service/internal/config"
	"reputation-service/internal/features"
	"reputation-service/internal/handler"
	"reputation-service/internal/keywords"
	"reputation-service/internal/lexicon"
	"reputation-service/internal/llm"
	"reputation-service/internal/metrics"
	"reputation-service/internal/repository"
	"reputation-service/internal/reputation"
	"reputation-service/internal/sentiment"
	"reputation-service/internal/service"
	"reputation-service/internal/threat"
	"reputation-service/internal/translate"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	configPath := flag.String("config", "configs/config.yml", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("Starting Reputation Service...")

	m := metrics.New()

	lex, err := lexicon.Load(cfg.Lexicon.Path, cfg.Lexicon.KeyFigures)
	if err != nil {
		logger.Fatal("Failed to load lexicon", zap.Error(err))
	}

	// Model backends (multi-provider with rate limiting); none configured
	// means the keyword fallback scores everything
	backends, err := llm.Build(context.Background(), cfg.MultiProvider(), logger, m)
	if err != nil {
		logger.Fatal("Failed to initialize model providers", zap.Error(err))
	}
	defer backends.Close()

	if len(backends.Sentiment) == 0 {
		logger.Warn("No sentiment model configured, using keyword fallback only")
	}

	var translator *translate.Translator
	if backends.Translator != nil {
		translator = translate.New(backends.Translator, cfg.Translation, logger, m)
	} else {
		logger.Warn("No translation provider configured, Telugu items are analysed untranslated")
	}

	// Initialize repository
	// Create data directory if not exists
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
		logger.Fatal("Failed to create data directory", zap.Error(err))
	}

	repo, err := repository.New(cfg.Database.Path, logger)
	if err != nil {
		logger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	// Initialize service
	th := cfg.Thresholds
	analyzer := service.NewAnalyzer(service.Components{
		Classifier: sentiment.NewClassifier(lex, backends.Models(), sentiment.Config{
			Thresholds: th.Sentiment,
			Retry:      cfg.Pipeline.Retry,
		}, logger, m),
		Extractor:  keywords.NewExtractor(lex),
		Detector:   threat.NewDetector(lex, th.Threat, logger),
		Engineer:   features.NewEngineer(th.Features),
		Aggregator: reputation.NewAggregator(th.Reputation, th.Crisis),
		Translator: translator,
	}, repo, service.Config{
		Workers:     cfg.Pipeline.Workers,
		TopKeywords: cfg.Pipeline.TopKeywords,
		JobChunk:    cfg.Pipeline.JobChunk,
	}, logger, m)

	if cfg.Data.Restore {
		if _, err := analyzer.Restore(); err != nil {
			logger.Error("Failed to restore stored items", zap.Error(err))
		}
	}

	if len(cfg.Data.Files) > 0 {
		rep, err := analyzer.LoadCorpus(context.Background(), cfg.Data.Files)
		if err != nil {
			logger.Fatal("Failed to load input files", zap.Error(err))
		}
		logger.Info("Corpus loaded",
			zap.Int("rows", rep.Rows),
			zap.Int("accepted", rep.Accepted),
			zap.Int("rejected", len(rep.Rejected)))
	}

	// Initialize HTTP handler
	apiHandler := handler.NewHandler(analyzer, backends, m, handler.Config{
		DefaultMode: cfg.Mode(),
		WindowSize:  th.Features.WindowSize,
	}, logger)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	// Add CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Register routes
	apiHandler.RegisterRoutes(router)

	// Start server
	serverAddr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Info("Server starting", zap.String("address", serverAddr))

	// Graceful shutdown
	srv := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Reputation Service is running",
		zap.String("port", cfg.Server.Port),
		zap.String("mode", cfg.Mode().String()),
		zap.Int("items", analyzer.Corpus().Len()))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := analyzer.Shutdown(ctx); err != nil {
		logger.Warn("Batch jobs did not stop in time", zap.Error(err))
	}

	logger.Info("Server exited")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	zcfg := zap.NewDevelopmentConfig()
	if cfg.Log.Format == "json" {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}
