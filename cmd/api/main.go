package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ggorockee/dollcatch/internal/config"
	"github.com/ggorockee/dollcatch/internal/database"
	"github.com/ggorockee/dollcatch/internal/logger"
	"github.com/ggorockee/dollcatch/internal/server"
	"github.com/ggorockee/dollcatch/internal/services"
	"github.com/ggorockee/dollcatch/internal/telemetry"
	"github.com/joho/godotenv"
)

var version = "dev"

// @title DollCatch API
// @version 1.0.0
// @description 인형뽑기 매장 검색, 리뷰, 커뮤니티 API
// @BasePath /v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	envErr := godotenv.Load()

	cfg := config.Load()

	if err := logger.Init(logger.Options{JSON: cfg.IsProduction(), Level: cfg.LogLevel}); err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.GetLogger("main")

	if envErr != nil {
		log.Info("No .env file found, using environment variables")
	}
	if cfg.JWTSecretKey == "" {
		log.Warn("JWT_SECRET_KEY is empty, authenticated routes will reject every token")
	}

	ctx := context.Background()
	tracerShutdown, err := telemetry.InitTracer(ctx, server.ServiceName, version, cfg.SigNozEndpoint)
	if err != nil {
		log.Errorf("Failed to initialize tracer: %v", err)
		tracerShutdown = func(context.Context) error { return nil }
	}
	defer func() {
		if err := tracerShutdown(ctx); err != nil {
			log.Errorf("Error shutting down tracer: %v", err)
		}
	}()

	meterShutdown, err := telemetry.InitMeter(ctx, server.ServiceName, version, cfg.SigNozEndpoint)
	if err != nil {
		log.Errorf("Failed to initialize metrics: %v", err)
		meterShutdown = func(context.Context) error { return nil }
	}
	defer func() {
		if err := meterShutdown(ctx); err != nil {
			log.Errorf("Error shutting down metrics: %v", err)
		}
	}()
	telemetry.SetOutcomeClassifier(services.ErrorKind)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Migration errors are logged, an existing schema may use other constraint names
	if err := database.Migrate(db); err != nil {
		log.Warnf("AutoMigrate warning (non-fatal): %v", err)
	}

	poolCtx, stopPool := context.WithCancel(ctx)
	defer stopPool()
	go database.StartConnectionPoolMetricsCollector(poolCtx, db, 15*time.Second)

	svc := services.New(db, services.Options{
		UploadPrefix:     cfg.UploadURLPrefix,
		DefaultThumbnail: cfg.DefaultThumbnail,
		Location:         cfg.Location(),
		MaxPageSize:      cfg.MaxPageSize,
	})

	app := server.New(cfg, db, svc, server.Options{AccessLog: true})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Info("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Errorf("Error shutting down server: %v", err)
		}
	}()

	log.Infof("Server starting on port %s (env=%s, tz=%s)", cfg.ServerPort, cfg.ServerEnv, cfg.ServerTimezone)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
