package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"time"

	"go.uber.org/zap"

	"github.com/absarburney3/aws-healthcare-disaster-recovery/internal/api/rest"
	"github.com/absarburney3/aws-healthcare-disaster-recovery/internal/infrastructure/config"
	"github.com/absarburney3/aws-healthcare-disaster-recovery/internal/infrastructure/storage"
	"github.com/absarburney3/aws-healthcare-disaster-recovery/internal/infrastructure/telemetry"
	"github.com/absarburney3/aws-healthcare-disaster-recovery/internal/service/pipeline"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *showVersion {
		fmt.Println(cfg.Version)
		return
	}

	logger, err := telemetry.SetupLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}
	slog.SetDefault(logger)

	ctx := context.Background()

	telCfg := telemetry.DefaultConfig()
	telCfg.ServiceVersion = cfg.Version
	telCfg.Environment = cfg.Environment
	telCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	telCfg.Enabled = cfg.Telemetry.Enabled
	telCfg.SamplingRate = cfg.Telemetry.SamplingRate

	provider, err := telemetry.InitializeOpenTelemetry(ctx, telCfg)
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			slog.Error("telemetry shutdown failed", "error", err)
		}
	}()

	zlog := newServiceLogger(cfg.Environment)
	defer zlog.Sync()

	awsCfg, err := storage.NewAWSConfig(ctx, cfg.AWS.Region, cfg.AWS.Endpoint)
	if err != nil {
		log.Fatalf("Failed to load AWS configuration: %v", err)
	}

	primary := storage.NewDynamoDBStore(
		storage.NewDynamoDBClient(awsCfg, cfg.AWS.Endpoint),
		cfg.Storage.TableName,
		zlog.Named("dynamodb"),
	)
	backup := storage.NewS3Store(
		storage.NewS3Client(awsCfg, cfg.AWS.Endpoint),
		cfg.Storage.BackupBucket,
		zlog.Named("s3"),
	)
	metrics := storage.NewCloudWatchSink(
		storage.NewCloudWatchClient(awsCfg, cfg.AWS.Endpoint),
		cfg.AWS.Region,
		zlog.Named("cloudwatch"),
	)

	processor := pipeline.NewService(
		zlog.Named("pipeline"),
		primary, backup, metrics,
		pipeline.Config{Region: cfg.AWS.Region},
	)

	health := rest.NewHealthService(rest.HealthConfig{
		CacheDuration:  10 * time.Second,
		Timeout:        5 * time.Second,
		ServiceName:    "healthcare-dr",
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
	})
	health.RegisterChecker("dynamodb", rest.NewPingHealthChecker("dynamodb", primary.Ping))
	health.RegisterChecker("s3", rest.NewPingHealthChecker("s3", backup.Ping))
	health.RegisterChecker("system", rest.NewSystemHealthChecker())

	slog.Info("starting record intake service",
		"version", cfg.Version,
		"environment", cfg.Environment,
		"region", cfg.AWS.Region,
		"port", cfg.Server.Port,
	)

	if err := rest.NewServer(cfg, processor, health).Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// newServiceLogger builds the zap logger the pipeline and storage
// adapters log through. The slog logger covers the HTTP layer.
func newServiceLogger(environment string) *zap.Logger {
	if environment == "production" {
		return zap.Must(zap.NewProduction())
	}
	return zap.Must(zap.NewDevelopment())
}
