package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/trackerlab/geotrack/services/api/config"
	"github.com/trackerlab/geotrack/services/api/db"
	httpserver "github.com/trackerlab/geotrack/services/api/http"
	"github.com/trackerlab/geotrack/services/internal/location"
	"github.com/trackerlab/geotrack/services/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "api failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}

	registry, err := openRegistry(ctx, cfg, awsCfg)
	if err != nil {
		return fmt.Errorf("registry connection error: %w", err)
	}
	defer registry.Close()

	loc := location.NewFromConfig(awsCfg, location.Names{
		GeofenceCollection: cfg.GeofenceCollection,
		Tracker:            cfg.TrackerName,
		PlaceIndex:         cfg.PlaceIndex,
		RouteCalculator:    cfg.RouteCalculator,
	})

	srv := httpserver.New(cfg, loc, registry, logger)

	if cfg.Mode == config.ModeLambda {
		logger.Info("serving API Gateway events", "registry", cfg.RegistryBackend)
		lambda.StartWithOptions(srv.HandleLambda, lambda.WithContext(ctx))
		return nil
	}

	logger.Info("REST API listening", "addr", cfg.ListenAddr(), "registry", cfg.RegistryBackend)
	return srv.Run(ctx)
}

func openRegistry(ctx context.Context, cfg config.Config, awsCfg aws.Config) (db.Registry, error) {
	if cfg.RegistryBackend == config.BackendPostgres {
		return db.NewPostgresRegistry(ctx, cfg.DatabaseURL)
	}
	return db.NewDynamoRegistryFromConfig(awsCfg, cfg.DevicesTable, cfg.DynamoDBEndpoint), nil
}
