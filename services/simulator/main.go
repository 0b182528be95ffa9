package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/trackerlab/geotrack/services/internal/location"
	"github.com/trackerlab/geotrack/services/internal/logging"
	"github.com/trackerlab/geotrack/services/simulator/internal/config"
	"github.com/trackerlab/geotrack/services/simulator/internal/models"
	"github.com/trackerlab/geotrack/services/simulator/internal/registry"
	"github.com/trackerlab/geotrack/services/simulator/internal/sim"
	"github.com/trackerlab/geotrack/services/simulator/internal/sink"
)

func main() {
	if err := run(); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "simulator failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:], os.Stderr)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("simulator starting",
		"tracker", cfg.TrackerName,
		"endpoint_url", cfg.EndpointURL,
		"api_key_set", cfg.APIKey != "",
		"speed_mps", cfg.Speed,
		"interval", cfg.Interval.String(),
		"sink", cfg.Sink,
	)

	devices, err := loadDevices(ctx, cfg)
	if err != nil {
		return err
	}
	logger.Info("loaded devices", "count", len(devices))

	var target sim.Sink
	switch cfg.Sink {
	case config.SinkKafka:
		k := sink.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer k.Close()
		target = k
	default:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return fmt.Errorf("load aws config: %w", err)
		}
		client := location.NewFromConfig(awsCfg, location.Names{Tracker: cfg.TrackerName})
		target = sink.NewTracker(client, cfg.TrackerName)
	}

	driver := &sim.Driver{
		Sink:     target,
		Speed:    cfg.Speed,
		Interval: cfg.Interval,
		Laps:     cfg.Laps,
		Logger:   logger,
	}

	if err := driver.Start(ctx, devices).Wait(); err != nil {
		logger.Warn("some devices stopped with errors", "error", err)
	}
	logger.Info("simulator stopped")
	return nil
}

func loadDevices(ctx context.Context, cfg config.Config) ([]models.Device, error) {
	if cfg.DevicesFile != "" {
		return registry.LoadFile(cfg.DevicesFile)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, cfg.FetchTimeout)
	defer cancel()

	client := &http.Client{Timeout: cfg.FetchTimeout}
	devices, err := registry.FetchDevices(fetchCtx, client, cfg.EndpointURL, cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("fetch devices: %w", err)
	}
	return devices, nil
}
