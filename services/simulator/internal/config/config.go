package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEndpointURL  = "http://localhost:3000"
	defaultInterval     = 2.0
	defaultSpeed        = 25.0
	defaultFetchTimeout = 30 * time.Second
	defaultKafkaTopic   = "device.positions"
)

// Sink kinds.
const (
	SinkTracker = "tracker"
	SinkKafka   = "kafka"
)

// Config holds runtime configuration for the simulator.
type Config struct {
	TrackerName  string
	EndpointURL  string
	APIKey       string
	Interval     time.Duration
	Speed        float64
	DevicesFile  string
	Laps         int
	Sink         string
	KafkaBrokers []string
	KafkaTopic   string
	FetchTimeout time.Duration
	LogLevel     string
	LogFile      string
}

// Load parses command line flags. Flag defaults come from SIM_* environment
// variables (optionally loaded from .env) before the built-in defaults.
func Load(args []string, usage io.Writer) (Config, error) {
	_ = godotenv.Load(".env")

	cfg := Config{}
	var interval float64
	var brokers string

	fs := flag.NewFlagSet("simulator", flag.ContinueOnError)
	fs.SetOutput(usage)
	fs.StringVar(&cfg.TrackerName, "tracker-name", env("SIM_TRACKER_NAME", ""), "The name of the Amazon Location tracker (required for the tracker sink).")
	fs.StringVar(&cfg.EndpointURL, "endpoint-url", env("SIM_ENDPOINT_URL", defaultEndpointURL), "The URL of the API endpoint.")
	fs.StringVar(&cfg.APIKey, "api-key", env("SIM_API_KEY", ""), "The API key used to authenticate requests to the API.")
	fs.Float64Var(&interval, "interval", envFloat("SIM_INTERVAL", defaultInterval), "How much time (in seconds) to wait between updates.")
	fs.Float64Var(&cfg.Speed, "speed", envFloat("SIM_SPEED", defaultSpeed), "The speed (in m/s) at which all devices move; 0 replays raw waypoints.")
	fs.StringVar(&cfg.DevicesFile, "devices-file", env("SIM_DEVICES_FILE", ""), "Read devices from a YAML/JSON file instead of the API.")
	fs.IntVar(&cfg.Laps, "laps", int(envFloat("SIM_LAPS", 0)), "Stop each device after this many laps (0 runs forever).")
	fs.StringVar(&cfg.Sink, "sink", env("SIM_SINK", SinkTracker), "Where updates go: tracker or kafka.")
	fs.StringVar(&brokers, "kafka-brokers", env("KAFKA_BROKERS", "localhost:9092"), "Comma separated Kafka brokers (kafka sink).")
	fs.StringVar(&cfg.KafkaTopic, "kafka-topic", env("KAFKA_TOPIC", defaultKafkaTopic), "Kafka topic (kafka sink).")
	fs.DurationVar(&cfg.FetchTimeout, "fetch-timeout", defaultFetchTimeout, "Timeout for the device list request.")
	fs.StringVar(&cfg.LogLevel, "log-level", env("LOG_LEVEL", "info"), "debug, info, warn or error.")
	fs.StringVar(&cfg.LogFile, "log-file", env("LOG_FILE", ""), "Write logs to a rotated file instead of stdout.")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	if interval <= 0 {
		return cfg, fmt.Errorf("invalid interval: %v", interval)
	}
	cfg.Interval = time.Duration(interval * float64(time.Second))

	if cfg.Speed < 0 {
		return cfg, fmt.Errorf("invalid speed: %v", cfg.Speed)
	}
	if cfg.Laps < 0 {
		return cfg, fmt.Errorf("invalid laps: %d", cfg.Laps)
	}

	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
		}
	}

	switch cfg.Sink {
	case SinkTracker:
		if cfg.TrackerName == "" {
			return cfg, errors.New("--tracker-name is required")
		}
	case SinkKafka:
		if len(cfg.KafkaBrokers) == 0 {
			return cfg, errors.New("--kafka-brokers is required for the kafka sink")
		}
	default:
		return cfg, fmt.Errorf("invalid sink: %s", cfg.Sink)
	}

	return cfg, nil
}

func env(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
