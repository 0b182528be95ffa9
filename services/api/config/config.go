package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Run modes.
const (
	ModeHTTP   = "http"
	ModeLambda = "lambda"
)

// Registry backends.
const (
	BackendDynamoDB = "dynamodb"
	BackendPostgres = "postgres"
)

const samLocalDynamoDB = "http://host.docker.internal:8000"

// Config holds environment-driven settings for the REST API.
type Config struct {
	Mode           string
	Port           int
	APIKey         string
	RequestTimeout time.Duration

	GeofenceCollection string
	TrackerName        string
	DefaultDeviceID    string
	PlaceIndex         string
	RouteCalculator    string

	RegistryBackend  string
	DevicesTable     string
	DynamoDBEndpoint string
	DatabaseURL      string

	LogLevel string
	LogFile  string
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load() // ignore missing file

	cfg := Config{
		Mode:               ModeHTTP,
		Port:               3000,
		RequestTimeout:     10 * time.Second,
		GeofenceCollection: "MyGeofenceCollection",
		TrackerName:        "MyTracker",
		DefaultDeviceID:    "TestDevice",
		PlaceIndex:         "MyPlaceIndex",
		RouteCalculator:    "MyRouteCalculator",
		RegistryBackend:    BackendDynamoDB,
		DevicesTable:       "Devices",
		LogLevel:           "info",
	}

	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		cfg.Mode = ModeLambda
	}
	if mode := strings.ToLower(strings.TrimSpace(os.Getenv("API_MODE"))); mode != "" {
		if mode != ModeHTTP && mode != ModeLambda {
			return cfg, fmt.Errorf("invalid API_MODE: %s", mode)
		}
		cfg.Mode = mode
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			cfg.Port = port
		} else {
			return cfg, fmt.Errorf("invalid PORT: %s", portStr)
		}
	}

	if v := strings.TrimSpace(os.Getenv("REQUEST_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return cfg, fmt.Errorf("invalid REQUEST_TIMEOUT: %s", v)
		}
		cfg.RequestTimeout = d
	}

	setString(&cfg.GeofenceCollection, "GEOFENCE_COLLECTION_NAME")
	setString(&cfg.TrackerName, "TRACKER_NAME")
	setString(&cfg.DefaultDeviceID, "DEVICE_ID")
	setString(&cfg.PlaceIndex, "PLACE_INDEX_NAME")
	setString(&cfg.RouteCalculator, "ROUTE_CALCULATOR_NAME")
	setString(&cfg.DevicesTable, "DEVICES_TABLE")
	setString(&cfg.LogLevel, "LOG_LEVEL")

	cfg.APIKey = strings.TrimSpace(os.Getenv("API_KEY"))
	cfg.LogFile = strings.TrimSpace(os.Getenv("LOG_FILE"))

	cfg.DynamoDBEndpoint = strings.TrimSpace(os.Getenv("DYNAMODB_ENDPOINT"))
	if cfg.DynamoDBEndpoint == "" && os.Getenv("AWS_SAM_LOCAL") != "" {
		cfg.DynamoDBEndpoint = samLocalDynamoDB
	}

	if backend := strings.ToLower(strings.TrimSpace(os.Getenv("REGISTRY_BACKEND"))); backend != "" {
		cfg.RegistryBackend = backend
	}
	switch cfg.RegistryBackend {
	case BackendDynamoDB:
	case BackendPostgres:
		cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
		if cfg.DatabaseURL == "" {
			return cfg, errors.New("DATABASE_URL is required for the postgres registry")
		}
	default:
		return cfg, fmt.Errorf("invalid REGISTRY_BACKEND: %s", cfg.RegistryBackend)
	}

	return cfg, nil
}

// ListenAddr returns the host:port string for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}
