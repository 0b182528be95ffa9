package models

import (
	"time"

	"github.com/trackerlab/geotrack/services/simulator/internal/geo"
)

// Device is a registry entry as served by GET /devices.
type Device struct {
	DeviceID string   `json:"DeviceId" yaml:"DeviceId"`
	Path     geo.Path `json:"Path" yaml:"Path"`
}

// PositionUpdate is a single sample handed to a position sink.
type PositionUpdate struct {
	DeviceID   string         `json:"DeviceId"`
	Position   geo.Coordinate `json:"Position"`
	SampleTime time.Time      `json:"SampleTime"`
}
