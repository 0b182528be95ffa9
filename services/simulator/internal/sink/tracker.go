// Package sink holds the destinations simulated position updates are sent to.
package sink

import (
	"context"

	"github.com/trackerlab/geotrack/services/internal/location"
	"github.com/trackerlab/geotrack/services/simulator/internal/models"
)

// Tracker sends updates to an Amazon Location tracker.
type Tracker struct {
	client *location.Client
	name   string
}

// NewTracker returns a sink writing to the named tracker.
func NewTracker(client *location.Client, trackerName string) *Tracker {
	return &Tracker{client: client, name: trackerName}
}

// UpdatePosition forwards one update with BatchUpdateDevicePosition.
func (t *Tracker) UpdatePosition(ctx context.Context, u models.PositionUpdate) error {
	return t.client.UpdateDevicePosition(ctx, t.name, u.DeviceID, []float64{u.Position.Lng(), u.Position.Lat()}, u.SampleTime)
}
