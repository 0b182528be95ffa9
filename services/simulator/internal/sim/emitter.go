// Package sim drives simulated devices along their paths, emitting one
// position update per device every interval.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/trackerlab/geotrack/services/simulator/internal/geo"
	"github.com/trackerlab/geotrack/services/simulator/internal/models"
)

// Sink accepts position updates. Implementations must be safe for concurrent
// use by several emitters.
type Sink interface {
	UpdatePosition(ctx context.Context, u models.PositionUpdate) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, u models.PositionUpdate) error

// UpdatePosition calls f(ctx, u).
func (f SinkFunc) UpdatePosition(ctx context.Context, u models.PositionUpdate) error {
	return f(ctx, u)
}

// Emitter replays one device's steps cyclically.
type Emitter struct {
	DeviceID string
	Steps    []geo.Coordinate
	Interval time.Duration
	// Laps stops the emitter after that many complete laps; zero runs forever.
	Laps int

	Sink   Sink
	Logger *slog.Logger
	Now    func() time.Time
}

// Run sends Steps[0], Steps[1], ... to the sink, sleeping Interval after each
// call and wrapping around after the last step. The sleep starts after the
// sink returns, so slow calls stretch the cadence. Run returns nil when the
// context is cancelled, when the step list is empty or after Laps laps, and
// the sink's error if a call fails.
func (e *Emitter) Run(ctx context.Context) error {
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("device_id", e.DeviceID)
	now := e.Now
	if now == nil {
		now = time.Now
	}

	if len(e.Steps) == 0 {
		logger.Warn("device has no steps, not emitting")
		return nil
	}

	for lap := 1; ; lap++ {
		for i, step := range e.Steps {
			if ctx.Err() != nil {
				return nil
			}

			logger.Debug("updating device position", "step", i, "lng", step.Lng(), "lat", step.Lat())
			err := e.Sink.UpdatePosition(ctx, models.PositionUpdate{
				DeviceID:   e.DeviceID,
				Position:   step,
				SampleTime: now().UTC(),
			})
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("device %s step %d: %w", e.DeviceID, i, err)
			}

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(e.Interval):
			}
		}

		logger.Info("device completed a lap", "lap", lap, "steps", len(e.Steps))
		if e.Laps > 0 && lap >= e.Laps {
			return nil
		}
	}
}
