package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/trackerlab/geotrack/services/simulator/internal/geo"
	"github.com/trackerlab/geotrack/services/simulator/internal/models"
)

// Driver starts one emitter per device.
type Driver struct {
	Sink Sink
	// Speed in m/s. Zero replays each device's waypoints as-is (one per
	// interval) instead of interpolating along the closed path.
	Speed    float64
	Interval time.Duration
	Laps     int
	Logger   *slog.Logger
	Now      func() time.Time
}

// Plan returns the step sequence a device will replay.
func (d *Driver) Plan(dev models.Device) []geo.Coordinate {
	if d.Speed <= 0 {
		return append([]geo.Coordinate(nil), dev.Path...)
	}
	return geo.Segment(geo.ClosePath(dev.Path), d.Speed, d.Interval)
}

// Run is a started simulation.
type Run struct {
	eg errgroup.Group

	mu       sync.Mutex
	failures []error
}

// Wait blocks until every device has stopped and returns the joined
// per-device failures, if any.
func (r *Run) Wait() error {
	_ = r.eg.Wait()
	r.mu.Lock()
	defer r.mu.Unlock()
	return errors.Join(r.failures...)
}

func (r *Run) fail(err error) {
	r.mu.Lock()
	r.failures = append(r.failures, err)
	r.mu.Unlock()
}

// Start launches an emitter for every device and returns without waiting.
// Devices are independent: a failing or panicking emitter is logged and
// recorded, and the others keep running. Cancelling ctx stops them all.
func (d *Driver) Start(ctx context.Context, devices []models.Device) *Run {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	run := &Run{}
	for _, dev := range devices {
		steps := d.Plan(dev)
		logger.Info("device is starting", "device_id", dev.DeviceID, "waypoints", len(dev.Path), "steps", len(steps))

		em := &Emitter{
			DeviceID: dev.DeviceID,
			Steps:    steps,
			Interval: d.Interval,
			Laps:     d.Laps,
			Sink:     d.Sink,
			Logger:   logger,
			Now:      d.Now,
		}

		// Always return nil so the group never short-circuits on one device.
		run.eg.Go(func() error {
			if err := runIsolated(ctx, em); err != nil {
				logger.Error("device stopped", "device_id", em.DeviceID, "error", err)
				run.fail(err)
				return nil
			}
			logger.Info("device finished", "device_id", em.DeviceID)
			return nil
		})
	}
	return run
}

func runIsolated(ctx context.Context, em *Emitter) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("device %s panicked: %v", em.DeviceID, r)
		}
	}()
	return em.Run(ctx)
}
