package sim

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/trackerlab/geotrack/services/internal/logging"
	"github.com/trackerlab/geotrack/services/simulator/internal/geo"
	"github.com/trackerlab/geotrack/services/simulator/internal/models"
)

// recordingSink stores every update per device. Per-device delays, errors
// and panics can be injected.
type recordingSink struct {
	mu      sync.Mutex
	updates map[string][]models.PositionUpdate
	times   map[string][]time.Time

	delay   map[string]time.Duration
	fail    map[string]error
	panicOn map[string]bool
}

func newRecordingSink() *recordingSink {
	return &recordingSink{
		updates: make(map[string][]models.PositionUpdate),
		times:   make(map[string][]time.Time),
		delay:   make(map[string]time.Duration),
		fail:    make(map[string]error),
		panicOn: make(map[string]bool),
	}
}

func (s *recordingSink) UpdatePosition(ctx context.Context, u models.PositionUpdate) error {
	s.mu.Lock()
	delay := s.delay[u.DeviceID]
	err := s.fail[u.DeviceID]
	shouldPanic := s.panicOn[u.DeviceID]
	s.mu.Unlock()

	if shouldPanic {
		panic("sink exploded")
	}
	if delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates[u.DeviceID] = append(s.updates[u.DeviceID], u)
	s.times[u.DeviceID] = append(s.times[u.DeviceID], time.Now())
	return nil
}

func (s *recordingSink) count(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.updates[id])
}

func (s *recordingSink) timesOf(id string) []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Time(nil), s.times[id]...)
}

func TestEmitterEmptyStepsReturnsImmediately(t *testing.T) {
	sink := newRecordingSink()
	em := &Emitter{DeviceID: "idle", Interval: time.Millisecond, Sink: sink, Logger: logging.Discard()}

	done := make(chan error, 1)
	go func() { done <- em.Run(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() = %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("emitter with no steps did not return")
	}
	if n := sink.count("idle"); n != 0 {
		t.Errorf("sink called %d times, want 0", n)
	}
}

func TestEmitterCyclesInOrder(t *testing.T) {
	sink := newRecordingSink()
	steps := []geo.Coordinate{{0, 0}, {1, 1}, {2, 2}}
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600))
	em := &Emitter{
		DeviceID: "d",
		Steps:    steps,
		Interval: time.Millisecond,
		Laps:     2,
		Sink:     sink,
		Logger:   logging.Discard(),
		Now:      func() time.Time { return fixed },
	}

	if err := em.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := sink.updates["d"]
	if len(got) != 6 {
		t.Fatalf("got %d updates, want 6", len(got))
	}
	for i, u := range got {
		if u.Position != steps[i%3] {
			t.Errorf("update %d at %v, want %v", i, u.Position, steps[i%3])
		}
		if u.SampleTime.Location() != time.UTC || !u.SampleTime.Equal(fixed) {
			t.Errorf("update %d sample time = %v, want %v in UTC", i, u.SampleTime, fixed)
		}
	}
}

func TestEmitterStopsOnSinkError(t *testing.T) {
	boom := errors.New("throttled")
	sink := newRecordingSink()
	sink.fail["d"] = boom
	em := &Emitter{DeviceID: "d", Steps: []geo.Coordinate{{0, 0}}, Interval: time.Millisecond, Sink: sink, Logger: logging.Discard()}

	err := em.Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Run() = %v, want wrapped %v", err, boom)
	}
}

func TestEmitterCancellation(t *testing.T) {
	sink := newRecordingSink()
	em := &Emitter{DeviceID: "d", Steps: []geo.Coordinate{{0, 0}, {1, 1}}, Interval: 5 * time.Millisecond, Sink: sink, Logger: logging.Discard()}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- em.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() after cancel = %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("emitter did not stop after cancel")
	}
	if sink.count("d") == 0 {
		t.Error("expected some updates before cancel")
	}
}

func TestEmitterSleepsAfterCall(t *testing.T) {
	sink := newRecordingSink()
	sink.delay["slow"] = 20 * time.Millisecond
	em := &Emitter{DeviceID: "slow", Steps: []geo.Coordinate{{0, 0}}, Interval: 20 * time.Millisecond, Laps: 3, Sink: sink, Logger: logging.Discard()}

	if err := em.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	times := sink.timesOf("slow")
	for i := 1; i < len(times); i++ {
		if gap := times[i].Sub(times[i-1]); gap < 40*time.Millisecond {
			t.Errorf("gap %d = %v, want >= call latency + interval (40ms)", i, gap)
		}
	}
}

func TestDriverPlan(t *testing.T) {
	dev := models.Device{DeviceID: "d", Path: geo.Path{{0, 0}, {0, 0.01}}}

	raw := (&Driver{Interval: time.Second}).Plan(dev)
	if len(raw) != 2 || raw[0] != dev.Path[0] || raw[1] != dev.Path[1] {
		t.Errorf("raw plan = %v, want the waypoints", raw)
	}

	d := &Driver{Speed: 100, Interval: time.Second}
	steps := d.Plan(dev)
	want := len(geo.Segment(geo.ClosePath(dev.Path), 100, time.Second))
	if len(steps) != want || want == 0 {
		t.Errorf("segmented plan has %d steps, want %d", len(steps), want)
	}
	// The closed path passes back through the last waypoint.
	found := false
	for _, s := range steps {
		if s == dev.Path[1] {
			found = true
		}
	}
	if !found {
		t.Error("closed path should emit the turn-around waypoint")
	}
}

func TestDriverInertDeviceNeverCallsSink(t *testing.T) {
	sink := newRecordingSink()
	d := &Driver{Sink: sink, Speed: 25, Interval: 2 * time.Second, Logger: logging.Discard()}

	run := d.Start(context.Background(), []models.Device{
		{DeviceID: "parked", Path: geo.Path{{10, 10}, {10, 10}}},
		{DeviceID: "nowhere"},
	})

	done := make(chan error, 1)
	go func() { done <- run.Wait() }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Wait() = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("inert devices did not terminate")
	}
	if sink.count("parked")+sink.count("nowhere") != 0 {
		t.Error("inert devices emitted updates")
	}
}

func TestDriverIsolatesFailures(t *testing.T) {
	sink := newRecordingSink()
	sink.fail["bad"] = errors.New("access denied")
	sink.panicOn["crashy"] = true

	path := geo.Path{{0, 0}, {1, 1}, {2, 2}}
	d := &Driver{Sink: sink, Interval: time.Millisecond, Laps: 3, Logger: logging.Discard()}

	run := d.Start(context.Background(), []models.Device{
		{DeviceID: "bad", Path: path},
		{DeviceID: "good", Path: path},
		{DeviceID: "crashy", Path: path},
	})
	err := run.Wait()
	if err == nil {
		t.Fatal("Wait() = nil, want the per-device failures")
	}
	if !strings.Contains(err.Error(), "access denied") || !strings.Contains(err.Error(), "panicked") {
		t.Errorf("Wait() = %v, want both failures reported", err)
	}
	if n := sink.count("good"); n != 9 {
		t.Errorf("good device emitted %d updates, want 9 (3 laps of 3)", n)
	}
}

func TestDriverDevicesAreIndependent(t *testing.T) {
	sink := newRecordingSink()
	sink.delay["B"] = 100 * time.Millisecond

	d := &Driver{Sink: sink, Interval: 10 * time.Millisecond, Logger: logging.Discard()}

	ctx, cancel := context.WithCancel(context.Background())
	run := d.Start(ctx, []models.Device{
		{DeviceID: "A", Path: geo.Path{{0, 0}, {1, 1}}},
		{DeviceID: "B", Path: geo.Path{{5, 5}, {6, 6}}},
	})

	time.Sleep(400 * time.Millisecond)
	cancel()
	if err := run.Wait(); err != nil {
		t.Fatalf("Wait() = %v", err)
	}

	a, b := sink.timesOf("A"), sink.timesOf("B")
	if len(a) < 10 {
		t.Fatalf("device A emitted only %d updates", len(a))
	}
	if len(b) > len(a)/2 {
		t.Errorf("device B emitted %d updates vs A %d; B's delay should only slow B", len(b), len(a))
	}

	mean := a[len(a)-1].Sub(a[0]) / time.Duration(len(a)-1)
	if mean >= 100*time.Millisecond {
		t.Errorf("device A mean gap = %v, looks coupled to B's 100ms sink latency", mean)
	}
}
