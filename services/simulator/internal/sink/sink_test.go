package sink

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/trackerlab/geotrack/services/internal/location"
	"github.com/trackerlab/geotrack/services/internal/location/locationtest"
	"github.com/trackerlab/geotrack/services/simulator/internal/geo"
	"github.com/trackerlab/geotrack/services/simulator/internal/models"
)

func TestTrackerSink(t *testing.T) {
	fake := locationtest.NewFake()
	client := location.New(fake, location.Names{Tracker: "DefaultTracker"})
	s := NewTracker(client, "SimTracker")

	at := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	err := s.UpdatePosition(context.Background(), models.PositionUpdate{
		DeviceID:   "bus-7",
		Position:   geo.Coordinate{-123.1, 49.28},
		SampleTime: at,
	})
	if err != nil {
		t.Fatalf("UpdatePosition: %v", err)
	}

	got := fake.RecordedUpdates()
	want := []locationtest.Update{{Tracker: "SimTracker", DeviceID: "bus-7", Position: []float64{-123.1, 49.28}, SampleTime: at}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("updates = %+v, want %+v", got, want)
	}
}

func TestTrackerSinkError(t *testing.T) {
	fake := locationtest.NewFake()
	fake.Err = errors.New("expired token")
	s := NewTracker(location.New(fake, location.Names{}), "T")

	if err := s.UpdatePosition(context.Background(), models.PositionUpdate{DeviceID: "d"}); !errors.Is(err, fake.Err) {
		t.Fatalf("err = %v, want %v", err, fake.Err)
	}
}

type mockWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (m *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, msgs...)
	return nil
}

func (m *mockWriter) Close() error {
	m.closed = true
	return nil
}

func TestKafkaSink(t *testing.T) {
	w := &mockWriter{}
	s := NewKafkaWithWriter(w)

	at := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	u := models.PositionUpdate{DeviceID: "truck-1", Position: geo.Coordinate{2.35, 48.85}, SampleTime: at}
	if err := s.UpdatePosition(context.Background(), u); err != nil {
		t.Fatalf("UpdatePosition: %v", err)
	}

	if len(w.msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != "truck-1" {
		t.Errorf("key = %q, want truck-1", msg.Key)
	}

	var decoded struct {
		DeviceId   string
		Position   []float64
		SampleTime time.Time
	}
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if decoded.DeviceId != "truck-1" || !reflect.DeepEqual(decoded.Position, []float64{2.35, 48.85}) || !decoded.SampleTime.Equal(at) {
		t.Errorf("message = %+v", decoded)
	}

	if err := s.Close(); err != nil || !w.closed {
		t.Errorf("Close() = %v, closed = %v", err, w.closed)
	}
}

func TestKafkaSinkError(t *testing.T) {
	w := &mockWriter{err: errors.New("leader not available")}
	s := NewKafkaWithWriter(w)
	if err := s.UpdatePosition(context.Background(), models.PositionUpdate{DeviceID: "x"}); !errors.Is(err, w.err) {
		t.Fatalf("err = %v, want %v", err, w.err)
	}
}
