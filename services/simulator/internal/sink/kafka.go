package sink

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/trackerlab/geotrack/services/simulator/internal/models"
)

// MessageWriter is the part of *kafka.Writer the sink uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes updates as JSON to a topic, keyed by device id so that a
// device's updates stay ordered within one partition.
type Kafka struct {
	writer MessageWriter
}

// NewKafka creates a synchronous writer for the given topic.
func NewKafka(brokers []string, topic string) *Kafka {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return &Kafka{writer: w}
}

// NewKafkaWithWriter wraps an existing writer.
func NewKafkaWithWriter(w MessageWriter) *Kafka {
	return &Kafka{writer: w}
}

// UpdatePosition writes one message and waits for the broker's ack.
func (k *Kafka) UpdatePosition(ctx context.Context, u models.PositionUpdate) error {
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(u.DeviceID),
		Value: data,
		Time:  u.SampleTime,
	})
}

// Close flushes pending messages and closes the connection.
func (k *Kafka) Close() error {
	return k.writer.Close()
}
