package adapter

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	kafka "github.com/segmentio/kafka-go"

	"spachat/internal/infrastructure/stream/port"
)

// KafkaWriter implements port.Writer on one Kafka topic. Writes are async
// with no required acks: the stream is an observer of the message log, so
// losing a record under broker pressure is acceptable.
type KafkaWriter struct {
	w *kafka.Writer
}

// NewKafkaWriter connects to comma-separated brokers.
func NewKafkaWriter(brokers, topic string) (*KafkaWriter, error) {
	if brokers == "" {
		return nil, errors.New("stream: kafka brokers are required")
	}
	return &KafkaWriter{w: &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(brokers, ",")...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireNone,
		Async:        true,
	}}, nil
}

// NewKafkaWriterFromEnv uses KAFKA_BROKERS and KAFKA_TOPIC (default
// "messages.created").
func NewKafkaWriterFromEnv() (*KafkaWriter, error) {
	topic := os.Getenv("KAFKA_TOPIC")
	if topic == "" {
		topic = "messages.created"
	}
	return NewKafkaWriter(os.Getenv("KAFKA_BROKERS"), topic)
}

var _ port.Writer = (*KafkaWriter)(nil)

func (k *KafkaWriter) Write(ctx context.Context, key, value []byte) error {
	return k.w.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: value,
		Time:  time.Now(),
	})
}

func (k *KafkaWriter) Close() error { return k.w.Close() }
