package broker

import (
	"economy-service/internal/config"

	"github.com/segmentio/kafka-go"
)

func NewKafkaWriter(cfg config.Kafka) (*kafka.Writer, error) {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},    // Hash by user id to keep per-user event order
		RequiredAcks: kafka.RequireOne, // Wait for acknowledgement from leader
		Async:        false,
		MaxAttempts:  10,
	}

	return writer, nil
}
