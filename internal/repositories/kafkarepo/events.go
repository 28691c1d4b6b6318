package kafkarepo

import (
	"context"
	"encoding/json"
	"fmt"

	"economy-service/internal/models"

	"github.com/segmentio/kafka-go"
)

type EventRepository struct {
	writer *kafka.Writer
}

func NewEventRepository(writer *kafka.Writer) *EventRepository {
	return &EventRepository{
		writer: writer,
	}
}

// Publish sends an economy event to Kafka. The user id is the message key so
// events for one user keep their order across partitions.
func (r *EventRepository) Publish(ctx context.Context, event models.EconomyEvent) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal economy event: %w", err)
	}

	err = r.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.UserID),
		Value: msgBytes,
	})
	if err != nil {
		return fmt.Errorf("failed to write economy event to kafka: %w", err)
	}

	return nil
}
