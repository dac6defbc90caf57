package analytics

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"lead-gateway/internal/apperr"
	"lead-gateway/internal/config"
)

// MessageWriter is the part of *kafka.Writer the sink uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// KafkaSink publishes documents to a topic for the analytics loader.
type KafkaSink struct {
	writer MessageWriter
}

func NewKafkaSink(writer MessageWriter) *KafkaSink {
	return &KafkaSink{writer: writer}
}

func (s *KafkaSink) Backend() string { return config.BackendKafka }

// Store assigns a UUID as _id and publishes doc keyed by session, then user.
func (s *KafkaSink) Store(ctx context.Context, doc Document) (string, error) {
	id := uuid.NewString()
	doc["_id"] = id
	payload, err := json.Marshal(doc)
	if err != nil {
		return "", &apperr.StorageError{Op: "encode analytics event", Err: err}
	}
	key := doc.String("session_id")
	if key == "" {
		key = doc.String("user_id")
	}
	if key == "" {
		key = id
	}
	if err := s.writer.WriteMessages(ctx, kafkago.Message{Key: []byte(key), Value: payload}); err != nil {
		return "", &apperr.StorageError{Op: "publish analytics event", Err: fmt.Errorf("write kafka: %w", err)}
	}
	return id, nil
}

func (s *KafkaSink) Close(context.Context) error {
	return s.writer.Close()
}
