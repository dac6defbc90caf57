package kafka

import (
	"time"

	"github.com/segmentio/kafka-go"
)

// NewWriter returns a synchronous writer so the HTTP handler learns about
// failed publishes before answering.
func NewWriter(brokers []string, topic string, timeout time.Duration) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		Async:                  false,
		BatchTimeout:           10 * time.Millisecond,
		BatchSize:              1,
		WriteTimeout:           timeout,
		AllowAutoTopicCreation: true,
	}
}

// NewReader constructs a reader bound to a consumer group. A new group starts
// from the oldest retained message so no stored event is skipped.
func NewReader(brokers []string, topic, group string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:         brokers,
		Topic:           topic,
		GroupID:         group,
		MinBytes:        1,
		MaxBytes:        10e6,
		StartOffset:     kafka.FirstOffset,
		CommitInterval:  time.Second,
		ReadLagInterval: 5 * time.Second,
		MaxWait:         time.Second,
	})
}
