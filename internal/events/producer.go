// Package events publishes account lifecycle events to Kafka.
//
// Publishing is strictly fire-and-forget: a nil producer and a broker error
// both leave the triggering operation successful. Downstream consumers
// (mail, analytics) catch up when the broker is back.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// UserRegistered is emitted after a successful registration.
type UserRegistered struct {
	UserID   string    `json:"userId"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	FullName string    `json:"fullName"`
	At       time.Time `json:"at"`
}

// Publisher is what the services depend on. Producer implements it; tests
// use an in-memory fake.
type Publisher interface {
	PublishUserRegistered(ctx context.Context, ev UserRegistered) error
}

// Producer writes events to a single Kafka topic.
type Producer struct {
	writer *kafka.Writer
}

var _ Publisher = (*Producer)(nil)

// NewProducer builds a producer for the given broker and topic.
func NewProducer(broker, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(broker),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// PublishUserRegistered publishes the event keyed by user ID. Safe to call
// on a nil *Producer — the write is skipped.
func (p *Producer) PublishUserRegistered(ctx context.Context, ev UserRegistered) error {
	if p == nil || p.writer == nil {
		return nil
	}

	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("events: encoding user.registered: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.UserID),
		Value: value,
		Time:  time.Now(),
	})
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
