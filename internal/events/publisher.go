package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	TypeRegistered = "identity.registered"
	TypeVerified   = "identity.verified"
	TypeActivated  = "identity.activated"
	TypeDeleted    = "identity.deleted"
)

// Event is an identity lifecycle notification published for downstream
// consumers (analytics, fraud checks).
type Event struct {
	ID     string    `json:"id"`
	Type   string    `json:"type"`
	UserID string    `json:"user_id"`
	At     time.Time `json:"at"`
}

// Publisher writes lifecycle events to Kafka. A nil Publisher is valid and
// drops everything, so deployments without brokers need no branching.
type Publisher struct {
	writer *kafka.Writer
	log    *zap.Logger
}

func NewPublisher(brokers []string, topic string, log *zap.Logger) *Publisher {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	})
	return &Publisher{writer: w, log: log}
}

// Publish emits an event. Failures are logged, never surfaced: lifecycle
// notifications must not fail the request that triggered them.
func (p *Publisher) Publish(ctx context.Context, eventType, userID string) {
	if p == nil {
		return
	}

	ev := Event{
		ID:     uuid.NewString(),
		Type:   eventType,
		UserID: userID,
		At:     time.Now().UTC(),
	}
	value, err := json.Marshal(ev)
	if err != nil {
		p.log.Warn("event marshal failed", zap.Error(err))
		return
	}

	msg := kafka.Message{Key: []byte(userID), Value: value, Time: ev.At}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Warn("event publish failed", zap.String("type", eventType), zap.Error(err))
	}
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
