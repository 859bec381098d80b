package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	EventTypeAccountLinked   = "instagram.account.linked"
	EventTypeAccountUnlinked = "instagram.account.unlinked"
	EventTypeSnapshotStored  = "instagram.snapshot.stored"
)

// AccountLinkedEvent is published when a persona is bound to an Instagram
// account.
type AccountLinkedEvent struct {
	UserID     int64     `json:"user_id"`
	PersonaNum int       `json:"persona_num"`
	IGUserID   string    `json:"ig_user_id"`
	IGUsername string    `json:"ig_username,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// AccountUnlinkedEvent is published when a mapping and its token are
// removed.
type AccountUnlinkedEvent struct {
	UserID     int64     `json:"user_id"`
	PersonaNum int       `json:"persona_num"`
	Timestamp  time.Time `json:"timestamp"`
}

// SnapshotStoredEvent is published after a daily snapshot row is upserted.
type SnapshotStoredEvent struct {
	UserID         int64     `json:"user_id"`
	PersonaNum     int       `json:"persona_num"`
	IGUserID       string    `json:"ig_user_id"`
	Date           string    `json:"date"`
	FollowersCount int       `json:"followers_count"`
	TotalLikes     int       `json:"total_likes"`
	Timestamp      time.Time `json:"timestamp"`
}

type envelope struct {
	Type string      `json:"type"`
	Time time.Time   `json:"time"`
	Data interface{} `json:"data"`
}

// Producer publishes service events. Publishing is best-effort: callers
// log failures and continue, an event must never fail the operation that
// produced it.
type Producer struct {
	writer *kafka.Writer
	logger *zap.Logger
}

func NewProducer(brokers []string, topic string, logger *zap.Logger) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 100 * time.Millisecond,
		},
		logger: logger.Named("kafka_producer"),
	}
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

func (p *Producer) publish(ctx context.Context, eventType, key string, data interface{}) error {
	payload, err := json.Marshal(envelope{Type: eventType, Time: time.Now().UTC(), Data: data})
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: payload})
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}
	p.logger.Debug("Published event", zap.String("type", eventType), zap.String("key", key))
	return nil
}

func (p *Producer) PublishAccountLinked(ctx context.Context, event AccountLinkedEvent) error {
	key := fmt.Sprintf("%d:%d", event.UserID, event.PersonaNum)
	return p.publish(ctx, EventTypeAccountLinked, key, event)
}

func (p *Producer) PublishAccountUnlinked(ctx context.Context, event AccountUnlinkedEvent) error {
	key := fmt.Sprintf("%d:%d", event.UserID, event.PersonaNum)
	return p.publish(ctx, EventTypeAccountUnlinked, key, event)
}

func (p *Producer) PublishSnapshotStored(ctx context.Context, event SnapshotStoredEvent) error {
	key := fmt.Sprintf("%d:%d", event.UserID, event.PersonaNum)
	return p.publish(ctx, EventTypeSnapshotStored, key, event)
}
