package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/legalconnect/legalconnect-api/models"
	"github.com/segmentio/kafka-go"
)

// NotificationPublisher fans committed notifications out to other systems
type NotificationPublisher interface {
	Publish(ctx context.Context, notification *models.Notification) error
	Close() error
}

var publisherInstance NotificationPublisher = NoopPublisher{}

// GetNotificationPublisher returns the process-wide publisher (a no-op unless configured)
func GetNotificationPublisher() NotificationPublisher {
	return publisherInstance
}

// SetNotificationPublisher sets the process-wide publisher
func SetNotificationPublisher(p NotificationPublisher) {
	if p == nil {
		p = NoopPublisher{}
	}
	publisherInstance = p
}

// NoopPublisher discards notifications
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, *models.Notification) error { return nil }
func (NoopPublisher) Close() error                                        { return nil }

// notificationEvent is the wire format written to the notifications topic
type notificationEvent struct {
	ID        uint            `json:"id"`
	UserID    uint            `json:"user_id"`
	Message   string          `json:"message"`
	Severity  models.Severity `json:"severity"`
	Data      json.RawMessage `json:"data,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// KafkaPublisher writes notifications to a Kafka topic keyed by user id
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher for topic on brokers
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one Kafka broker is required")
	}

	// Check connectivity up front so a misconfigured broker fails at startup
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Kafka: %w", err)
	}
	defer conn.Close()

	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 50 * time.Millisecond,
		},
	}, nil
}

func (k *KafkaPublisher) Publish(ctx context.Context, n *models.Notification) error {
	value, err := json.Marshal(notificationEvent{
		ID:        n.ID,
		UserID:    n.UserID,
		Message:   n.Message,
		Severity:  n.Severity,
		Data:      json.RawMessage(n.Data),
		CreatedAt: n.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to encode notification event: %w", err)
	}

	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(n.UserID), 10)),
		Value: value,
	})
}

func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}
