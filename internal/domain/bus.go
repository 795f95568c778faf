package domain

import (
	"context"
)

// EventBus defines the interface for event-driven communication.
// Backed by Go channels for a single node or NATS for a cluster.
type EventBus interface {
	// Publish sends a message to a topic.
	Publish(ctx context.Context, topic string, payload []byte) error

	// Subscribe registers a handler for a topic.
	// Returns a subscription that can be used to unsubscribe.
	Subscribe(ctx context.Context, topic string, handler MessageHandler) (Subscription, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// MessageHandler processes a received message.
type MessageHandler func(ctx context.Context, msg *Message) error

// Message is the envelope carried over the bus.
type Message struct {
	ID        string            `json:"id"`
	Topic     string            `json:"topic"`
	Payload   []byte            `json:"payload"`
	Metadata  map[string]string `json:"metadata"`
	Timestamp int64             `json:"timestamp"`
}

// Subscription represents an active subscription.
type Subscription interface {
	// Unsubscribe stops receiving messages.
	Unsubscribe() error

	// Topic returns the subscribed topic.
	Topic() string
}

// Standard topic names for the scoring and lending pipeline.
const (
	TopicScoreComputed       = "kestrel.score.computed"
	TopicLoanDecided         = "kestrel.loan.decided"
	TopicDisbursementApplied = "kestrel.disbursement.applied"
)
