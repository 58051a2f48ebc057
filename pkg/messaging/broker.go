package messaging

import (
	"context"
)

// Broker publishes JSON messages on named channels and delivers them to
// subscribers.
type Broker interface {
	Publisher
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Publisher is the write half of a Broker.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

// Message is the envelope published for every change.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
