// Package kafka provides the async producer used to publish mempool and
// block events to downstream consumers.
package kafka

import (
	"context"
)

// Message is a single event to publish. A nil Key leaves partitioning to the
// broker.
type Message struct {
	Key   []byte
	Value []byte
}

// AsyncProducerI abstracts the sarama-backed producer so callers can swap in
// the in-memory mock in tests.
type AsyncProducerI interface {
	Start(ctx context.Context)
	Stop() error
	Publish(msg *Message)
	BrokersURL() []string
}
