package kafka

import (
	"context"
	"sync"
)

// AsyncProducerMock is an in-memory AsyncProducerI for tests. Published
// messages are retained and can be inspected with Messages.
type AsyncProducerMock struct {
	mu       sync.Mutex
	messages []*Message
	stopped  bool
}

func NewAsyncProducerMock() *AsyncProducerMock {
	return &AsyncProducerMock{}
}

func (c *AsyncProducerMock) Start(_ context.Context) {}

func (c *AsyncProducerMock) Stop() error {
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()

	return nil
}

func (c *AsyncProducerMock) Publish(msg *Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return
	}

	c.messages = append(c.messages, msg)
}

func (c *AsyncProducerMock) BrokersURL() []string {
	return nil
}

// Messages returns a copy of everything published so far.
func (c *AsyncProducerMock) Messages() []*Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*Message, len(c.messages))
	copy(out, c.messages)

	return out
}
