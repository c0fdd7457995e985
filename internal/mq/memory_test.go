package mq

import (
	"context"
	"fmt"
	"sync"
)

// memoryBackend delivers messages in-process for tests. Messages published before a
// subscriber attaches are buffered per channel.
type memoryBackend struct {
	mu       sync.Mutex
	queues   map[string]chan Message
	capacity int
	closed   bool
}

func newMemoryBackend(capacity int) *memoryBackend {
	if capacity <= 0 {
		capacity = 64
	}
	return &memoryBackend{queues: make(map[string]chan Message), capacity: capacity}
}

func (b *memoryBackend) queue(channel string) (chan Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, fmt.Errorf("memory backend closed")
	}
	q, ok := b.queues[channel]
	if !ok {
		q = make(chan Message, b.capacity)
		b.queues[channel] = q
	}
	return q, nil
}

func (b *memoryBackend) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	q, err := b.queue(channel)
	if err != nil {
		return "", err
	}
	msg := Message{ID: newMessageID(), Data: append([]byte(nil), data...), Attributes: attrs}
	select {
	case q <- msg:
		return msg.ID, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Subscribe drains the channel until ctx is cancelled. A failed message is
// dropped.
func (b *memoryBackend) Subscribe(ctx context.Context, channel string, handler Handler) error {
	q, err := b.queue(channel)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-q:
			_ = handler(ctx, msg)
		}
	}
}

func (b *memoryBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}
