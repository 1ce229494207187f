package pubsub

import (
	"context"
	"sync"
	"time"
)

// A watch session can emit a burst of log lines per resolution pass;
// the default buffer absorbs a full pass without backpressure.
const defaultBuffer = 64

// Broker fans events out to subscribers. Publishing never blocks:
// a subscriber that falls behind loses events rather than stalling
// the resolution pipeline.
type Broker[T any] struct {
	mu     sync.RWMutex
	subs   map[chan Event[T]]struct{}
	done   chan struct{}
	buffer int
}

// BrokerOption configures a Broker.
type BrokerOption func(*brokerSettings)

type brokerSettings struct {
	buffer int
}

// WithBuffer overrides the per-subscriber channel capacity.
func WithBuffer(n int) BrokerOption {
	return func(s *brokerSettings) { s.buffer = n }
}

// NewBroker creates a broker.
func NewBroker[T any](opts ...BrokerOption) *Broker[T] {
	settings := brokerSettings{buffer: defaultBuffer}
	for _, opt := range opts {
		opt(&settings)
	}
	return &Broker[T]{
		subs:   make(map[chan Event[T]]struct{}),
		done:   make(chan struct{}),
		buffer: settings.buffer,
	}
}

func (b *Broker[T]) closed() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}

// Subscribe creates a subscription channel. It closes when ctx is
// cancelled or the broker shuts down; subscribing to a closed broker
// yields an already-closed channel.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed() {
		ch := make(chan Event[T])
		close(ch)
		return ch
	}

	sub := make(chan Event[T], b.buffer)
	b.subs[sub] = struct{}{}

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()

		if b.closed() {
			return // Close already released the channel
		}
		delete(b.subs, sub)
		close(sub)
	}()

	return sub
}

// Publish sends an event to every subscriber, dropping it for any
// whose buffer is full.
func (b *Broker[T]) Publish(eventType EventType, payload T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed() {
		return
	}

	event := Event[T]{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now(),
	}
	for sub := range b.subs {
		select {
		case sub <- event:
		default:
		}
	}
}

// Close shuts down the broker and every subscriber channel.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed() {
		return
	}

	close(b.done)
	for sub := range b.subs {
		close(sub)
	}
	b.subs = nil
}
