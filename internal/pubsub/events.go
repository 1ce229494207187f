// Package pubsub provides a generic publish/subscribe event broker.
// It fans out log lines and resolver diagnostics to any number of
// subscribers without blocking the publisher.
package pubsub

import (
	"context"
	"time"
)

// EventType represents the type of event being published.
type EventType string

const (
	// LogEvent carries a formatted log line.
	LogEvent EventType = "log"
	// DiagnosticEvent carries a non-fatal resolver warning.
	DiagnosticEvent EventType = "diagnostic"
)

// Event represents a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
