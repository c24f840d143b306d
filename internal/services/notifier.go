package services

import (
	"context"
	"log/slog"
	"sync"

	"budgetdash/internal/amqp"
	applog "budgetdash/internal/log"
)

// EventPublisher delivers change events to an external broker.
type EventPublisher interface {
	Publish(ctx context.Context, event *amqp.ChangeEvent) error
}

// Notifier fans a successful write out to in-process listeners and the broker.
// Publish failures are logged and never fail the write that caused them.
type Notifier struct {
	publisher EventPublisher

	mu        sync.RWMutex
	listeners []func(*amqp.ChangeEvent)
}

// NewNotifier accepts a nil publisher, in which case events stay in-process.
func NewNotifier(publisher EventPublisher) *Notifier {
	return &Notifier{publisher: publisher}
}

func (n *Notifier) OnChange(fn func(*amqp.ChangeEvent)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listeners = append(n.listeners, fn)
}

func (n *Notifier) Notify(ctx context.Context, event *amqp.ChangeEvent) {
	n.mu.RLock()
	listeners := append([]func(*amqp.ChangeEvent){}, n.listeners...)
	n.mu.RUnlock()

	for _, fn := range listeners {
		fn(event)
	}

	if n.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not configured, skipping change event", "type", event.Type)
		return
	}
	if err := n.publisher.Publish(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change event", append(applog.NewFields().
			WithComponent(applog.ComponentAMQP).
			WithError(err).
			ToSlice(), "type", event.Type, "entity_id", event.EntityID)...)
	}
}
