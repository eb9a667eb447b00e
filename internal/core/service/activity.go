package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

const defaultActivityBuffer = 256

// Activity delivers store changes to the activity publisher in the
// background. Delivery is best-effort: changes are dropped when the buffer
// is full or after Close.
type Activity struct {
	publisher port.ActivityPublisher
	events    chan domain.Change
	done      chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewActivity(publisher port.ActivityPublisher, buffer int) *Activity {
	if buffer <= 0 {
		buffer = defaultActivityBuffer
	}
	return &Activity{
		publisher: publisher,
		events:    make(chan domain.Change, buffer),
		done:      make(chan struct{}),
	}
}

// Listen is a [Subscriber] for cart and wishlist stores.
func (a *Activity) Listen(_ context.Context, change domain.Change) {
	const op = "Activity.Listen"

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return
	}

	select {
	case a.events <- change:
	default:
		slog.With("op", op).Warn(
			"activity buffer is full, change dropped",
			"owner", change.Owner, "kind", change.Kind, "action", change.Action,
		)
	}
}

// Run publishes buffered changes until the context is done or Close drains
// the buffer.
func (a *Activity) Run(ctx context.Context) {
	const op = "Activity.Run"
	log := slog.With("op", op)

	defer close(a.done)
	log.Info("activity delivery is running")

	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-a.events:
			if !ok {
				return
			}
			if err := a.publisher.PublishActivity(ctx, change); err != nil {
				log.Error("failed to publish activity", "err", err)
			}
		}
	}
}

// Close stops accepting changes and waits for Run to return.
func (a *Activity) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.events)
	}
	a.mu.Unlock()
	<-a.done
}

// NopPublisher discards activity when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishActivity(context.Context, domain.Change) error {
	return nil
}
