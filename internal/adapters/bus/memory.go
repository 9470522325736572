// Package bus is an in-process kill-event bus for single-binary deployments
// and tests. Delivery to subscribers is at-most-once per idempotency key.
package bus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alejandrodnm/riskgate/internal/domain"
)

// ErrSubscriberFull is returned when a subscriber's buffer cannot take the
// event. The key is not marked as delivered, so a retry can succeed.
var ErrSubscriberFull = errors.New("subscriber buffer full")

// ErrClosed is returned by PublishKill after Close.
var ErrClosed = errors.New("bus closed")

// Memory implementa ports.KillPublisher en memoria. Eventos con una
// idempotency key ya entregada se descartan.
type Memory struct {
	mu     sync.Mutex
	seen   map[string]struct{}
	subs   map[int]chan domain.KillEvent
	nextID int
	closed bool
}

// NewMemory crea un bus vacío.
func NewMemory() *Memory {
	return &Memory{
		seen: make(map[string]struct{}),
		subs: make(map[int]chan domain.KillEvent),
	}
}

// Subscribe returns a channel of kill events and a function that removes the
// subscription and closes the channel.
func (b *Memory) Subscribe(buffer int) (<-chan domain.KillEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan domain.KillEvent, max(buffer, 1))
	id := b.nextID
	b.nextID++
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
}

// PublishKill delivers e to every subscriber unless its key was already
// delivered. Publishing never blocks: a full subscriber fails the publish.
func (b *Memory) PublishKill(ctx context.Context, e domain.KillEvent) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("bus.PublishKill: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("bus.PublishKill: %w", ErrClosed)
	}
	if _, dup := b.seen[e.IdempotencyKey]; dup {
		slog.Debug("duplicate kill dropped", "key", e.IdempotencyKey)
		return nil
	}

	for _, ch := range b.subs {
		if len(ch) == cap(ch) {
			return fmt.Errorf("bus.PublishKill: %s: %w", e.IdempotencyKey, ErrSubscriberFull)
		}
	}
	for _, ch := range b.subs {
		ch <- e
	}
	b.seen[e.IdempotencyKey] = struct{}{}
	return nil
}

// Delivered reports whether an event with key has been delivered.
func (b *Memory) Delivered(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.seen[key]
	return ok
}

// Close closes every subscriber channel. Later publishes fail with ErrClosed.
func (b *Memory) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
