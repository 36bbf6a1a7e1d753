package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/alanyang/role-master/internal/domain/event"
	portbus "github.com/alanyang/role-master/internal/port/eventbus"
)

// EventBus delivers events synchronously, in subscription order, on the
// publisher's goroutine.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[event.Type]map[uint64]portbus.Handler
	nextID   uint64
}

func NewEventBus() *EventBus {
	return &EventBus{handlers: make(map[event.Type]map[uint64]portbus.Handler)}
}

func (b *EventBus) Publish(ctx context.Context, e event.Event) error {
	b.mu.RLock()
	subs := b.handlers[e.Type]
	ids := make([]uint64, 0, len(subs))
	for id := range subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	handlers := make([]portbus.Handler, 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, subs[id])
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, e)
	}
	return nil
}

func (b *EventBus) Subscribe(_ context.Context, topic event.Type, handler portbus.Handler) (portbus.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	if b.handlers[topic] == nil {
		b.handlers[topic] = make(map[uint64]portbus.Handler)
	}
	b.handlers[topic][id] = handler
	return &subscription{bus: b, topic: topic, id: id}, nil
}

type subscription struct {
	bus   *EventBus
	topic event.Type
	id    uint64
	once  sync.Once
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.handlers[s.topic], s.id)
		s.bus.mu.Unlock()
	})
}
