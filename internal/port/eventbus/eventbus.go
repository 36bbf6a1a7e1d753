package eventbus

import (
	"context"

	"github.com/alanyang/role-master/internal/domain/event"
)

type Handler func(ctx context.Context, e event.Event)

type Subscription interface {
	Unsubscribe()
}

// EventBus fans repository change events out to projections and transports.
type EventBus interface {
	Publish(ctx context.Context, e event.Event) error
	Subscribe(ctx context.Context, topic event.Type, handler Handler) (Subscription, error)
}
