package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyang/role-master/internal/domain/event"
	porteventbus "github.com/alanyang/role-master/internal/port/eventbus"
)

// Channel is the single NOTIFY channel every event type is published on.
// Subscribers are matched on the event type carried in the payload.
const Channel = "role_master_events"

const retryDelay = time.Second

// EventBus fans events out across processes sharing one database, so a CLI
// write refreshes the catalog of a running server.
//
// All subscriptions share one pooled connection held in LISTEN; it is
// acquired on the first Subscribe and released by Close.
type EventBus struct {
	pool *pgxpool.Pool

	mu     sync.RWMutex
	subs   map[event.Type]map[*subscription]struct{}
	cancel context.CancelFunc
	done   chan struct{}
}

func New(pool *pgxpool.Pool) *EventBus {
	return &EventBus{
		pool: pool,
		subs: make(map[event.Type]map[*subscription]struct{}),
	}
}

// Publish sends an event via Postgres NOTIFY.
func (eb *EventBus) Publish(ctx context.Context, e event.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	_, err = eb.pool.Exec(ctx, "SELECT pg_notify($1, $2)", Channel, string(payload))
	if err != nil {
		return fmt.Errorf("publishing event %s: %w", e.Type, err)
	}
	return nil
}

// Subscribe registers handler for topic until Unsubscribe or ctx is done.
// The first call starts the shared listener and fails if it cannot LISTEN.
func (eb *EventBus) Subscribe(ctx context.Context, topic event.Type, handler porteventbus.Handler) (porteventbus.Subscription, error) {
	if err := eb.startListener(ctx); err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &subscription{
		bus:     eb,
		topic:   topic,
		ctx:     subCtx,
		cancel:  cancel,
		handler: handler,
	}

	eb.mu.Lock()
	if eb.subs[topic] == nil {
		eb.subs[topic] = make(map[*subscription]struct{})
	}
	eb.subs[topic][sub] = struct{}{}
	eb.mu.Unlock()

	return sub, nil
}

// Close stops the listener and returns its connection to the pool. It must be
// called before the pool is closed.
func (eb *EventBus) Close() error {
	eb.mu.Lock()
	cancel, done := eb.cancel, eb.done
	eb.cancel, eb.done = nil, nil
	eb.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	return nil
}

func (eb *EventBus) startListener(ctx context.Context) error {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	if eb.cancel != nil {
		return nil
	}

	conn, err := eb.listen(ctx)
	if err != nil {
		return err
	}

	listenCtx, cancel := context.WithCancel(context.Background())
	eb.cancel = cancel
	eb.done = make(chan struct{})
	go eb.run(listenCtx, conn, eb.done)
	return nil
}

func (eb *EventBus) listen(ctx context.Context) (*pgxpool.Conn, error) {
	conn, err := eb.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection for LISTEN: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+Channel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("executing LISTEN on channel %s: %w", Channel, err)
	}
	return conn, nil
}

// run waits for notifications on conn and dispatches them. A broken
// connection is dropped and a new one acquired after retryDelay.
func (eb *EventBus) run(ctx context.Context, conn *pgxpool.Conn, done chan struct{}) {
	defer close(done)
	defer func() {
		if conn != nil {
			conn.Exec(context.Background(), "UNLISTEN "+Channel)
			conn.Release()
		}
	}()

	for {
		if conn == nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(retryDelay):
			}
			c, err := eb.listen(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.WarnContext(ctx, "re-establishing LISTEN", "channel", Channel, "error", err)
				continue
			}
			conn = c
		}

		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.WarnContext(ctx, "waiting for notification", "channel", Channel, "error", err)
			conn.Release()
			conn = nil
			continue
		}

		var e event.Event
		if err := json.Unmarshal([]byte(notification.Payload), &e); err != nil {
			slog.WarnContext(ctx, "dropping malformed notification", "channel", Channel, "error", err)
			continue
		}
		eb.dispatch(e)
	}
}

func (eb *EventBus) dispatch(e event.Event) {
	eb.mu.RLock()
	subs := make([]*subscription, 0, len(eb.subs[e.Type]))
	for sub := range eb.subs[e.Type] {
		subs = append(subs, sub)
	}
	eb.mu.RUnlock()

	for _, sub := range subs {
		if sub.ctx.Err() != nil {
			sub.Unsubscribe()
			continue
		}
		sub.handler(sub.ctx, e)
	}
}

type subscription struct {
	bus     *EventBus
	topic   event.Type
	ctx     context.Context
	cancel  context.CancelFunc
	handler porteventbus.Handler
}

func (s *subscription) Unsubscribe() {
	s.cancel()
	s.bus.mu.Lock()
	delete(s.bus.subs[s.topic], s)
	s.bus.mu.Unlock()
}
