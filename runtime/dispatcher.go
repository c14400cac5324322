package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain/event"
	"chat-relay/observability"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Dispatcher fans one domain event out to the live connections of a
// recipient set. The event is serialized exactly once; each connection is
// pushed in its own goroutine bounded by the delivery timeout, so one slow
// peer never stalls delivery to others. Push failures are logged and
// skipped: delivery is best-effort, at-most-once, with no acknowledgment.
type Dispatcher struct {
	log             *slog.Logger
	registry        contract.IRegistry
	deliveryTimeout time.Duration
	metrics         *observability.Metrics
}

func NewDispatcher(log *slog.Logger, registry contract.IRegistry,
	deliveryTimeout time.Duration, metrics *observability.Metrics) *Dispatcher {
	return &Dispatcher{
		log:             log,
		registry:        registry,
		deliveryTimeout: deliveryTimeout,
		metrics:         metrics,
	}
}

// Dispatch delivers e to every live connection of the recipients.
// Serialization failure abandons the whole dispatch; no partial envelope is
// ever sent. Recipients without a live connection are silently skipped.
func (d *Dispatcher) Dispatch(recipients []uuid.UUID, e event.DomainEvent) {
	frame, err := event.Encode(e)
	if err != nil {
		d.log.Error("event serialization failed, dispatch abandoned",
			"kind", e.Kind(), "error", err)
		return
	}

	// Counted once the envelope exists, live connections or not
	d.metrics.EventsDispatched.Inc()

	conns := d.registry.LiveConnections(recipients...)
	if len(conns) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, conn := range conns {
		wg.Add(1)
		go func(c contract.Connection) {
			defer wg.Done()
			d.push(c, e.Kind(), frame)
		}(conn)
	}
	wg.Wait()
}

// DispatchTo delivers e to a single connection, bypassing the registry.
// Used for the post-handshake status acknowledgment.
func (d *Dispatcher) DispatchTo(conn contract.Connection, e event.DomainEvent) {
	frame, err := event.Encode(e)
	if err != nil {
		d.log.Error("event serialization failed, dispatch abandoned",
			"kind", e.Kind(), "error", err)
		return
	}
	d.push(conn, e.Kind(), frame)
}

func (d *Dispatcher) push(conn contract.Connection, kind event.Kind, frame []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), d.deliveryTimeout)
	defer cancel()

	d.metrics.PushesTotal.Inc()
	if err := conn.Push(ctx, frame); err != nil {
		d.metrics.PushesFailed.Inc()
		d.log.Debug("push failed, skipping connection",
			"connection_id", conn.ID(), "kind", kind, "error", err)
	}
}
