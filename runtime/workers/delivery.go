package workers

import (
	"context"
	"log/slog"
	"time"

	"estate-chat/contract"
	"estate-chat/domain/event"
	"estate-chat/observability"
)

// Ensure *DeliveryWorker implements the contract.Worker interface at compile time.
var _ contract.Worker = (*DeliveryWorker)(nil)

// DeliveryWorker drains the shared realtime feed and fans each event out to
// the subscribers it concerns. The whole collection shares one feed; the
// per-user scoping is a stateless predicate applied here, per event, because
// the feed itself has no server-side per-user filtering.
//
// Delivery is best effort with no guarantees regarding ordering across
// reconnects, durability, or retries. Subscribers treat invocations as
// display refresh hints, not as the source of truth; the stored history is.
type DeliveryWorker struct {
	log            *slog.Logger
	registry       contract.IRegistry
	permanentSinks []contract.EventSink
	events         chan event.DomainEvent
	telemetry      chan event.DomainEvent
	sinkTimeout    time.Duration
	monitoring     *observability.MonitoringManager
}

func NewDeliveryWorker(
	log *slog.Logger,
	registry contract.IRegistry,
	permanentSinks []contract.EventSink,
	events, telemetry chan event.DomainEvent,
	sinkTimeout time.Duration,
	monitoring *observability.MonitoringManager,
) *DeliveryWorker {
	return &DeliveryWorker{
		log:            log,
		registry:       registry,
		permanentSinks: permanentSinks,
		events:         events,
		telemetry:      telemetry,
		sinkTimeout:    sinkTimeout,
		monitoring:     monitoring,
	}
}

func (w *DeliveryWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping delivery")
			return nil
		case evt, ok := <-w.events:
			if !ok {
				w.log.Debug("Event channel is closed")
				return nil
			}
			w.Fanout(ctx, evt)
			select {
			case w.telemetry <- evt:
			default:
				w.log.Debug("Telemetry event lost")
			}
		}
	}
}

// Fanout delivers one event to every listener it concerns: the permanent
// sinks first, then the subscriptions of the two participants. Everyone else
// never sees the event.
func (w *DeliveryWorker) Fanout(ctx context.Context, evt event.DomainEvent) {
	sinks := w.permanentSinks
	if pe, ok := evt.(event.ParticipantEvent); ok {
		senderID, receiverID := pe.Participants()
		sinks = append(sinks, w.registry.SinksFor(senderID, receiverID)...)
	}

	for _, sink := range sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
		if err := sink.Consume(sinkCtx, evt); err != nil {
			w.log.Warn("Sink failed to consume event", "err", err)
			w.monitoring.EventDropped()
		} else {
			w.monitoring.EventDelivered()
		}
		cancel()
	}
}
