package runtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"estate-chat/contract"
	"estate-chat/domain/event"
	"estate-chat/observability"
	"estate-chat/runtime/workers"
)

// Orchestrator owns the realtime pipeline: the shared event feed, the
// subscription registry and the supervised workers draining it. It carries no
// business rules; services publish events into it and clients subscribe
// through it.
type Orchestrator struct {
	mu             sync.Mutex
	log            *slog.Logger
	supervisor     contract.ISupervisor
	registry       *Registry
	monitoring     *observability.MonitoringManager
	permanentSinks []contract.EventSink
	events         chan event.DomainEvent
	telemetry      chan event.DomainEvent
	sinkTimeout    time.Duration
}

func NewOrchestrator(log *slog.Logger, supervisor *workers.Supervisor,
	registry *Registry, monitoring *observability.MonitoringManager,
	bufferSize int, sinkTimeout time.Duration) *Orchestrator {
	monitoring.SubscriptionCount = registry.Count
	return &Orchestrator{
		log:         log,
		supervisor:  supervisor,
		registry:    registry,
		monitoring:  monitoring,
		events:      make(chan event.DomainEvent, bufferSize),
		telemetry:   make(chan event.DomainEvent, bufferSize),
		sinkTimeout: sinkTimeout,
	}
}

// Add registers permanent sinks that observe every event regardless of
// participants (projections, search indexing, metrics). Must be called
// before Start.
func (o *Orchestrator) Add(sinks ...contract.EventSink) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.permanentSinks = append(o.permanentSinks, sinks...)
}

// Publish hands an event to the feed without blocking the caller. When the
// feed is saturated the event is dropped: subscribers reconcile through a
// history read, so a lost push costs latency, not data.
func (o *Orchestrator) Publish(evt event.DomainEvent) {
	select {
	case o.events <- evt:
	default:
		o.log.Warn("Event feed full, dropping event", "conversation", evt.Conversation())
		o.monitoring.EventDropped()
	}
}

// Subscribe adds a filtered listener for one user on top of the shared feed
// and returns its disposer.
func (o *Orchestrator) Subscribe(userID string, sink contract.EventSink) func() {
	return o.registry.Subscribe(userID, sink)
}

// Start registers the pipeline workers and launches the supervisor. The
// supervisor runs until ctx is canceled; Start itself returns immediately.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	delivery := workers.NewDeliveryWorker(
		o.log,
		o.registry,
		o.permanentSinks,
		o.events,
		o.telemetry,
		o.sinkTimeout,
		o.monitoring,
	)
	o.supervisor.Add(delivery)
	o.supervisor.Add(workers.NewTelemetryWorker(o.log, o.telemetry, o.monitoring))
	o.supervisor.Add(workers.NewHeartbeatWorker(o.log, o.monitoring))
	o.mu.Unlock()

	o.log.Info("Starting orchestrator and all supervised workers")
	go o.supervisor.Run(ctx)
}

// Stop initiates a graceful shutdown of the pipeline by canceling the
// supervision context, signaling all workers to stop.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
}
