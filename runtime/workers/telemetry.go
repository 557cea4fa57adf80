package workers

import (
	"context"
	"log/slog"

	"estate-chat/contract"
	"estate-chat/domain/event"
	"estate-chat/observability"
)

var _ contract.Worker = (*TelemetryWorker)(nil)

// TelemetryWorker drains the telemetry copy of the feed and turns it into
// per-event-type counters on the monitoring manager. It runs off the delivery
// path: a slow or stopped telemetry consumer only costs telemetry, never
// delivery.
type TelemetryWorker struct {
	log        *slog.Logger
	telemetry  chan event.DomainEvent
	monitoring *observability.MonitoringManager
}

func NewTelemetryWorker(log *slog.Logger,
	telemetry chan event.DomainEvent,
	monitoring *observability.MonitoringManager) *TelemetryWorker {
	return &TelemetryWorker{
		log:        log,
		telemetry:  telemetry,
		monitoring: monitoring,
	}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping telemetry")
			return nil
		case evt, ok := <-w.telemetry:
			if !ok {
				w.log.Debug("Telemetry channel is closed")
				return nil
			}
			w.observe(evt)
		}
	}
}

func (w *TelemetryWorker) observe(evt event.DomainEvent) {
	switch evt.(type) {
	case event.MessageSent:
		w.monitoring.MessageEvent()
	case event.MessageRead:
		w.monitoring.ReadReceiptEvent()
	}
}
