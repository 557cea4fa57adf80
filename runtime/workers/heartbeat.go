package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"estate-chat/observability"
)

const heartbeatInterval = 5 * time.Second

// HeartbeatWorker periodically logs pipeline counters together with process
// health (CPU, RSS). It is purely observational; losing a beat has no effect
// on delivery.
type HeartbeatWorker struct {
	log        *slog.Logger
	monitoring *observability.MonitoringManager
}

func NewHeartbeatWorker(log *slog.Logger, monitoring *observability.MonitoringManager) *HeartbeatWorker {
	return &HeartbeatWorker{log: log, monitoring: monitoring}
}

// Run executes the main loop of the worker, reporting health metrics on every tick.
func (w *HeartbeatWorker) Run(ctx context.Context) error {
	w.log.Info("Starting heartbeat worker")
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			rss, cpu, status, err := getSelfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}
			w.monitoring.SetProcessStats(cpu, rss)

			stats := w.monitoring.Snapshot()
			w.log.Info("Heartbeat",
				"pid", os.Getpid(),
				"status", status,
				"cpu_percent", cpu,
				"rss_bytes", rss,
				"messages_sent", stats.MessagesSent,
				"events_delivered", stats.EventsDelivered,
				"events_dropped", stats.EventsDropped,
				"subscriptions", stats.ActiveSubscriptions,
				"alloc_mb", stats.AllocMemMb,
				"num_gc", stats.NumGC,
			)
		}
	}
}

// getSelfStats retrieves technical metrics (Memory, CPU, and OS Status) for the given process.
func getSelfStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}

	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
