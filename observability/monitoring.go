package observability

import (
	"math"
	"runtime"
	"sync/atomic"
)

// MonitoringStats aggregates realtime pipeline counters with process metrics
// for the health endpoint and the heartbeat logs.
type MonitoringStats struct {
	MessagesSent        uint64  `json:"messages_sent"`
	EventsDelivered     uint64  `json:"events_delivered"`
	EventsDropped       uint64  `json:"events_dropped"`
	MessageEvents       uint64  `json:"message_events"`
	ReadReceiptEvents   uint64  `json:"read_receipt_events"`
	ActiveSubscriptions int     `json:"active_subscriptions"`
	AllocMemMb          uint64  `json:"alloc_mem_mb"`
	NumGC               uint32  `json:"num_gc"`
	CPUPercent          float64 `json:"cpu_percent"`
	RSSBytes            uint64  `json:"rss_bytes"`
}

// MonitoringManager collects pipeline telemetry. Counters are atomic; the
// manager is shared by the delivery worker, the telemetry worker, the
// heartbeat worker, and the HTTP health handler.
type MonitoringManager struct {
	messagesSent      atomic.Uint64
	eventsDelivered   atomic.Uint64
	eventsDropped     atomic.Uint64
	messageEvents     atomic.Uint64
	readReceiptEvents atomic.Uint64

	cpuPercentBits atomic.Uint64
	rssBytes       atomic.Uint64

	// SubscriptionCount is polled, not pushed; the registry owns the truth.
	SubscriptionCount func() int
}

func NewMonitoringManager() *MonitoringManager {
	return &MonitoringManager{SubscriptionCount: func() int { return 0 }}
}

func (m *MonitoringManager) MessageSent()      { m.messagesSent.Add(1) }
func (m *MonitoringManager) EventDelivered()   { m.eventsDelivered.Add(1) }
func (m *MonitoringManager) EventDropped()     { m.eventsDropped.Add(1) }
func (m *MonitoringManager) MessageEvent()     { m.messageEvents.Add(1) }
func (m *MonitoringManager) ReadReceiptEvent() { m.readReceiptEvents.Add(1) }

// SetProcessStats records process-level CPU and memory, sampled by the
// heartbeat worker which owns the gopsutil handle.
func (m *MonitoringManager) SetProcessStats(cpuPercent float64, rssBytes uint64) {
	m.cpuPercentBits.Store(math.Float64bits(cpuPercent))
	m.rssBytes.Store(rssBytes)
}

// Snapshot returns the current counters together with Go runtime memory stats
// and the last sampled process stats.
func (m *MonitoringManager) Snapshot() MonitoringStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return MonitoringStats{
		MessagesSent:        m.messagesSent.Load(),
		EventsDelivered:     m.eventsDelivered.Load(),
		EventsDropped:       m.eventsDropped.Load(),
		MessageEvents:       m.messageEvents.Load(),
		ReadReceiptEvents:   m.readReceiptEvents.Load(),
		ActiveSubscriptions: m.SubscriptionCount(),
		AllocMemMb:          mem.Alloc / 1024 / 1024,
		NumGC:               mem.NumGC,
		CPUPercent:          math.Float64frombits(m.cpuPercentBits.Load()),
		RSSBytes:            m.rssBytes.Load(),
	}
}
