package runtime

import (
	"sync"

	"estate-chat/contract"
)

type subscriptionID uint64

// Registry tracks active realtime subscriptions per user. A user may hold
// several independent subscriptions (one per device or tab); every matching
// event is delivered to each of them.
type Registry struct {
	mu          sync.RWMutex
	nextID      subscriptionID
	subscribers map[string]map[subscriptionID]contract.EventSink // user -> subscriptions
}

func NewRegistry() *Registry {
	return &Registry{
		subscribers: make(map[string]map[subscriptionID]contract.EventSink),
	}
}

// Subscribe registers a filtered listener for one user and returns its
// disposer. After the disposer returns, the registry hands the sink to no
// further deliveries; an event snapshotted by a delivery already in flight
// may still reach the sink once.
func (r *Registry) Subscribe(userID string, sink contract.EventSink) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	id := r.nextID

	if _, ok := r.subscribers[userID]; !ok {
		r.subscribers[userID] = make(map[subscriptionID]contract.EventSink)
	}
	r.subscribers[userID][id] = sink

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		if subs, ok := r.subscribers[userID]; ok {
			delete(subs, id)

			// If the user has no subscription left, remove the entry entirely
			if len(subs) == 0 {
				delete(r.subscribers, userID)
			}
		}
	}
}

// SinksFor resolves the active sinks of the given participants. Each
// subscription appears at most once even when a participant ID is repeated,
// so a delivery never invokes the same listener twice for one event.
func (r *Registry) SinksFor(participantIDs ...string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{}, len(participantIDs))
	var activeSinks []contract.EventSink
	for _, participantID := range participantIDs {
		if _, dup := seen[participantID]; dup {
			continue
		}
		seen[participantID] = struct{}{}

		for _, sink := range r.subscribers[participantID] {
			activeSinks = append(activeSinks, sink)
		}
	}
	return activeSinks
}

// Count returns the number of active subscriptions, for monitoring.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, subs := range r.subscribers {
		total += len(subs)
	}
	return total
}
