//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"estate-chat/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IRegistry tracks the active realtime subscriptions of connected users.
// A user may hold several subscriptions at once (one per device or tab);
// each Subscribe call adds an independent filtered listener.
type IRegistry interface {
	Subscribe(userID string, sink EventSink) (unsubscribe func())
	SinksFor(participantIDs ...string) []EventSink
}

// IPublisher hands domain events to the realtime pipeline.
// Publication is best effort: when the pipeline is saturated the event is
// dropped and clients reconcile through a history read.
type IPublisher interface {
	Publish(e event.DomainEvent)
}
