//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain/event"
	"context"
	"reflect"

	"github.com/google/uuid"
)

// Connection is one live bidirectional transport session. Push must be safe
// for concurrent use and must fail (not block forever) once the ctx expires
// or the connection has been torn down.
type Connection interface {
	ID() string
	Push(ctx context.Context, frame []byte) error
}

type RegistryStats struct {
	Users       int
	Connections int
}

// IRegistry maps authenticated users to their live connections.
// Purely in-memory; every mutation is atomic with respect to concurrent
// register/unregister on the same user.
type IRegistry interface {
	Register(userID uuid.UUID, conn Connection)
	Unregister(conn Connection)
	LiveConnections(userIDs ...uuid.UUID) []Connection
	Stats() RegistryStats
}

// IDispatcher delivers one encoded event to the live connections of a
// recipient set. Delivery is fire-and-forget, best-effort, at-most-once.
type IDispatcher interface {
	Dispatch(recipients []uuid.UUID, e event.DomainEvent)
	DispatchTo(conn Connection, e event.DomainEvent)
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker
// lifecycle events, avoiding the need for manual naming in the Worker interface.
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
