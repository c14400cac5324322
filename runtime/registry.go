// Package runtime owns the presence and fan-out core: the connection
// registry and the event dispatcher. It contains no business rules and no
// persistence.
package runtime

import (
	"chat-relay/contract"
	"sync"

	"github.com/google/uuid"
)

type connSet map[string]contract.Connection

// Registry tracks which live connections belong to which user. A user may
// own many concurrent connections (multiple devices or tabs); a connection
// belongs to at most one user, set once at registration.
//
// Both maps are guarded by a single RWMutex so every mutation is atomic:
// no lost updates, no empty entries left behind, no resurrection of a
// removed entry without a fresh Register call.
type Registry struct {
	mu     sync.RWMutex
	byUser map[uuid.UUID]connSet
	byConn map[string]uuid.UUID // reverse index connection id -> user
}

func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[uuid.UUID]connSet),
		byConn: make(map[string]uuid.UUID),
	}
}

// Register adds the connection to the user's entry, creating the entry if
// absent. Registering the same connection twice is a no-op; distinct
// connections for the same user accumulate.
func (r *Registry) Register(userID uuid.UUID, conn contract.Connection) {
	if conn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byConn[conn.ID()]; ok {
		return
	}

	set, ok := r.byUser[userID]
	if !ok {
		set = make(connSet)
		r.byUser[userID] = set
	}
	set[conn.ID()] = conn
	r.byConn[conn.ID()] = userID
}

// Unregister removes the connection from whatever entry holds it and drops
// the entry once it becomes empty. Unknown or already removed connections
// are a no-op, so the transport-error path and the normal-close path may
// both call it for the same connection.
func (r *Registry) Unregister(conn contract.Connection) {
	if conn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.byConn[conn.ID()]
	if !ok {
		return
	}
	delete(r.byConn, conn.ID())

	if set, ok := r.byUser[userID]; ok {
		delete(set, conn.ID())
		if len(set) == 0 {
			delete(r.byUser, userID)
		}
	}
}

// LiveConnections returns a snapshot of the live connections of the
// requested users. The snapshot may go stale by the time the caller pushes
// to it; pushes to closed connections fail and are skipped downstream.
func (r *Registry) LiveConnections(userIDs ...uuid.UUID) []contract.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var conns []contract.Connection
	for _, userID := range userIDs {
		for _, conn := range r.byUser[userID] {
			conns = append(conns, conn)
		}
	}
	return conns
}

func (r *Registry) Stats() contract.RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return contract.RegistryStats{
		Users:       len(r.byUser),
		Connections: len(r.byConn),
	}
}
