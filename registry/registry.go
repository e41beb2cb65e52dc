// registry/registry.go
package registry

import (
	"sync"

	"github.com/gorilla/websocket"

	"github.com/Jbruinsma/UNO/logger"
	"github.com/Jbruinsma/UNO/network"
)

// Registry maps a user ID to exactly one live connection. It is the phone
// book between game logic (which only knows user IDs) and transports.
//
// Invariant: at most one live connection per user. Registering a second
// connection for the same user closes and evicts the first.
type Registry struct {
	byUser map[string]network.Connection
	byConn map[network.Connection]string
	mutex  sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[string]network.Connection),
		byConn: make(map[network.Connection]string),
	}
}

// Register binds conn to userID. An existing connection for the same user is
// closed with a "superseded" reason and removed first, under the lock, so
// concurrent registrations cannot race into two entries.
func (r *Registry) Register(conn network.Connection, userID string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if old, exists := r.byUser[userID]; exists && old != conn {
		old.CloseWithReason(websocket.CloseNormalClosure, "superseded")
		delete(r.byConn, old)
	}

	r.byUser[userID] = conn
	r.byConn[conn] = userID
}

// Unregister removes conn if it is still registered and returns the user ID
// it was bound to. Idempotent: a second call for the same connection returns
// ("", false).
func (r *Registry) Unregister(conn network.Connection) (string, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	userID, exists := r.byConn[conn]
	if !exists {
		return "", false
	}

	delete(r.byConn, conn)
	// Only clear the user entry if it still points at this connection; a
	// superseding login may already own it.
	if r.byUser[userID] == conn {
		delete(r.byUser, userID)
	}
	return userID, true
}

// Send delivers payload to one user, best effort. A failed write means the
// peer went away: the entry is evicted and the connection closed. Errors are
// never propagated to the caller.
func (r *Registry) Send(userID string, payload []byte) {
	r.mutex.Lock()
	conn, exists := r.byUser[userID]
	r.mutex.Unlock()

	if !exists {
		return
	}

	if err := conn.SendText(payload); err != nil {
		logger.Log.Infof("Evicting connection for user %s after send failure: %v", userID, err)
		r.Unregister(conn)
		conn.Close()
	}
}

// Broadcast delivers payload to every registered connection. The snapshot is
// taken under the lock; writes happen outside it.
func (r *Registry) Broadcast(payload []byte) {
	r.mutex.Lock()
	conns := make([]network.Connection, 0, len(r.byConn))
	for conn := range r.byConn {
		conns = append(conns, conn)
	}
	r.mutex.Unlock()

	for _, conn := range conns {
		if err := conn.SendText(payload); err != nil {
			r.Unregister(conn)
			conn.Close()
		}
	}
}

// Count returns the number of registered connections.
func (r *Registry) Count() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.byConn)
}
