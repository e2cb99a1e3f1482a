// Package realtime pushes notification payloads to users' live websocket
// connections, across processes through Redis pub/sub.
package realtime

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anonto42/inkwell/backend/pkg/logger"
)

var ErrNoConnection = errors.New("no active connection for user")

const connectionBuffer = 16

// Hub tracks the live connections of this process.
type Hub struct {
	// conns maps a user id to that user's connections keyed by connection
	// id, so removing one connection is O(1). A user's entry disappears with
	// their last connection.
	conns map[uint]map[string]chan []byte

	// Subscribing and unsubscribing take the write lock, delivery the read lock.
	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{conns: make(map[uint]map[string]chan []byte)}
}

// Subscribe registers a connection until ctx ends.
func (h *Hub) Subscribe(ctx context.Context, userID uint) (<-chan []byte, string) {
	id := "conn_" + uuid.New().String()
	ch := make(chan []byte, connectionBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[userID]; !ok {
		h.conns[userID] = make(map[string]chan []byte)
	}
	h.conns[userID][id] = ch

	go h.cleanUp(ctx, userID, id)

	return ch, id
}

func (h *Hub) cleanUp(ctx context.Context, userID uint, id string) {
	<-ctx.Done()

	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.conns[userID], id)
	if len(h.conns[userID]) == 0 {
		delete(h.conns, userID)
	}
}

func (h *Hub) ActiveConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, m := range h.conns {
		count += len(m)
	}
	return count
}

// Deliver hands the payload to every connection of the user. A connection
// whose buffer is full misses the payload.
func (h *Hub) Deliver(userID uint, payload []byte) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	userConns, ok := h.conns[userID]
	if !ok {
		return ErrNoConnection
	}
	for id, ch := range userConns {
		select {
		case ch <- payload:
		default:
			logger.Warn("realtime: connection buffer full, drop", zap.Uint("user", userID), zap.String("conn", id))
		}
	}
	return nil
}
