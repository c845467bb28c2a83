package ws

import (
	"context"
	"sync"

	"github.com/messywasayzafar/nursify-sub001/internal/chat"
	"go.uber.org/zap"
)

// Hub is the in-process table of websocket sessions this node owns. The
// durable connection registry is the cross-node source of truth; the hub
// only maps connection IDs to live sockets so pushes can reach them.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*client),
		logger:  logger,
	}
}

// Push writes a payload to one local connection. Returns chat.ErrGone
// when the connection is not (or no longer) held by this node — the
// signal the dispatcher reaps on.
func (h *Hub) Push(ctx context.Context, connectionID string, payload []byte) error {
	h.mu.RLock()
	cl, ok := h.clients[connectionID]
	h.mu.RUnlock()
	if !ok {
		return chat.ErrGone
	}

	select {
	case cl.send <- payload:
		return nil
	case <-cl.done:
		return chat.ErrGone
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) add(cl *client) {
	h.mu.Lock()
	h.clients[cl.id] = cl
	h.mu.Unlock()
}

func (h *Hub) remove(connectionID string) {
	h.mu.Lock()
	delete(h.clients, connectionID)
	h.mu.Unlock()
}

// Size reports how many sockets this node currently holds.
func (h *Hub) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
