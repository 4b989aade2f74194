package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/Ko-stant/estate-visibility-engine/internal/metrics"
)

var ErrUnknownSession = errors.New("unknown session")

// Conn is the subset of a websocket connection the hub writes to.
type Conn interface {
	Write(ctx context.Context, typ websocket.MessageType, p []byte) error
	Close(code websocket.StatusCode, reason string) error
}

// Hub tracks one connection per map session.
type Hub struct {
	mu           sync.Mutex
	sessions     map[uuid.UUID]Conn
	writeTimeout time.Duration
}

func NewHub() *Hub {
	return &Hub{sessions: make(map[uuid.UUID]Conn), writeTimeout: 3 * time.Second}
}

// Add registers conn under a fresh session id.
func (h *Hub) Add(conn Conn) uuid.UUID {
	id := uuid.New()
	h.mu.Lock()
	h.sessions[id] = conn
	n := len(h.sessions)
	h.mu.Unlock()
	metrics.ActiveSessions.Set(float64(n))
	return id
}

func (h *Hub) Remove(id uuid.UUID) {
	h.mu.Lock()
	delete(h.sessions, id)
	n := len(h.sessions)
	h.mu.Unlock()
	metrics.ActiveSessions.Set(float64(n))
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Send writes message to one session. A failed write closes and drops it.
func (h *Hub) Send(id uuid.UUID, message []byte) error {
	h.mu.Lock()
	conn, ok := h.sessions[id]
	h.mu.Unlock()
	if !ok {
		return ErrUnknownSession
	}
	if err := h.write(conn, message); err != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "")
		h.Remove(id)
		return err
	}
	return nil
}

func (h *Hub) write(conn Conn, message []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, message)
}
