// Package ws is the browser change feed: every repository event and every
// user-facing notification is pushed to connected clients as JSON.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/alanyang/role-master/internal/domain/event"
)

const writeTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message is the frame written to clients. Kind is "event" or "notification".
type Message struct {
	Kind    string       `json:"kind"`
	Event   *event.Event `json:"event,omitempty"`
	Level   string       `json:"level,omitempty"`
	Message string       `json:"message,omitempty"`
}

type Hub struct {
	// mu guards clients and serialises writes; gorilla conns allow one writer.
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]struct{}),
	}
}

func (h *Hub) Register(rg *gin.RouterGroup) {
	rg.GET("", h.handleWS)
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) handleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Publish forwards a repository event. It has the event bus handler signature.
func (h *Hub) Publish(_ context.Context, e event.Event) {
	h.Broadcast(Message{Kind: "event", Event: &e})
}

// Notify implements adapter/notifier.Sink.
func (h *Hub) Notify(_ context.Context, level, msg string) {
	h.Broadcast(Message{Kind: "notification", Level: level, Message: msg})
}

func (h *Hub) Broadcast(m Message) {
	data, err := json.Marshal(m)
	if err != nil {
		slog.Error("websocket broadcast marshal failed", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout)) //nolint:errcheck
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			slog.Error("websocket write failed", "error", err)
		}
	}
}
