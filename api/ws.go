package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Hub fans out projection and audit updates to connected websocket clients.
// It never blocks the publisher: a client too slow to drain its buffered
// channel is dropped instead of stalling the broadcast.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *log.Logger

	mux     sync.Mutex
	clients map[chan []byte]struct{}
}

// NewHub returns an empty Hub. Passing a nil logger defaults to log.Default.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger:  logger,
		clients: make(map[chan []byte]struct{}),
	}
}

// ServeHTTP upgrades the connection and streams published messages to it
// until the client disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("[DEBUG] websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	out := make(chan []byte, 16)
	h.mux.Lock()
	h.clients[out] = struct{}{}
	h.mux.Unlock()
	defer func() {
		h.mux.Lock()
		delete(h.clients, out)
		h.mux.Unlock()
	}()

	for msg := range out {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// Publish marshals v and fans it out to every connected client.
func (h *Hub) Publish(v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		h.logger.Printf("[DEBUG] websocket publish: %v", err)
		return
	}

	h.mux.Lock()
	defer h.mux.Unlock()
	for out := range h.clients {
		select {
		case out <- b:
		default:
			// client too slow; drop it rather than block the broadcast.
			delete(h.clients, out)
			close(out)
		}
	}
}
