package hub

import (
	"encoding/json"
	"sync"

	"github.com/weiawesome/sketch-relay/internal/config"
	pkglog "github.com/weiawesome/sketch-relay/pkg/log"
)

// Hub tracks live WebSocket connections and delivers outbound frames.
// It is purely transport-level: room membership and participant
// identity live in the registry, so broadcasts are driven by explicit
// connection ID lists.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	config  config.WebSocketConfig
}

// NewHub creates a new Hub.
func NewHub(cfg config.WebSocketConfig) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		config:  cfg,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()

	l := pkglog.L()
	l.Debug().Str(pkglog.FieldConnID, client.ID).Msg("client registered")
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client.ID]; ok {
		delete(h.clients, client.ID)
		close(client.Send)
	}
	h.mu.Unlock()

	l := pkglog.L()
	l.Debug().Str(pkglog.FieldConnID, client.ID).Msg("client unregistered")
}

// SendToConn delivers a message to one connection. Returns false if
// the connection is not registered.
func (h *Hub) SendToConn(connID string, message interface{}) bool {
	data, err := json.Marshal(message)
	if err != nil {
		l := pkglog.L()
		l.Error().Err(err).Msg("marshal outbound message")
		return false
	}
	return h.deliverTo(connID, data)
}

// Broadcast delivers a message to every listed connection except the
// excluded one. Unknown connection IDs are skipped.
func (h *Hub) Broadcast(connIDs []string, exclude string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		l := pkglog.L()
		l.Error().Err(err).Msg("marshal outbound message")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, id := range connIDs {
		if id == exclude {
			continue
		}
		if client, ok := h.clients[id]; ok {
			h.send(client, data)
		}
	}
}

func (h *Hub) deliverTo(connID string, data []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.clients[connID]
	if !ok {
		return false
	}
	h.send(client, data)
	return true
}

// send hands a frame to the client's write pump without blocking. The
// caller holds at least a read lock, so the send channel cannot be
// closed underneath us. A full buffer means the client has stopped
// draining; drop it.
func (h *Hub) send(client *Client, data []byte) {
	select {
	case client.Send <- data:
	default:
		l := pkglog.L()
		l.Warn().Str(pkglog.FieldConnID, client.ID).Msg("send buffer full, dropping client")
		go h.Unregister(client)
	}
}
