package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/weiawesome/sketch-relay/internal/domain"
	"github.com/weiawesome/sketch-relay/internal/hub"
	"github.com/weiawesome/sketch-relay/internal/relay"
	pkglog "github.com/weiawesome/sketch-relay/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// WSHandler upgrades connections and dispatches inbound envelopes to
// the coordinator.
type WSHandler struct {
	hub         *hub.Hub
	coordinator relay.Coordinator
	sendBuffer  int
}

// NewWSHandler creates a new WebSocket handler.
func NewWSHandler(h *hub.Hub, coordinator relay.Coordinator, sendBuffer int) *WSHandler {
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	return &WSHandler{
		hub:         h,
		coordinator: coordinator,
		sendBuffer:  sendBuffer,
	}
}

// HandleWebSocket handles WebSocket upgrade and message routing.
func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	l := pkglog.Ctx(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &hub.Client{
		ID:   uuid.New().String(),
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, h.sendBuffer),
	}

	client.SetDisconnectHandler(func(c *hub.Client) {
		h.coordinator.HandleDisconnect(context.Background(), c)
	})

	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(h.handleMessage)
}

func (h *WSHandler) handleMessage(client *hub.Client, message []byte) {
	l := pkglog.L()

	var env domain.Envelope
	if err := json.Unmarshal(message, &env); err != nil {
		l.Warn().Err(err).Str(pkglog.FieldConnID, client.ID).Msg("malformed frame")
		return
	}

	ctx := context.Background()

	if env.Event == domain.EventRoomConnection {
		var data domain.RoomConnectionData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			l.Warn().Err(err).Str(pkglog.FieldConnID, client.ID).Msg("malformed roomConnection payload")
			return
		}
		h.coordinator.HandleRoomConnection(ctx, client, data)
		return
	}

	kind, roomID, ok := domain.ParseEventName(env.Event)
	if !ok {
		l.Debug().Str(pkglog.FieldEvent, env.Event).Str(pkglog.FieldConnID, client.ID).Msg("unknown event")
		return
	}

	switch kind {
	case domain.KindMessage:
		h.coordinator.HandleRoomEvent(ctx, client, roomID, env.Data)
	case domain.KindMouse:
		h.coordinator.HandleCursor(ctx, client, roomID, env.Data)
	case domain.KindHandshake:
		h.coordinator.HandleHandshake(ctx, client, roomID, env.Data)
	default:
		// Outbound-only names are not accepted inbound.
		l.Debug().Str(pkglog.FieldEvent, env.Event).Str(pkglog.FieldConnID, client.ID).Msg("event not accepted from clients")
	}
}

// RegisterRoutes registers the WebSocket route.
func (h *WSHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", h.HandleWebSocket)
}
