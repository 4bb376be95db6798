package relay

import (
	"context"
	"encoding/json"

	"github.com/weiawesome/sketch-relay/internal/domain"
	"github.com/weiawesome/sketch-relay/internal/hub"
)

// Coordinator is the session coordinator: it owns room membership,
// routes room events with persist-then-broadcast, replays history to
// late joiners, relays targeted peer handshakes, and tears down room
// state when the last participant leaves.
type Coordinator interface {
	// HandleRoomConnection processes a roomConnection event: binds the
	// participant to the connection, joins the room, announces the
	// join to peers, and replays the room's history to the joiner.
	HandleRoomConnection(ctx context.Context, c *hub.Client, data domain.RoomConnectionData)

	// HandleRoomEvent processes a draw/message-class event for a room:
	// persisted (clear resets the log first) and broadcast to the
	// sender's peers.
	HandleRoomEvent(ctx context.Context, c *hub.Client, roomID string, data json.RawMessage)

	// HandleCursor broadcasts a cursor position to the sender's peers.
	// Never persisted.
	HandleCursor(ctx context.Context, c *hub.Client, roomID string, data json.RawMessage)

	// HandleHandshake delivers a peer-negotiation payload to the
	// initiator's connection only.
	HandleHandshake(ctx context.Context, c *hub.Client, roomID string, data json.RawMessage)

	// HandleDisconnect cleans up after a dropped connection: announces
	// the departure, updates membership, and purges room state when
	// the room empties.
	HandleDisconnect(ctx context.Context, c *hub.Client)
}
