package domain

import "strings"

// Kind classifies the room-scoped events on the wire. The external
// event names keep the historical scheme "<kind>-<roomId>"; internally
// routing happens on the (Kind, roomID) pair.
type Kind string

const (
	// Inbound from clients.
	KindMessage   Kind = "message"
	KindMouse     Kind = "mouse"
	KindHandshake Kind = "handshakeConnection"

	// Outbound only.
	KindHistory          Kind = "messages"
	KindUserConnected    Kind = "userConnected"
	KindUserDisconnected Kind = "userDisconnected"
)

// EventRoomConnection is the only inbound event not scoped to a room
// by name; its payload carries the room.
const EventRoomConnection = "roomConnection"

// EventTypeClear marks the control event that resets a room's history.
const EventTypeClear = "clear"

// parse order matters: "messages-" would otherwise match "message-".
var kinds = []Kind{
	KindHistory,
	KindMessage,
	KindMouse,
	KindHandshake,
	KindUserConnected,
	KindUserDisconnected,
}

// EventName builds the wire name for a room-scoped event.
func EventName(kind Kind, roomID string) string {
	return string(kind) + "-" + roomID
}

// ParseEventName splits a wire event name into its kind and room ID.
// Room IDs may themselves contain hyphens, so only the known kind
// prefixes are considered.
func ParseEventName(name string) (Kind, string, bool) {
	for _, k := range kinds {
		if rest, ok := strings.CutPrefix(name, string(k)+"-"); ok && rest != "" {
			return k, rest, true
		}
	}
	return "", "", false
}

// HistoryKey is the store key holding a room's ordered event log.
func HistoryKey(roomID string) string {
	return EventName(KindHistory, roomID)
}

// RoomKeyPattern matches every store key associated with a room,
// used for teardown when the room empties.
func RoomKeyPattern(roomID string) string {
	return "*-" + roomID
}
