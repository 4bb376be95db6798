package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEventName(t *testing.T) {
	tests := []struct {
		name     string
		event    string
		wantKind Kind
		wantRoom string
		wantOK   bool
	}{
		{"message", "message-abc", KindMessage, "abc", true},
		{"mouse", "mouse-abc", KindMouse, "abc", true},
		{"handshake", "handshakeConnection-abc", KindHandshake, "abc", true},
		{"history", "messages-abc", KindHistory, "abc", true},
		{"room id with hyphens", "message-room-42-b", KindMessage, "room-42-b", true},
		{"messages not mistaken for message", "messages-room-1", KindHistory, "room-1", true},
		{"no room suffix", "message-", "", "", false},
		{"unknown prefix", "draw-abc", "", "", false},
		{"roomConnection has no room suffix", "roomConnection", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, roomID, ok := ParseEventName(tt.event)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantKind, kind)
			assert.Equal(t, tt.wantRoom, roomID)
		})
	}
}

func TestEventNameRoundTrip(t *testing.T) {
	name := EventName(KindUserConnected, "r1")
	assert.Equal(t, "userConnected-r1", name)

	kind, roomID, ok := ParseEventName(name)
	assert.True(t, ok)
	assert.Equal(t, KindUserConnected, kind)
	assert.Equal(t, "r1", roomID)
}

func TestHistoryKey(t *testing.T) {
	assert.Equal(t, "messages-r1", HistoryKey("r1"))
}

func TestRoomKeyPatternMatchesHistoryKey(t *testing.T) {
	assert.Equal(t, "*-r1", RoomKeyPattern("r1"))
}

func TestParticipantGUID(t *testing.T) {
	assert.Equal(t, "abc", ParticipantGUID([]byte(`{"guid":"abc","name":"Alice"}`)))
	assert.Empty(t, ParticipantGUID([]byte(`{"name":"Alice"}`)))
	assert.Empty(t, ParticipantGUID([]byte(`not json`)))
}

func TestEventType(t *testing.T) {
	assert.Equal(t, EventTypeClear, EventType([]byte(`{"type":"clear"}`)))
	assert.Equal(t, "draw", EventType([]byte(`{"type":"draw","x":1}`)))
	assert.Empty(t, EventType([]byte(`{}`)))
}

func TestHandshakeInitiator(t *testing.T) {
	assert.Equal(t, "bob", HandshakeInitiator([]byte(`{"initiator":{"guid":"bob"},"offer":"sdp"}`)))
	assert.Empty(t, HandshakeInitiator([]byte(`{"offer":"sdp"}`)))
}
