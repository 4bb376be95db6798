package domain

import "encoding/json"

// Envelope is the wire frame exchanged with clients: a named event
// plus its payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// NewEnvelope marshals data into an envelope for the given event name.
func NewEnvelope(event string, data interface{}) (*Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Envelope{Event: event, Data: raw}, nil
}

// Participant identifies a client across connections. Clients may
// attach arbitrary extra fields; those are preserved by keeping the
// raw payload wherever the full identity travels onward.
type Participant struct {
	GUID string `json:"guid"`
}

// RoomConnectionData is the payload of the roomConnection event.
type RoomConnectionData struct {
	RoomID      string          `json:"roomId"`
	Participant json.RawMessage `json:"participant"`
}

// ParticipantGUID extracts the guid field from a raw participant
// identity. Returns "" if absent or malformed.
func ParticipantGUID(raw json.RawMessage) string {
	var p Participant
	if err := json.Unmarshal(raw, &p); err != nil {
		return ""
	}
	return p.GUID
}

// EventType reports the "type" field of a raw room event payload.
// Returns "" if absent or malformed.
func EventType(data json.RawMessage) string {
	var peek struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &peek); err != nil {
		return ""
	}
	return peek.Type
}

// HandshakeInitiator extracts the initiator guid from a raw handshake
// payload. Returns "" if absent or malformed.
func HandshakeInitiator(data json.RawMessage) string {
	var peek struct {
		Initiator Participant `json:"initiator"`
	}
	if err := json.Unmarshal(data, &peek); err != nil {
		return ""
	}
	return peek.Initiator.GUID
}
