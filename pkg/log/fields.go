package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Relay
	FieldRoomID        = "room_id"
	FieldParticipantID = "participant_id"
	FieldConnID        = "conn_id"
	FieldEvent         = "event"
	FieldHistoryKey    = "history_key"

	// Service
	FieldService = "service"
)
