package registry

import "sync"

// Registry owns the coordinator's lookup tables: the bidirectional
// connection↔participant binding and the room membership sets. It is
// the single source of truth for who is connected as whom and where;
// the hub only knows transport connections.
type Registry struct {
	mu sync.RWMutex

	connByParticipant map[string]string
	participantByConn map[string]string

	roomByParticipant map[string]string
	members           map[string]map[string]struct{}
}

func New() *Registry {
	return &Registry{
		connByParticipant: make(map[string]string),
		participantByConn: make(map[string]string),
		roomByParticipant: make(map[string]string),
		members:           make(map[string]map[string]struct{}),
	}
}

// Bind associates a connection with a participant, overwriting any
// prior binding for either key. Last writer wins: a reconnect before
// the old connection is cleaned up steals the participant, and the
// stale connection's later disconnect resolves to no participant.
func (r *Registry) Bind(connID, participantID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.connByParticipant[participantID]; ok && old != connID {
		delete(r.participantByConn, old)
	}
	if old, ok := r.participantByConn[connID]; ok && old != participantID {
		delete(r.connByParticipant, old)
	}
	r.connByParticipant[participantID] = connID
	r.participantByConn[connID] = participantID
}

// Connection resolves the live connection for a participant.
func (r *Registry) Connection(participantID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	connID, ok := r.connByParticipant[participantID]
	return connID, ok
}

// Participant resolves the participant bound to a connection.
func (r *Registry) Participant(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	participantID, ok := r.participantByConn[connID]
	return participantID, ok
}

// Unbind removes both directions of a connection's binding. The
// reverse entry is only removed if it still points at this connection,
// so a rebound participant survives the stale connection going away.
func (r *Registry) Unbind(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	participantID, ok := r.participantByConn[connID]
	if !ok {
		return
	}
	delete(r.participantByConn, connID)
	if r.connByParticipant[participantID] == connID {
		delete(r.connByParticipant, participantID)
	}
}

// Join adds a participant to a room's member set, idempotently. If the
// participant was joined to a different room, they are moved out of it
// first; Join reports that room and its remaining member count so the
// caller can announce the departure and tear it down if empty.
func (r *Registry) Join(roomID, participantID string) (prevRoom string, prevRemaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.roomByParticipant[participantID]; ok && prev != roomID {
		prevRoom = prev
		prevRemaining = r.removeLocked(prev, participantID)
	}

	set, ok := r.members[roomID]
	if !ok {
		set = make(map[string]struct{})
		r.members[roomID] = set
	}
	set[participantID] = struct{}{}
	r.roomByParticipant[participantID] = roomID
	return prevRoom, prevRemaining
}

// Leave removes a participant from a room and returns the remaining
// member count. At zero the room entry itself is dropped.
func (r *Registry) Leave(roomID, participantID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.roomByParticipant[participantID] == roomID {
		delete(r.roomByParticipant, participantID)
	}
	return r.removeLocked(roomID, participantID)
}

func (r *Registry) removeLocked(roomID, participantID string) int {
	set, ok := r.members[roomID]
	if !ok {
		return 0
	}
	delete(set, participantID)
	if len(set) == 0 {
		delete(r.members, roomID)
		return 0
	}
	return len(set)
}

// Room reports which room a participant is currently joined to.
func (r *Registry) Room(participantID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	roomID, ok := r.roomByParticipant[participantID]
	return roomID, ok
}

// Members returns a copy of a room's member set.
func (r *Registry) Members(roomID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.members[roomID]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}
