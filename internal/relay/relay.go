package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/multierr"

	"github.com/weiawesome/sketch-relay/internal/domain"
	"github.com/weiawesome/sketch-relay/internal/history"
	"github.com/weiawesome/sketch-relay/internal/hub"
	"github.com/weiawesome/sketch-relay/internal/registry"
	pkglog "github.com/weiawesome/sketch-relay/pkg/log"
)

const persistQueueSize = 4096

type persistOp struct {
	key   string
	value string
	reset bool

	// teardown, when set, purges every key suffixed with this room ID
	// instead of appending.
	teardown string
}

// Service implements Coordinator. History writes are issued in order
// through a single background worker and never awaited before the
// broadcast goes out: the log is a replay convenience, so a joiner
// racing an in-flight append may miss the newest entry. Do not turn
// the writes into awaited calls without re-deriving that trade-off.
// Room teardown goes through the same worker so it can never overtake
// an append issued before the last member left and leave a
// resurrected log behind for an empty room.
type Service struct {
	hub   *hub.Hub
	reg   *registry.Registry
	store history.Store

	persistQueue chan persistOp
	persistWG    sync.WaitGroup
}

// New creates the coordinator and starts its history write worker.
func New(h *hub.Hub, reg *registry.Registry, store history.Store) *Service {
	s := &Service{
		hub:          h,
		reg:          reg,
		store:        store,
		persistQueue: make(chan persistOp, persistQueueSize),
	}
	go s.persistLoop()
	return s
}

func (s *Service) HandleRoomConnection(ctx context.Context, c *hub.Client, data domain.RoomConnectionData) {
	l := pkglog.Ctx(ctx)

	guid := domain.ParticipantGUID(data.Participant)
	if data.RoomID == "" || guid == "" {
		l.Warn().Str(pkglog.FieldConnID, c.ID).Msg("roomConnection without room or participant guid")
		return
	}

	s.reg.Bind(c.ID, guid)
	prevRoom, prevRemaining := s.reg.Join(data.RoomID, guid)

	// A re-join while still a member elsewhere moves the participant:
	// the old room gets a departure announcement and, if emptied, a
	// teardown, instead of keeping a stale member around.
	if prevRoom != "" {
		s.broadcastToRoom(prevRoom, domain.EventName(domain.KindUserDisconnected, prevRoom), guid, c.ID)
		if prevRemaining == 0 {
			s.enqueuePersist(persistOp{teardown: prevRoom})
		}
	}

	l.Info().
		Str(pkglog.FieldRoomID, data.RoomID).
		Str(pkglog.FieldParticipantID, guid).
		Str(pkglog.FieldConnID, c.ID).
		Msg("participant joined room")

	s.broadcastToRoom(data.RoomID, domain.EventName(domain.KindUserConnected, data.RoomID), json.RawMessage(data.Participant), c.ID)

	// Replay must complete before the reply; a store failure degrades
	// to an empty history and the join proceeds.
	key := domain.HistoryKey(data.RoomID)
	items, err := s.store.Range(ctx, key, 0, -1)
	if err != nil {
		l.Error().Err(err).Str(pkglog.FieldHistoryKey, key).Msg("history replay read failed")
		items = nil
	}
	if items == nil {
		items = []string{}
	}

	env, err := domain.NewEnvelope(key, items)
	if err != nil {
		l.Error().Err(err).Msg("marshal history replay")
		return
	}
	if err := c.SendMessage(env); err != nil {
		l.Error().Err(err).Str(pkglog.FieldHistoryKey, key).Msg("send history replay")
	}
}

func (s *Service) HandleRoomEvent(ctx context.Context, c *hub.Client, roomID string, data json.RawMessage) {
	if !s.senderInRoom(ctx, c, roomID) {
		return
	}

	s.enqueuePersist(persistOp{
		key:   domain.HistoryKey(roomID),
		value: string(data),
		reset: domain.EventType(data) == domain.EventTypeClear,
	})

	// Broadcast immediately; the append above has been issued but is
	// deliberately not awaited.
	s.broadcastToRoom(roomID, domain.EventName(domain.KindMessage, roomID), data, c.ID)
}

func (s *Service) HandleCursor(ctx context.Context, c *hub.Client, roomID string, data json.RawMessage) {
	if !s.senderInRoom(ctx, c, roomID) {
		return
	}
	s.broadcastToRoom(roomID, domain.EventName(domain.KindMouse, roomID), data, c.ID)
}

func (s *Service) HandleHandshake(ctx context.Context, c *hub.Client, roomID string, data json.RawMessage) {
	if !s.senderInRoom(ctx, c, roomID) {
		return
	}
	l := pkglog.Ctx(ctx)

	initiator := domain.HandshakeInitiator(data)
	if initiator == "" {
		l.Warn().Str(pkglog.FieldRoomID, roomID).Msg("handshake without initiator guid")
		return
	}

	connID, ok := s.reg.Connection(initiator)
	if !ok {
		// Initiator already disconnected, or never registered. Drop.
		l.Warn().
			Str(pkglog.FieldRoomID, roomID).
			Str(pkglog.FieldParticipantID, initiator).
			Msg("handshake initiator has no live connection")
		return
	}

	env, err := domain.NewEnvelope(domain.EventName(domain.KindHandshake, roomID), data)
	if err != nil {
		l.Error().Err(err).Msg("marshal handshake")
		return
	}
	if !s.hub.SendToConn(connID, env) {
		l.Warn().
			Str(pkglog.FieldConnID, connID).
			Str(pkglog.FieldParticipantID, initiator).
			Msg("handshake initiator connection gone")
	}
}

func (s *Service) HandleDisconnect(ctx context.Context, c *hub.Client) {
	l := pkglog.Ctx(ctx)

	participantID, ok := s.reg.Participant(c.ID)
	if !ok {
		// Never joined, or a newer connection took over the identity.
		l.Debug().Str(pkglog.FieldConnID, c.ID).Msg("disconnect from connection with no participant")
		return
	}
	s.reg.Unbind(c.ID)

	roomID, ok := s.reg.Room(participantID)
	if !ok {
		return
	}

	s.broadcastToRoom(roomID, domain.EventName(domain.KindUserDisconnected, roomID), participantID, c.ID)
	remaining := s.reg.Leave(roomID, participantID)

	l.Info().
		Str(pkglog.FieldRoomID, roomID).
		Str(pkglog.FieldParticipantID, participantID).
		Int("remaining", remaining).
		Msg("participant left room")

	if remaining == 0 {
		s.enqueuePersist(persistOp{teardown: roomID})
	}
}

// Drain blocks until every queued history write and teardown has
// settled. Used at shutdown so in-flight appends are not lost with the
// process.
func (s *Service) Drain() {
	s.persistWG.Wait()
}

// senderInRoom checks that the sending connection is bound to a
// participant currently joined to roomID. Events scoped to rooms the
// sender never joined are dropped, mirroring per-room listener
// registration at join time.
func (s *Service) senderInRoom(ctx context.Context, c *hub.Client, roomID string) bool {
	l := pkglog.Ctx(ctx)

	participantID, ok := s.reg.Participant(c.ID)
	if !ok {
		l.Debug().Str(pkglog.FieldConnID, c.ID).Msg("event from unjoined connection")
		return false
	}
	room, ok := s.reg.Room(participantID)
	if !ok || room != roomID {
		l.Debug().
			Str(pkglog.FieldConnID, c.ID).
			Str(pkglog.FieldRoomID, roomID).
			Msg("event scoped to a room the sender is not joined to")
		return false
	}
	return true
}

func (s *Service) broadcastToRoom(roomID, event string, data interface{}, excludeConn string) {
	env, err := domain.NewEnvelope(event, data)
	if err != nil {
		l := pkglog.L()
		l.Error().Err(err).Str(pkglog.FieldEvent, event).Msg("marshal broadcast")
		return
	}
	s.hub.Broadcast(s.roomConns(roomID), excludeConn, env)
}

// roomConns resolves the live connections of a room's current members.
func (s *Service) roomConns(roomID string) []string {
	members := s.reg.Members(roomID)
	conns := make([]string, 0, len(members))
	for _, participantID := range members {
		if connID, ok := s.reg.Connection(participantID); ok {
			conns = append(conns, connID)
		}
	}
	return conns
}

func (s *Service) enqueuePersist(op persistOp) {
	s.persistWG.Add(1)
	select {
	case s.persistQueue <- op:
	default:
		s.persistWG.Done()
		l := pkglog.L()
		if op.teardown != "" {
			l.Warn().Str(pkglog.FieldRoomID, op.teardown).Msg("persist queue full, room teardown dropped")
		} else {
			l.Warn().Str(pkglog.FieldHistoryKey, op.key).Msg("persist queue full, history write dropped")
		}
	}
}

func (s *Service) persistLoop() {
	for op := range s.persistQueue {
		s.applyPersist(op)
		s.persistWG.Done()
	}
}

func (s *Service) applyPersist(op persistOp) {
	// Store calls run to completion independently of connection state.
	ctx := context.Background()
	l := pkglog.L()

	if op.teardown != "" {
		s.teardownRoom(ctx, op.teardown)
		return
	}

	if op.reset {
		// Clear wipes the log, then the clear marker itself is
		// appended below so late joiners converge to "cleared".
		if err := s.store.Delete(ctx, op.key); err != nil {
			l.Error().Err(err).Str(pkglog.FieldHistoryKey, op.key).Msg("history reset failed")
		}
	}
	if err := s.store.Append(ctx, op.key, op.value); err != nil {
		l.Error().Err(err).Str(pkglog.FieldHistoryKey, op.key).Msg("history append failed")
	}
}

// teardownRoom purges every store key associated with a room once its
// last participant has left. It runs on the persist worker, sequenced
// after every append issued while the room still had members.
// Deletions fan out concurrently; failures are collected and logged
// once in aggregate, never retried.
func (s *Service) teardownRoom(ctx context.Context, roomID string) {
	l := pkglog.L().With().Str(pkglog.FieldRoomID, roomID).Logger()

	keys, err := s.store.Keys(ctx, domain.RoomKeyPattern(roomID))
	if err != nil {
		l.Error().Err(err).Msg("enumerate room keys for teardown")
		return
	}
	if len(keys) == 0 {
		return
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs error
	)
	for _, key := range keys {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			if err := s.store.Delete(ctx, key); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("delete %s: %w", key, err))
				mu.Unlock()
			}
		}(key)
	}
	wg.Wait()

	if errs != nil {
		l.Error().Err(errs).Int("keys", len(keys)).Msg("room teardown finished with failures")
		return
	}
	l.Info().Int("keys", len(keys)).Msg("room state purged")
}
