// Package session composes the live rooms: it owns the in-memory game
// states, runs one event loop per room, and routes socket and timer
// events into the game rules. All mutation of a room's state happens
// on its loop goroutine, so ordering is the only synchronization the
// rules need.
package session

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"color-clash/internal/game"
	"color-clash/internal/protocol"
)

// Broadcaster fans encoded payloads out to sockets. The hub implements
// it; sends are best-effort and never block.
type Broadcaster interface {
	ToRoom(roomID uint, payload []byte)
	ToRoomExcept(roomID uint, exceptUserID uint, payload []byte)
	ToUser(userID uint, payload []byte)
	CloseUser(userID uint)
}

// Syncer checkpoints game state to durable storage. The sync service
// implements it.
type Syncer interface {
	// Hydrate loads the durable rows of a room into a fresh state.
	Hydrate(ctx context.Context, roomID uint) (*game.State, error)

	// Flush writes a checkpoint synchronously.
	Flush(ctx context.Context, cp game.Checkpoint) error

	// FlushAsync writes a checkpoint in the background; failures are
	// logged inside, never reported back.
	FlushAsync(cp game.Checkpoint)

	// FlushScoresAsync writes a score-only checkpoint in the
	// background. Used by the periodic flush tick, where the member
	// rows already exist and only scores move.
	FlushScoresAsync(roomID uint, scores map[uint]int)

	// Purge deletes a room's durable rows at teardown.
	Purge(ctx context.Context, roomID uint) error
}

// Events posted into a session mailbox.
type (
	connectEvent struct {
		userID   uint
		username string
	}
	messageEvent struct {
		userID uint
		raw    []byte
	}
	disconnectEvent struct{ userID uint }
	timeoutEvent    struct{ reason string }
	flushTickEvent  struct{}
	cleanupEvent    struct{}
)

// Session is one live room: its authoritative state plus the mailbox
// feeding the single goroutine allowed to touch it.
type Session struct {
	roomID uint
	state  *game.State
	store  *Store

	events chan any
	done   chan struct{}
	log    *logrus.Entry
}

func newSession(roomID uint, state *game.State, store *Store) *Session {
	s := &Session{
		roomID: roomID,
		state:  state,
		store:  store,
		events: make(chan any, 256),
		done:   make(chan struct{}),
		log:    logrus.WithFields(logrus.Fields{"component": "session", "room_id": roomID}),
	}
	go s.loop()
	return s
}

// post delivers an event to the loop. Events for a torn-down room are
// dropped.
func (s *Session) post(ev any) {
	select {
	case <-s.done:
	case s.events <- ev:
	}
}

// Connect enqueues the join of a freshly admitted socket.
func (s *Session) Connect(userID uint, username string) {
	s.post(connectEvent{userID: userID, username: username})
}

// Message enqueues a raw client frame.
func (s *Session) Message(userID uint, raw []byte) {
	s.post(messageEvent{userID: userID, raw: raw})
}

// Disconnect enqueues the departure of a closed socket.
func (s *Session) Disconnect(userID uint) {
	s.post(disconnectEvent{userID: userID})
}

func (s *Session) loop() {
	for {
		select {
		case <-s.done:
			return
		case ev := <-s.events:
			s.apply(ev)
		}
	}
}

func (s *Session) apply(ev any) {
	switch e := ev.(type) {
	case connectEvent:
		s.dispatch(s.state.HandleJoin(e.userID, e.username))
	case messageEvent:
		s.applyMessage(e.userID, e.raw)
	case disconnectEvent:
		s.dispatch(s.state.HandleDisconnect(e.userID))
	case timeoutEvent:
		s.dispatch(s.state.HandleTimeout(e.reason))
	case flushTickEvent:
		if s.state.IsActive {
			s.store.syncer.FlushScoresAsync(s.roomID, s.state.ScoreSnapshot())
		}
	case cleanupEvent:
		s.dispatch(s.state.HandleCleanup())
	default:
		s.log.Warnf("Unknown session event %T", ev)
	}
}

func (s *Session) applyMessage(userID uint, raw []byte) {
	msg, err := protocol.DecodeClient(raw)
	if err != nil {
		// Malformed frames are dropped without acknowledgment.
		s.log.WithField("user_id", userID).WithError(err).Warn("Dropping undecodable client message")
		return
	}
	switch m := msg.(type) {
	case protocol.Draw:
		s.dispatch(s.state.HandleDraw(userID, m.Data))
	case protocol.GameStart:
		s.dispatch(s.state.HandleStart(userID))
	case protocol.Chat:
		s.dispatch(s.state.HandleChat(userID, m.Message, m.ID))
	case protocol.Ping:
		s.dispatch(s.state.HandlePing(userID))
	case protocol.LeaveRoom:
		s.dispatch(s.state.HandleLeave(userID))
	}
}

// dispatch sends a transition's outbound messages and then executes
// its effects.
func (s *Session) dispatch(out []game.Outbound, fx game.Effects) {
	for _, o := range out {
		payload, err := protocol.Encode(o.Msg)
		if err != nil {
			s.log.WithError(err).Error("Failed to encode outbound message")
			continue
		}
		switch o.Scope {
		case game.ScopeRoom:
			s.store.bcast.ToRoom(s.roomID, payload)
		case game.ScopeExceptUser:
			s.store.bcast.ToRoomExcept(s.roomID, o.UserID, payload)
		case game.ScopeUser:
			s.store.bcast.ToUser(o.UserID, payload)
		}
	}
	s.runEffects(fx)
}

func (s *Session) runEffects(fx game.Effects) {
	timers := s.store.timers

	if fx.ArmGameEnd > 0 {
		timers.Arm(s.roomID, game.TimerGameEnd, fx.ArmGameEnd, func() {
			s.post(timeoutEvent{reason: "time limit reached"})
		})
	}
	if fx.StartFlush {
		timers.ArmPeriodic(s.roomID, game.TimerFlush, s.store.FlushInterval, func() {
			s.post(flushTickEvent{})
		})
	}
	if fx.StopFlush {
		timers.Cancel(s.roomID, game.TimerFlush)
	}
	if fx.ArmCleanup {
		timers.Arm(s.roomID, game.TimerCleanup, s.store.CleanupCooldown, func() {
			s.post(cleanupEvent{})
		})
	}
	if fx.FlushSync {
		// The one blocking write: the final checkpoint at game end. It
		// stalls only this room's loop.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.store.syncer.Flush(ctx, s.state.Checkpoint()); err != nil {
			s.log.WithError(err).Error("Final checkpoint flush failed")
		}
		cancel()
	} else if fx.FlushAsync {
		s.store.syncer.FlushAsync(s.state.Checkpoint())
	}
	if fx.CloseUserID != 0 {
		s.store.bcast.CloseUser(fx.CloseUserID)
	}
	if fx.Teardown {
		s.teardown()
	}
}

// teardown removes the room from memory and deletes its durable rows.
// Runs on the loop goroutine; afterwards every later post is a no-op.
func (s *Session) teardown() {
	s.store.timers.CancelAll(s.roomID)
	s.store.remove(s.roomID)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.syncer.Purge(ctx, s.roomID); err != nil {
		s.log.WithError(err).Error("Failed to purge room rows during teardown")
	}
	close(s.done)
	s.log.Info("Room session torn down")
}
