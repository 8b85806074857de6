package session

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"color-clash/internal/game"
)

// Default timer settings; exported on Store so tests can shorten them.
const (
	defaultFlushInterval   = 10 * time.Second
	defaultCleanupCooldown = 60 * time.Second
)

// Store owns the map of live rooms. Hydration is exactly-once: while a
// session exists, every caller gets the same instance and storage is
// never re-read.
type Store struct {
	mu       sync.Mutex
	sessions map[uint]*Session

	syncer Syncer
	bcast  Broadcaster
	timers TimerScheduler

	// FlushInterval is the periodic checkpoint cadence while a game is
	// active. CleanupCooldown is how long a fully disconnected room
	// lingers before teardown.
	FlushInterval   time.Duration
	CleanupCooldown time.Duration
}

// TimerScheduler is the slice of the timer manager the session layer
// uses.
type TimerScheduler interface {
	Arm(roomID uint, class game.TimerClass, delay time.Duration, fn func())
	ArmPeriodic(roomID uint, class game.TimerClass, interval time.Duration, fn func())
	Cancel(roomID uint, class game.TimerClass)
	CancelAll(roomID uint)
}

// NewStore creates an empty Store.
func NewStore(syncer Syncer, bcast Broadcaster, timers TimerScheduler) *Store {
	if syncer == nil || bcast == nil || timers == nil {
		panic("syncer, broadcaster and timers must be non-nil for Store")
	}
	return &Store{
		sessions:        make(map[uint]*Session),
		syncer:          syncer,
		bcast:           bcast,
		timers:          timers,
		FlushInterval:   defaultFlushInterval,
		CleanupCooldown: defaultCleanupCooldown,
	}
}

// GetOrHydrate returns the live session for a room, hydrating it from
// durable rows on first access. A missing room row surfaces as
// repository.ErrRoomNotFound from the syncer; rooms are never invented
// here.
//
// The storage read runs outside the store lock, so one slow hydration
// never stalls lookups of other rooms. Concurrent first admits to the
// same room may both read; the first to register wins and the loser's
// state is discarded before it ever runs a loop.
func (st *Store) GetOrHydrate(ctx context.Context, roomID uint) (*Session, error) {
	st.mu.Lock()
	if s, ok := st.sessions[roomID]; ok {
		st.mu.Unlock()
		return s, nil
	}
	st.mu.Unlock()

	state, err := st.syncer.Hydrate(ctx, roomID)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[roomID]; ok {
		return s, nil
	}
	s := newSession(roomID, state, st)
	st.sessions[roomID] = s
	logrus.WithFields(logrus.Fields{"component": "session", "room_id": roomID}).
		Info("Room session hydrated")
	return s, nil
}

// Get returns the live session for a room, or nil.
func (st *Store) Get(roomID uint) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.sessions[roomID]
}

// LiveRoomIDs lists rooms that currently have an in-memory session.
// The background sweep uses this to avoid touching live rooms.
func (st *Store) LiveRoomIDs() []uint {
	st.mu.Lock()
	defer st.mu.Unlock()
	ids := make([]uint, 0, len(st.sessions))
	for id := range st.sessions {
		ids = append(ids, id)
	}
	return ids
}

func (st *Store) remove(roomID uint) {
	st.mu.Lock()
	delete(st.sessions, roomID)
	st.mu.Unlock()
}

// HandleMessage implements hub.ConnHandler. Frames for rooms with no
// live session are dropped; a session always exists while any socket
// of that room is registered.
func (st *Store) HandleMessage(roomID, userID uint, raw []byte) {
	s := st.Get(roomID)
	if s == nil {
		logrus.WithFields(logrus.Fields{"room_id": roomID, "user_id": userID}).
			Warn("Message for room without live session dropped")
		return
	}
	s.Message(userID, raw)
}

// HandleDisconnect implements hub.ConnHandler.
func (st *Store) HandleDisconnect(roomID, userID uint) {
	s := st.Get(roomID)
	if s == nil {
		return
	}
	s.Disconnect(userID)
}
