package game

import (
	"sync"
	"time"
)

// TimerClass distinguishes the scheduled work a room can have pending.
type TimerClass string

// Timer classes. At most one timer of each class exists per room.
const (
	TimerGameEnd TimerClass = "game-end"
	TimerFlush   TimerClass = "flush"
	TimerCleanup TimerClass = "cleanup"
)

type timerKey struct {
	roomID uint
	class  TimerClass
}

type timerHandle struct {
	done chan struct{}
}

// TimerManager owns all per-room timers. Arming a (room, class) pair
// always cancels the prior timer of that pair first, so re-arm
// semantics live here and nowhere else. Callbacks run on their own
// goroutine; they are expected to post an event into the room's
// session mailbox rather than touch state directly.
type TimerManager struct {
	mu     sync.Mutex
	timers map[timerKey]*timerHandle
}

// NewTimerManager creates an empty TimerManager.
func NewTimerManager() *TimerManager {
	return &TimerManager{timers: make(map[timerKey]*timerHandle)}
}

// Arm schedules fn to run once after delay, replacing any pending
// timer of the same class for the room.
func (m *TimerManager) Arm(roomID uint, class TimerClass, delay time.Duration, fn func()) {
	key := timerKey{roomID: roomID, class: class}
	h := &timerHandle{done: make(chan struct{})}

	m.mu.Lock()
	if old, ok := m.timers[key]; ok {
		close(old.done)
	}
	m.timers[key] = h
	m.mu.Unlock()

	t := time.NewTimer(delay)
	go func() {
		defer t.Stop()
		select {
		case <-t.C:
			if m.retire(key, h) {
				fn()
			}
		case <-h.done:
		}
	}()
}

// ArmPeriodic schedules fn on every tick of interval until the class
// is canceled, replacing any pending timer of the same class.
func (m *TimerManager) ArmPeriodic(roomID uint, class TimerClass, interval time.Duration, fn func()) {
	key := timerKey{roomID: roomID, class: class}
	h := &timerHandle{done: make(chan struct{})}

	m.mu.Lock()
	if old, ok := m.timers[key]; ok {
		close(old.done)
	}
	m.timers[key] = h
	m.mu.Unlock()

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if !m.current(key, h) {
					return
				}
				fn()
			case <-h.done:
				return
			}
		}
	}()
}

// Cancel stops the pending timer of the given class, if any.
func (m *TimerManager) Cancel(roomID uint, class TimerClass) {
	key := timerKey{roomID: roomID, class: class}
	m.mu.Lock()
	h, ok := m.timers[key]
	if ok {
		delete(m.timers, key)
	}
	m.mu.Unlock()
	if ok {
		close(h.done)
	}
}

// CancelAll stops every pending timer of a room. Called at teardown.
func (m *TimerManager) CancelAll(roomID uint) {
	m.mu.Lock()
	var stale []*timerHandle
	for key, h := range m.timers {
		if key.roomID == roomID {
			stale = append(stale, h)
			delete(m.timers, key)
		}
	}
	m.mu.Unlock()
	for _, h := range stale {
		close(h.done)
	}
}

// retire removes the handle if it is still the registered one. A false
// return means the timer was canceled or replaced after firing and its
// callback must not run.
func (m *TimerManager) retire(key timerKey, h *timerHandle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.timers[key] != h {
		return false
	}
	delete(m.timers, key)
	return true
}

func (m *TimerManager) current(key timerKey, h *timerHandle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timers[key] == h
}
