// Package game holds the authoritative in-memory state of a live room
// and the rules that advance it. Transitions mutate the state and
// return the messages to send plus an Effects value describing timer
// and persistence work; they never touch sockets, clocks beyond
// time.Now, or storage, which keeps every rule testable in isolation.
package game

import (
	"math/rand"
	"sort"
	"time"

	"color-clash/internal/domain"
	"color-clash/internal/protocol"
)

// ModeColorClash is the only game mode this engine runs.
const ModeColorClash = "color-clash"

// LastPlayerBonus is added to the sole remaining connected player's
// score when everyone else disconnects mid-game.
const LastPlayerBonus = 500

// DefaultBrushRadius is used when a draw message carries no usable size.
const DefaultBrushRadius = 5

// Scope selects the audience of an outbound message.
type Scope int

const (
	// ScopeRoom delivers to every connected socket in the room.
	ScopeRoom Scope = iota
	// ScopeExceptUser delivers to the room minus one user.
	ScopeExceptUser
	// ScopeUser delivers to a single user.
	ScopeUser
)

// Outbound is one message produced by a transition, with its audience.
type Outbound struct {
	Scope  Scope
	UserID uint
	Msg    any
}

// Effects describes the side work a transition requires. The session
// loop executes it after dispatching the outbound messages.
type Effects struct {
	ArmGameEnd  time.Duration // >0: (re-)arm the game-end timer
	StartFlush  bool          // arm the periodic checkpoint timer
	StopFlush   bool          // cancel the periodic checkpoint timer
	ArmCleanup  bool          // (re-)arm the cleanup cooldown timer
	FlushAsync  bool          // fire-and-forget checkpoint
	FlushSync   bool          // blocking checkpoint (game end)
	Teardown    bool          // room confirmed dead: purge and forget
	CloseUserID uint          // >0: close this user's socket
}

func (e Effects) merge(other Effects) Effects {
	if other.ArmGameEnd > 0 {
		e.ArmGameEnd = other.ArmGameEnd
	}
	e.StartFlush = e.StartFlush || other.StartFlush
	e.StopFlush = e.StopFlush || other.StopFlush
	e.ArmCleanup = e.ArmCleanup || other.ArmCleanup
	e.FlushAsync = e.FlushAsync || other.FlushAsync
	e.FlushSync = e.FlushSync || other.FlushSync
	e.Teardown = e.Teardown || other.Teardown
	if other.CloseUserID != 0 {
		e.CloseUserID = other.CloseUserID
	}
	return e
}

// PlayerState is the in-memory mirror of a room member.
type PlayerState struct {
	UserID     uint
	Username   string
	Color      RGB
	Score      int
	Connected  bool
	JoinedAt   time.Time
	LastActive time.Time
	X, Y       int
}

// State is the authoritative per-room game state. It is owned by the
// room's session loop and must only be mutated there.
type State struct {
	Room          domain.Room
	Mode          string
	IsActive      bool
	GameStartTime int64 // epoch millis, 0 until first start
	GameEndTime   int64
	Players       []*PlayerState // ordered by join
	Canvas        *Canvas
	Winner        *uint
}

// NewState builds a State from durable rows. Hydrated rooms always
// come up waiting with everyone disconnected: the in-memory authority
// that could say otherwise is gone.
func NewState(room domain.Room, players []domain.Player) *State {
	if room.Status == domain.RoomStatusPlaying {
		room.Status = domain.RoomStatusWaiting
	}
	s := &State{
		Room:   room,
		Mode:   ModeColorClash,
		Canvas: NewCanvas(room.CanvasWidth, room.CanvasHeight),
	}
	for i, p := range players {
		color := ParseRGB(p.Color)
		if p.Color == "" {
			color = PaletteColor(i)
		}
		s.Players = append(s.Players, &PlayerState{
			UserID:     p.UserID,
			Username:   p.Username,
			Color:      color,
			Score:      p.Score,
			JoinedAt:   p.JoinedAt,
			LastActive: p.LastActive,
			X:          s.Canvas.Width() / 2,
			Y:          s.Canvas.Height() / 2,
		})
	}
	return s
}

func (s *State) player(userID uint) *PlayerState {
	for _, p := range s.Players {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

// ConnectedCount returns the number of currently connected players.
func (s *State) ConnectedCount() int {
	n := 0
	for _, p := range s.Players {
		if p.Connected {
			n++
		}
	}
	return n
}

// HandleJoin adds a new player, or re-marks a returning one connected.
// A full room turns a first-time joiner away with an error and a
// socket close; returning members always get back in.
func (s *State) HandleJoin(userID uint, username string) ([]Outbound, Effects) {
	now := time.Now()
	p := s.player(userID)
	if p == nil && s.Room.MaxPlayers > 0 && len(s.Players) >= s.Room.MaxPlayers {
		out := []Outbound{{Scope: ScopeUser, UserID: userID, Msg: protocol.NewError("room is full")}}
		return out, Effects{CloseUserID: userID}
	}
	wasConnected := p != nil && p.Connected
	if p == nil {
		p = &PlayerState{
			UserID:     userID,
			Username:   username,
			Color:      PaletteColor(len(s.Players)),
			Connected:  true,
			JoinedAt:   now,
			LastActive: now,
			X:          s.Canvas.Width() / 2,
			Y:          s.Canvas.Height() / 2,
		}
		s.Players = append(s.Players, p)
	} else {
		p.Username = username
		p.Connected = true
		p.LastActive = now
	}
	if s.Room.OwnerID == 0 {
		s.Room.OwnerID = userID
	}
	s.Room.LastActive = now

	out := []Outbound{
		{Scope: ScopeUser, UserID: userID, Msg: protocol.NewRoomJoined(s.roomInfo(), s.playerInfos())},
	}
	// An evicted-and-replaced socket never left, so the room gets no
	// second join notice for it.
	if !wasConnected {
		out = append(out, Outbound{Scope: ScopeExceptUser, UserID: userID, Msg: protocol.NewPlayerJoined(playerInfo(p))})
	}
	return out, Effects{FlushAsync: true}
}

// HandleStart runs the waiting→active transition. Only the owner may
// start, at least two players must be connected, and starting an
// already active game is a no-op. Starting from an ended game is the
// restart path: scores zero out and a fresh canvas is dealt.
func (s *State) HandleStart(userID uint) ([]Outbound, Effects) {
	if s.IsActive {
		return nil, Effects{}
	}
	if userID != s.Room.OwnerID {
		return nil, Effects{}
	}
	if s.ConnectedCount() < 2 {
		return nil, Effects{}
	}

	now := time.Now()
	for _, p := range s.Players {
		p.Score = 0
		p.Connected = true
		p.X = s.Canvas.Width() / 2
		p.Y = s.Canvas.Height() / 2
	}
	s.Canvas.Reset()
	s.Winner = nil
	s.Room.WinnerID = 0
	s.IsActive = true
	s.GameStartTime = now.UnixMilli()
	s.GameEndTime = 0
	s.Room.Status = domain.RoomStatusPlaying
	s.Room.LastActive = now

	out := []Outbound{{Scope: ScopeRoom, Msg: protocol.NewGameStarted(s.Info())}}
	fx := Effects{
		ArmGameEnd: time.Duration(s.Room.GameTimeLimit) * time.Second,
		StartFlush: true,
		FlushAsync: true,
	}
	return out, fx
}

// HandleDraw applies one brush stroke from a connected player. Strokes
// outside an active game are silently ignored.
func (s *State) HandleDraw(userID uint, data protocol.DrawData) ([]Outbound, Effects) {
	if !s.IsActive {
		return nil, Effects{}
	}
	p := s.player(userID)
	if p == nil || !p.Connected {
		return nil, Effects{}
	}
	now := time.Now()
	p.X, p.Y = data.X, data.Y
	p.LastActive = now
	s.Room.LastActive = now

	radius := data.Size
	if radius <= 0 {
		radius = DefaultBrushRadius
	}
	s.Canvas.Paint(data.X, data.Y, radius, ParseRGB(data.Color))
	s.rescore()

	out := []Outbound{
		{Scope: ScopeExceptUser, UserID: userID, Msg: protocol.NewDrawUpdate(data, userID)},
		{Scope: ScopeRoom, Msg: protocol.NewScoreUpdate(s.scoreEntries())},
	}
	return out, Effects{}
}

// rescore recomputes every player's score from the canvas. This is the
// only code path that assigns scores during an active game, apart from
// the last-player bonus.
func (s *State) rescore() {
	for _, p := range s.Players {
		p.Score = s.Canvas.CountMatching(p.Color)
	}
}

// HandleChat relays a chat line to the whole room.
func (s *State) HandleChat(userID uint, message, id string) ([]Outbound, Effects) {
	p := s.player(userID)
	if p == nil || message == "" {
		return nil, Effects{}
	}
	p.LastActive = time.Now()
	out := []Outbound{{Scope: ScopeRoom, Msg: protocol.NewChatBroadcast(p.Username, message, id)}}
	return out, Effects{}
}

// HandlePing answers the sender only.
func (s *State) HandlePing(userID uint) ([]Outbound, Effects) {
	return []Outbound{{Scope: ScopeUser, UserID: userID, Msg: protocol.NewPong()}}, Effects{}
}

// HandleTimeout runs the active→ended transition with the highest
// scorer as winner. Guarded so a late timer callback after
// last-player-standing already ended the game is a no-op.
func (s *State) HandleTimeout(reason string) ([]Outbound, Effects) {
	if !s.IsActive {
		return nil, Effects{}
	}
	return s.endGame(s.computeWinner(), reason)
}

// endGame records the given winner and closes out the game. Callers
// that must force a winner, last-player-standing above all, pass it in
// directly; scores play no part here.
func (s *State) endGame(winner *PlayerState, reason string) ([]Outbound, Effects) {
	now := time.Now()
	s.IsActive = false
	s.GameEndTime = now.UnixMilli()
	s.Room.Status = domain.RoomStatusFinished
	s.Room.LastActive = now
	if winner != nil {
		id := winner.UserID
		s.Winner = &id
		s.Room.WinnerID = id
	}

	var winnerInfo *protocol.PlayerInfo
	if winner != nil {
		info := playerInfo(winner)
		winnerInfo = &info
	}
	out := []Outbound{{
		Scope: ScopeRoom,
		Msg:   protocol.NewGameEnded(winnerInfo, s.finalScores(), reason),
	}}
	fx := Effects{StopFlush: true, FlushSync: true, ArmCleanup: true}
	return out, fx
}

// computeWinner picks the highest score; the first player in roster
// order wins ties, so an all-zero game still ends deterministically.
func (s *State) computeWinner() *PlayerState {
	var best *PlayerState
	for _, p := range s.Players {
		if best == nil || p.Score > best.Score {
			best = p
		}
	}
	return best
}

// HandleDisconnect marks a player gone and resolves owner migration,
// last-player-standing, and cleanup arming.
func (s *State) HandleDisconnect(userID uint) ([]Outbound, Effects) {
	p := s.player(userID)
	if p == nil || !p.Connected {
		return nil, Effects{}
	}
	now := time.Now()
	p.Connected = false
	p.LastActive = now
	s.Room.LastActive = now

	out := []Outbound{{Scope: ScopeRoom, Msg: protocol.NewPlayerLeft(userID)}}
	fx := Effects{}

	if s.Room.OwnerID == userID {
		if newOwner := s.electOwner(); newOwner != nil {
			s.Room.OwnerID = newOwner.UserID
			out = append(out, Outbound{
				Scope: ScopeRoom,
				Msg:   protocol.NewOwnerChanged(newOwner.UserID, newOwner.Username),
			})
		}
	}

	switch remaining := s.ConnectedCount(); {
	case s.IsActive && remaining == 1:
		var survivor *PlayerState
		for _, q := range s.Players {
			if q.Connected {
				survivor = q
				break
			}
		}
		survivor.Score += LastPlayerBonus
		// The sole survivor wins outright, even against a higher-scoring
		// leaver.
		endOut, endFx := s.endGame(survivor, "last player standing")
		out = append(out, endOut...)
		fx = fx.merge(endFx)
	case remaining == 0:
		fx.ArmCleanup = true
		fx.FlushAsync = true
		if s.IsActive {
			// Nobody left to play; end the abandoned game too.
			endOut, endFx := s.HandleTimeout("room abandoned")
			out = append(out, endOut...)
			fx = fx.merge(endFx)
		}
	default:
		fx.FlushAsync = true
	}
	return out, fx
}

// electOwner picks a new owner uniformly at random among connected
// players. Returns nil when nobody is connected.
func (s *State) electOwner() *PlayerState {
	var candidates []*PlayerState
	for _, p := range s.Players {
		if p.Connected {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	return candidates[rand.Intn(len(candidates))]
}

// HandleLeave is an explicit leave: a disconnect plus a socket close.
func (s *State) HandleLeave(userID uint) ([]Outbound, Effects) {
	out, fx := s.HandleDisconnect(userID)
	fx.CloseUserID = userID
	return out, fx
}

// HandleCleanup fires when the cleanup cooldown elapses. The room is
// torn down only if still fully disconnected; any reconnect in the
// meantime keeps it alive.
func (s *State) HandleCleanup() ([]Outbound, Effects) {
	if s.ConnectedCount() > 0 {
		return nil, Effects{}
	}
	return nil, Effects{Teardown: true, StopFlush: true}
}

// Checkpoint is the flat snapshot handed to the persistence layer. It
// is a value copy: the flush goroutine must never share memory with
// the live state.
type Checkpoint struct {
	Room    domain.Room
	Players []domain.Player
}

// Checkpoint captures the current durable view of the room.
func (s *State) Checkpoint() Checkpoint {
	cp := Checkpoint{Room: s.Room}
	for _, p := range s.Players {
		cp.Players = append(cp.Players, domain.Player{
			RoomID:     s.Room.ID,
			UserID:     p.UserID,
			Username:   p.Username,
			Color:      p.Color.String(),
			Score:      p.Score,
			JoinedAt:   p.JoinedAt,
			LastActive: p.LastActive,
		})
	}
	return cp
}

// ScoreSnapshot returns a detached copy of the current scores keyed by
// user id. The periodic checkpoint sends this instead of full rows:
// membership rows were already written when each player joined.
func (s *State) ScoreSnapshot() map[uint]int {
	scores := make(map[uint]int, len(s.Players))
	for _, p := range s.Players {
		scores[p.UserID] = p.Score
	}
	return scores
}

// Info renders the client-visible snapshot of the game.
func (s *State) Info() protocol.GameStateInfo {
	return protocol.GameStateInfo{
		Mode:          s.Mode,
		IsActive:      s.IsActive,
		GameStartTime: s.GameStartTime,
		GameEndTime:   s.GameEndTime,
		GameTimeLimit: s.Room.GameTimeLimit,
		Players:       s.playerInfos(),
		Winner:        s.Winner,
		Room:          s.roomInfo(),
	}
}

func (s *State) roomInfo() protocol.RoomInfo {
	return protocol.RoomInfo{
		ID:            s.Room.ID,
		Name:          s.Room.Name,
		OwnerID:       s.Room.OwnerID,
		MaxPlayers:    s.Room.MaxPlayers,
		CanvasWidth:   s.Canvas.Width(),
		CanvasHeight:  s.Canvas.Height(),
		GameTimeLimit: s.Room.GameTimeLimit,
		Private:       s.Room.Private,
		Status:        s.Room.Status,
	}
}

func (s *State) playerInfos() []protocol.PlayerInfo {
	infos := make([]protocol.PlayerInfo, 0, len(s.Players))
	for _, p := range s.Players {
		infos = append(infos, playerInfo(p))
	}
	return infos
}

func playerInfo(p *PlayerState) protocol.PlayerInfo {
	return protocol.PlayerInfo{
		UserID:    p.UserID,
		Username:  p.Username,
		Color:     p.Color.String(),
		Score:     p.Score,
		Connected: p.Connected,
		X:         p.X,
		Y:         p.Y,
	}
}

func (s *State) scoreEntries() []protocol.ScoreEntry {
	entries := make([]protocol.ScoreEntry, 0, len(s.Players))
	for _, p := range s.Players {
		entries = append(entries, protocol.ScoreEntry{UserID: p.UserID, Score: p.Score})
	}
	return entries
}

// finalScores returns score entries sorted descending, roster order
// breaking ties.
func (s *State) finalScores() []protocol.ScoreEntry {
	entries := s.scoreEntries()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	return entries
}
