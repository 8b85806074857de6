package game_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"color-clash/internal/domain"
	"color-clash/internal/game"
	"color-clash/internal/protocol"
)

func testRoom() domain.Room {
	return domain.Room{
		ID:            1,
		Name:          "arena",
		OwnerID:       0,
		MaxPlayers:    8,
		CanvasWidth:   100,
		CanvasHeight:  100,
		GameTimeLimit: 120,
		Status:        domain.RoomStatusWaiting,
	}
}

// joinedState builds a room with n connected players; player 1 joined
// first and owns the room.
func joinedState(t *testing.T, n int) *game.State {
	t.Helper()
	s := game.NewState(testRoom(), nil)
	for i := 1; i <= n; i++ {
		out, _ := s.HandleJoin(uint(i), usernameOf(uint(i)))
		require.NotEmpty(t, out)
	}
	return s
}

func usernameOf(id uint) string {
	return fmt.Sprintf("player%d", id)
}

// findMsg returns the first outbound message of type M, or the zero
// value with ok=false.
func findMsg[M any](out []game.Outbound) (M, bool) {
	for _, o := range out {
		if m, ok := o.Msg.(M); ok {
			return m, true
		}
	}
	var zero M
	return zero, false
}

func startGame(t *testing.T, s *game.State) {
	t.Helper()
	out, fx := s.HandleStart(s.Room.OwnerID)
	require.True(t, s.IsActive)
	_, ok := findMsg[protocol.GameStarted](out)
	require.True(t, ok)
	require.Greater(t, fx.ArmGameEnd, time.Duration(0))
}

func TestHandleJoin_FirstJoinerOwnsRoom(t *testing.T) {
	s := game.NewState(testRoom(), nil)

	out, fx := s.HandleJoin(7, "alice")
	assert.Equal(t, uint(7), s.Room.OwnerID)
	assert.True(t, fx.FlushAsync)

	joined, ok := findMsg[protocol.RoomJoined](out)
	require.True(t, ok)
	assert.Len(t, joined.Players, 1)
	assert.Equal(t, "alice", joined.Players[0].Username)

	// The join notice goes to everyone else, not back to the joiner.
	var notice *game.Outbound
	for i := range out {
		if _, ok := out[i].Msg.(protocol.PlayerJoined); ok {
			notice = &out[i]
		}
	}
	require.NotNil(t, notice)
	assert.Equal(t, game.ScopeExceptUser, notice.Scope)
	assert.Equal(t, uint(7), notice.UserID)
}

func TestHandleJoin_ReturningPlayerKeepsScoreAndColor(t *testing.T) {
	s := joinedState(t, 2)
	startGame(t, s)

	colorBefore := s.Players[1].Color
	s.Players[1].Score = 42

	_, fx := s.HandleDisconnect(2)
	assert.False(t, s.Players[1].Connected)
	assert.True(t, fx.FlushAsync)

	out, _ := s.HandleJoin(2, "player2")
	assert.True(t, s.Players[1].Connected)
	assert.Equal(t, 42, s.Players[1].Score)
	assert.Equal(t, colorBefore, s.Players[1].Color)
	assert.Len(t, s.Players, 2, "rejoin must not duplicate the roster entry")

	_, ok := findMsg[protocol.RoomJoined](out)
	assert.True(t, ok)
}

func TestHandleJoin_SocketReplacementSkipsJoinNotice(t *testing.T) {
	s := joinedState(t, 2)

	// Player 2 opens a second socket without ever disconnecting; the
	// room must not hear a duplicate join.
	out, _ := s.HandleJoin(2, "player2")
	_, joined := findMsg[protocol.PlayerJoined](out)
	assert.False(t, joined)
	_, view := findMsg[protocol.RoomJoined](out)
	assert.True(t, view, "the reconnecting socket still gets the room view")
}

func TestHandleJoin_FullRoomRejectsNewcomer(t *testing.T) {
	room := testRoom()
	room.MaxPlayers = 2
	s := game.NewState(room, nil)
	s.HandleJoin(1, "p1")
	s.HandleJoin(2, "p2")

	out, fx := s.HandleJoin(3, "p3")
	assert.Len(t, s.Players, 2)
	assert.Equal(t, uint(3), fx.CloseUserID)

	errMsg, ok := findMsg[protocol.ErrorMessage](out)
	require.True(t, ok)
	assert.Equal(t, "room is full", errMsg.Message)
}

func TestHandleJoin_FullRoomStillAdmitsReturningMember(t *testing.T) {
	room := testRoom()
	room.MaxPlayers = 2
	s := game.NewState(room, nil)
	s.HandleJoin(1, "p1")
	s.HandleJoin(2, "p2")
	s.HandleDisconnect(2)

	_, fx := s.HandleJoin(2, "p2")
	assert.Zero(t, fx.CloseUserID)
	assert.True(t, s.Players[1].Connected)
}

func TestHandleStart_RequiresOwner(t *testing.T) {
	s := joinedState(t, 2)

	out, fx := s.HandleStart(2)
	assert.False(t, s.IsActive)
	assert.Empty(t, out)
	assert.Equal(t, game.Effects{}, fx)
}

func TestHandleStart_RequiresTwoConnected(t *testing.T) {
	s := joinedState(t, 1)

	out, _ := s.HandleStart(1)
	assert.False(t, s.IsActive)
	assert.Empty(t, out)
}

func TestHandleStart_ActiveGameIsNoop(t *testing.T) {
	s := joinedState(t, 2)
	startGame(t, s)
	started := s.GameStartTime

	out, fx := s.HandleStart(s.Room.OwnerID)
	assert.Empty(t, out)
	assert.Equal(t, game.Effects{}, fx)
	assert.Equal(t, started, s.GameStartTime)
}

func TestHandleStart_ArmsTimersAndAnnounces(t *testing.T) {
	s := joinedState(t, 3)

	out, fx := s.HandleStart(1)
	require.True(t, s.IsActive)
	assert.Equal(t, domain.RoomStatusPlaying, s.Room.Status)
	assert.Equal(t, 120*time.Second, fx.ArmGameEnd)
	assert.True(t, fx.StartFlush)
	assert.True(t, fx.FlushAsync)

	started, ok := findMsg[protocol.GameStarted](out)
	require.True(t, ok)
	assert.True(t, started.GameState.IsActive)
	assert.Len(t, started.GameState.Players, 3)
	assert.Nil(t, started.GameState.Winner)
}

func TestHandleStart_RestartZeroesScoresAndCanvas(t *testing.T) {
	s := joinedState(t, 2)
	startGame(t, s)
	s.HandleDraw(1, protocol.DrawData{X: 50, Y: 50, Color: s.Players[0].Color.String(), Size: 5})
	require.Greater(t, s.Players[0].Score, 0)
	s.HandleTimeout("time limit reached")
	require.False(t, s.IsActive)
	require.NotNil(t, s.Winner)

	out, _ := s.HandleStart(1)
	require.True(t, s.IsActive)
	assert.Nil(t, s.Winner)
	assert.Zero(t, s.Room.WinnerID)
	assert.False(t, s.Canvas.Allocated())
	for _, p := range s.Players {
		assert.Zero(t, p.Score)
	}
	started, ok := findMsg[protocol.GameStarted](out)
	require.True(t, ok)
	assert.Zero(t, started.GameState.GameEndTime)
}

func TestHandleDraw_ScoresPainterAndSkipsEcho(t *testing.T) {
	s := joinedState(t, 2)
	startGame(t, s)

	data := protocol.DrawData{X: 50, Y: 50, Color: s.Players[0].Color.String(), Size: 5}
	out, _ := s.HandleDraw(1, data)

	assert.Greater(t, s.Players[0].Score, 0)
	assert.Zero(t, s.Players[1].Score)

	var draw *game.Outbound
	for i := range out {
		if _, ok := out[i].Msg.(protocol.DrawUpdate); ok {
			draw = &out[i]
		}
	}
	require.NotNil(t, draw)
	assert.Equal(t, game.ScopeExceptUser, draw.Scope)
	assert.Equal(t, uint(1), draw.UserID)

	scores, ok := findMsg[protocol.ScoreUpdate](out)
	require.True(t, ok)
	assert.Len(t, scores.Scores, 2)
}

func TestHandleDraw_OverpaintStealsPixels(t *testing.T) {
	s := joinedState(t, 2)
	startGame(t, s)

	s.HandleDraw(1, protocol.DrawData{X: 50, Y: 50, Color: s.Players[0].Color.String(), Size: 5})
	first := s.Players[0].Score
	require.Greater(t, first, 0)

	s.HandleDraw(2, protocol.DrawData{X: 50, Y: 50, Color: s.Players[1].Color.String(), Size: 5})
	assert.Zero(t, s.Players[0].Score)
	assert.Equal(t, first, s.Players[1].Score)
}

func TestHandleDraw_IgnoredOutsideActiveGame(t *testing.T) {
	s := joinedState(t, 2)

	out, fx := s.HandleDraw(1, protocol.DrawData{X: 10, Y: 10, Color: "rgb(200, 30, 30)", Size: 5})
	assert.Empty(t, out)
	assert.Equal(t, game.Effects{}, fx)
	assert.False(t, s.Canvas.Allocated())
}

func TestHandleDraw_MalformedColorPaintsNeutral(t *testing.T) {
	s := joinedState(t, 2)
	startGame(t, s)

	s.HandleDraw(1, protocol.DrawData{X: 50, Y: 50, Color: "chartreuse", Size: 5})
	// Neutral gray belongs to nobody on the palette.
	assert.Zero(t, s.Players[0].Score)
	assert.Zero(t, s.Players[1].Score)
	assert.Greater(t, s.Canvas.CountMatching(game.DefaultColor), 0)
}

func TestHandleDraw_ZeroSizeUsesDefaultRadius(t *testing.T) {
	s := joinedState(t, 2)
	startGame(t, s)

	s.HandleDraw(1, protocol.DrawData{X: 50, Y: 50, Color: s.Players[0].Color.String(), Size: 0})
	assert.Greater(t, s.Players[0].Score, 0)
}

func TestHandleTimeout_DeclaresHighestScorer(t *testing.T) {
	s := joinedState(t, 3)
	startGame(t, s)
	s.Players[0].Score = 10
	s.Players[1].Score = 90
	s.Players[2].Score = 40

	out, fx := s.HandleTimeout("time limit reached")
	require.False(t, s.IsActive)
	assert.Equal(t, domain.RoomStatusFinished, s.Room.Status)
	assert.Equal(t, uint(2), s.Room.WinnerID)
	assert.True(t, fx.StopFlush)
	assert.True(t, fx.FlushSync)
	assert.True(t, fx.ArmCleanup)

	ended, ok := findMsg[protocol.GameEnded](out)
	require.True(t, ok)
	require.NotNil(t, ended.Winner)
	assert.Equal(t, uint(2), ended.Winner.UserID)
	assert.Equal(t, "time limit reached", ended.Reason)

	require.Len(t, ended.FinalScores, 3)
	assert.Equal(t, []protocol.ScoreEntry{
		{UserID: 2, Score: 90},
		{UserID: 3, Score: 40},
		{UserID: 1, Score: 10},
	}, ended.FinalScores)
}

func TestHandleTimeout_AllZeroTieGoesToFirstJoiner(t *testing.T) {
	s := joinedState(t, 3)
	startGame(t, s)

	out, _ := s.HandleTimeout("time limit reached")
	ended, ok := findMsg[protocol.GameEnded](out)
	require.True(t, ok)
	require.NotNil(t, ended.Winner)
	assert.Equal(t, uint(1), ended.Winner.UserID)
}

func TestHandleTimeout_AfterEndIsNoop(t *testing.T) {
	s := joinedState(t, 2)
	startGame(t, s)
	s.HandleTimeout("time limit reached")

	out, fx := s.HandleTimeout("time limit reached")
	assert.Empty(t, out)
	assert.Equal(t, game.Effects{}, fx)
}

func TestHandleDisconnect_LastPlayerStandingWinsWithBonus(t *testing.T) {
	s := joinedState(t, 2)
	startGame(t, s)
	s.Players[0].Score = 10
	s.Players[1].Score = 5

	out, fx := s.HandleDisconnect(2)

	require.False(t, s.IsActive, "game must end immediately")
	assert.Equal(t, 10+game.LastPlayerBonus, s.Players[0].Score)
	assert.True(t, fx.FlushSync)
	assert.True(t, fx.ArmCleanup)

	ended, ok := findMsg[protocol.GameEnded](out)
	require.True(t, ok)
	require.NotNil(t, ended.Winner)
	assert.Equal(t, uint(1), ended.Winner.UserID)
	assert.Equal(t, "last player standing", ended.Reason)

	left, ok := findMsg[protocol.PlayerLeft](out)
	require.True(t, ok)
	assert.Equal(t, uint(2), left.UserID)
}

func TestHandleDisconnect_SurvivorBeatsHigherScoringLeaver(t *testing.T) {
	s := joinedState(t, 2)
	startGame(t, s)
	s.Players[0].Score = 100
	s.Players[1].Score = 700

	// The scoreboard leader walks out. The survivor wins by being the
	// only one left, not by score: 100+500 still trails 700.
	out, _ := s.HandleDisconnect(2)
	ended, ok := findMsg[protocol.GameEnded](out)
	require.True(t, ok)
	require.NotNil(t, ended.Winner)
	assert.Equal(t, uint(1), ended.Winner.UserID)
	assert.Equal(t, uint(1), s.Room.WinnerID)
	assert.Equal(t, 100+game.LastPlayerBonus, s.Players[0].Score)

	// The leaver's higher score still tops the final standings.
	require.NotEmpty(t, ended.FinalScores)
	assert.Equal(t, protocol.ScoreEntry{UserID: 2, Score: 700}, ended.FinalScores[0])
}

func TestHandleDisconnect_OwnerMigratesToConnectedPlayer(t *testing.T) {
	s := joinedState(t, 3)

	out, _ := s.HandleDisconnect(1)
	assert.NotEqual(t, uint(1), s.Room.OwnerID)

	changed, ok := findMsg[protocol.OwnerChanged](out)
	require.True(t, ok)
	assert.Equal(t, s.Room.OwnerID, changed.NewOwnerID)

	// The new owner is one of the still-connected players.
	owner := map[uint]bool{2: true, 3: true}
	assert.True(t, owner[changed.NewOwnerID])
}

func TestHandleDisconnect_NonOwnerLeavingKeepsOwner(t *testing.T) {
	s := joinedState(t, 3)

	out, _ := s.HandleDisconnect(3)
	assert.Equal(t, uint(1), s.Room.OwnerID)
	_, ok := findMsg[protocol.OwnerChanged](out)
	assert.False(t, ok)
}

func TestHandleDisconnect_LastConnectionArmsCleanup(t *testing.T) {
	s := joinedState(t, 2)

	_, fx := s.HandleDisconnect(2)
	assert.False(t, fx.ArmCleanup)

	_, fx = s.HandleDisconnect(1)
	assert.True(t, fx.ArmCleanup)
	assert.True(t, fx.FlushAsync)
	assert.Zero(t, s.ConnectedCount())
}

func TestHandleDisconnect_UnknownOrAlreadyGoneIsNoop(t *testing.T) {
	s := joinedState(t, 2)
	s.HandleDisconnect(2)

	out, fx := s.HandleDisconnect(2)
	assert.Empty(t, out)
	assert.Equal(t, game.Effects{}, fx)

	out, fx = s.HandleDisconnect(99)
	assert.Empty(t, out)
	assert.Equal(t, game.Effects{}, fx)
}

func TestHandleLeave_ClosesSocket(t *testing.T) {
	s := joinedState(t, 3)

	out, fx := s.HandleLeave(2)
	assert.Equal(t, uint(2), fx.CloseUserID)
	left, ok := findMsg[protocol.PlayerLeft](out)
	require.True(t, ok)
	assert.Equal(t, uint(2), left.UserID)
}

func TestHandleCleanup_TearsDownOnlyWhenStillEmpty(t *testing.T) {
	s := joinedState(t, 2)
	s.HandleDisconnect(1)
	s.HandleDisconnect(2)

	_, fx := s.HandleCleanup()
	assert.True(t, fx.Teardown)

	// A reconnect in the cooldown window keeps the room alive.
	s2 := joinedState(t, 2)
	s2.HandleDisconnect(1)
	s2.HandleDisconnect(2)
	s2.HandleJoin(1, "player1")
	_, fx = s2.HandleCleanup()
	assert.False(t, fx.Teardown)
}

func TestHandleChat_RelaysToRoom(t *testing.T) {
	s := joinedState(t, 2)

	out, _ := s.HandleChat(2, "nice shot", "m-17")
	chat, ok := findMsg[protocol.ChatBroadcast](out)
	require.True(t, ok)
	assert.Equal(t, "player2", chat.Username)
	assert.Equal(t, "nice shot", chat.Message)
	assert.Equal(t, "m-17", chat.ID)

	out, _ = s.HandleChat(99, "ghost", "")
	assert.Empty(t, out)
}

func TestHandlePing_AnswersSenderOnly(t *testing.T) {
	s := joinedState(t, 2)

	out, _ := s.HandlePing(1)
	require.Len(t, out, 1)
	assert.Equal(t, game.ScopeUser, out[0].Scope)
	assert.Equal(t, uint(1), out[0].UserID)
	_, ok := out[0].Msg.(protocol.Pong)
	assert.True(t, ok)
}

func TestNewState_HydratedRoomComesUpWaiting(t *testing.T) {
	room := testRoom()
	room.Status = domain.RoomStatusPlaying
	players := []domain.Player{
		{RoomID: 1, UserID: 1, Username: "alice", Color: "rgb(231, 76, 60)", Score: 12},
		{RoomID: 1, UserID: 2, Username: "bob", Color: "rgb(52, 152, 219)", Score: 30},
	}

	s := game.NewState(room, players)
	assert.Equal(t, domain.RoomStatusWaiting, s.Room.Status)
	assert.False(t, s.IsActive)
	require.Len(t, s.Players, 2)
	for _, p := range s.Players {
		assert.False(t, p.Connected)
	}
	assert.Equal(t, 30, s.Players[1].Score)
	assert.Equal(t, game.RGB{R: 52, G: 152, B: 219}, s.Players[1].Color)
}

func TestCheckpoint_IsDetachedCopy(t *testing.T) {
	s := joinedState(t, 2)
	startGame(t, s)
	s.Players[0].Score = 11

	cp := s.Checkpoint()
	require.Len(t, cp.Players, 2)
	assert.Equal(t, 11, cp.Players[0].Score)
	assert.Equal(t, s.Room.ID, cp.Players[0].RoomID)

	// Mutating the live state afterwards must not bleed into the copy.
	s.Players[0].Score = 99
	s.Room.Status = domain.RoomStatusFinished
	assert.Equal(t, 11, cp.Players[0].Score)
	assert.Equal(t, domain.RoomStatusPlaying, cp.Room.Status)
}

func TestCheckpoint_SeparatesJoinTimeFromActivity(t *testing.T) {
	s := joinedState(t, 1)
	joined := s.Players[0].JoinedAt
	require.False(t, joined.IsZero())
	later := joined.Add(3 * time.Minute)
	s.Players[0].LastActive = later

	cp := s.Checkpoint()
	require.Len(t, cp.Players, 1)
	assert.Equal(t, joined, cp.Players[0].JoinedAt)
	assert.Equal(t, later, cp.Players[0].LastActive)
}

func TestScoreSnapshot_IsDetachedCopy(t *testing.T) {
	s := joinedState(t, 2)
	s.Players[0].Score = 7
	s.Players[1].Score = 3

	snap := s.ScoreSnapshot()
	assert.Equal(t, map[uint]int{1: 7, 2: 3}, snap)

	s.Players[0].Score = 99
	assert.Equal(t, 7, snap[1])
}
