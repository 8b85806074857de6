package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"color-clash/internal/domain"
	"color-clash/internal/game"
	"color-clash/internal/repository"
	"color-clash/internal/repository/mocks"
	"color-clash/internal/service"
)

func TestSyncService_Hydrate_LoadsRoomAndPlayers(t *testing.T) {
	mockRoomRepo := new(mocks.RoomRepository)
	mockPlayerRepo := new(mocks.PlayerRepository)
	syncService := service.NewSyncService(mockRoomRepo, mockPlayerRepo, nil)
	ctx := context.Background()

	room := &domain.Room{ID: 1, Name: "arena", CanvasWidth: 100, CanvasHeight: 100, GameTimeLimit: 120, Status: domain.RoomStatusWaiting}
	players := []domain.Player{
		{RoomID: 1, UserID: 1, Username: "alice", Color: "rgb(231, 76, 60)", Score: 12},
	}
	mockRoomRepo.On("FindByID", ctx, uint(1)).Return(room, nil).Once()
	mockPlayerRepo.On("ListByRoom", ctx, uint(1)).Return(players, nil).Once()

	state, err := syncService.Hydrate(ctx, 1)

	require.NoError(t, err)
	require.Len(t, state.Players, 1)
	assert.Equal(t, 12, state.Players[0].Score)
	assert.False(t, state.IsActive)
	mockRoomRepo.AssertExpectations(t)
	mockPlayerRepo.AssertExpectations(t)
}

func TestSyncService_Hydrate_MissingRoomIsHardError(t *testing.T) {
	mockRoomRepo := new(mocks.RoomRepository)
	mockPlayerRepo := new(mocks.PlayerRepository)
	syncService := service.NewSyncService(mockRoomRepo, mockPlayerRepo, nil)
	ctx := context.Background()

	mockRoomRepo.On("FindByID", ctx, uint(42)).Return(nil, repository.ErrRoomNotFound).Once()

	_, err := syncService.Hydrate(ctx, 42)

	assert.True(t, errors.Is(err, service.ErrRoomNotFound))
	mockPlayerRepo.AssertNotCalled(t, "ListByRoom", mock.Anything, mock.Anything)
}

func TestSyncService_Flush_WritesRoomAndEveryPlayer(t *testing.T) {
	mockRoomRepo := new(mocks.RoomRepository)
	mockPlayerRepo := new(mocks.PlayerRepository)
	mockStateRepo := new(mocks.StateRepository)
	syncService := service.NewSyncService(mockRoomRepo, mockPlayerRepo, mockStateRepo)
	ctx := context.Background()

	cp := game.Checkpoint{
		Room: domain.Room{ID: 1, Status: domain.RoomStatusPlaying},
		Players: []domain.Player{
			{RoomID: 1, UserID: 1, Username: "alice", Score: 10},
			{RoomID: 1, UserID: 2, Username: "bob", Score: 20},
		},
	}
	mockRoomRepo.On("Save", ctx, mock.AnythingOfType("*domain.Room")).Return(nil).Once()
	mockPlayerRepo.On("Upsert", ctx, mock.AnythingOfType("*domain.Player")).Return(nil).Twice()
	mockStateRepo.On("MarkFlushed", ctx, uint(1), mock.AnythingOfType("time.Time")).Return(nil).Once()

	err := syncService.Flush(ctx, cp)

	assert.NoError(t, err)
	mockRoomRepo.AssertExpectations(t)
	mockPlayerRepo.AssertExpectations(t)
	mockStateRepo.AssertExpectations(t)
}

func TestSyncService_Flush_StampFailureIsNotFatal(t *testing.T) {
	mockRoomRepo := new(mocks.RoomRepository)
	mockPlayerRepo := new(mocks.PlayerRepository)
	mockStateRepo := new(mocks.StateRepository)
	syncService := service.NewSyncService(mockRoomRepo, mockPlayerRepo, mockStateRepo)
	ctx := context.Background()

	mockRoomRepo.On("Save", ctx, mock.AnythingOfType("*domain.Room")).Return(nil).Once()
	mockStateRepo.On("MarkFlushed", ctx, uint(1), mock.AnythingOfType("time.Time")).
		Return(errors.New("redis down")).
		Once()

	err := syncService.Flush(ctx, game.Checkpoint{Room: domain.Room{ID: 1}})

	assert.NoError(t, err, "flush stamp bookkeeping must not fail the checkpoint")
}

func TestSyncService_FlushScores_WritesOnlyScoreBatch(t *testing.T) {
	mockRoomRepo := new(mocks.RoomRepository)
	mockPlayerRepo := new(mocks.PlayerRepository)
	mockStateRepo := new(mocks.StateRepository)
	syncService := service.NewSyncService(mockRoomRepo, mockPlayerRepo, mockStateRepo)
	ctx := context.Background()

	scores := map[uint]int{1: 40, 2: 75}
	mockPlayerRepo.On("SaveScores", ctx, uint(1), scores).Return(nil).Once()
	mockStateRepo.On("MarkFlushed", ctx, uint(1), mock.AnythingOfType("time.Time")).Return(nil).Once()

	err := syncService.FlushScores(ctx, 1, scores)

	assert.NoError(t, err)
	mockPlayerRepo.AssertExpectations(t)
	mockStateRepo.AssertExpectations(t)
	// The score checkpoint never rewrites whole rows.
	mockPlayerRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	mockRoomRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestSyncService_FlushScores_ReportsBatchFailure(t *testing.T) {
	mockRoomRepo := new(mocks.RoomRepository)
	mockPlayerRepo := new(mocks.PlayerRepository)
	syncService := service.NewSyncService(mockRoomRepo, mockPlayerRepo, nil)
	ctx := context.Background()

	mockPlayerRepo.On("SaveScores", ctx, uint(1), mock.Anything).
		Return(errors.New("db busy")).
		Once()

	err := syncService.FlushScores(ctx, 1, map[uint]int{1: 5})

	assert.Error(t, err)
}

func TestSyncService_Purge_DeletesPlayersThenRoom(t *testing.T) {
	mockRoomRepo := new(mocks.RoomRepository)
	mockPlayerRepo := new(mocks.PlayerRepository)
	syncService := service.NewSyncService(mockRoomRepo, mockPlayerRepo, nil)
	ctx := context.Background()

	mockPlayerRepo.On("DeleteByRoom", ctx, uint(1)).Return(nil).Once()
	mockRoomRepo.On("Delete", ctx, uint(1)).Return(nil).Once()

	assert.NoError(t, syncService.Purge(ctx, 1))
	mockRoomRepo.AssertExpectations(t)
	mockPlayerRepo.AssertExpectations(t)
}

func TestSyncService_SweepStaleRooms_SkipsLiveRooms(t *testing.T) {
	mockRoomRepo := new(mocks.RoomRepository)
	mockPlayerRepo := new(mocks.PlayerRepository)
	syncService := service.NewSyncService(mockRoomRepo, mockPlayerRepo, nil)
	ctx := context.Background()

	mockRoomRepo.On("ListStale", ctx, mock.AnythingOfType("time.Time")).
		Return([]uint{1, 2, 3}, nil).
		Once()
	// Room 2 is live and must be left alone.
	for _, id := range []uint{1, 3} {
		mockPlayerRepo.On("DeleteByRoom", ctx, id).Return(nil).Once()
		mockRoomRepo.On("Delete", ctx, id).Return(nil).Once()
	}

	removed, err := syncService.SweepStaleRooms(ctx, 24*time.Hour, []uint{2})

	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	mockRoomRepo.AssertExpectations(t)
	mockPlayerRepo.AssertExpectations(t)
	mockRoomRepo.AssertNotCalled(t, "Delete", ctx, uint(2))
}

func TestSyncService_SweepStaleRooms_ContinuesPastFailures(t *testing.T) {
	mockRoomRepo := new(mocks.RoomRepository)
	mockPlayerRepo := new(mocks.PlayerRepository)
	syncService := service.NewSyncService(mockRoomRepo, mockPlayerRepo, nil)
	ctx := context.Background()

	mockRoomRepo.On("ListStale", ctx, mock.AnythingOfType("time.Time")).
		Return([]uint{1, 2}, nil).
		Once()
	mockPlayerRepo.On("DeleteByRoom", ctx, uint(1)).Return(errors.New("db busy")).Once()
	mockPlayerRepo.On("DeleteByRoom", ctx, uint(2)).Return(nil).Once()
	mockRoomRepo.On("Delete", ctx, uint(2)).Return(nil).Once()

	removed, err := syncService.SweepStaleRooms(ctx, time.Hour, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}
