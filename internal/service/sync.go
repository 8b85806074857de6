package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"color-clash/internal/game"
	"color-clash/internal/repository"
)

const flushTimeout = 5 * time.Second

// SyncService is the persistence synchronizer: it hydrates game state
// from durable rows and checkpoints it back. In-memory state stays
// authoritative; a failed write is logged and retried by the next
// periodic tick.
type SyncService struct {
	roomRepo   repository.RoomRepository
	playerRepo repository.PlayerRepository
	stateRepo  repository.StateRepository
}

// NewSyncService creates a SyncService. stateRepo records flush stamps
// and may be nil in tests.
func NewSyncService(roomRepo repository.RoomRepository, playerRepo repository.PlayerRepository, stateRepo repository.StateRepository) *SyncService {
	if roomRepo == nil || playerRepo == nil {
		panic("RoomRepository and PlayerRepository cannot be nil for SyncService")
	}
	return &SyncService{roomRepo: roomRepo, playerRepo: playerRepo, stateRepo: stateRepo}
}

// Hydrate loads Room and Player rows into a fresh game state. A
// missing room is a hard error; sessions are never fabricated for
// rooms that do not exist durably.
func (s *SyncService) Hydrate(ctx context.Context, roomID uint) (*game.State, error) {
	room, err := s.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		logrus.WithField("room_id", roomID).WithError(err).Error("Failed to read room row for hydration")
		return nil, ErrInternalServer
	}
	players, err := s.playerRepo.ListByRoom(ctx, roomID)
	if err != nil {
		logrus.WithField("room_id", roomID).WithError(err).Error("Failed to read player rows for hydration")
		return nil, ErrInternalServer
	}
	return game.NewState(*room, players), nil
}

// Flush checkpoints a room snapshot: the room row and every member row.
func (s *SyncService) Flush(ctx context.Context, cp game.Checkpoint) error {
	room := cp.Room
	if err := s.roomRepo.Save(ctx, &room); err != nil {
		return fmt.Errorf("flush room %d: %w", cp.Room.ID, err)
	}
	for i := range cp.Players {
		p := cp.Players[i]
		if err := s.playerRepo.Upsert(ctx, &p); err != nil {
			return fmt.Errorf("flush player %d of room %d: %w", p.UserID, cp.Room.ID, err)
		}
	}
	if s.stateRepo != nil {
		if err := s.stateRepo.MarkFlushed(ctx, cp.Room.ID, time.Now()); err != nil {
			// Bookkeeping only; the checkpoint itself succeeded.
			logrus.WithField("room_id", cp.Room.ID).WithError(err).Warn("Failed to record flush stamp")
		}
	}
	return nil
}

// FlushAsync checkpoints in the background. Gameplay never waits on
// the row store; failures are logged and the next tick retries.
func (s *SyncService) FlushAsync(cp game.Checkpoint) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		defer cancel()
		if err := s.Flush(ctx, cp); err != nil {
			logrus.WithField("room_id", cp.Room.ID).WithError(err).Error("Async checkpoint flush failed")
		}
	}()
}

// FlushScores writes only the score columns of a room's member rows.
// The periodic checkpoint uses this lighter batch: membership rows
// already exist from the full flush at join time.
func (s *SyncService) FlushScores(ctx context.Context, roomID uint, scores map[uint]int) error {
	if err := s.playerRepo.SaveScores(ctx, roomID, scores); err != nil {
		return fmt.Errorf("flush scores of room %d: %w", roomID, err)
	}
	if s.stateRepo != nil {
		if err := s.stateRepo.MarkFlushed(ctx, roomID, time.Now()); err != nil {
			// Bookkeeping only; the checkpoint itself succeeded.
			logrus.WithField("room_id", roomID).WithError(err).Warn("Failed to record flush stamp")
		}
	}
	return nil
}

// FlushScoresAsync writes a score checkpoint in the background.
func (s *SyncService) FlushScoresAsync(roomID uint, scores map[uint]int) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		defer cancel()
		if err := s.FlushScores(ctx, roomID, scores); err != nil {
			logrus.WithField("room_id", roomID).WithError(err).Error("Async score flush failed")
		}
	}()
}

// Purge deletes a room's durable rows at teardown.
func (s *SyncService) Purge(ctx context.Context, roomID uint) error {
	if err := s.playerRepo.DeleteByRoom(ctx, roomID); err != nil {
		return fmt.Errorf("purge players of room %d: %w", roomID, err)
	}
	if err := s.roomRepo.Delete(ctx, roomID); err != nil {
		return fmt.Errorf("purge room %d: %w", roomID, err)
	}
	return nil
}

// SweepStaleRooms deletes rooms untouched since before the retention
// window, skipping rooms that are live in memory. Returns how many
// rooms were removed.
func (s *SyncService) SweepStaleRooms(ctx context.Context, retention time.Duration, live []uint) (int, error) {
	cutoff := time.Now().Add(-retention)
	ids, err := s.roomRepo.ListStale(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list stale rooms: %w", err)
	}
	liveSet := make(map[uint]struct{}, len(live))
	for _, id := range live {
		liveSet[id] = struct{}{}
	}
	removed := 0
	for _, id := range ids {
		if _, ok := liveSet[id]; ok {
			continue
		}
		if err := s.Purge(ctx, id); err != nil {
			logrus.WithField("room_id", id).WithError(err).Error("Failed to sweep stale room")
			continue
		}
		removed++
	}
	return removed, nil
}
