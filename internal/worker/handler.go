package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"color-clash/internal/service"
	"color-clash/internal/tasks"
)

// defaultRetention guards against zero payloads from older schedulers.
const defaultRetention = 24 * time.Hour

// LiveRoomLister reports rooms that currently have an in-memory
// session; the sweep must not delete those. The session store
// implements it.
type LiveRoomLister interface {
	LiveRoomIDs() []uint
}

// RoomSweepHandler deletes durable rows of rooms that finished or were
// abandoned longer than the retention window ago.
type RoomSweepHandler struct {
	syncService *service.SyncService
	liveRooms   LiveRoomLister
}

// NewRoomSweepHandler creates a RoomSweepHandler.
func NewRoomSweepHandler(syncService *service.SyncService, liveRooms LiveRoomLister) *RoomSweepHandler {
	return &RoomSweepHandler{syncService: syncService, liveRooms: liveRooms}
}

// ProcessTask implements asynq.Handler.
func (h *RoomSweepHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	taskID := ""
	if rw := t.ResultWriter(); rw != nil {
		taskID = rw.TaskID()
	}
	currentRetry, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)

	logCtx := logrus.WithFields(logrus.Fields{
		"task_id":   taskID,
		"task_type": t.Type(),
		"retry":     currentRetry,
		"max_retry": maxRetry,
	})
	logCtx.Info("Processing room sweep task...")

	var payload tasks.RoomSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		logCtx.WithError(err).Error("Failed to unmarshal task payload")
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	retention := payload.Retention
	if retention <= 0 {
		retention = defaultRetention
	}

	swept, err := h.syncService.SweepStaleRooms(ctx, retention, h.liveRooms.LiveRoomIDs())
	if err != nil {
		logCtx.WithError(err).Error("Room sweep failed")
		return fmt.Errorf("room sweep: %w", err)
	}

	logCtx.WithField("rooms_swept", swept).Info("Room sweep task processed successfully")
	return nil
}
