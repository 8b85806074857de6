// Package tasks defines the asynq task types exchanged between the
// scheduler and the worker.
package tasks

import (
	"encoding/json"
	"time"
)

const (
	// TypeRoomSweep deletes finished or abandoned rooms whose durable
	// rows outlived the retention window.
	TypeRoomSweep = "room:sweep"
)

// RoomSweepPayload carries the retention window for one sweep run.
type RoomSweepPayload struct {
	Retention time.Duration `json:"retention"`
}

// NewRoomSweepPayload serializes a sweep payload.
func NewRoomSweepPayload(retention time.Duration) ([]byte, error) {
	payloadBytes, err := json.Marshal(RoomSweepPayload{Retention: retention})
	if err != nil {
		return nil, err
	}
	return payloadBytes, nil
}
