package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/hr-portal/internal/database"
	"github.com/thereayou/hr-portal/internal/models"
)

// ActivityTracker keeps Room.LastActivity current. Mark runs inside the
// caller's room update so the timestamp commits with the mutation.
type ActivityTracker struct {
	store database.Store
	locks *keyedMutex
	now   func() time.Time
	fail  func(op string, err error) error
}

// Mark moves lastActivity forward to now. It never moves it back.
func (a *ActivityTracker) Mark(room *models.Room) {
	if now := a.now(); now.After(room.LastActivity) {
		room.LastActivity = now
	}
}

// Touch is the standalone form of Mark.
func (a *ActivityTracker) Touch(ctx context.Context, roomID uuid.UUID) (*models.Room, error) {
	unlock := a.locks.Lock(roomLockKey(roomID))
	defer unlock()

	room, err := a.store.UpdateRoom(ctx, roomID, database.RoomUpdate{}, func(room *models.Room) error {
		if !room.IsActive {
			return newError(KindRoomInactive, "room", "room is deactivated")
		}
		a.Mark(room)
		return nil
	})
	if err != nil {
		return nil, a.fail("touch", storeError(err, "room"))
	}
	return room, nil
}
