package chat

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/thereayou/hr-portal/internal/database"
	"github.com/thereayou/hr-portal/internal/metrics"
	"github.com/thereayou/hr-portal/internal/models"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// ContentFilter rewrites message content before it is stored.
type ContentFilter interface {
	Censor(text string) string
}

type Options struct {
	// UniqueRoomNames rejects a room name already used by another active room,
	// compared case-insensitively.
	UniqueRoomNames bool
	Notifier        Notifier
	Directory       Directory
	Censor          ContentFilter
	Logger          zerolog.Logger
	// Clock defaults to time.Now in UTC.
	Clock func() time.Time
}

// Engine owns the room and message rules. All mutations of one room are
// serialized; global and private messages are not.
type Engine struct {
	Rooms    *Registry
	Members  *Membership
	Messages *Router
	Activity *ActivityTracker

	c *core
}

type core struct {
	store       database.Store
	locks       *keyedMutex
	activity    *ActivityTracker
	notifier    Notifier
	directory   Directory
	censor      ContentFilter
	uniqueNames bool
	log         zerolog.Logger
	now         func() time.Time
}

func New(store database.Store, opts Options) *Engine {
	now := opts.Clock
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = Fanout()
	}
	locks := newKeyedMutex()
	activity := &ActivityTracker{store: store, locks: locks, now: now}

	c := &core{
		store:       store,
		locks:       locks,
		activity:    activity,
		notifier:    notifier,
		directory:   opts.Directory,
		censor:      opts.Censor,
		uniqueNames: opts.UniqueRoomNames,
		log:         opts.Logger.With().Str("component", "chat").Logger(),
		now:         now,
	}
	activity.fail = c.fail

	return &Engine{
		Rooms:    &Registry{c: c},
		Members:  &Membership{c: c},
		Messages: &Router{c: c},
		Activity: activity,
		c:        c,
	}
}

// Ping reports whether the underlying store is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	if err := e.c.store.Ping(ctx); err != nil {
		return storeError(err, "")
	}
	return nil
}

// mutateRoom applies fn to the stored room under the room's lock.
func (c *core) mutateRoom(ctx context.Context, op string, roomID uuid.UUID, upd database.RoomUpdate, fn func(room *models.Room) error) (*models.Room, error) {
	unlock := c.locks.Lock(roomLockKey(roomID))
	defer unlock()

	room, err := c.store.UpdateRoom(ctx, roomID, upd, fn)
	if err != nil {
		return nil, c.fail(op, storeError(err, "room"))
	}
	return room, nil
}

func (c *core) getRoom(ctx context.Context, op string, roomID uuid.UUID) (*models.Room, error) {
	room, err := c.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, c.fail(op, storeError(err, "room"))
	}
	return room, nil
}

// fail records a rejected operation. Store faults are logged since callers
// only see the Unavailable kind.
func (c *core) fail(op string, err error) error {
	var e *Error
	if !errors.As(err, &e) {
		e = &Error{Kind: KindUnavailable, Message: "unexpected failure", Cause: err}
	}
	metrics.Rejections.WithLabelValues(string(e.Kind)).Inc()
	if e.Kind == KindUnavailable {
		c.log.Error().Err(e.Cause).Str("op", op).Str("kind", string(e.Kind)).Str("field", e.Field).Msg("store fault")
	} else {
		c.log.Debug().Str("op", op).Str("kind", string(e.Kind)).Str("field", e.Field).Msg(e.Message)
	}
	return e
}

func (c *core) emit(ctx context.Context, evt Event) {
	c.notifier.Notify(ctx, evt)
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}

func requireActive(room *models.Room) error {
	if !room.IsActive {
		return newError(KindRoomInactive, "room", "room %s is deactivated", room.ID)
	}
	return nil
}
