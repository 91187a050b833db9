package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/hr-portal/internal/database"
	"github.com/thereayou/hr-portal/internal/models"
)

// stepClock advances by one millisecond on every reading.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Notify(_ context.Context, evt Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type maskCensor struct{}

func (maskCensor) Censor(string) string {
	return "***"
}

type fixture struct {
	engine *Engine
	store  *database.BadgerStore
	events *recorder
	clock  *stepClock
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	store, err := database.OpenBadger("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	events := &recorder{}
	clock := newStepClock()
	opts.Notifier = Fanout(opts.Notifier, events)
	opts.Clock = clock.Now
	opts.Logger = zerolog.Nop()
	return &fixture{engine: New(store, opts), store: store, events: events, clock: clock}
}

func (f *fixture) room(t *testing.T, admin uuid.UUID, cfg RoomConfig) *models.Room {
	t.Helper()
	if cfg.Name == "" {
		cfg.Name = "room-" + uuid.NewString()[:8]
	}
	room, err := f.engine.Rooms.Create(context.Background(), admin, cfg)
	require.NoError(t, err)
	return room
}

func requireKind(t *testing.T, err error, kind Kind, field string) {
	t.Helper()
	require.Error(t, err)
	var e *Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, kind, e.Kind, e.Error())
	if field != "" {
		require.Equal(t, field, e.Field)
	}
}

func ptr[T any](v T) *T {
	return &v
}

func defaultQuery() database.MessageQuery {
	return database.MessageQuery{Limit: DefaultListLimit}
}
