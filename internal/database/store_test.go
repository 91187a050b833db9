package database

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/hr-portal/internal/models"
)

type opener func(t *testing.T) Store

func openBadger(t *testing.T) Store {
	t.Helper()
	s, err := OpenBadger("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// openPostgres needs TEST_DATABASE_URL pointing at a disposable database.
func openPostgres(t *testing.T) Store {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	d, err := Connect(dsn, true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

var base = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func newRoom(name string, admin uuid.UUID) *models.Room {
	id := uuid.New()
	return &models.Room{
		ID:           id,
		Name:         name,
		Admin:        admin,
		Members:      []models.Member{{RoomID: id, UserID: admin, Role: models.RoleAdmin, JoinedAt: base, LastSeen: base}},
		IsActive:     true,
		MaxMembers:   10,
		LastActivity: base,
		Tags:         []string{},
		CreatedAt:    base,
		UpdatedAt:    base,
	}
}

func roomMessage(roomID, sender uuid.UUID, at time.Time) *models.Message {
	return &models.Message{
		ID:          uuid.New(),
		Sender:      sender,
		Scope:       models.ScopeRoom,
		RoomID:      &roomID,
		Content:     "hello",
		MessageType: models.MessageText,
		CreatedAt:   at,
	}
}

func TestStores(t *testing.T) {
	for name, open := range map[string]opener{"badger": openBadger, "postgres": openPostgres} {
		t.Run(name, func(t *testing.T) {
			t.Run("name uniqueness", func(t *testing.T) { testNameUniqueness(t, open(t)) })
			t.Run("update commits message with room", func(t *testing.T) { testUpdateWithMessage(t, open(t)) })
			t.Run("update aborts on error", func(t *testing.T) { testUpdateAbort(t, open(t)) })
			t.Run("history paging", func(t *testing.T) { testHistoryPaging(t, open(t)) })
			t.Run("conversation", func(t *testing.T) { testConversation(t, open(t)) })
			t.Run("list rooms", func(t *testing.T) { testListRooms(t, open(t)) })
			t.Run("settings turned off survive", func(t *testing.T) { testSettingsOff(t, open(t)) })
		})
	}
}

func testNameUniqueness(t *testing.T, s Store) {
	req := require.New(t)
	ctx := context.Background()
	admin := uuid.New()
	name := "Payroll " + uuid.NewString()[:8]

	// Given an active room
	first := newRoom(name, admin)
	req.NoError(s.CreateRoom(ctx, first, true))

	// When another room takes the name in different case
	err := s.CreateRoom(ctx, newRoom(strings.ToUpper(name), admin), true)
	req.ErrorIs(err, ErrNameTaken)

	// Then a longer name sharing the prefix is still free
	req.NoError(s.CreateRoom(ctx, newRoom(name+":eu", admin), true))

	// And the name frees up once the first room is deactivated
	_, err = s.UpdateRoom(ctx, first.ID, RoomUpdate{UniqueName: true}, func(r *models.Room) error {
		r.IsActive = false
		return nil
	})
	req.NoError(err)
	req.NoError(s.CreateRoom(ctx, newRoom(name, admin), true))
}

func testUpdateWithMessage(t *testing.T, s Store) {
	req := require.New(t)
	ctx := context.Background()
	admin := uuid.New()
	room := newRoom("Onboarding "+uuid.NewString()[:8], admin)
	req.NoError(s.CreateRoom(ctx, room, true))

	msg := roomMessage(room.ID, admin, base.Add(time.Minute))
	updated, err := s.UpdateRoom(ctx, room.ID, RoomUpdate{Message: msg}, func(r *models.Room) error {
		r.MessageCount++
		r.LastActivity = msg.CreatedAt
		return nil
	})
	req.NoError(err)
	req.EqualValues(1, updated.MessageCount)

	stored, err := s.GetMessage(ctx, msg.ID)
	req.NoError(err)
	req.Equal("hello", stored.Content)

	history, err := s.RoomMessages(ctx, room.ID, MessageQuery{Limit: 10})
	req.NoError(err)
	req.Len(history, 1)
}

func testUpdateAbort(t *testing.T, s Store) {
	req := require.New(t)
	ctx := context.Background()
	admin := uuid.New()
	room := newRoom("Benefits "+uuid.NewString()[:8], admin)
	req.NoError(s.CreateRoom(ctx, room, true))
	boom := errors.New("boom")

	msg := roomMessage(room.ID, admin, base.Add(time.Minute))
	_, err := s.UpdateRoom(ctx, room.ID, RoomUpdate{Message: msg}, func(r *models.Room) error {
		r.MessageCount++
		return boom
	})
	req.ErrorIs(err, boom)

	_, err = s.GetMessage(ctx, msg.ID)
	req.ErrorIs(err, ErrNotFound)
	got, err := s.GetRoom(ctx, room.ID)
	req.NoError(err)
	req.Zero(got.MessageCount)

	// ErrSkip reports success without writing
	_, err = s.UpdateRoom(ctx, room.ID, RoomUpdate{}, func(r *models.Room) error {
		r.Name = "changed"
		return ErrSkip
	})
	req.NoError(err)
	got, err = s.GetRoom(ctx, room.ID)
	req.NoError(err)
	req.Equal(room.Name, got.Name)

	_, err = s.GetRoom(ctx, uuid.New())
	req.ErrorIs(err, ErrNotFound)
}

func testHistoryPaging(t *testing.T, s Store) {
	req := require.New(t)
	ctx := context.Background()
	admin := uuid.New()
	room := newRoom("History "+uuid.NewString()[:8], admin)
	req.NoError(s.CreateRoom(ctx, room, true))

	var sent []*models.Message
	for i := 0; i < 5; i++ {
		msg := roomMessage(room.ID, admin, base.Add(time.Duration(i)*time.Second))
		req.NoError(s.SaveMessage(ctx, msg))
		sent = append(sent, msg)
	}

	// newest page first, returned oldest first
	page, err := s.RoomMessages(ctx, room.ID, MessageQuery{Limit: 2})
	req.NoError(err)
	req.Len(page, 2)
	req.Equal(sent[3].ID, page[0].ID)
	req.Equal(sent[4].ID, page[1].ID)

	before := page[0].CreatedAt
	page, err = s.RoomMessages(ctx, room.ID, MessageQuery{Limit: 10, Before: &before})
	req.NoError(err)
	req.Len(page, 3)
	req.Equal(sent[0].ID, page[0].ID)
}

func testConversation(t *testing.T, s Store) {
	req := require.New(t)
	ctx := context.Background()
	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()

	dm := func(from, to uuid.UUID, at time.Time) *models.Message {
		return &models.Message{ID: uuid.New(), Sender: from, Scope: models.ScopePrivate, Receiver: &to,
			Content: "hi", MessageType: models.MessageText, CreatedAt: at}
	}
	req.NoError(s.SaveMessage(ctx, dm(alice, bob, base)))
	req.NoError(s.SaveMessage(ctx, dm(bob, alice, base.Add(time.Second))))
	req.NoError(s.SaveMessage(ctx, dm(alice, carol, base.Add(2*time.Second))))

	ab, err := s.Conversation(ctx, alice, bob, MessageQuery{Limit: 10})
	req.NoError(err)
	ba, err := s.Conversation(ctx, bob, alice, MessageQuery{Limit: 10})
	req.NoError(err)
	req.Len(ab, 2)
	req.Equal(ab[0].ID, ba[0].ID)

	bad := &models.Message{ID: uuid.New(), Sender: alice, Scope: models.ScopeGlobal, Receiver: &bob}
	if _, ok := s.(*BadgerStore); ok {
		req.Error(s.SaveMessage(ctx, bad))
	}
}

func testListRooms(t *testing.T, s Store) {
	req := require.New(t)
	ctx := context.Background()
	admin, member := uuid.New(), uuid.New()

	older := newRoom("Older "+uuid.NewString()[:8], admin)
	newer := newRoom("Newer "+uuid.NewString()[:8], admin)
	newer.LastActivity = base.Add(time.Hour)
	hidden := newRoom("Hidden "+uuid.NewString()[:8], admin)
	hidden.IsPrivate = true
	hidden.Members = append(hidden.Members, models.Member{RoomID: hidden.ID, UserID: member, Role: models.RoleMember, JoinedAt: base, LastSeen: base})
	for _, r := range []*models.Room{older, newer, hidden} {
		req.NoError(s.CreateRoom(ctx, r, true))
	}

	mine, err := s.ListRooms(ctx, RoomFilter{MemberID: &admin, Limit: 10})
	req.NoError(err)
	req.Len(mine, 3)
	req.Equal(newer.ID, mine[0].ID)

	theirs, err := s.ListRooms(ctx, RoomFilter{MemberID: &member, Limit: 10})
	req.NoError(err)
	req.Len(theirs, 1)
	req.Len(theirs[0].Members, 2)

	public, err := s.ListRooms(ctx, RoomFilter{PublicOnly: true, MemberID: &admin, Limit: 10})
	req.NoError(err)
	req.Len(public, 2)
}

func testSettingsOff(t *testing.T, s Store) {
	req := require.New(t)
	ctx := context.Background()

	// Given a room created with sharing and invites off
	room := newRoom("Audit "+uuid.NewString()[:8], uuid.New())
	room.Settings = models.DefaultRoomSettings()
	room.Settings.AllowFileSharing = false
	room.Settings.AllowImageSharing = false
	room.Settings.AllowMemberInvites = false
	req.NoError(s.CreateRoom(ctx, room, true))

	// Then neither the caller's copy nor the stored row flips back to true
	req.False(room.Settings.AllowImageSharing)
	got, err := s.GetRoom(ctx, room.ID)
	req.NoError(err)
	req.False(got.Settings.AllowFileSharing)
	req.False(got.Settings.AllowImageSharing)
	req.False(got.Settings.AllowMemberInvites)
	req.True(got.IsActive)
}
