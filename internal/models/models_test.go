package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRetentionCutoff(t *testing.T) {
	now := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

	s := DefaultRoomSettings()
	_, ok := s.RetentionCutoff(now)
	require.False(t, ok)

	s.AutoDeleteMessages = true
	s.AutoDeleteDays = 7
	cutoff, ok := s.RetentionCutoff(now)
	require.True(t, ok)
	require.Equal(t, time.Date(2025, 6, 23, 12, 0, 0, 0, time.UTC), cutoff)
}

func TestScopeConsistent(t *testing.T) {
	id := uuid.New()
	cases := []struct {
		name string
		msg  Message
		want bool
	}{
		{"global bare", Message{Scope: ScopeGlobal}, true},
		{"global with room", Message{Scope: ScopeGlobal, RoomID: &id}, false},
		{"private with receiver", Message{Scope: ScopePrivate, Receiver: &id}, true},
		{"private with both", Message{Scope: ScopePrivate, Receiver: &id, RoomID: &id}, false},
		{"room with room", Message{Scope: ScopeRoom, RoomID: &id}, true},
		{"room bare", Message{Scope: ScopeRoom}, false},
		{"unknown scope", Message{Scope: "broadcast"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.msg.ScopeConsistent())
		})
	}
}

func TestRoleOrder(t *testing.T) {
	require.True(t, RoleAdmin.AtLeast(RoleModerator))
	require.True(t, RoleModerator.AtLeast(RoleMember))
	require.False(t, RoleMember.AtLeast(RoleModerator))
}

func TestRoomClone(t *testing.T) {
	avatar := "a.png"
	r := &Room{Members: []Member{{UserID: uuid.New()}}, Tags: []string{"hr"}, Avatar: &avatar}

	c := r.Clone()
	c.Members[0].Role = RoleAdmin
	c.Tags[0] = "ops"
	*c.Avatar = "b.png"

	require.Empty(t, r.Members[0].Role)
	require.Equal(t, "hr", r.Tags[0])
	require.Equal(t, "a.png", *r.Avatar)
}
