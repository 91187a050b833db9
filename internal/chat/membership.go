package chat

import (
	"context"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/thereayou/hr-portal/internal/database"
	"github.com/thereayou/hr-portal/internal/metrics"
	"github.com/thereayou/hr-portal/internal/models"
)

// Membership mutates room member lists.
type Membership struct {
	c *core
}

// Join adds userID with role. An empty role means member; admin can only be
// obtained through SetRole or succession.
func (m *Membership) Join(ctx context.Context, roomID, userID uuid.UUID, role models.Role) (*models.Room, error) {
	if role == "" {
		role = models.RoleMember
	}
	if !role.Valid() || role == models.RoleAdmin {
		return nil, m.c.fail("join", newError(KindInvalidConfig, "role", "cannot join with role %q", role))
	}

	room, err := m.c.mutateRoom(ctx, "join", roomID, database.RoomUpdate{}, func(room *models.Room) error {
		if err := requireActive(room); err != nil {
			return err
		}
		return m.addMember(room, userID, role)
	})
	if err != nil {
		return nil, err
	}
	m.c.committed(ctx, "join", EventMemberJoined, userID, &userID, room)
	return room, nil
}

// Invite adds targetID as a plain member on behalf of actorID. Moderators may
// always invite, members only while the room allows member invites.
func (m *Membership) Invite(ctx context.Context, roomID, actorID, targetID uuid.UUID) (*models.Room, error) {
	room, err := m.c.mutateRoom(ctx, "invite", roomID, database.RoomUpdate{}, func(room *models.Room) error {
		if err := requireActive(room); err != nil {
			return err
		}
		if !room.IsMember(actorID) && !IsAdmin(room, actorID) {
			return newError(KindNotMember, "actor", "only members may invite")
		}
		if !CanInvite(room, actorID) {
			return newError(KindNotAuthorized, "actor", "member invites are disabled in this room")
		}
		return m.addMember(room, targetID, models.RoleMember)
	})
	if err != nil {
		return nil, err
	}
	m.c.committed(ctx, "invite", EventMemberJoined, actorID, &targetID, room)
	return room, nil
}

func (m *Membership) addMember(room *models.Room, userID uuid.UUID, role models.Role) error {
	if room.IsMember(userID) {
		return newError(KindAlreadyMember, "user", "user is already a member")
	}
	if room.IsFull() {
		return newError(KindRoomFull, "room", "room is full (%d members)", room.MaxMembers)
	}
	now := m.c.now()
	room.Members = append(room.Members, models.Member{
		RoomID:   room.ID,
		UserID:   userID,
		Role:     role,
		JoinedAt: now,
		LastSeen: now,
	})
	m.c.activity.Mark(room)
	return nil
}

// Leave removes userID. When the owner leaves, ownership passes to the
// earliest-joined admin, else the earliest-joined moderator; without one the
// owner cannot leave.
func (m *Membership) Leave(ctx context.Context, roomID, userID uuid.UUID) (*models.Room, error) {
	room, err := m.c.mutateRoom(ctx, "leave", roomID, database.RoomUpdate{}, func(room *models.Room) error {
		if !room.IsMember(userID) {
			return newError(KindNotMember, "user", "user is not a member")
		}
		if IsAdmin(room, userID) {
			heir, ok := successor(room)
			if !ok {
				return newError(KindNotAuthorized, "admin", "promote a moderator before the admin leaves")
			}
			heir.Role = models.RoleAdmin
			room.Admin = heir.UserID
		}
		room.Members = lo.Reject(room.Members, func(mem models.Member, _ int) bool {
			return mem.UserID == userID
		})
		m.c.activity.Mark(room)
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.c.committed(ctx, "leave", EventMemberLeft, userID, &userID, room)
	return room, nil
}

func successor(room *models.Room) (*models.Member, bool) {
	for _, role := range []models.Role{models.RoleAdmin, models.RoleModerator} {
		var heir *models.Member
		for i := range room.Members {
			mem := &room.Members[i]
			if mem.UserID == room.Admin || mem.Role != role {
				continue
			}
			if heir == nil || mem.JoinedAt.Before(heir.JoinedAt) {
				heir = mem
			}
		}
		if heir != nil {
			return heir, true
		}
	}
	return nil, false
}

// SetRole changes targetID's role on behalf of actorID.
func (m *Membership) SetRole(ctx context.Context, roomID, actorID, targetID uuid.UUID, role models.Role) (*models.Room, error) {
	if !role.Valid() {
		return nil, m.c.fail("set_role", newError(KindInvalidConfig, "role", "unknown role %q", role))
	}

	changed := false
	room, err := m.c.mutateRoom(ctx, "set_role", roomID, database.RoomUpdate{}, func(room *models.Room) error {
		if err := requireActive(room); err != nil {
			return err
		}
		if !CanModerate(room, actorID) {
			return newError(KindNotAuthorized, "actor", "only admins and moderators change roles")
		}
		target := room.Member(targetID)
		if target == nil {
			return newError(KindNotMember, "target", "target is not a member")
		}
		if !CanSetRole(room, actorID, targetID, role) {
			return newError(KindNotAuthorized, "actor", "not allowed to give this member role %s", role)
		}
		if target.Role == role {
			return database.ErrSkip
		}
		target.Role = role
		m.c.activity.Mark(room)
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		m.c.committed(ctx, "role", EventMemberRole, actorID, &targetID, room)
	}
	return room, nil
}

// TouchPresence records that userID was seen in the room. lastSeen never
// moves backwards.
func (m *Membership) TouchPresence(ctx context.Context, roomID, userID uuid.UUID) (*models.Member, error) {
	room, err := m.c.mutateRoom(ctx, "touch_presence", roomID, database.RoomUpdate{}, func(room *models.Room) error {
		mem := room.Member(userID)
		if mem == nil {
			return newError(KindNotMember, "user", "user is not a member")
		}
		now := m.c.now()
		if !now.After(mem.LastSeen) {
			return database.ErrSkip
		}
		mem.LastSeen = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	mem := *room.Member(userID)
	return &mem, nil
}

// List returns the room and its members if viewerID may see them.
func (m *Membership) List(ctx context.Context, roomID, viewerID uuid.UUID) (*models.Room, error) {
	room, err := m.c.getRoom(ctx, "list_members", roomID)
	if err != nil {
		return nil, err
	}
	if !CanView(room, viewerID) {
		return nil, m.c.fail("list_members", newError(KindNotAuthorized, "room", "room is private"))
	}
	return room, nil
}

func (c *core) committed(ctx context.Context, op string, typ EventType, actor uuid.UUID, target *uuid.UUID, room *models.Room) {
	metrics.MembershipChanges.WithLabelValues(op).Inc()
	c.log.Debug().
		Str("op", op).
		Str("room", room.ID.String()).
		Str("actor", actor.String()).
		Int("members", room.MemberCount()).
		Msg("membership changed")

	evt := roomEvent(typ, actor, room.Clone(), c.now())
	evt.TargetID = target
	c.emit(ctx, evt)
}
