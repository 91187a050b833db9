package chat

import (
	"github.com/google/uuid"
	"github.com/thereayou/hr-portal/internal/models"
)

// Capability is the effective role of userID in room: admin for the owner,
// the member's role otherwise and "" for outsiders.
func Capability(room *models.Room, userID uuid.UUID) models.Role {
	if room.Admin == userID {
		return models.RoleAdmin
	}
	if m := room.Member(userID); m != nil {
		return m.Role
	}
	return ""
}

func hasCapability(room *models.Room, userID uuid.UUID, role models.Role) bool {
	c := Capability(room, userID)
	return c.Valid() && c.AtLeast(role)
}

// IsAdmin reports whether userID owns the room.
func IsAdmin(room *models.Room, userID uuid.UUID) bool {
	return room.Admin == userID
}

func IsModerator(room *models.Room, userID uuid.UUID) bool {
	return hasCapability(room, userID, models.RoleModerator)
}

func CanModerate(room *models.Room, userID uuid.UUID) bool {
	return IsModerator(room, userID)
}

// CanManage gates settings changes and deactivation.
func CanManage(room *models.Room, userID uuid.UUID) bool {
	return hasCapability(room, userID, models.RoleAdmin)
}

// CanSetRole reports whether actor may give target the role newRole.
// Admins may change anyone except the owner, whose entry only the owner
// controls. Moderators may move plain members between member and moderator.
func CanSetRole(room *models.Room, actorID, targetID uuid.UUID, newRole models.Role) bool {
	switch Capability(room, actorID) {
	case models.RoleAdmin:
		return targetID != room.Admin || actorID == room.Admin
	case models.RoleModerator:
		target := room.Member(targetID)
		return target != nil &&
			targetID != room.Admin &&
			target.Role == models.RoleMember &&
			!newRole.AtLeast(models.RoleAdmin)
	default:
		return false
	}
}

func CanInvite(room *models.Room, actorID uuid.UUID) bool {
	if IsModerator(room, actorID) {
		return true
	}
	return room.IsMember(actorID) && room.Settings.AllowMemberInvites
}

// CanRemoveMessage is the contract for an external moderation hook. room is
// nil for global and private messages.
func CanRemoveMessage(room *models.Room, msg *models.Message, actorID uuid.UUID) bool {
	if msg.Sender == actorID {
		return true
	}
	if room == nil || msg.RoomID == nil || *msg.RoomID != room.ID {
		return false
	}
	return room.Settings.ModerationEnabled && CanModerate(room, actorID)
}

// CanView reports whether viewerID may see the room and its members.
func CanView(room *models.Room, viewerID uuid.UUID) bool {
	return !room.IsPrivate || Capability(room, viewerID) != ""
}
