package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleMember    Role = "member"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Rank orders roles member < moderator < admin. Unknown roles rank below member.
func (r Role) Rank() int {
	switch r {
	case RoleMember:
		return 1
	case RoleModerator:
		return 2
	case RoleAdmin:
		return 3
	default:
		return 0
	}
}

func (r Role) Valid() bool {
	return r.Rank() > 0
}

// AtLeast reports whether r grants every capability of other.
func (r Role) AtLeast(other Role) bool {
	return r.Rank() >= other.Rank()
}

// RoomSettings defaults come from DefaultRoomSettings. A gorm default on a
// bool column replaces an explicit false on insert, so keep them off.
type RoomSettings struct {
	AllowFileSharing   bool `gorm:"not null" json:"allowFileSharing"`
	AllowImageSharing  bool `gorm:"not null" json:"allowImageSharing"`
	AllowMemberInvites bool `gorm:"not null" json:"allowMemberInvites"`
	ModerationEnabled  bool `gorm:"default:false" json:"moderationEnabled"`
	AutoDeleteMessages bool `gorm:"default:false" json:"autoDeleteMessages"`
	AutoDeleteDays     int  `gorm:"default:30" json:"autoDeleteDays"`
}

func DefaultRoomSettings() RoomSettings {
	return RoomSettings{
		AllowFileSharing:   true,
		AllowImageSharing:  true,
		AllowMemberInvites: true,
		AutoDeleteDays:     30,
	}
}

// RetentionCutoff returns the instant before which messages of the room may be purged.
func (s RoomSettings) RetentionCutoff(now time.Time) (time.Time, bool) {
	if !s.AutoDeleteMessages || s.AutoDeleteDays <= 0 {
		return time.Time{}, false
	}
	return now.AddDate(0, 0, -s.AutoDeleteDays), true
}

type Room struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string       `gorm:"not null;index" json:"name"`
	Description  string       `gorm:"default:''" json:"description"`
	Admin        uuid.UUID    `gorm:"type:uuid;not null;index" json:"admin"`
	Members      []Member     `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE" json:"members"`
	IsPrivate    bool         `gorm:"default:false;index:idx_rooms_visibility,priority:2" json:"isPrivate"`
	IsActive     bool         `gorm:"not null;index:idx_rooms_visibility,priority:1" json:"isActive"`
	MaxMembers   int          `gorm:"default:100" json:"maxMembers"`
	MessageCount int64        `gorm:"default:0" json:"messageCount"`
	LastActivity time.Time    `gorm:"index:idx_rooms_last_activity,sort:desc" json:"lastActivity"`
	Settings     RoomSettings `gorm:"embedded;embeddedPrefix:settings_" json:"settings"`
	Tags         []string     `gorm:"serializer:json" json:"tags"`
	Avatar       *string      `json:"avatar"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// Member is owned by exactly one Room.
type Member struct {
	RoomID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	UserID   uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"user"`
	Role     Role      `gorm:"not null;default:'member'" json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
	LastSeen time.Time `json:"lastSeen"`
}

func (Member) TableName() string {
	return "room_members"
}

// Member returns the entry for userID, or nil.
func (r *Room) Member(userID uuid.UUID) *Member {
	for i := range r.Members {
		if r.Members[i].UserID == userID {
			return &r.Members[i]
		}
	}
	return nil
}

func (r *Room) IsMember(userID uuid.UUID) bool {
	return r.Member(userID) != nil
}

func (r *Room) MemberCount() int {
	return len(r.Members)
}

func (r *Room) IsFull() bool {
	return len(r.Members) >= r.MaxMembers
}

// Clone returns a deep copy so callers can mutate without touching shared state.
func (r *Room) Clone() *Room {
	c := *r
	c.Members = append([]Member(nil), r.Members...)
	c.Tags = append([]string(nil), r.Tags...)
	if r.Avatar != nil {
		avatar := *r.Avatar
		c.Avatar = &avatar
	}
	return &c
}
