package chat

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/thereayou/hr-portal/internal/database"
	"github.com/thereayou/hr-portal/internal/metrics"
	"github.com/thereayou/hr-portal/internal/models"
)

// RoomConfig is the input of CreateRoom. Zero MaxMembers and any settings
// left out take the defaults.
type RoomConfig struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	IsPrivate   bool           `json:"isPrivate"`
	MaxMembers  int            `json:"maxMembers"`
	Settings    *SettingsPatch `json:"settings"`
	Tags        []string       `json:"tags"`
	Avatar      *string        `json:"avatar"`
}

// SettingsPatch changes only the fields that are set.
type SettingsPatch struct {
	AllowFileSharing   *bool `json:"allowFileSharing"`
	AllowImageSharing  *bool `json:"allowImageSharing"`
	AllowMemberInvites *bool `json:"allowMemberInvites"`
	ModerationEnabled  *bool `json:"moderationEnabled"`
	AutoDeleteMessages *bool `json:"autoDeleteMessages"`
	AutoDeleteDays     *int  `json:"autoDeleteDays"`
}

// RoomPatch changes only the fields that are set. An empty Avatar clears it.
type RoomPatch struct {
	Name        *string        `json:"name"`
	Description *string        `json:"description"`
	IsPrivate   *bool          `json:"isPrivate"`
	MaxMembers  *int           `json:"maxMembers"`
	Settings    *SettingsPatch `json:"settings"`
	Tags        *[]string      `json:"tags"`
	Avatar      *string        `json:"avatar"`
}

func (p RoomPatch) apply(room *models.Room) {
	if p.Name != nil {
		room.Name = *p.Name
	}
	if p.Description != nil {
		room.Description = *p.Description
	}
	if p.IsPrivate != nil {
		room.IsPrivate = *p.IsPrivate
	}
	if p.MaxMembers != nil {
		room.MaxMembers = *p.MaxMembers
	}
	if p.Tags != nil {
		room.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.Avatar != nil {
		avatar := *p.Avatar
		room.Avatar = &avatar
	}
	if p.Settings != nil {
		p.Settings.apply(&room.Settings)
	}
}

func (s SettingsPatch) apply(settings *models.RoomSettings) {
	set := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}
	set(&settings.AllowFileSharing, s.AllowFileSharing)
	set(&settings.AllowImageSharing, s.AllowImageSharing)
	set(&settings.AllowMemberInvites, s.AllowMemberInvites)
	set(&settings.ModerationEnabled, s.ModerationEnabled)
	set(&settings.AutoDeleteMessages, s.AutoDeleteMessages)
	if s.AutoDeleteDays != nil {
		settings.AutoDeleteDays = *s.AutoDeleteDays
	}
}

// Registry manages room lifecycle and listings.
type Registry struct {
	c *core
}

// Create makes adminID the owner and first member of a new room.
func (r *Registry) Create(ctx context.Context, adminID uuid.UUID, cfg RoomConfig) (*models.Room, error) {
	now := r.c.now()
	settings := models.DefaultRoomSettings()
	if cfg.Settings != nil {
		cfg.Settings.apply(&settings)
	}
	maxMembers := cfg.MaxMembers
	if maxMembers == 0 {
		maxMembers = DefaultMaxMembers
	}

	room := &models.Room{
		ID:           uuid.New(),
		Name:         cfg.Name,
		Description:  cfg.Description,
		Admin:        adminID,
		IsPrivate:    cfg.IsPrivate,
		IsActive:     true,
		MaxMembers:   maxMembers,
		LastActivity: now,
		Settings:     settings,
		Tags:         cfg.Tags,
		Avatar:       cfg.Avatar,
		CreatedAt:    now,
		UpdatedAt:    now,
		Members: []models.Member{{
			UserID:   adminID,
			Role:     models.RoleAdmin,
			JoinedAt: now,
			LastSeen: now,
		}},
	}
	room.Members[0].RoomID = room.ID
	normalizeRoom(room)
	if err := validateRoom(room); err != nil {
		return nil, r.c.fail("create_room", err)
	}

	if r.c.uniqueNames {
		unlock := r.c.locks.Lock(nameLockKey(room.Name))
		defer unlock()
	}
	if err := r.c.store.CreateRoom(ctx, room, r.c.uniqueNames); err != nil {
		return nil, r.c.fail("create_room", storeError(err, "room"))
	}

	metrics.RoomsCreated.Inc()
	r.c.log.Debug().Str("room", room.ID.String()).Str("admin", adminID.String()).Msg("room created")
	r.c.emit(ctx, roomEvent(EventRoomCreated, adminID, room.Clone(), now))
	return room, nil
}

// UpdateSettings applies patch on behalf of an actor with admin capability.
func (r *Registry) UpdateSettings(ctx context.Context, roomID, actorID uuid.UUID, patch RoomPatch) (*models.Room, error) {
	if patch.Name != nil && r.c.uniqueNames {
		name := strings.TrimSpace(*patch.Name)
		unlock := r.c.locks.Lock(nameLockKey(name))
		defer unlock()
	}

	upd := database.RoomUpdate{UniqueName: r.c.uniqueNames}
	room, err := r.c.mutateRoom(ctx, "update_settings", roomID, upd, func(room *models.Room) error {
		if err := requireActive(room); err != nil {
			return err
		}
		if !CanManage(room, actorID) {
			return newError(KindNotAuthorized, "actor", "only the room admin may change settings")
		}
		patch.apply(room)
		normalizeRoom(room)
		if err := validateRoom(room); err != nil {
			return err
		}
		room.UpdatedAt = r.c.now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.c.log.Debug().Str("room", roomID.String()).Str("actor", actorID.String()).Msg("room settings updated")
	r.c.emit(ctx, roomEvent(EventRoomUpdated, actorID, room.Clone(), r.c.now()))
	return room, nil
}

// Deactivate soft-deletes the room. Deactivating twice is a no-op.
func (r *Registry) Deactivate(ctx context.Context, roomID, actorID uuid.UUID) (*models.Room, error) {
	changed := false
	room, err := r.c.mutateRoom(ctx, "deactivate", roomID, database.RoomUpdate{}, func(room *models.Room) error {
		if !CanManage(room, actorID) {
			return newError(KindNotAuthorized, "actor", "only the room admin may deactivate the room")
		}
		if !room.IsActive {
			return database.ErrSkip
		}
		room.IsActive = false
		room.UpdatedAt = r.c.now()
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		r.c.log.Debug().Str("room", roomID.String()).Str("actor", actorID.String()).Msg("room deactivated")
		r.c.emit(ctx, roomEvent(EventRoomDeactivated, actorID, room.Clone(), r.c.now()))
	}
	return room, nil
}

// ListPublic returns active public rooms, most recently active first.
func (r *Registry) ListPublic(ctx context.Context, limit int) ([]models.Room, error) {
	rooms, err := r.c.store.ListRooms(ctx, database.RoomFilter{PublicOnly: true, Limit: clampLimit(limit)})
	if err != nil {
		return nil, r.c.fail("list_public_rooms", storeError(err, "room"))
	}
	return rooms, nil
}

// ListFor returns the active rooms userID belongs to, most recently active first.
func (r *Registry) ListFor(ctx context.Context, userID uuid.UUID, limit int) ([]models.Room, error) {
	rooms, err := r.c.store.ListRooms(ctx, database.RoomFilter{MemberID: &userID, Limit: clampLimit(limit)})
	if err != nil {
		return nil, r.c.fail("list_rooms_for", storeError(err, "room"))
	}
	return rooms, nil
}

// Get returns the room if viewerID may see it. Deactivated rooms stay readable.
func (r *Registry) Get(ctx context.Context, roomID, viewerID uuid.UUID) (*models.Room, error) {
	room, err := r.c.getRoom(ctx, "get_room", roomID)
	if err != nil {
		return nil, err
	}
	if !CanView(room, viewerID) {
		return nil, r.c.fail("get_room", newError(KindNotAuthorized, "room", "room is private"))
	}
	return room, nil
}
