package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/thereayou/hr-portal/internal/database"
	"github.com/thereayou/hr-portal/internal/models"
)

// Presence reports which users are currently connected.
type Presence interface {
	Online(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error)
}

type Users interface {
	GetUsers(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error)
}

// Directory joins the portal's user table with live presence. It implements
// chat.Directory.
type Directory struct {
	users    Users
	presence Presence
	log      zerolog.Logger
}

func NewDirectory(users Users, presence Presence, log zerolog.Logger) *Directory {
	return &Directory{users: users, presence: presence, log: log}
}

// Resolve returns profiles for the known ids. A presence failure only clears
// the online flags.
func (d *Directory) Resolve(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Profile, error) {
	users, err := d.users.GetUsers(ctx, ids)
	if err != nil {
		return nil, err
	}

	var online map[uuid.UUID]bool
	if d.presence != nil && len(users) > 0 {
		online, err = d.presence.Online(ctx, ids)
		if err != nil {
			d.log.Warn().Err(err).Msg("presence lookup failed")
		}
	}

	profiles := make(map[uuid.UUID]models.Profile, len(users))
	for id, u := range users {
		profiles[id] = models.Profile{ID: id, Name: u.Name, Image: u.Image, IsOnline: online[id]}
	}
	return profiles, nil
}

// Sync mirrors a portal user into the chat store.
func Sync(ctx context.Context, store database.Store, user *models.User) error {
	return store.SaveUser(ctx, user)
}
