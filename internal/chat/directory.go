package chat

import (
	"context"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/thereayou/hr-portal/internal/models"
)

// Directory resolves user ids to display profiles. Unknown ids are absent
// from the result.
type Directory interface {
	Resolve(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Profile, error)
}

type MemberView struct {
	models.Member
	Profile models.Profile `json:"profile"`
}

// RoomView is a room decorated with directory data for the transport layer.
type RoomView struct {
	*models.Room
	MemberCount  int            `json:"memberCount"`
	AdminProfile models.Profile `json:"adminProfile"`
	Members      []MemberView   `json:"members"`
}

// Decorate attaches profiles to rooms. A directory outage degrades to bare
// ids rather than failing the read.
func (e *Engine) Decorate(ctx context.Context, rooms ...*models.Room) []RoomView {
	ids := make([]uuid.UUID, 0)
	for _, room := range rooms {
		ids = append(ids, room.Admin)
		ids = append(ids, lo.Map(room.Members, func(m models.Member, _ int) uuid.UUID { return m.UserID })...)
	}
	profiles := e.resolve(ctx, lo.Uniq(ids))

	views := make([]RoomView, 0, len(rooms))
	for _, room := range rooms {
		views = append(views, RoomView{
			Room:         room,
			MemberCount:  room.MemberCount(),
			AdminProfile: profileOf(profiles, room.Admin),
			Members: lo.Map(room.Members, func(m models.Member, _ int) MemberView {
				return MemberView{Member: m, Profile: profileOf(profiles, m.UserID)}
			}),
		})
	}
	return views
}

func (e *Engine) resolve(ctx context.Context, ids []uuid.UUID) map[uuid.UUID]models.Profile {
	if e.c.directory == nil || len(ids) == 0 {
		return nil
	}
	profiles, err := e.c.directory.Resolve(ctx, ids)
	if err != nil {
		e.c.log.Warn().Err(err).Int("ids", len(ids)).Msg("identity directory unavailable, serving bare ids")
		return nil
	}
	return profiles
}

func profileOf(profiles map[uuid.UUID]models.Profile, id uuid.UUID) models.Profile {
	if p, ok := profiles[id]; ok {
		return p
	}
	return models.Profile{ID: id}
}
