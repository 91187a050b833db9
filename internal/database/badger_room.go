package database

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/thereayou/hr-portal/internal/models"
)

func roomKey(id uuid.UUID) string {
	return "room:" + id.String()
}

func roomNamePrefix(name string) string {
	return "roomname:" + strings.ToLower(name) + ":"
}

func roomNameKey(name string, id uuid.UUID) string {
	return roomNamePrefix(name) + id.String()
}

func (s *BadgerStore) CreateRoom(ctx context.Context, room *models.Room, uniqueName bool) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		if uniqueName {
			if err := badgerNameTaken(txn, room.Name, room.ID); err != nil {
				return err
			}
		}
		if err := setJSON(txn, roomKey(room.ID), room); err != nil {
			return err
		}
		if room.IsActive {
			return txn.Set([]byte(roomNameKey(room.Name, room.ID)), nil)
		}
		return nil
	})
}

func (s *BadgerStore) GetRoom(_ context.Context, id uuid.UUID) (*models.Room, error) {
	var room models.Room
	err := s.db.View(func(txn *badger.Txn) error {
		return loadRoom(txn, id, &room)
	})
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *BadgerStore) UpdateRoom(ctx context.Context, id uuid.UUID, upd RoomUpdate, fn func(room *models.Room) error) (*models.Room, error) {
	var room models.Room
	err := s.update(ctx, func(txn *badger.Txn) error {
		room = models.Room{}
		if err := loadRoom(txn, id, &room); err != nil {
			return err
		}
		beforeName, beforeActive := room.Name, room.IsActive

		if err := fn(&room); err != nil {
			if errors.Is(err, ErrSkip) {
				return nil
			}
			return err
		}

		if beforeName != room.Name || beforeActive != room.IsActive {
			if beforeActive {
				if err := txn.Delete([]byte(roomNameKey(beforeName, id))); err != nil {
					return err
				}
			}
			if room.IsActive {
				if upd.UniqueName {
					if err := badgerNameTaken(txn, room.Name, id); err != nil {
						return err
					}
				}
				if err := txn.Set([]byte(roomNameKey(room.Name, id)), nil); err != nil {
					return err
				}
			}
		}
		if err := setJSON(txn, roomKey(id), &room); err != nil {
			return err
		}
		if upd.Message != nil {
			return putMessage(txn, upd.Message)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// ListRooms scans every room document. Rooms are few compared to messages,
// so the embedded store keeps no lastActivity index.
func (s *BadgerStore) ListRooms(_ context.Context, filter RoomFilter) ([]models.Room, error) {
	var rooms []models.Room
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte("room:")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var room models.Room
			err := it.Item().Value(func(val []byte) error {
				return decodeRoom(val, &room)
			})
			if err != nil {
				return err
			}
			rooms = append(rooms, room)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	rooms = lo.Filter(rooms, func(r models.Room, _ int) bool {
		if !r.IsActive {
			return false
		}
		if filter.PublicOnly && r.IsPrivate {
			return false
		}
		return filter.MemberID == nil || r.IsMember(*filter.MemberID)
	})
	sort.SliceStable(rooms, func(i, j int) bool {
		return rooms[i].LastActivity.After(rooms[j].LastActivity)
	})
	if filter.Limit > 0 && len(rooms) > filter.Limit {
		rooms = rooms[:filter.Limit]
	}
	return rooms, nil
}

func loadRoom(txn *badger.Txn, id uuid.UUID, room *models.Room) error {
	if err := getJSON(txn, roomKey(id), room); err != nil {
		return err
	}
	for i := range room.Members {
		room.Members[i].RoomID = room.ID
	}
	return nil
}

func decodeRoom(val []byte, room *models.Room) error {
	if err := json.Unmarshal(val, room); err != nil {
		return err
	}
	for i := range room.Members {
		room.Members[i].RoomID = room.ID
	}
	return nil
}

func badgerNameTaken(txn *badger.Txn, name string, exclude uuid.UUID) error {
	prefix := []byte(roomNamePrefix(name))
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		id := strings.TrimPrefix(string(it.Item().Key()), string(prefix))
		// a longer name sharing this prefix, e.g. "ops:eu" for "ops"
		if strings.Contains(id, ":") {
			continue
		}
		if id != exclude.String() {
			return ErrNameTaken
		}
	}
	return nil
}
