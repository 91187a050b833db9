package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/thereayou/hr-portal/internal/models"
)

const maxConflictRetries = 5

// BadgerStore is the embedded Store. Values are JSON documents, secondary
// indices are empty-valued keys ordered by zero-padded timestamps.
//
// Key layout:
//
//	room:{id}                           room document
//	roomname:{lower(name)}:{id}         active room name index
//	msg:{id}                            message document
//	idx:room:{room}:{ts}:{id}           room history
//	idx:scope:{scope}:{ts}:{id}         history per scope
//	idx:dm:{lo}:{hi}:{ts}:{id}          private conversation
//	user:{id}                           identity profile
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens a store at path, or an in-memory one when path is empty.
func OpenBadger(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLoggingLevel(badger.ERROR)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger open failed: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Ping(_ context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger is closed")
	}
	return nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// update runs fn in a read-write transaction and retries on optimistic
// conflicts. fn must reload everything it reads on each attempt.
func (s *BadgerStore) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return ErrConflict
}

func getJSON(txn *badger.Txn, key string, dst any) error {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dst)
	})
}

func setJSON(txn *badger.Txn, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return txn.Set([]byte(key), data)
}

func userKey(id uuid.UUID) string {
	return "user:" + id.String()
}

func (s *BadgerStore) SaveUser(ctx context.Context, user *models.User) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		return setJSON(txn, userKey(user.ID), user)
	})
}

func (s *BadgerStore) GetUsers(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error) {
	users := make(map[uuid.UUID]models.User, len(ids))
	err := s.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			var u models.User
			err := getJSON(txn, userKey(id), &u)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			users[id] = u
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}
