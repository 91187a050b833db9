package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/thereayou/hr-portal/internal/models"
)

// seekEnd sorts after every 19-digit timestamp.
const seekEnd = "9999999999999999999"

func messageKey(id uuid.UUID) string {
	return "msg:" + id.String()
}

func roomIndexPrefix(roomID uuid.UUID) string {
	return fmt.Sprintf("idx:room:%s:", roomID)
}

func scopeIndexPrefix(scope models.Scope) string {
	return fmt.Sprintf("idx:scope:%s:", scope)
}

// conversationPrefix is symmetric in a and b.
func conversationPrefix(a, b uuid.UUID) string {
	lo, hi := a.String(), b.String()
	if hi < lo {
		lo, hi = hi, lo
	}
	return fmt.Sprintf("idx:dm:%s:%s:", lo, hi)
}

func indexSuffix(msg *models.Message) string {
	return fmt.Sprintf("%019d:%s", msg.CreatedAt.UnixNano(), msg.ID)
}

func putMessage(txn *badger.Txn, msg *models.Message) error {
	if err := setJSON(txn, messageKey(msg.ID), msg); err != nil {
		return err
	}

	keys := []string{scopeIndexPrefix(msg.Scope) + indexSuffix(msg)}
	switch msg.Scope {
	case models.ScopeRoom:
		keys = append(keys, roomIndexPrefix(*msg.RoomID)+indexSuffix(msg))
	case models.ScopePrivate:
		keys = append(keys, conversationPrefix(msg.Sender, *msg.Receiver)+indexSuffix(msg))
	}
	for _, key := range keys {
		if err := txn.Set([]byte(key), nil); err != nil {
			return err
		}
	}
	return nil
}

func (s *BadgerStore) SaveMessage(ctx context.Context, msg *models.Message) error {
	if !msg.ScopeConsistent() {
		return fmt.Errorf("message %s has inconsistent scope %q", msg.ID, msg.Scope)
	}
	return s.update(ctx, func(txn *badger.Txn) error {
		return putMessage(txn, msg)
	})
}

func (s *BadgerStore) GetMessage(_ context.Context, id uuid.UUID) (*models.Message, error) {
	var msg models.Message
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, messageKey(id), &msg)
	})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *BadgerStore) UpdateMessage(ctx context.Context, id uuid.UUID, fn func(msg *models.Message) error) (*models.Message, error) {
	var msg models.Message
	err := s.update(ctx, func(txn *badger.Txn) error {
		msg = models.Message{}
		if err := getJSON(txn, messageKey(id), &msg); err != nil {
			return err
		}
		if err := fn(&msg); err != nil {
			if errors.Is(err, ErrSkip) {
				return nil
			}
			return err
		}
		return setJSON(txn, messageKey(id), &msg)
	})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *BadgerStore) RoomMessages(_ context.Context, roomID uuid.UUID, q MessageQuery) ([]models.Message, error) {
	return s.page(roomIndexPrefix(roomID), q)
}

func (s *BadgerStore) Conversation(_ context.Context, a, b uuid.UUID, q MessageQuery) ([]models.Message, error) {
	return s.page(conversationPrefix(a, b), q)
}

func (s *BadgerStore) GlobalMessages(_ context.Context, q MessageQuery) ([]models.Message, error) {
	return s.page(scopeIndexPrefix(models.ScopeGlobal), q)
}

// page walks an index backwards from q.Before (exclusive) and returns up to
// q.Limit messages oldest first.
func (s *BadgerStore) page(prefix string, q MessageQuery) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := prefix + seekEnd
		if q.Before != nil {
			seek = fmt.Sprintf("%s%019d", prefix, q.Before.UnixNano())
		}

		var ids []uuid.UUID
		for it.Seek([]byte(seek)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			if q.Limit > 0 && len(ids) == q.Limit {
				break
			}
			rest := strings.TrimPrefix(string(it.Item().Key()), prefix)
			_, rawID, ok := strings.Cut(rest, ":")
			if !ok {
				continue
			}
			id, err := uuid.Parse(rawID)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}

		for _, id := range ids {
			var msg models.Message
			if err := getJSON(txn, messageKey(id), &msg); err != nil {
				return err
			}
			messages = append(messages, msg)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	reverseMessages(messages)
	return messages, nil
}
