package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/hr-portal/internal/models"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrNameTaken = errors.New("room name already taken")
	ErrConflict  = errors.New("too many concurrent updates")
	// ErrSkip may be returned by an update callback to commit nothing and report success.
	ErrSkip = errors.New("skip write")
)

type RoomFilter struct {
	MemberID   *uuid.UUID
	PublicOnly bool
	Limit      int
}

type MessageQuery struct {
	Limit  int
	Before *time.Time
}

// RoomUpdate carries the side writes committed together with a room mutation.
type RoomUpdate struct {
	Message    *models.Message
	UniqueName bool
}

// Store is the persistence contract of the chat engine. Every write commits
// fully or not at all.
type Store interface {
	Ping(ctx context.Context) error
	Close() error

	CreateRoom(ctx context.Context, room *models.Room, uniqueName bool) error
	GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error)
	// UpdateRoom loads the room, applies fn and persists the room plus any
	// RoomUpdate side writes atomically. Errors from fn abort the write and are
	// returned unchanged.
	UpdateRoom(ctx context.Context, id uuid.UUID, upd RoomUpdate, fn func(room *models.Room) error) (*models.Room, error)
	ListRooms(ctx context.Context, filter RoomFilter) ([]models.Room, error)

	SaveMessage(ctx context.Context, msg *models.Message) error
	GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error)
	UpdateMessage(ctx context.Context, id uuid.UUID, fn func(msg *models.Message) error) (*models.Message, error)
	RoomMessages(ctx context.Context, roomID uuid.UUID, q MessageQuery) ([]models.Message, error)
	Conversation(ctx context.Context, a, b uuid.UUID, q MessageQuery) ([]models.Message, error)
	GlobalMessages(ctx context.Context, q MessageQuery) ([]models.Message, error)

	SaveUser(ctx context.Context, user *models.User) error
	GetUsers(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error)
}

// Database is the postgres-backed Store.
type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

var (
	_ Store = (*Database)(nil)
	_ Store = (*BadgerStore)(nil)
)

func reverseMessages(messages []models.Message) {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
}
