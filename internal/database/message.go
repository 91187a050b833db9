package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/thereayou/hr-portal/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (d *Database) SaveMessage(ctx context.Context, message *models.Message) error {
	return d.db.WithContext(ctx).Create(message).Error
}

func (d *Database) GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	var message models.Message
	if err := d.db.WithContext(ctx).First(&message, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &message, nil
}

func (d *Database) UpdateMessage(ctx context.Context, id uuid.UUID, fn func(msg *models.Message) error) (*models.Message, error) {
	var message models.Message
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&message, "id = ?", id).Error; err != nil {
			return translate(err)
		}
		if err := fn(&message); err != nil {
			if errors.Is(err, ErrSkip) {
				return nil
			}
			return err
		}
		return tx.Save(&message).Error
	})
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// RoomMessages returns room messages oldest first, paging backwards from q.Before.
func (d *Database) RoomMessages(ctx context.Context, roomID uuid.UUID, q MessageQuery) ([]models.Message, error) {
	return d.page(d.db.WithContext(ctx).Where("room_id = ?", roomID), q)
}

func (d *Database) Conversation(ctx context.Context, a, b uuid.UUID, q MessageQuery) ([]models.Message, error) {
	query := d.db.WithContext(ctx).
		Where("scope = ?", models.ScopePrivate).
		Where("(sender = ? AND receiver = ?) OR (sender = ? AND receiver = ?)", a, b, b, a)
	return d.page(query, q)
}

func (d *Database) GlobalMessages(ctx context.Context, q MessageQuery) ([]models.Message, error) {
	return d.page(d.db.WithContext(ctx).Where("scope = ?", models.ScopeGlobal), q)
}

func (d *Database) page(query *gorm.DB, q MessageQuery) ([]models.Message, error) {
	var messages []models.Message

	if q.Before != nil {
		query = query.Where("created_at < ?", *q.Before)
	}

	err := query.
		Order("created_at DESC").
		Limit(q.Limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	reverseMessages(messages)
	return messages, nil
}
