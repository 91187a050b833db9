package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/thereayou/hr-portal/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func orderMembers(db *gorm.DB) *gorm.DB {
	return db.Order("joined_at ASC")
}

func (d *Database) CreateRoom(ctx context.Context, room *models.Room, uniqueName bool) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if uniqueName {
			if err := nameTaken(tx, room.Name, room.ID); err != nil {
				return err
			}
		}
		if err := tx.Omit(clause.Associations).Create(room).Error; err != nil {
			return translate(err)
		}
		return insertMembers(tx, room)
	})
}

func (d *Database) GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	var room models.Room
	if err := d.db.WithContext(ctx).Preload("Members", orderMembers).First(&room, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &room, nil
}

// UpdateRoom holds a row lock on the room for the whole transaction so
// concurrent mutators on other instances serialize behind it.
func (d *Database) UpdateRoom(ctx context.Context, id uuid.UUID, upd RoomUpdate, fn func(room *models.Room) error) (*models.Room, error) {
	var room models.Room
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&room, "id = ?", id).Error; err != nil {
			return translate(err)
		}
		if err := orderMembers(tx.Where("room_id = ?", id)).Find(&room.Members).Error; err != nil {
			return err
		}
		before := room.Name

		if err := fn(&room); err != nil {
			if errors.Is(err, ErrSkip) {
				return nil
			}
			return err
		}

		if upd.UniqueName && room.IsActive && before != room.Name {
			if err := nameTaken(tx, room.Name, room.ID); err != nil {
				return err
			}
		}
		if err := tx.Omit(clause.Associations).Save(&room).Error; err != nil {
			return translate(err)
		}
		if err := tx.Where("room_id = ?", id).Delete(&models.Member{}).Error; err != nil {
			return err
		}
		if err := insertMembers(tx, &room); err != nil {
			return err
		}
		if upd.Message != nil {
			return tx.Create(upd.Message).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (d *Database) ListRooms(ctx context.Context, filter RoomFilter) ([]models.Room, error) {
	var rooms []models.Room

	query := d.db.WithContext(ctx).Where("is_active = ?", true)
	if filter.PublicOnly {
		query = query.Where("is_private = ?", false)
	}
	if filter.MemberID != nil {
		members := d.db.Model(&models.Member{}).Select("room_id").Where("user_id = ?", *filter.MemberID)
		query = query.Where("id IN (?)", members)
	}

	err := query.
		Order("last_activity DESC").
		Limit(filter.Limit).
		Preload("Members", orderMembers).
		Find(&rooms).Error
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

func nameTaken(tx *gorm.DB, name string, exclude uuid.UUID) error {
	var count int64
	err := tx.Model(&models.Room{}).
		Where("lower(name) = lower(?) AND is_active = ? AND id <> ?", name, true, exclude).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrNameTaken
	}
	return nil
}

func insertMembers(tx *gorm.DB, room *models.Room) error {
	if len(room.Members) == 0 {
		return nil
	}
	for i := range room.Members {
		room.Members[i].RoomID = room.ID
	}
	return tx.Create(&room.Members).Error
}
