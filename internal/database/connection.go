package database

import (
	"context"
	"errors"

	"github.com/thereayou/hr-portal/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens postgres and migrates the chat schema. uniqueNames adds a
// partial unique index on active room names.
func Connect(dsn string, uniqueNames bool) (*Database, error) {
	if dsn == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	d := NewDatabase(db)
	if err := d.Migrate(uniqueNames); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Database) Migrate(uniqueNames bool) error {
	if err := d.db.AutoMigrate(&models.User{}, &models.Room{}, &models.Member{}, &models.Message{}); err != nil {
		return err
	}
	if uniqueNames {
		return d.db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_rooms_active_name ON rooms (lower(name)) WHERE is_active`).Error
	}
	return nil
}

func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrNameTaken
	default:
		return err
	}
}
