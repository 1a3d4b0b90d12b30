package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"axiapac.com/punchclock/core"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Entry struct {
	Key       string    `gorm:"primaryKey;column:key;type:varchar(191)"`
	Value     string    `gorm:"column:value;type:longtext;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;not null;default:CURRENT_TIMESTAMP on update CURRENT_TIMESTAMP"`
}

func (Entry) TableName() string {
	return "punchclock_kv"
}

// GormStore keeps keys as rows of punchclock_kv in one MySQL schema.
type GormStore struct {
	dm     *core.DatabaseManager
	schema string
}

func NewGormStore(dm *core.DatabaseManager, schema string) *GormStore {
	return &GormStore{dm: dm, schema: schema}
}

// Migrate creates the backing table when it does not exist yet.
func (s *GormStore) Migrate(ctx context.Context) error {
	return s.dm.Exec(ctx, s.schema, func(db *gorm.DB) error {
		if db.Migrator().HasTable(&Entry{}) {
			return nil
		}
		if err := db.Migrator().CreateTable(&Entry{}); err != nil {
			return fmt.Errorf("failed to create table for %T: %w", Entry{}, err)
		}
		return nil
	})
}

func (s *GormStore) Get(ctx context.Context, key string) (string, bool, error) {
	var entry Entry
	found := false
	err := s.dm.Exec(ctx, s.schema, func(db *gorm.DB) error {
		err := db.Where(&Entry{Key: key}).Take(&entry).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return "", false, err
	}
	return entry.Value, found, nil
}

func (s *GormStore) Set(ctx context.Context, key, value string) error {
	return s.dm.Exec(ctx, s.schema, func(db *gorm.DB) error {
		entry := Entry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
		return db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}}, // conflict key
			UpdateAll: true,                           // update all fields on conflict
		}).Create(&entry).Error
	})
}

func (s *GormStore) Remove(ctx context.Context, key string) error {
	return s.dm.Exec(ctx, s.schema, func(db *gorm.DB) error {
		return db.Where(&Entry{Key: key}).Delete(&Entry{}).Error
	})
}

func (s *GormStore) Clear(ctx context.Context) error {
	return s.dm.Exec(ctx, s.schema, func(db *gorm.DB) error {
		return db.Where("1 = 1").Delete(&Entry{}).Error
	})
}
