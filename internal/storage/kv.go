package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Keys of the blobs the client keeps between runs.
const (
	KeyUser        = "user"
	KeyAccessToken = "accessToken"
	KeyUserPhone   = "userPhone"
	KeyCart        = "cart"

	// KeyPendingOrders maps an order awaiting online payment to its cart lines.
	KeyPendingOrders = "pendingOrders"
)

// KV is a flat string key-value store.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, keys ...string) error
}

type Entry struct {
	Key       string    `gorm:"column:item_key;primaryKey;size:64"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (Entry) TableName() string {
	return "kv_entries"
}

type GormKV struct {
	DB *gorm.DB
}

func NewGormKV(db *gorm.DB) (*GormKV, error) {
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrate kv_entries: %w", err)
	}
	return &GormKV{DB: db}, nil
}

func (s *GormKV) Get(ctx context.Context, key string) (string, bool, error) {
	var e Entry
	err := s.DB.WithContext(ctx).Where("item_key = ?", key).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return e.Value, true, nil
}

func (s *GormKV) Set(ctx context.Context, key, value string) error {
	e := Entry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "item_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
}

func (s *GormKV) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.DB.WithContext(ctx).Where("item_key IN ?", keys).Delete(&Entry{}).Error
}
