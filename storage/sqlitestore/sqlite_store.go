// Package sqlitestore persists local storage values in a SQLite database through gorm.
//
// # Usage
//
//	store, err := sqlitestore.Open("./data/local.db")
//	err = store.Set(storage.KeyCart, "[]")
package sqlitestore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/jrsteele09/go-shop-client/storage"
)

var _ storage.Store = (*Store)(nil)

// LocalItem is one persisted key/value pair
type LocalItem struct {
	Key       string `gorm:"primaryKey"`
	Value     string
	UpdatedAt time.Time
}

// Store handles all local item database operations.
type Store struct {
	db *gorm.DB
}

// Open opens (creating when needed) the database at path and migrates the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("[sqlitestore Open] failed to create %s: %w", dir, err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("[sqlitestore Open] failed to connect to database: %w", err)
	}
	return New(db)
}

// New wraps an existing connection and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&LocalItem{}); err != nil {
		return nil, fmt.Errorf("[sqlitestore New] failed to migrate database: %w", err)
	}
	return &Store{db: db}, nil
}

// Get retrieves a value by key.
func (s *Store) Get(key string) (string, bool, error) {
	var item LocalItem
	err := s.db.Where("key = ?", key).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("[sqlitestore Get] %s: %w", key, err)
	}
	return item.Value, true, nil
}

// Set creates or updates a value.
func (s *Store) Set(key, value string) error {
	item := LocalItem{Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&item).Error
	if err != nil {
		return fmt.Errorf("[sqlitestore Set] %s: %w", key, err)
	}
	return nil
}

// Remove deletes a value by key. Removing a missing key is not an error.
func (s *Store) Remove(key string) error {
	if err := s.db.Where("key = ?", key).Delete(&LocalItem{}).Error; err != nil {
		return fmt.Errorf("[sqlitestore Remove] %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
