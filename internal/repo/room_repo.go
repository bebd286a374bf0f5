// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Room model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Expiry semantics:
//   - Every read excludes rows whose expires_at has passed, so an expired
//     room is indistinguishable from one that never existed, regardless of
//     whether the background sweeper has already purged it.
//   - When a room is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/NamanSingh02/Restaurant-Bill-Split/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist or has
// expired. It aliases gorm.ErrRecordNotFound for consistency across the
// service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateRoom inserts a new Room row. The caller is responsible for having
// allocated a free code; a duplicate code surfaces as a DB constraint error.
func CreateRoom(ctx context.Context, db *gorm.DB, room *domain.Room) error {
	return db.WithContext(ctx).Create(room).Error
}

// GetRoom fetches a live (non-expired) room by code. It returns ErrNotFound
// when the room is absent or expired. On other DB errors, the raw error is
// returned.
func GetRoom(ctx context.Context, db *gorm.DB, code string, now time.Time) (*domain.Room, error) {
	var r domain.Room
	err := db.WithContext(ctx).
		Where("code = ? AND expires_at > ?", code, now).
		First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// RoomCodeExists reports whether a live room currently holds the given code.
// Expired rows do not count: their codes are free for reuse.
func RoomCodeExists(ctx context.Context, db *gorm.DB, code string, now time.Time) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Room{}).
		Where("code = ? AND expires_at > ?", code, now).
		Count(&n).Error
	return n > 0, err
}

// PurgeExpired hard-deletes rooms and food items whose expires_at has
// passed, returning the number of rows removed. Reads never see expired rows
// either way; the purge only reclaims storage.
func PurgeExpired(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	rooms := db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&domain.Room{})
	if rooms.Error != nil {
		return rooms.RowsAffected, rooms.Error
	}
	items := db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&domain.FoodItem{})
	return rooms.RowsAffected + items.RowsAffected, items.Error
}
