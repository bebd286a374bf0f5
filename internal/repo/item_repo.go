// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the FoodItem
// model. Items are append-only: there is no update or single-item delete,
// only the TTL purge shared with rooms.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/NamanSingh02/Restaurant-Bill-Split/internal/domain"
)

// CreateItem appends a validated food item to the ledger.
func CreateItem(ctx context.Context, db *gorm.DB, item *domain.FoodItem) error {
	return db.WithContext(ctx).Create(item).Error
}

// ListItems returns all live items for a room ordered by creation time
// ascending. Expired items are excluded even when the purge has not run yet.
// It returns an empty slice when the room has no items.
func ListItems(ctx context.Context, db *gorm.DB, roomCode string, now time.Time) ([]domain.FoodItem, error) {
	var out []domain.FoodItem
	err := db.WithContext(ctx).
		Where("room_code = ? AND expires_at > ?", roomCode, now).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}
