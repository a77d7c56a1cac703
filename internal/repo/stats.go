// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// primarily for conditional responses (e.g., ETag generation) in the HTTP
// layer. Each function is context-aware and safe to call from services or
// handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-movie-catalog/internal/domain"
)

// CatalogStats returns aggregate metadata for a user's catalog: the number of
// entries, the sum of their copies, and the maximum UpdatedAt among them.
//
// The copy sum is part of the result because a copy-count update on an entry
// written in the same second would otherwise leave count and timestamp
// unchanged. When the user has no entries, count and copies are 0 and
// maxUpdatedAt is nil.
func CatalogStats(ctx context.Context, db *gorm.DB, userID uint) (count, copies int64, maxUpdatedAt *time.Time, err error) {
	q := func() *gorm.DB {
		return db.WithContext(ctx).Model(&domain.CatalogEntry{}).Where("user_id = ?", userID)
	}

	// Count
	if err = q().Count(&count).Error; err != nil {
		return 0, 0, nil, err
	}
	if count == 0 {
		return 0, 0, nil, nil
	}

	var sum struct{ Total int64 }
	if err = q().Select("COALESCE(SUM(copies), 0) AS total").Scan(&sum).Error; err != nil {
		return 0, 0, nil, err
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q().Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, 0, nil, err
	}
	return count, sum.Total, &row.UpdatedAt, nil
}

// WishListStats returns the number of wish-list entries for userID and the
// maximum CreatedAt among them (nil when empty).
func WishListStats(ctx context.Context, db *gorm.DB, userID uint) (count int64, maxCreatedAt *time.Time, err error) {
	q := func() *gorm.DB {
		return db.WithContext(ctx).Model(&domain.WishListEntry{}).Where("user_id = ?", userID)
	}

	if err = q().Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	var row struct {
		CreatedAt time.Time
	}
	if err = q().Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.CreatedAt, nil
}
