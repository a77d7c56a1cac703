package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-movie-catalog/internal/domain"
)

// TruncateNewReleases deletes every row of the release snapshot.
func TruncateNewReleases(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&domain.NewRelease{}).Error
}

// InsertNewRelease appends r to the snapshot and fills in its ID.
func InsertNewRelease(ctx context.Context, db *gorm.DB, r *domain.NewRelease) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(r).Error
}

// ListNewReleases returns the snapshot in listing order. Rows sharing a
// position keep insertion order.
func ListNewReleases(ctx context.Context, db *gorm.DB) ([]domain.NewRelease, error) {
	out := []domain.NewRelease{}
	err := db.WithContext(ctx).
		Order("position ASC").
		Order("id ASC").
		Find(&out).Error
	return out, err
}

// CountNewReleases returns the number of snapshot rows.
func CountNewReleases(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.NewRelease{}).Count(&n).Error
	return n, err
}
