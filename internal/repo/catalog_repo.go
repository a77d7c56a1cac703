package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-movie-catalog/internal/domain"
)

// CatalogExists reports whether userID has a catalog entry for movieID.
func CatalogExists(ctx context.Context, db *gorm.DB, userID, movieID uint) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.CatalogEntry{}).
		Where("user_id = ? AND movie_id = ?", userID, movieID).
		Count(&n).Error
	return n > 0, err
}

// InsertCatalogEntry adds movieID to userID's catalog with the given copy count.
func InsertCatalogEntry(ctx context.Context, db *gorm.DB, userID, movieID uint, copies int) error {
	now := time.Now().UTC()
	e := &domain.CatalogEntry{
		UserID:    userID,
		MovieID:   movieID,
		Copies:    copies,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return db.WithContext(ctx).Create(e).Error
}

// DeleteCatalogEntry removes the (userID, movieID) entry and reports how many
// rows were deleted. Deleting an absent entry is not an error.
func DeleteCatalogEntry(ctx context.Context, db *gorm.DB, userID, movieID uint) (int64, error) {
	res := db.WithContext(ctx).
		Where("user_id = ? AND movie_id = ?", userID, movieID).
		Delete(&domain.CatalogEntry{})
	return res.RowsAffected, res.Error
}

// UpdateCatalogCopies sets the copy count of the (userID, movieID) entry and
// reports how many rows changed. Updating an absent entry is not an error.
func UpdateCatalogCopies(ctx context.Context, db *gorm.DB, userID, movieID uint, copies int) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.CatalogEntry{}).
		Where("user_id = ? AND movie_id = ?", userID, movieID).
		Updates(map[string]any{"copies": copies, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

// ListCatalog returns userID's catalog joined with movie metadata, most
// recently added first.
func ListCatalog(ctx context.Context, db *gorm.DB, userID uint) ([]domain.CollectionItem, error) {
	out := []domain.CollectionItem{}
	err := db.WithContext(ctx).
		Table("catalog AS c").
		Select("m.id AS movie_id, m.tmdb_id, m.imdb_id, m.title, m.poster, m.release_date, c.copies").
		Joins("JOIN movies AS m ON m.id = c.movie_id").
		Where("c.user_id = ?", userID).
		Order("c.created_at DESC, m.id DESC").
		Scan(&out).Error
	return out, err
}

// DeleteCatalogByUser removes every catalog entry owned by userID.
func DeleteCatalogByUser(ctx context.Context, db *gorm.DB, userID uint) error {
	return db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&domain.CatalogEntry{}).Error
}
