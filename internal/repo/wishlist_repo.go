package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-movie-catalog/internal/domain"
)

// WishListExists reports whether userID has wished for movieID.
func WishListExists(ctx context.Context, db *gorm.DB, userID, movieID uint) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.WishListEntry{}).
		Where("user_id = ? AND movie_id = ?", userID, movieID).
		Count(&n).Error
	return n > 0, err
}

// InsertWishListEntry adds movieID to userID's wish list.
func InsertWishListEntry(ctx context.Context, db *gorm.DB, userID, movieID uint) error {
	e := &domain.WishListEntry{
		UserID:    userID,
		MovieID:   movieID,
		CreatedAt: time.Now().UTC(),
	}
	return db.WithContext(ctx).Create(e).Error
}

// DeleteWishListEntry removes the (userID, movieID) entry and reports how many
// rows were deleted.
func DeleteWishListEntry(ctx context.Context, db *gorm.DB, userID, movieID uint) (int64, error) {
	res := db.WithContext(ctx).
		Where("user_id = ? AND movie_id = ?", userID, movieID).
		Delete(&domain.WishListEntry{})
	return res.RowsAffected, res.Error
}

// ListWishList returns userID's wish list joined with movie metadata, most
// recently added first.
func ListWishList(ctx context.Context, db *gorm.DB, userID uint) ([]domain.CollectionItem, error) {
	out := []domain.CollectionItem{}
	err := db.WithContext(ctx).
		Table("wish_list AS w").
		Select("m.id AS movie_id, m.tmdb_id, m.imdb_id, m.title, m.poster, m.release_date").
		Joins("JOIN movies AS m ON m.id = w.movie_id").
		Where("w.user_id = ?", userID).
		Order("w.created_at DESC, m.id DESC").
		Scan(&out).Error
	return out, err
}

// DeleteWishListByUser removes every wish-list entry owned by userID.
func DeleteWishListByUser(ctx context.Context, db *gorm.DB, userID uint) error {
	return db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&domain.WishListEntry{}).Error
}
