// Package domain defines the persistence models for users, movies, catalog
// and wish-list entries, and the weekly new-release snapshot. These types are
// mapped with GORM and form the core data layer of the movie catalog.
package domain

import (
	"time"
)

// User is a registered account. Username is unique; the password is only
// ever stored as a salted hash.
type User struct {
	ID           uint      `json:"user_id"       gorm:"primaryKey;autoIncrement"`
	Username     string    `json:"username"      gorm:"type:varchar(32);not null;uniqueIndex:ux_users_username"`
	PasswordHash string    `json:"-"             gorm:"type:varchar(255);not null"`
	FirstName    string    `json:"first_name"    gorm:"type:varchar(255);not null"`
	LastName     string    `json:"last_name"     gorm:"type:varchar(255);not null"`
	EmailAddress string    `json:"email_address" gorm:"column:email;type:varchar(255);not null"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Principal returns the session projection of u.
func (u User) Principal() Principal {
	return Principal{
		UserID:       u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		EmailAddress: u.EmailAddress,
	}
}

// Movie is the deduplicated metadata row shared by catalog and wish-list
// entries. TMDbID is the external identity; ID is the surrogate key.
//
// Rows are append-only: nothing in normal operation deletes a movie.
type Movie struct {
	ID          uint      `json:"movie_id"     gorm:"primaryKey;autoIncrement"`
	IMDbID      string    `json:"imdb_id"      gorm:"column:imdb_id;type:varchar(16);index:idx_movies_imdb"`
	TMDbID      int64     `json:"tmdb_id"      gorm:"column:tmdb_id;not null;uniqueIndex:ux_movies_tmdb"`
	Title       string    `json:"title"        gorm:"type:varchar(255);not null"`
	Poster      string    `json:"poster"       gorm:"type:varchar(512);not null"`
	ReleaseDate string    `json:"release_date" gorm:"type:varchar(32)"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName returns the database table name for Movie.
func (Movie) TableName() string { return "movies" }

// CatalogEntry records that a user owns Copies copies of a movie.
// (UserID, MovieID) is the primary key; Copies is always >= 1.
type CatalogEntry struct {
	UserID    uint      `json:"user_id"  gorm:"primaryKey;autoIncrement:false"`
	MovieID   uint      `json:"movie_id" gorm:"primaryKey;autoIncrement:false;index:idx_catalog_movie"`
	Copies    int       `json:"copies"   gorm:"not null;default:1;check:copies >= 1"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User  User  `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Movie Movie `json:"-" gorm:"foreignKey:MovieID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for CatalogEntry.
func (CatalogEntry) TableName() string { return "catalog" }

// WishListEntry records that a user wants a movie they do not own.
type WishListEntry struct {
	UserID    uint      `json:"user_id"  gorm:"primaryKey;autoIncrement:false"`
	MovieID   uint      `json:"movie_id" gorm:"primaryKey;autoIncrement:false;index:idx_wish_list_movie"`
	CreatedAt time.Time `json:"created_at"`

	User  User  `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Movie Movie `json:"-" gorm:"foreignKey:MovieID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for WishListEntry.
func (WishListEntry) TableName() string { return "wish_list" }

// NewRelease is one row of the weekly release snapshot. It is not linked to
// Movie and the whole table is replaced by every ingestion run. Position is
// the row's index in the scraped listing.
type NewRelease struct {
	ID          uint      `json:"id"           gorm:"primaryKey;autoIncrement"`
	Position    int       `json:"position"     gorm:"not null;default:0;index:idx_new_releases_position"`
	IMDbID      string    `json:"imdb_id"      gorm:"column:imdb_id;type:varchar(16)"`
	TMDbID      int64     `json:"tmdb_id"      gorm:"column:tmdb_id"`
	Title       string    `json:"title"        gorm:"type:varchar(255);not null"`
	Poster      string    `json:"poster"       gorm:"type:varchar(512)"`
	ReleaseWeek string    `json:"release_week" gorm:"type:varchar(64);not null;index:idx_new_releases_week"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName returns the database table name for NewRelease.
func (NewRelease) TableName() string { return "new_releases" }

// Principal is the authenticated user projection carried by a session and
// passed explicitly into every workflow call.
type Principal struct {
	UserID       uint   `json:"user_id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	EmailAddress string `json:"email_address"`
}

// CollectionItem is a catalog or wish-list row joined with its movie.
// Copies is zero for wish-list items.
type CollectionItem struct {
	MovieID     uint   `json:"movie_id"          gorm:"column:movie_id"`
	TMDbID      int64  `json:"tmdb_id"           gorm:"column:tmdb_id"`
	IMDbID      string `json:"imdb_id"           gorm:"column:imdb_id"`
	Title       string `json:"title"             gorm:"column:title"`
	Poster      string `json:"poster"            gorm:"column:poster"`
	ReleaseDate string `json:"release_date"      gorm:"column:release_date"`
	Copies      int    `json:"copies,omitempty"  gorm:"column:copies"`
}

// All lists every persisted model in dependency order for migrations.
func All() []any {
	return []any{
		&User{},
		&Movie{},
		&CatalogEntry{},
		&WishListEntry{},
		&NewRelease{},
	}
}
