package domain

import (
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:domain_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// Enforce FKs so cascades actually execute.
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := db.AutoMigrate(All()...); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestTableNames(t *testing.T) {
	cases := map[string]string{
		(User{}).TableName():          "users",
		(Movie{}).TableName():         "movies",
		(CatalogEntry{}).TableName():  "catalog",
		(WishListEntry{}).TableName(): "wish_list",
		(NewRelease{}).TableName():    "new_releases",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("TableName() = %q; want %q", got, want)
		}
	}
}

func TestUser_Principal(t *testing.T) {
	u := User{ID: 7, Username: "validuser", FirstName: "Ada", LastName: "Lovelace", EmailAddress: "ada@example.com", PasswordHash: "x"}
	p := u.Principal()
	if p.UserID != 7 || p.Username != "validuser" || p.FirstName != "Ada" || p.LastName != "Lovelace" || p.EmailAddress != "ada@example.com" {
		t.Fatalf("unexpected principal: %+v", p)
	}
}

func TestMigrations_Indexes(t *testing.T) {
	db := newDomainDB(t)
	m := db.Migrator()

	for _, tbl := range All() {
		if !m.HasTable(tbl) {
			t.Fatalf("expected table for %T to exist", tbl)
		}
	}
	if !m.HasIndex(&User{}, "ux_users_username") {
		t.Fatalf("expected unique index ux_users_username on users")
	}
	if !m.HasIndex(&Movie{}, "ux_movies_tmdb") {
		t.Fatalf("expected unique index ux_movies_tmdb on movies")
	}
	if !m.HasIndex(&NewRelease{}, "idx_new_releases_week") {
		t.Fatalf("expected index idx_new_releases_week on new_releases")
	}
}

func TestMigrations_Constraints(t *testing.T) {
	db := newDomainDB(t)
	now := time.Now().UTC()

	u := &User{Username: "validuser", PasswordHash: "h", FirstName: "A", LastName: "B", EmailAddress: "a@b.c", CreatedAt: now}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("insert user: %v", err)
	}
	mv := &Movie{TMDbID: 550, IMDbID: "tt0137523", Title: "Fight Club", Poster: "/p.jpg", CreatedAt: now}
	if err := db.Create(mv).Error; err != nil {
		t.Fatalf("insert movie: %v", err)
	}

	// tmdb_id is unique
	if err := db.Create(&Movie{TMDbID: 550, Title: "dup", Poster: "/d.jpg"}).Error; err == nil {
		t.Fatalf("expected unique violation on duplicate tmdb_id")
	}

	// copies >= 1
	if err := db.Create(&CatalogEntry{UserID: u.ID, MovieID: mv.ID, Copies: -1}).Error; err == nil {
		t.Fatalf("expected check violation for negative copies")
	}
	if err := db.Create(&CatalogEntry{UserID: u.ID, MovieID: mv.ID, Copies: 2}).Error; err != nil {
		t.Fatalf("insert catalog: %v", err)
	}
	// composite primary key
	if err := db.Create(&CatalogEntry{UserID: u.ID, MovieID: mv.ID, Copies: 1}).Error; err == nil {
		t.Fatalf("expected primary key violation on duplicate catalog entry")
	}

	// CASCADE: deleting the user removes their entries
	if err := db.Delete(&User{}, u.ID).Error; err != nil {
		t.Fatalf("delete user: %v", err)
	}
	var cnt int64
	if err := db.Model(&CatalogEntry{}).Where("user_id = ?", u.ID).Count(&cnt).Error; err != nil {
		t.Fatalf("count catalog: %v", err)
	}
	if cnt != 0 {
		t.Fatalf("expected catalog to cascade-delete with user, got %d", cnt)
	}
}
