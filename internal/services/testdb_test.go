package services

import (
	"context"
	"fmt"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-movie-catalog/internal/domain"
	"github.com/tbourn/go-movie-catalog/internal/repo"
)

func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) domain.Principal {
	t.Helper()
	u := &domain.User{Username: username, PasswordHash: "x", FirstName: "F", LastName: "L", EmailAddress: username + "@example.com"}
	if err := repo.CreateUser(context.Background(), db, u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u.Principal()
}

func ref(tmdbID int64, title string) MovieRef {
	return MovieRef{TMDbID: tmdbID, IMDbID: fmt.Sprintf("tt%07d", tmdbID), Title: title, Poster: "/" + title + ".jpg"}
}

// failOn registers a create callback that fails inserts into table.
func failOn(t *testing.T, db *gorm.DB, op, table string) {
	t.Helper()
	name := "test:fail_" + op + "_" + table
	fn := func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			_ = tx.AddError(fmt.Errorf("injected %s failure on %s", op, table))
		}
	}
	var err error
	switch op {
	case "create":
		err = db.Callback().Create().Before("gorm:create").Register(name, fn)
	case "delete":
		err = db.Callback().Delete().Before("gorm:delete").Register(name, fn)
	case "query":
		err = db.Callback().Query().Before("gorm:query").Register(name, fn)
	}
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}
}
