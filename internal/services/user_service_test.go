package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/tbourn/go-movie-catalog/internal/repo"
)

func validRegister(username string) RegisterInput {
	return RegisterInput{
		Username:     username,
		Password:     "Abcdef1!",
		EmailAddress: "someone@example.com",
		FirstName:    "Some",
		LastName:     "One",
	}
}

func strptr(s string) *string { return &s }

func TestValidUsernameAndPassword(t *testing.T) {
	usernames := map[string]bool{
		"ab":                 false,
		"validuser":          true,
		"with space":         false,
		"exactly6":           true,
		strings.Repeat("a", 32): true,
		strings.Repeat("a", 33): false,
	}
	for in, want := range usernames {
		if got := validUsername(in); got != want {
			t.Errorf("validUsername(%q)=%v want %v", in, got, want)
		}
	}

	passwords := map[string]bool{
		"Abcdef1!":                 true,
		"abcdef1!":                 false, // no upper
		"ABCDEF1!":                 false, // no lower
		"Abcdefg!":                 false, // no digit
		"Abcdefg1":                 false, // no symbol
		"Ab1!":                     false, // too short
		"Abc1`efg":                 true,
		"Ab1!" + strings.Repeat("x", 29): false, // 33 chars
		"Ab1!" + strings.Repeat("é", 28): true,  // 32 chars, 60 bytes
		"Ab1!" + strings.Repeat("密", 25): false, // 29 chars, 79 bytes: over bcrypt's limit
	}
	for in, want := range passwords {
		if got := validPassword(in); got != want {
			t.Errorf("validPassword(%q)=%v want %v", in, got, want)
		}
	}
}

func TestUser_RegisterValidation(t *testing.T) {
	svc := NewUserService(nil, bcrypt.MinCost) // validation fails before the store
	cases := []struct {
		mut  func(*RegisterInput)
		want error
	}{
		{func(in *RegisterInput) { in.Username = "ab" }, ErrInvalidUsername},
		{func(in *RegisterInput) { in.Password = "weak" }, ErrInvalidPassword},
		{func(in *RegisterInput) { in.Password = "Ab1!" + strings.Repeat("密", 25) }, ErrInvalidPassword},
		{func(in *RegisterInput) { in.EmailAddress = "nobody.example.com" }, ErrInvalidEmail},
		{func(in *RegisterInput) { in.FirstName = "  " }, ErrInvalidFirstName},
		{func(in *RegisterInput) { in.LastName = strings.Repeat("z", 256) }, ErrInvalidLastName},
		// First failing field wins.
		{func(in *RegisterInput) { in.Username = ""; in.Password = "" }, ErrInvalidUsername},
	}
	for i, c := range cases {
		in := validRegister("validuser")
		c.mut(&in)
		if _, err := svc.Register(context.Background(), in); !errors.Is(err, c.want) {
			t.Fatalf("case %d: expected %v, got %v", i, c.want, err)
		}
		if KindOf(c.want) != KindValidation {
			t.Fatalf("case %d: expected validation kind", i)
		}
	}
}

func TestUser_RegisterLoginFlow(t *testing.T) {
	db := newServiceDB(t)
	svc := NewUserService(db, bcrypt.MinCost)
	ctx := context.Background()

	p, err := svc.Register(ctx, validRegister("validuser"))
	if err != nil || p.UserID == 0 || p.Username != "validuser" {
		t.Fatalf("Register: %+v err=%v", p, err)
	}
	u, _ := repo.GetUserByID(ctx, db, p.UserID)
	if u.PasswordHash == "Abcdef1!" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("Abcdef1!")) != nil {
		t.Fatalf("password must be stored as a bcrypt hash")
	}

	if _, err := svc.Register(ctx, validRegister("validuser")); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	got, err := svc.Login(ctx, "validuser", "Abcdef1!")
	if err != nil || got.UserID != p.UserID || got.EmailAddress != "someone@example.com" {
		t.Fatalf("Login: %+v err=%v", got, err)
	}
	if _, err := svc.Login(ctx, "validuser", "Wrong1!x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody99", "Abcdef1!"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	if got, err := svc.Get(ctx, p.UserID); err != nil || got.Username != "validuser" {
		t.Fatalf("Get: %+v err=%v", got, err)
	}
	if _, err := svc.Get(ctx, 999); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("Get unknown: %v", err)
	}
}

func TestUser_Update(t *testing.T) {
	db := newServiceDB(t)
	svc := NewUserService(db, bcrypt.MinCost)
	ctx := context.Background()

	p, err := svc.Register(ctx, validRegister("updater1"))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Register(ctx, validRegister("occupied")); err != nil {
		t.Fatalf("Register second: %v", err)
	}

	if _, err := svc.Update(ctx, p, UpdateInput{}); !errors.Is(err, ErrNothingToUpdate) {
		t.Fatalf("expected ErrNothingToUpdate, got %v", err)
	}
	if _, err := svc.Update(ctx, p, UpdateInput{EmailAddress: strptr("no-at-sign")}); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
	if _, err := svc.Update(ctx, p, UpdateInput{FirstName: strptr("")}); !errors.Is(err, ErrInvalidFirstName) {
		t.Fatalf("expected ErrInvalidFirstName for empty value, got %v", err)
	}
	if _, err := svc.Update(ctx, p, UpdateInput{Username: strptr("occupied")}); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	out, err := svc.Update(ctx, p, UpdateInput{
		FirstName: strptr("Renamed"),
		Password:  strptr("Newpass9$"),
	})
	if err != nil || out.FirstName != "Renamed" || out.LastName != "One" {
		t.Fatalf("Update: %+v err=%v", out, err)
	}
	if _, err := svc.Login(ctx, "updater1", "Newpass9$"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}

	// Same values again still succeed.
	if _, err := svc.Update(ctx, out, UpdateInput{FirstName: strptr("Renamed")}); err != nil {
		t.Fatalf("idempotent update: %v", err)
	}
}

func TestUser_DeleteRemovesEntries(t *testing.T) {
	db := newServiceDB(t)
	users := NewUserService(db, bcrypt.MinCost)
	coll := NewCollectionService(db)
	ctx := context.Background()

	p, err := users.Register(ctx, validRegister("deleteme"))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := coll.AddToCatalog(ctx, p, ref(70, "Tron"), 1); err != nil {
		t.Fatalf("AddToCatalog: %v", err)
	}
	if _, err := coll.AddToWishList(ctx, p, ref(71, "Dune")); err != nil {
		t.Fatalf("AddToWishList: %v", err)
	}

	if err := users.Delete(ctx, p); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if items, _ := repo.ListCatalog(ctx, db, p.UserID); len(items) != 0 {
		t.Fatalf("catalog rows remain: %+v", items)
	}
	if items, _ := repo.ListWishList(ctx, db, p.UserID); len(items) != 0 {
		t.Fatalf("wish-list rows remain: %+v", items)
	}
	if err := users.Delete(ctx, p); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("second Delete: expected ErrUserNotFound, got %v", err)
	}
}

func TestHashPassword_TooLongIsInvalidPassword(t *testing.T) {
	if _, err := hashPassword(strings.Repeat("密", 25), bcrypt.MinCost); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
	if KindOf(ErrInvalidPassword) != KindValidation {
		t.Fatalf("too-long password must be a validation outcome")
	}
	hash, err := hashPassword("Abcdef1!", bcrypt.MinCost)
	if err != nil || bcrypt.CompareHashAndPassword([]byte(hash), []byte("Abcdef1!")) != nil {
		t.Fatalf("hashPassword: %q err=%v", hash, err)
	}
}
