// Package services – UserService
//
// UserService manages accounts: registration with validated fields and a
// bcrypt password hash, credential checks for login, partial profile updates
// and account deletion. Sessions themselves are handled by the auth package;
// this service only produces the domain.Principal a session carries.
package services

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/tbourn/go-movie-catalog/internal/domain"
	"github.com/tbourn/go-movie-catalog/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Username     string `json:"username"      validate:"username"`
	Password     string `json:"password"      validate:"password"`
	EmailAddress string `json:"email_address" validate:"contains=@"`
	FirstName    string `json:"first_name"    validate:"min=1,max=255"`
	LastName     string `json:"last_name"     validate:"min=1,max=255"`
}

// UpdateInput carries the account fields to change; nil fields are left as is.
type UpdateInput struct {
	Username     *string `json:"username,omitempty"      validate:"omitnil,username"`
	Password     *string `json:"password,omitempty"      validate:"omitnil,password"`
	EmailAddress *string `json:"email_address,omitempty" validate:"omitnil,contains=@"`
	FirstName    *string `json:"first_name,omitempty"    validate:"omitnil,min=1,max=255"`
	LastName     *string `json:"last_name,omitempty"     validate:"omitnil,min=1,max=255"`
}

func (in UpdateInput) empty() bool {
	return in.Username == nil && in.Password == nil && in.EmailAddress == nil &&
		in.FirstName == nil && in.LastName == nil
}

// UserService provides account operations.
type UserService struct {
	DB *gorm.DB
	// BcryptCost is the work factor for new password hashes.
	BcryptCost int
}

// NewUserService constructs a UserService hashing with the given bcrypt cost;
// a cost of zero selects bcrypt.DefaultCost.
func NewUserService(db *gorm.DB, bcryptCost int) *UserService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{DB: db, BcryptCost: bcryptCost}
}

// Register validates in, hashes the password and creates the account.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (domain.Principal, error) {
	tr := otel.Tracer("services/UserService")
	ctx, span := tr.Start(ctx, "Register",
		trace.WithAttributes(attribute.String("user.name", in.Username)),
	)
	defer span.End()

	in.Username = strings.TrimSpace(in.Username)
	in.EmailAddress = cleanText(in.EmailAddress)
	in.FirstName = cleanText(in.FirstName)
	in.LastName = cleanText(in.LastName)
	if err := validateAccount(in); err != nil {
		return domain.Principal{}, err
	}

	hash, err := hashPassword(in.Password, s.BcryptCost)
	if err != nil {
		return domain.Principal{}, err
	}

	u := &domain.User{
		Username:     in.Username,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		EmailAddress: in.EmailAddress,
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.GetUserByUsername(ctx, tx, u.Username); err == nil {
			return ErrUsernameTaken
		} else if !isNotFound(err) {
			return stepErr(StepLoadUser, err)
		}
		if err := repo.CreateUser(ctx, tx, u); err != nil {
			if isDuplicate(err) {
				return ErrUsernameTaken
			}
			return err
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return domain.Principal{}, err
	}
	return u.Principal(), nil
}

// Login checks username and password and returns the account's principal.
func (s *UserService) Login(ctx context.Context, username, password string) (domain.Principal, error) {
	u, err := repo.GetUserByUsername(ctx, s.DB, strings.TrimSpace(username))
	if err != nil {
		if isNotFound(err) {
			return domain.Principal{}, ErrUserNotFound
		}
		return domain.Principal{}, stepErr(StepLoadUser, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return domain.Principal{}, ErrInvalidCredentials
	}
	return u.Principal(), nil
}

// Get returns the principal of userID.
func (s *UserService) Get(ctx context.Context, userID uint) (domain.Principal, error) {
	u, err := repo.GetUserByID(ctx, s.DB, userID)
	if err != nil {
		if isNotFound(err) {
			return domain.Principal{}, ErrUserNotFound
		}
		return domain.Principal{}, stepErr(StepLoadUser, err)
	}
	return u.Principal(), nil
}

// Update applies every provided field of in to p's account in one
// transaction and returns the refreshed principal.
func (s *UserService) Update(ctx context.Context, p domain.Principal, in UpdateInput) (domain.Principal, error) {
	if in.empty() {
		return domain.Principal{}, ErrNothingToUpdate
	}
	trimPtr(&in.Username, strings.TrimSpace)
	trimPtr(&in.EmailAddress, cleanText)
	trimPtr(&in.FirstName, cleanText)
	trimPtr(&in.LastName, cleanText)
	if err := validateAccount(in); err != nil {
		return domain.Principal{}, err
	}

	fields := map[string]any{}
	if in.Username != nil {
		fields["username"] = *in.Username
	}
	if in.Password != nil {
		hash, err := hashPassword(*in.Password, s.BcryptCost)
		if err != nil {
			return domain.Principal{}, err
		}
		fields["password_hash"] = hash
	}
	if in.EmailAddress != nil {
		fields["email"] = *in.EmailAddress
	}
	if in.FirstName != nil {
		fields["first_name"] = *in.FirstName
	}
	if in.LastName != nil {
		fields["last_name"] = *in.LastName
	}

	var out domain.Principal
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.UpdateUserFields(ctx, tx, p.UserID, fields); err != nil {
			switch {
			case isNotFound(err):
				return ErrUserNotFound
			case isDuplicate(err):
				return ErrUsernameTaken
			}
			return err
		}
		u, err := repo.GetUserByID(ctx, tx, p.UserID)
		if err != nil {
			return stepErr(StepLoadUser, err)
		}
		out = u.Principal()
		return nil
	})
	if err != nil {
		return domain.Principal{}, err
	}
	return out, nil
}

// Delete removes p's account together with its catalog and wish-list
// entries.
func (s *UserService) Delete(ctx context.Context, p domain.Principal) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.DeleteCatalogByUser(ctx, tx, p.UserID); err != nil {
			return stepErr(StepDeleteCatalog, err)
		}
		if err := repo.DeleteWishListByUser(ctx, tx, p.UserID); err != nil {
			return stepErr(StepDeleteWishList, err)
		}
		if err := repo.DeleteUser(ctx, tx, p.UserID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		return nil
	})
}

// cleanText trims s and normalizes it to NFC.
func cleanText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func trimPtr(p **string, fn func(string) string) {
	if *p != nil {
		v := fn(**p)
		*p = &v
	}
}

// hashPassword bcrypt-hashes pw. Input bcrypt refuses as too long is a
// password error, not a store failure.
func hashPassword(pw string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrInvalidPassword
	}
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
