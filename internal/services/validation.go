package services

import (
	"errors"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// passwordSymbols is the set of characters that satisfy the password symbol
// rule.
const passwordSymbols = "-!$%^&*()_+|~=`{}[]:/;<>?,.@#"

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator returns the shared validator with the account rules
// registered.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return validUsername(fl.Field().String())
		})
		_ = validate.RegisterValidation("password", func(fl validator.FieldLevel) bool {
			return validPassword(fl.Field().String())
		})
	})
	return validate
}

// validUsername accepts 6 to 32 characters without whitespace.
func validUsername(s string) bool {
	n := len([]rune(s))
	if n < 6 || n > 32 {
		return false
	}
	return !strings.ContainsFunc(s, unicode.IsSpace)
}

// maxPasswordBytes is the longest input bcrypt will hash.
const maxPasswordBytes = 72

// validPassword accepts 8 to 32 characters, at most maxPasswordBytes long in
// UTF-8, containing at least one digit, one lowercase letter, one uppercase
// letter and one symbol.
func validPassword(s string) bool {
	n := len([]rune(s))
	if n < 8 || n > 32 || len(s) > maxPasswordBytes {
		return false
	}
	var digit, lower, upper, symbol bool
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}
	return digit && lower && upper && symbol
}

// fieldErrors maps struct fields to the sentinel reported when they fail.
var fieldErrors = map[string]error{
	"Username":     ErrInvalidUsername,
	"Password":     ErrInvalidPassword,
	"EmailAddress": ErrInvalidEmail,
	"FirstName":    ErrInvalidFirstName,
	"LastName":     ErrInvalidLastName,
}

// validateAccount validates s and returns the sentinel for the first failing
// field, in declaration order.
func validateAccount(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	if sentinel, ok := fieldErrors[verrs[0].StructField()]; ok {
		return sentinel
	}
	return err
}
