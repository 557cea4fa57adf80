package auth

import (
	"unicode"

	"github.com/go-playground/validator/v10"

	"estate-chat/errors"
)

var validate = validator.New()

// RegisterRequest carries the fields checked before an account is created.
// The length bounds follow what argon2id can usefully consume.
type RegisterRequest struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=12,max=72"`
}

// ValidateRegister rejects malformed emails and weak passwords before any
// hashing work is spent on them.
func ValidateRegister(req RegisterRequest) error {
	if err := validate.Struct(req); err != nil {
		return err
	}
	if !isPasswordComplex(req.Password) {
		return errors.ErrInvalidPassword
	}
	return nil
}

// isPasswordComplex requires at least one character of each class: upper,
// lower, digit and punctuation or symbol.
func isPasswordComplex(s string) bool {
	var upper, lower, digit, special bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsNumber(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	return upper && lower && digit && special
}
