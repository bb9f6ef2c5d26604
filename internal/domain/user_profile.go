package domain

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

const (
	MinPasswordLength = 8
	MaxPasswordBytes  = 72 // bcrypt input limit
	MinAge            = 1
	MaxAge            = 150

	MaxFullNameLength = 100
	MaxGenderLength   = 32
)

// ValidateEmail checks that s is a bare address such as "ann@x.com".
func ValidateEmail(s string) error {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || !strings.Contains(s, "@") {
		return ErrInvalidEmail
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

// ValidateFullName expects an already trimmed name.
func ValidateFullName(name string) error {
	if name == "" {
		return ErrFullNameRequired
	}
	if utf8.RuneCountInString(name) > MaxFullNameLength {
		return ErrFullNameTooLong
	}
	return nil
}

func ValidateGender(gender string) error {
	if utf8.RuneCountInString(gender) > MaxGenderLength {
		return ErrGenderTooLong
	}
	return nil
}

func ValidateAge(age *int) error {
	if age != nil && (*age < MinAge || *age > MaxAge) {
		return ErrInvalidAge
	}
	return nil
}

// NormalizeEmail lowercases and trims an email so lookups are case-insensitive.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
