package domain

import "errors"

// User validation errors
var (
	ErrInvalidRole      = errors.New("invalid role")
	ErrInvalidAge       = errors.New("age must be between 1 and 150")
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrFullNameRequired = errors.New("full name is required")
	ErrFullNameTooLong  = errors.New("full name must be at most 100 characters")
	ErrGenderTooLong    = errors.New("gender must be at most 32 characters")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong  = errors.New("password must be at most 72 bytes")
)

// Post validation errors
var (
	ErrTitleRequired       = errors.New("title is required")
	ErrDescriptionRequired = errors.New("description is required")
	ErrDescriptionTooShort = errors.New("description should be at least 100 characters")
	ErrInvalidImage        = errors.New("image must be a base64 encoded image data URL")
	ErrImageTooLarge       = errors.New("image size should be less than 5MB")
)

// Interaction validation errors
var (
	ErrCommentAuthorRequired = errors.New("comment author name is required")
	ErrCommentBodyRequired   = errors.New("comment text is required")
	ErrCommentTooLong        = errors.New("comment text is too long")
)

// IsValidationError reports whether err is one of the input validation errors
// above, which views show back to the user.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrInvalidRole, ErrInvalidAge, ErrInvalidEmail, ErrFullNameRequired, ErrFullNameTooLong, ErrGenderTooLong,
		ErrPasswordTooShort, ErrPasswordTooLong,
		ErrTitleRequired, ErrDescriptionRequired, ErrDescriptionTooShort, ErrInvalidImage, ErrImageTooLarge,
		ErrCommentAuthorRequired, ErrCommentBodyRequired, ErrCommentTooLong,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
