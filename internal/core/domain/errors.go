package domain

import "errors"

// Auth failures.
var (
	ErrMissingToken       = errors.New("missing token")
	ErrMalformedToken     = errors.New("malformed token")
	ErrExpiredToken       = errors.New("token has expired")
	ErrInvalidSignature   = errors.New("invalid token signature")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("access forbidden")
)

// Validation failures.
var (
	ErrMissingFields  = errors.New("missing required fields")
	ErrInvalidRole    = errors.New("role must be one of: student, teacher")
	ErrFileTooLarge   = errors.New("file exceeds the maximum upload size")
	ErrNoFileProvided = errors.New("no file uploaded")
	ErrInvalidPath    = errors.New("invalid path segment")
	ErrPasswordLength = errors.New("password must be at most 72 bytes")
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrFileNotFound   = errors.New("file not found")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrStorage        = errors.New("storage failure")
)

// IsAuthFailure reports whether err belongs to the token/credential family.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrMissingToken) ||
		errors.Is(err, ErrMalformedToken) ||
		errors.Is(err, ErrExpiredToken) ||
		errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrInvalidCredentials)
}

// IsValidationFailure reports whether err was caused by bad client input.
func IsValidationFailure(err error) bool {
	return errors.Is(err, ErrMissingFields) ||
		errors.Is(err, ErrInvalidRole) ||
		errors.Is(err, ErrFileTooLarge) ||
		errors.Is(err, ErrNoFileProvided) ||
		errors.Is(err, ErrInvalidPath) ||
		errors.Is(err, ErrPasswordLength)
}
