package errors

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalid            = errors.New("invalid")
	ErrConflict           = errors.New("conflict")
	ErrDuplicateEmail     = errors.New("email already used")
	ErrCredentialMismatch = errors.New("credential mismatch")
	ErrTokenMismatch      = errors.New("verification token mismatch")
	ErrExpired            = errors.New("verification expired")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
