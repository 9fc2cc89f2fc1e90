package services

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidRequest is wrapped by request validation failures.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidCredentials is returned for an unknown user or a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInactiveUser is returned when a disabled account tries to log in.
	ErrInactiveUser = errors.New("user account is disabled")
	// ErrPasswordInvalid is wrapped by PasswordError.
	ErrPasswordInvalid = errors.New("password does not meet requirements")
	// ErrSessionExpired is returned when a session key is past its expiry.
	ErrSessionExpired = errors.New("session expired")
)

// PasswordError lists every password validator that rejected a password
type PasswordError struct {
	Problems []string
}

func (e *PasswordError) Error() string {
	return "password rejected: " + strings.Join(e.Problems, "; ")
}

func (e *PasswordError) Unwrap() error {
	return ErrPasswordInvalid
}
