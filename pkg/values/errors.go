package values

import "errors"

var (
	ErrInvalidEmail     = errors.New("values: invalid email")
	ErrInvalidIP        = errors.New("values: invalid ip address")
	ErrInvalidUserAgent = errors.New("values: invalid user agent")
	ErrWeakPassword     = errors.New("values: weak password")
	ErrPasswordMismatch = errors.New("values: password does not match")
	ErrHashFailed       = errors.New("values: password hashing failed")
)

// WeakPasswordError names the strength rule a password failed.
type WeakPasswordError struct {
	Reason string
}

func (e *WeakPasswordError) Error() string {
	return e.Reason
}

func (e *WeakPasswordError) Unwrap() error {
	return ErrWeakPassword
}
