package session

import "errors"

var (
	// ErrNotFound is returned by Value when the key is absent.
	ErrNotFound = errors.New("session: key not found")

	// ErrTypeMismatch is returned by Value when the stored value cannot become the requested type.
	ErrTypeMismatch = errors.New("session: type mismatch")

	// ErrNoSession is returned by FromContext outside the session middleware.
	ErrNoSession = errors.New("session: no session in context")

	// ErrBadSignature is returned when the session cookie fails verification.
	ErrBadSignature = errors.New("session: invalid cookie signature")

	// ErrShortSecret is returned when the cookie secret is shorter than 32 bytes.
	ErrShortSecret = errors.New("session: secret must be at least 32 bytes")

	// ErrMarshal is returned when session data cannot be encoded.
	ErrMarshal = errors.New("session: failed to marshal data")

	// ErrUnmarshal is returned when stored session data cannot be decoded.
	ErrUnmarshal = errors.New("session: failed to unmarshal data")
)
