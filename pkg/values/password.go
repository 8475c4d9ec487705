package values

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinPasswordLength is the shortest password IsStrong accepts.
	MinPasswordLength = 8
	// DefaultHashCost is the bcrypt cost used by Hash when cost is 0.
	DefaultHashCost = 10

	redacted = "<REDACTED>"
)

// BreachChecker reports whether a password appears in known breaches.
type BreachChecker interface {
	IsPwned(ctx context.Context, password string) (bool, error)
}

// Password holds a plaintext password. It never prints or encodes its value.
type Password struct {
	value string
}

// NewPassword wraps s.
func NewPassword(s string) Password {
	return Password{value: s}
}

// Hash returns the bcrypt hash of the password. A cost of 0 uses
// DefaultHashCost.
func (p Password) Hash(cost int) (string, error) {
	if cost == 0 {
		cost = DefaultHashCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(p.value), cost)
	if err != nil {
		return "", errors.Join(ErrHashFailed, err)
	}
	return string(h), nil
}

// Compare checks the password against a bcrypt hash.
func (p Password) Compare(hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(p.value))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrPasswordMismatch
	default:
		return errors.Join(ErrHashFailed, err)
	}
}

// IsStrong checks the strength rules in order and returns a
// *WeakPasswordError for the first one violated. When checker is not nil
// the password is also looked up in known breaches.
func (p Password) IsStrong(ctx context.Context, checker BreachChecker) error {
	if utf8.RuneCountInString(p.value) < MinPasswordLength {
		return &WeakPasswordError{Reason: fmt.Sprintf("Password must be at least %d characters long", MinPasswordLength)}
	}

	var lower, upper, digit, special bool
	for _, r := range p.value {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			special = true
		}
	}
	switch {
	case !lower:
		return &WeakPasswordError{Reason: "Password must contain at least one lowercase letter"}
	case !upper:
		return &WeakPasswordError{Reason: "Password must contain at least one uppercase letter"}
	case !digit:
		return &WeakPasswordError{Reason: "Password must contain at least one number"}
	case !special:
		return &WeakPasswordError{Reason: "Password must contain at least one special character"}
	}

	if checker == nil {
		return nil
	}
	pwned, err := checker.IsPwned(ctx, p.value)
	if err != nil {
		return err
	}
	if pwned {
		return &WeakPasswordError{Reason: "Password is included in a data breach"}
	}
	return nil
}

// Reveal returns the plaintext.
func (p Password) Reveal() string {
	return p.value
}

func (p Password) String() string {
	return redacted
}

// GoString keeps %#v from printing the plaintext.
func (p Password) GoString() string {
	return redacted
}

func (p Password) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redacted + `"`), nil
}
