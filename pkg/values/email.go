package values

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^.+@.+\..+$`)

// EmailVerifier checks an address with an external service.
type EmailVerifier interface {
	Verify(ctx context.Context, email string) error
}

// Email is a syntactically valid email address.
type Email struct {
	value string
}

// ParseEmail trims s and validates it.
func ParseEmail(s string) (Email, error) {
	v := strings.TrimSpace(s)
	if !emailPattern.MatchString(v) {
		return Email{}, fmt.Errorf("%w: %q", ErrInvalidEmail, s)
	}
	return Email{value: v}, nil
}

// CanParseEmail reports whether ParseEmail would accept s.
func CanParseEmail(s string) bool {
	_, err := ParseEmail(s)
	return err == nil
}

func (e Email) String() string {
	return e.value
}

// Username is the part before the last "@".
func (e Email) Username() string {
	i := strings.LastIndex(e.value, "@")
	return e.value[:i]
}

// Hostname is the part after the last "@".
func (e Email) Hostname() string {
	i := strings.LastIndex(e.value, "@")
	return e.value[i+1:]
}

// WithUsername returns a copy with the username replaced.
func (e Email) WithUsername(username string) (Email, error) {
	return ParseEmail(username + "@" + e.Hostname())
}

// WithHostname returns a copy with the hostname replaced.
func (e Email) WithHostname(hostname string) (Email, error) {
	return ParseEmail(e.Username() + "@" + hostname)
}

// Alias returns the sub-address of the username: the segment between the
// first "+" and the next one, if any.
func (e Email) Alias() (string, bool) {
	_, rest, ok := strings.Cut(e.Username(), "+")
	if !ok {
		return "", false
	}
	alias, _, _ := strings.Cut(rest, "+")
	return alias, true
}

// HasAlias reports whether the username has a "+" sub-address.
func (e Email) HasAlias() bool {
	_, ok := e.Alias()
	return ok
}

// WithAlias returns a copy using alias as sub-address. An empty alias
// removes it.
func (e Email) WithAlias(alias string) Email {
	base, _, _ := strings.Cut(e.Username(), "+")
	if alias != "" {
		base += "+" + alias
	}
	return Email{value: base + "@" + e.Hostname()}
}

// Hash is the lowercase hex SHA-256 of the address.
func (e Email) Hash() string {
	sum := sha256.Sum256([]byte(e.value))
	return hex.EncodeToString(sum[:])
}

// Equal compares the string forms.
func (e Email) Equal(other Email) bool {
	return e.value == other.value
}

// Verify asks v whether the address is deliverable.
func (e Email) Verify(ctx context.Context, v EmailVerifier) error {
	return v.Verify(ctx, e.value)
}

func (e Email) MarshalText() ([]byte, error) {
	return []byte(e.value), nil
}

func (e *Email) UnmarshalText(b []byte) error {
	parsed, err := ParseEmail(string(b))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}
