// Package pwned checks passwords against the Have I Been Pwned range API.
//
// Only the first five characters of the password's SHA-1 hash leave the
// process (k-anonymity); the matching suffix is searched locally:
//
//	c := pwned.New()
//	breached, err := c.IsPwned(ctx, "P@ssw0rd")
package pwned

import (
	"bufio"
	"context"
	"crypto/sha1" //nolint:gosec // required by the range API
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the public range API.
const DefaultBaseURL = "https://api.pwnedpasswords.com"

var ErrRequestFailed = errors.New("pwned: request failed")

// Client queries the range API.
type Client struct {
	http    *http.Client
	baseURL string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API location.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Hash returns the lowercase hex SHA-1 of value.
func Hash(value string) string {
	sum := sha1.Sum([]byte(value)) //nolint:gosec // required by the range API
	return hex.EncodeToString(sum[:])
}

// IsPwned reports whether password appears in a known breach.
func (c *Client) IsPwned(ctx context.Context, password string) (bool, error) {
	return c.IsHashPwned(ctx, Hash(password))
}

// IsHashPwned is like IsPwned for a precomputed SHA-1 hex digest.
func (c *Client) IsHashPwned(ctx context.Context, hash string) (bool, error) {
	hash = strings.ToLower(hash)
	if len(hash) != 40 {
		return false, fmt.Errorf("%w: malformed hash", ErrRequestFailed)
	}
	prefix, suffix := hash[:5], hash[5:]

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/range/"+prefix, nil)
	if err != nil {
		return false, errors.Join(ErrRequestFailed, err)
	}
	req.Header.Set("Add-Padding", "true")

	resp, err := c.http.Do(req)
	if err != nil {
		return false, errors.Join(ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("%w: %s", ErrRequestFailed, resp.Status)
	}

	// Lines look like "<35 hex suffix>:<count>".
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		s, count, _ := strings.Cut(line, ":")
		if strings.EqualFold(s, suffix) && count != "0" {
			return true, nil
		}
	}
	if err := sc.Err(); err != nil {
		return false, errors.Join(ErrRequestFailed, err)
	}
	return false, nil
}
