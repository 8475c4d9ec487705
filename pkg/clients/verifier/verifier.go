// Package verifier checks email deliverability with the Chopra verifier API.
//
//	c := verifier.New(verifier.WithAPIKey(key))
//	err := c.Verify(ctx, "john@example.com")
//	var invalid *verifier.InvalidEmailError
//	if errors.As(err, &invalid) {
//	    // invalid.Code, invalid.Message
//	}
package verifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the public verifier API.
const DefaultBaseURL = "https://verifier.meetchopra.com"

var (
	ErrRequestFailed = errors.New("verifier: request failed")
	ErrInvalidEmail  = errors.New("verifier: invalid email")
)

// InvalidEmailError is returned when the API rejects an address.
type InvalidEmailError struct {
	Message string
	Code    int
}

func (e *InvalidEmailError) Error() string {
	return e.Message
}

func (e *InvalidEmailError) Unwrap() error {
	return ErrInvalidEmail
}

// Client calls the verifier API.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the token sent with every request.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

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

type verifyResponse struct {
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
	Status bool `json:"status"`
}

// Verify returns nil when the API accepts email and an
// *InvalidEmailError when it rejects it.
func (c *Client) Verify(ctx context.Context, email string) error {
	u := c.baseURL + "/verify/" + url.PathEscape(email)
	if c.apiKey != "" {
		u += "?" + url.Values{"token": {c.apiKey}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return errors.Join(ErrRequestFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Join(ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return errors.Join(ErrRequestFailed, err)
	}

	var out verifyResponse
	if err := json.Unmarshal(body, &out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%w: %s", ErrRequestFailed, resp.Status)
		}
		return errors.Join(ErrRequestFailed, err)
	}
	if out.Status {
		return nil
	}
	if out.Error == nil {
		return &InvalidEmailError{Message: "email rejected"}
	}
	return &InvalidEmailError{Code: out.Error.Code, Message: out.Error.Message}
}
