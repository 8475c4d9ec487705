package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	DefaultBaseURL    = "https://api.cloudflare.com/client/v4"
	DefaultGatewayURL = "https://gateway.ai.cloudflare.com/v1"
)

// maxResponseSize bounds response bodies read into memory.
const maxResponseSize = 32 << 20

// Config configures the REST client.
type Config struct {
	AccountID  string        `env:"CF_ACCOUNT_ID,required" yaml:"account_id"`
	APIToken   string        `env:"CF_AI_API_TOKEN,required" yaml:"api_token"`
	BaseURL    string        `env:"CF_AI_BASE_URL" envDefault:"https://api.cloudflare.com/client/v4" yaml:"base_url"`
	GatewayURL string        `env:"CF_AI_GATEWAY_URL" envDefault:"https://gateway.ai.cloudflare.com/v1" yaml:"gateway_url"`
	Timeout    time.Duration `env:"CF_AI_TIMEOUT" envDefault:"60s" yaml:"timeout"`
}

// Client calls the Workers AI REST API.
type Client struct {
	http *http.Client
	cfg  Config
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// NewClient creates a REST client.
func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	if cfg.AccountID == "" || cfg.APIToken == "" {
		return nil, ErrInvalidConfig
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.GatewayURL == "" {
		cfg.GatewayURL = DefaultGatewayURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	c := &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) endpoint(model string, gw *Gateway) string {
	if gw != nil && gw.ID != "" {
		return fmt.Sprintf("%s/%s/%s/workers-ai/%s",
			strings.TrimRight(c.cfg.GatewayURL, "/"), c.cfg.AccountID, gw.ID, model)
	}
	return fmt.Sprintf("%s/accounts/%s/ai/run/%s",
		strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.AccountID, model)
}

// Run implements Runner.
func (c *Client) Run(ctx context.Context, model string, inputs any, opts RunOptions) (*Output, error) {
	if model == "" {
		return nil, ErrEmptyModel
	}

	var body io.Reader
	contentType := "application/json"
	switch v := inputs.(type) {
	case []byte:
		body = bytes.NewReader(v)
		contentType = "application/octet-stream"
	case io.Reader:
		body = v
		contentType = "application/octet-stream"
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, errors.Join(ErrRequestFailed, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(model, opts.Gateway), body)
	if err != nil {
		return nil, errors.Join(ErrRequestFailed, err)
	}
	for k, vs := range opts.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
	req.Header.Set("Content-Type", contentType)
	if err := setGatewayHeaders(req.Header, opts.Gateway); err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Join(ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, errors.Join(ErrRequestFailed, err)
	}
	return parseResponse(resp.StatusCode, resp.Header.Get("Content-Type"), data)
}

func setGatewayHeaders(h http.Header, gw *Gateway) error {
	if gw == nil {
		return nil
	}
	if gw.SkipCache {
		h.Set("cf-aig-skip-cache", "true")
	}
	if gw.CacheTTL > 0 {
		h.Set("cf-aig-cache-ttl", strconv.FormatInt(int64(gw.CacheTTL/time.Second), 10))
	}
	if len(gw.Metadata) > 0 {
		b, err := json.Marshal(gw.Metadata)
		if err != nil {
			return errors.Join(ErrRequestFailed, err)
		}
		h.Set("cf-aig-metadata", string(b))
	}
	return nil
}

func parseResponse(status int, contentType string, data []byte) (*Output, error) {
	isJSON := strings.HasPrefix(contentType, "application/json")

	if status < 200 || status >= 300 {
		apiErr := &APIError{StatusCode: status, Message: http.StatusText(status)}
		if isJSON {
			first := gjson.GetBytes(data, "errors.0")
			if first.Exists() {
				apiErr.Code = int(first.Get("code").Int())
				apiErr.Message = first.Get("message").String()
			}
		}
		return nil, apiErr
	}

	if !isJSON {
		return &Output{ContentType: contentType, Data: data}, nil
	}

	if !gjson.ValidBytes(data) {
		return nil, errors.Join(ErrDecode, errors.New("invalid json response"))
	}
	parsed := gjson.ParseBytes(data)
	if success := parsed.Get("success"); success.Exists() && !success.Bool() {
		first := parsed.Get("errors.0")
		return nil, &APIError{
			StatusCode: status,
			Code:       int(first.Get("code").Int()),
			Message:    first.Get("message").String(),
		}
	}
	result := parsed.Get("result")
	if !result.Exists() {
		return &Output{ContentType: "application/json", Data: data}, nil
	}
	return &Output{ContentType: "application/json", Data: []byte(result.Raw)}, nil
}

var _ Runner = (*Client)(nil)
