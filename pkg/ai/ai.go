package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
)

// Gateway routes a request through an AI Gateway.
type Gateway struct {
	Metadata  map[string]any
	ID        string
	CacheTTL  time.Duration
	SkipCache bool
}

// RunOptions are per-request options passed to a Runner.
type RunOptions struct {
	Gateway *Gateway
	Header  http.Header
}

// Output is a model response. JSON models produce the unwrapped "result"
// value; image and audio models produce raw bytes.
type Output struct {
	ContentType string
	Data        []byte
}

// IsJSON reports whether Data holds JSON.
func (o *Output) IsJSON() bool {
	return strings.HasPrefix(o.ContentType, "application/json")
}

// Decode unmarshals JSON output into v.
func (o *Output) Decode(v any) error {
	if !o.IsJSON() {
		return errors.Join(ErrDecode, errors.New("output is "+o.ContentType))
	}
	if err := json.Unmarshal(o.Data, v); err != nil {
		return errors.Join(ErrDecode, err)
	}
	return nil
}

// Runner executes a model. Client implements it.
type Runner interface {
	Run(ctx context.Context, model string, inputs any, opts RunOptions) (*Output, error)
}

// RunOption configures one Run call.
type RunOption func(*RunOptions)

// WithGateway routes the call through gateway g.
func WithGateway(g Gateway) RunOption {
	return func(o *RunOptions) {
		o.Gateway = &g
	}
}

// WithHeader adds an extra request header.
func WithHeader(key, value string) RunOption {
	return func(o *RunOptions) {
		if o.Header == nil {
			o.Header = http.Header{}
		}
		o.Header.Add(key, value)
	}
}

// AI runs inference models through a Runner.
type AI struct {
	runner Runner
}

// New wraps r.
func New(r Runner) *AI {
	return &AI{runner: r}
}

// Binding returns the underlying runner.
func (a *AI) Binding() Runner {
	return a.runner
}

// Run executes model with inputs.
func (a *AI) Run(ctx context.Context, model string, inputs any, opts ...RunOption) (*Output, error) {
	if model == "" {
		return nil, ErrEmptyModel
	}
	var o RunOptions
	for _, opt := range opts {
		opt(&o)
	}
	return a.runner.Run(ctx, model, inputs, o)
}

// RunInto executes model and decodes its JSON output into T.
//
// Example:
//
//	type textResult struct {
//	    Response string `json:"response"`
//	}
//
//	res, err := ai.RunInto[textResult](ctx, a, "@cf/meta/llama-3.1-8b-instruct",
//	    map[string]any{"prompt": "Say hi"})
func RunInto[T any](ctx context.Context, a *AI, model string, inputs any, opts ...RunOption) (T, error) {
	var out T
	res, err := a.Run(ctx, model, inputs, opts...)
	if err != nil {
		return out, err
	}
	err = res.Decode(&out)
	return out, err
}
