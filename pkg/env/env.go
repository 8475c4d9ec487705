package env

import (
	"errors"
	"maps"
	"os"
	"strings"

	cenv "github.com/caarlos0/env/v11"
)

// Env resolves configuration variables. Values set explicitly win over the
// process environment.
type Env struct {
	vars      map[string]string
	useOSVars bool
}

// Option configures an Env.
type Option func(*Env)

// WithoutOS disables the process environment fallback.
func WithoutOS() Option {
	return func(e *Env) {
		e.useOSVars = false
	}
}

// New creates an Env over vars. vars is copied.
func New(vars map[string]string, opts ...Option) *Env {
	e := &Env{
		vars:      maps.Clone(vars),
		useOSVars: true,
	}
	if e.vars == nil {
		e.vars = map[string]string{}
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Lookup returns the value for key. Empty values count as missing.
func (e *Env) Lookup(key string) (string, bool) {
	if v := e.vars[key]; v != "" {
		return v, true
	}
	if e.useOSVars {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// Fetch returns the value for key, or the first non-empty fallback.
// It returns a *KeyError when neither is available.
func (e *Env) Fetch(key string, fallback ...string) (string, error) {
	if v, ok := e.Lookup(key); ok {
		return v, nil
	}
	for _, f := range fallback {
		if f != "" {
			return f, nil
		}
	}
	return "", &KeyError{Key: key}
}

// MustFetch is like Fetch but panics on a missing key.
func (e *Env) MustFetch(key string, fallback ...string) string {
	v, err := e.Fetch(key, fallback...)
	if err != nil {
		panic(err)
	}
	return v
}

// Environ returns the merged variables: the process environment (unless
// disabled) overlaid with the explicit vars.
func (e *Env) Environ() map[string]string {
	out := map[string]string{}
	if e.useOSVars {
		for _, kv := range os.Environ() {
			if k, v, ok := strings.Cut(kv, "="); ok {
				out[k] = v
			}
		}
	}
	maps.Copy(out, e.vars)
	return out
}

// Parse decodes variables into T using `env` struct tags.
//
// Example:
//
//	type Config struct {
//	    APIKey  string `env:"VERIFIER_API_KEY,required"`
//	    Timeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"5s"`
//	}
//
//	cfg, err := env.Parse[Config](e)
func Parse[T any](e *Env) (T, error) {
	var out T
	if err := cenv.ParseWithOptions(&out, cenv.Options{Environment: e.Environ()}); err != nil {
		return out, errors.Join(ErrParse, err)
	}
	return out, nil
}
