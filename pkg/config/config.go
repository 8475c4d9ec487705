package config

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"sort"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type options struct {
	fsys     fs.FS
	path     string
	prefix   string
	optional bool
	noOS     bool
}

// Option configures loading.
type Option func(*options)

// WithFile reads variables from a YAML file. The file must exist.
func WithFile(path string) Option {
	return func(o *options) {
		o.path = path
		o.optional = false
	}
}

// WithOptionalFile is like WithFile but ignores a missing file.
func WithOptionalFile(path string) Option {
	return func(o *options) {
		o.path = path
		o.optional = true
	}
}

// WithFS reads the file from fsys instead of the OS file system.
func WithFS(fsys fs.FS) Option {
	return func(o *options) {
		o.fsys = fsys
	}
}

// WithPrefix restricts struct parsing to variables starting with prefix
// and strips it, as env.Options.Prefix does.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithoutOS ignores the process environment.
func WithoutOS() Option {
	return func(o *options) {
		o.noOS = true
	}
}

// Vars returns the merged variables: file values overlaid with the process
// environment.
//
// The file is a YAML mapping. Nested keys are joined with "_" and
// upper-cased, lists become comma separated strings:
//
//	database:
//	  conn_url: postgres://localhost/app   # DATABASE_CONN_URL
//	REDIS_URL: redis://localhost:6379/0
//	ALLOWED_ORIGINS: [a.com, b.com]       # "a.com,b.com"
func Vars(opts ...Option) (map[string]string, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	vars := map[string]string{}
	if o.path != "" {
		fileVars, err := readFile(o)
		if err != nil {
			return nil, err
		}
		maps.Copy(vars, fileVars)
	}
	if !o.noOS {
		maps.Copy(vars, env.ToMap(os.Environ()))
	}
	return vars, nil
}

// Load parses configuration into T from `env` struct tags, using the
// variables returned by Vars. `envDefault` tags apply to keys set nowhere.
//
// Example:
//
//	type Config struct {
//	    DB    db.Config
//	    Redis redis.Config
//	    Port  int `env:"PORT" envDefault:"8080"`
//	}
//
//	cfg, err := config.Load[Config](config.WithOptionalFile("config.yaml"))
func Load[T any](opts ...Option) (T, error) {
	var cfg T
	vars, err := Vars(opts...)
	if err != nil {
		return cfg, err
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars, Prefix: o.prefix}); err != nil {
		return cfg, errors.Join(ErrParseEnv, err)
	}
	return cfg, nil
}

// MustLoad is like Load but panics on error.
func MustLoad[T any](opts ...Option) T {
	cfg, err := Load[T](opts...)
	if err != nil {
		panic(err)
	}
	return cfg
}

func readFile(o *options) (map[string]string, error) {
	var (
		data []byte
		err  error
	)
	if o.fsys != nil {
		data, err = fs.ReadFile(o.fsys, o.path)
	} else {
		data, err = os.ReadFile(o.path)
	}
	if err != nil {
		if o.optional && errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Join(ErrReadFile, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Join(ErrParseFile, err)
	}
	out := map[string]string{}
	flatten("", raw, out)
	return out, nil
}

func flatten(prefix string, in map[string]any, out map[string]string) {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		name := strings.ToUpper(k)
		if prefix != "" {
			name = prefix + "_" + name
		}
		switch v := in[k].(type) {
		case map[string]any:
			flatten(name, v, out)
		case []any:
			parts := make([]string, 0, len(v))
			for _, item := range v {
				parts = append(parts, fmt.Sprint(item))
			}
			out[name] = strings.Join(parts, ",")
		case nil:
			out[name] = ""
		default:
			out[name] = fmt.Sprint(v)
		}
	}
}
