package config_test

import (
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/edgekit/pkg/config"
)

const configYAML = `
database:
  conn_url: postgres://localhost/app
  max_conns: 5
REDIS_URL: redis://localhost:6379/0
ALLOWED_ORIGINS: [a.com, b.com]
DEBUG: true
TIMEOUT: 3s
`

type appConfig struct {
	DatabaseURL string        `env:"DATABASE_CONN_URL,required"`
	RedisURL    string        `env:"REDIS_URL"`
	Origins     []string      `env:"ALLOWED_ORIGINS" envSeparator:","`
	Timeout     time.Duration `env:"TIMEOUT" envDefault:"10s"`
	Port        int           `env:"PORT" envDefault:"8080"`
	MaxConns    int           `env:"DATABASE_MAX_CONNS"`
	Debug       bool          `env:"DEBUG"`
}

func testFS() fstest.MapFS {
	return fstest.MapFS{"config.yaml": {Data: []byte(configYAML)}}
}

func TestVars(t *testing.T) {
	t.Parallel()

	vars, err := config.Vars(config.WithFS(testFS()), config.WithFile("config.yaml"), config.WithoutOS())
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"DATABASE_CONN_URL":  "postgres://localhost/app",
		"DATABASE_MAX_CONNS": "5",
		"REDIS_URL":          "redis://localhost:6379/0",
		"ALLOWED_ORIGINS":    "a.com,b.com",
		"DEBUG":              "true",
		"TIMEOUT":            "3s",
	}, vars)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load[appConfig](config.WithFS(testFS()), config.WithFile("config.yaml"), config.WithoutOS())
	require.NoError(t, err)
	require.Equal(t, appConfig{
		DatabaseURL: "postgres://localhost/app",
		RedisURL:    "redis://localhost:6379/0",
		Origins:     []string{"a.com", "b.com"},
		Timeout:     3 * time.Second,
		Port:        8080,
		MaxConns:    5,
		Debug:       true,
	}, cfg)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://cache:6379/1")
	t.Setenv("PORT", "9000")

	cfg, err := config.Load[appConfig](config.WithFS(testFS()), config.WithFile("config.yaml"))
	require.NoError(t, err)
	require.Equal(t, "redis://cache:6379/1", cfg.RedisURL)
	require.Equal(t, 9000, cfg.Port)
	require.Equal(t, "postgres://localhost/app", cfg.DatabaseURL)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	t.Run("missing required file", func(t *testing.T) {
		t.Parallel()
		_, err := config.Vars(config.WithFS(fstest.MapFS{}), config.WithFile("nope.yaml"))
		require.ErrorIs(t, err, config.ErrReadFile)
	})

	t.Run("missing optional file", func(t *testing.T) {
		t.Parallel()
		_, err := config.Vars(config.WithFS(fstest.MapFS{}), config.WithOptionalFile("nope.yaml"), config.WithoutOS())
		require.NoError(t, err)
	})

	t.Run("bad yaml", func(t *testing.T) {
		t.Parallel()
		fsys := fstest.MapFS{"bad.yaml": {Data: []byte("a: [b")}}
		_, err := config.Vars(config.WithFS(fsys), config.WithFile("bad.yaml"))
		require.ErrorIs(t, err, config.ErrParseFile)
	})

	t.Run("required missing", func(t *testing.T) {
		t.Parallel()
		_, err := config.Load[appConfig](config.WithoutOS())
		require.ErrorIs(t, err, config.ErrParseEnv)
	})
}
