package internal

import (
	"maps"

	"github.com/dmitrymomot/edgekit/pkg/db"
	"github.com/dmitrymomot/edgekit/pkg/health"
)

const (
	defaultLivenessPath  = "/health/live"
	defaultReadinessPath = "/health/ready"
)

type healthConfig struct {
	checks        health.Checks
	livenessPath  string
	readinessPath string
}

// HealthOption configures the health endpoints.
type HealthOption func(*healthConfig)

// WithLivenessPath overrides "/health/live".
func WithLivenessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.livenessPath = path
		}
	}
}

// WithReadinessPath overrides "/health/ready".
func WithReadinessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.readinessPath = path
		}
	}
}

// WithReadinessCheck adds a named readiness check.
//
//	edgekit.WithReadinessCheck("REDIS", redis.Healthcheck(client))
func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return func(c *healthConfig) {
		if name != "" && fn != nil {
			c.checks[name] = fn
		}
	}
}

// healthChecks adds probes for bindings that can be pinged to the
// explicitly registered checks.
func (a *App) healthChecks() health.Checks {
	checks := make(health.Checks, len(a.healthConfig.checks)+1)
	if a.bindings.DB != nil {
		checks[string(BindingDB)] = db.Healthcheck(a.bindings.DB)
	}
	maps.Copy(checks, a.healthConfig.checks)
	return checks
}
