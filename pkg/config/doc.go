// Package config loads application configuration from an optional YAML
// file and the process environment.
//
// Structs declare their variables with caarlos0/env tags, the same tags
// used by db.Config, storage.S3Config and the other package configs. The
// YAML file supplies values that the environment may override, which keeps
// local development settings in one file and production secrets in the
// environment.
package config
