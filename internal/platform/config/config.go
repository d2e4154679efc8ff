// Copyright (c) 2026 SaveState. All rights reserved.
// Author: dev@savestate.social

/*
Package config handles client-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (API client, stores) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the client is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the SaveState client.
type Config struct {

	// Backend REST API base URL (no trailing slash).
	APIBaseURL string `env:"SAVESTATE_API_URL" envDefault:"https://savestate.social/api"`

	// Third-party game catalog (IGDB) base URL.
	CatalogBaseURL string `env:"IGDB_API_URL" envDefault:"https://api.igdb.com/v4"`

	// CredentialsPath is the filesystem location of the device key-value store.
	// Holds the persisted session and the catalog token blob.
	CredentialsPath string `env:"CREDENTIALS_PATH" envDefault:".savestate/credentials.json"`

	// RedisURL switches the key-value store to Redis when set. Used by
	// server-side deployments of the client (bots, bridges) that have no
	// local device storage.
	RedisURL string `env:"REDIS_URL"`

	// HTTPTimeoutSeconds bounds every outbound request.
	HTTPTimeoutSeconds int `env:"HTTP_TIMEOUT_SECONDS" envDefault:"15"`

	// Debug enables verbose logging.
	Debug bool `env:"DEBUG" envDefault:"false"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	return cfg, nil
}

// HTTPTimeout returns the outbound request timeout as a [time.Duration].
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// UseRedis reports whether the key-value store should be Redis-backed.
func (c *Config) UseRedis() bool {
	return c.RedisURL != ""
}
