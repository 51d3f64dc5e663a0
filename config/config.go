// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The rxusers Authors

// Package config holds the settings of the githubusers command.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/rxdemo/rxusers/logger"
)

type Config struct {
	// APIURL is the base URL of the GitHub REST API.
	APIURL string `yaml:"api-url"`
	// Token is an optional personal access token.
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
	// AvatarCacheSize is the number of avatars kept in memory.
	AvatarCacheSize int `yaml:"avatar-cache-size"`
	// Workers is the number of concurrent requests.
	Workers  int    `yaml:"workers"`
	LogLevel string `yaml:"log-level"`
	// RequestsPerSecond limits the request rate. Zero means unlimited.
	RequestsPerSecond float64 `yaml:"requests-per-second"`
}

func Default() Config {
	return Config{
		APIURL:          "https://api.github.com",
		Timeout:         10 * time.Second,
		AvatarCacheSize: 128,
		Workers:         4,
		LogLevel:        "info",
	}
}

// Load reads a YAML file on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	buf, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var err error
	if u, perr := url.Parse(c.APIURL); perr != nil || u.Scheme == "" || u.Host == "" {
		err = multierr.Append(err, fmt.Errorf("invalid api-url %q", c.APIURL))
	}
	if c.Timeout <= 0 {
		err = multierr.Append(err, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	if c.AvatarCacheSize <= 0 {
		err = multierr.Append(err, fmt.Errorf("avatar-cache-size must be positive, got %d", c.AvatarCacheSize))
	}
	if c.Workers <= 0 {
		err = multierr.Append(err, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if _, perr := logger.ParseLevel(c.LogLevel); perr != nil {
		err = multierr.Append(err, fmt.Errorf("invalid log-level: %w", perr))
	}
	if c.RequestsPerSecond < 0 {
		err = multierr.Append(err, fmt.Errorf("requests-per-second must not be negative, got %g", c.RequestsPerSecond))
	}
	return err
}
