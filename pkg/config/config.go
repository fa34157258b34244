// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/NVIDIA/asset-bundle-cache/pkg/bundle"
	"github.com/NVIDIA/asset-bundle-cache/pkg/container"
	"github.com/NVIDIA/asset-bundle-cache/pkg/defaults"
	apperrors "github.com/NVIDIA/asset-bundle-cache/pkg/errors"
	"github.com/NVIDIA/asset-bundle-cache/pkg/logging"
	"github.com/NVIDIA/asset-bundle-cache/pkg/serializer"
	"github.com/NVIDIA/asset-bundle-cache/pkg/server"
)

// Environment variables consulted by Load.
const (
	EnvBaseDir        = "BUNDLE_BASE_DIR"
	EnvManifestBundle = "BUNDLE_MANIFEST"
	EnvPort           = "PORT"
)

// Config is the bundled configuration.
type Config struct {
	// BaseDir is the directory holding bundle files.
	BaseDir string `json:"baseDir" yaml:"baseDir"`

	// ManifestBundle names the container holding the manifest.
	ManifestBundle string `json:"manifestBundle" yaml:"manifestBundle"`

	// ManifestAsset names the manifest inside ManifestBundle.
	ManifestAsset string `json:"manifestAsset" yaml:"manifestAsset"`

	// Preload lists bundles loaded as soon as the manifest is available.
	Preload []string `json:"preload,omitempty" yaml:"preload,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`

	Server ServerConfig `json:"server" yaml:"server"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Address        string  `json:"address,omitempty" yaml:"address,omitempty"`
	Port           int     `json:"port" yaml:"port"`
	RateLimit      float64 `json:"rateLimit" yaml:"rateLimit"`
	RateLimitBurst int     `json:"rateLimitBurst" yaml:"rateLimitBurst"`
}

// Default returns a Config populated from pkg/defaults.
func Default() *Config {
	return &Config{
		BaseDir:        defaults.BaseDir,
		ManifestBundle: defaults.ManifestBundle,
		ManifestAsset:  defaults.ManifestAsset,
		LogLevel:       "info",
		Server: ServerConfig{
			Port:           defaults.ServerPort,
			RateLimit:      defaults.ServerRateLimit,
			RateLimitBurst: defaults.ServerRateLimitBurst,
		},
	}
}

// Load reads path, fills unset fields from defaults and applies environment
// overrides. An empty path yields the defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) != "" {
		fromFile, err := serializer.FromFile[Config](path)
		if err != nil {
			return nil, apperrors.WrapWithContext(apperrors.ErrCodeInvalidRequest,
				"failed to read configuration", err, map[string]any{"path": path})
		}
		cfg.merge(fromFile)
	}

	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// merge copies every set field of o onto c.
func (c *Config) merge(o *Config) {
	if o.BaseDir != "" {
		c.BaseDir = o.BaseDir
	}
	if o.ManifestBundle != "" {
		c.ManifestBundle = o.ManifestBundle
	}
	if o.ManifestAsset != "" {
		c.ManifestAsset = o.ManifestAsset
	}
	if len(o.Preload) > 0 {
		c.Preload = append([]string(nil), o.Preload...)
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if o.Server.Address != "" {
		c.Server.Address = o.Server.Address
	}
	if o.Server.Port != 0 {
		c.Server.Port = o.Server.Port
	}
	if o.Server.RateLimit != 0 {
		c.Server.RateLimit = o.Server.RateLimit
	}
	if o.Server.RateLimitBurst != 0 {
		c.Server.RateLimitBurst = o.Server.RateLimitBurst
	}
}

// ApplyEnv applies environment overrides using getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvBaseDir); v != "" {
		c.BaseDir = v
	}
	if v := getenv(EnvManifestBundle); v != "" {
		c.ManifestBundle = v
	}
	if v := getenv(logging.EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return apperrors.WrapWithContext(apperrors.ErrCodeInvalidRequest,
				"invalid port in environment", err, map[string]any{"variable": EnvPort, "value": v})
		}
		c.Server.Port = port
	}
	return nil
}

// Validate checks the configuration for values bundled cannot start with.
func (c *Config) Validate() error {
	if c.ManifestBundle == "" {
		return apperrors.New(apperrors.ErrCodeInvalidRequest, "manifestBundle cannot be empty")
	}
	if err := container.ValidateName(c.ManifestBundle); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "invalid manifestBundle", err)
	}
	if c.ManifestAsset == "" {
		return apperrors.New(apperrors.ErrCodeInvalidRequest, "manifestAsset cannot be empty")
	}
	for _, name := range c.Preload {
		if err := container.ValidateName(name); err != nil {
			return apperrors.WrapWithContext(apperrors.ErrCodeInvalidRequest,
				"invalid preload bundle name", err, map[string]any{"bundle": name})
		}
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return apperrors.New(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("server.port out of range: %d", c.Server.Port))
	}
	if c.Server.RateLimit <= 0 || c.Server.RateLimitBurst <= 0 {
		return apperrors.New(apperrors.ErrCodeInvalidRequest,
			"server.rateLimit and server.rateLimitBurst must be positive")
	}
	return nil
}

// RegistryOptions returns the bundle.Registry options this Config describes.
func (c *Config) RegistryOptions() []bundle.Option {
	return []bundle.Option{
		bundle.WithBaseDir(c.BaseDir),
		bundle.WithManifestBundle(c.ManifestBundle),
		bundle.WithManifestAsset(c.ManifestAsset),
	}
}

// ServerOptions returns the server options this Config describes.
func (c *Config) ServerOptions() []server.Option {
	return []server.Option{
		server.WithAddress(c.Server.Address, c.Server.Port),
		server.WithRateLimit(rate.Limit(c.Server.RateLimit), c.Server.RateLimitBurst),
	}
}
