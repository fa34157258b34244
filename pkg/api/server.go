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

package api

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"
	"golang.org/x/sync/errgroup"

	"github.com/NVIDIA/asset-bundle-cache/pkg/bundle"
	"github.com/NVIDIA/asset-bundle-cache/pkg/config"
	"github.com/NVIDIA/asset-bundle-cache/pkg/container"
	"github.com/NVIDIA/asset-bundle-cache/pkg/defaults"
	apperrors "github.com/NVIDIA/asset-bundle-cache/pkg/errors"
	"github.com/NVIDIA/asset-bundle-cache/pkg/logging"
	"github.com/NVIDIA/asset-bundle-cache/pkg/server"
)

const (
	name           = "bundled"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags to reflect actual version info
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Serve loads configuration from configPath (empty for defaults) and runs
// bundled until SIGINT or SIGTERM.
func Serve(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return Run(ctx, cfg)
}

// Run installs the structured logger and runs a Daemon for cfg until ctx is
// cancelled.
func Run(ctx context.Context, cfg *config.Config) error {
	logging.SetDefaultStructuredLoggerWithLevel(name, version, cfg.LogLevel)
	slog.Info("starting",
		"name", name,
		"version", version,
		"commit", commit,
		"date", date,
		"baseDir", cfg.BaseDir,
	)

	if err := NewDaemon(cfg).Run(ctx); err != nil {
		slog.Error("server exited with error", "error", err)
		return err
	}
	return nil
}

// Daemon owns the registry and the HTTP server of one bundled instance.
type Daemon struct {
	cfg      *config.Config
	registry *bundle.Registry
	server   *server.Server
	notify   func(state string)
}

var errManifestNotLoaded = apperrors.New(apperrors.ErrCodeUnavailable, "manifest not loaded")

// NewDaemon builds a Daemon reading zip containers from cfg.BaseDir.
func NewDaemon(cfg *config.Config) *Daemon {
	return newDaemon(cfg, container.NewZipLoader())
}

func newDaemon(cfg *config.Config, loader container.Loader) *Daemon {
	reg := bundle.NewRegistry(loader, cfg.RegistryOptions()...)

	opts := []server.Option{
		server.WithName(name),
		server.WithVersion(version),
		server.WithHandler(bundle.NewHandler(reg).Routes()),
		server.WithReadinessCheck("manifest", func() error {
			if !reg.ManifestLoaded() {
				return errManifestNotLoaded
			}
			return nil
		}),
	}
	opts = append(opts, cfg.ServerOptions()...)

	return &Daemon{
		cfg:      cfg,
		registry: reg,
		server:   server.New(opts...),
		notify:   sdNotify,
	}
}

// Registry returns the daemon's bundle registry.
func (d *Daemon) Registry() *bundle.Registry {
	return d.registry
}

// Server returns the daemon's HTTP server.
func (d *Daemon) Server() *server.Server {
	return d.server
}

// Run serves HTTP and performs startup until ctx is cancelled or either
// task fails.
func (d *Daemon) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return d.server.Run(gctx)
	})
	g.Go(func() error {
		return d.start(gctx)
	})

	err := g.Wait()
	d.notify(daemon.SdNotifyStopping)
	return err
}

// start loads the manifest and preloads, then marks the daemon ready.
func (d *Daemon) start(ctx context.Context) error {
	loadCtx, cancel := context.WithTimeout(ctx, defaults.ManifestLoadTimeout)
	defer cancel()

	if err := d.registry.LoadManifest(loadCtx); err != nil {
		return fmt.Errorf("failed to load bundle manifest: %w", err)
	}

	d.preload(ctx)

	d.server.SetReady(true)
	d.notify(daemon.SdNotifyReady)
	slog.Info("bundle cache ready",
		"bundles", d.registry.Manifest().Len(),
		"resident", d.registry.Len(),
	)
	return nil
}

// preload takes one reference on every configured bundle. The references
// are never released, so preloaded bundles stay resident.
func (d *Daemon) preload(ctx context.Context) {
	if len(d.cfg.Preload) == 0 {
		return
	}

	waitCtx, cancel := context.WithTimeout(ctx, defaults.BundleWaitTimeout)
	defer cancel()

	for _, b := range d.cfg.Preload {
		if err := d.registry.LoadBundle(b); err != nil {
			slog.Error("preload rejected", "bundle", b, "error", err)
			continue
		}
		if err := d.registry.WaitBundle(waitCtx, b); err != nil {
			slog.Warn("preload failed", "bundle", b, "error", err)
			continue
		}
		slog.Info("preloaded bundle", "bundle", b)
	}
}

func sdNotify(state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		slog.Warn("systemd notification failed", "state", state, "error", err)
		return
	}
	if sent {
		slog.Debug("systemd notified", "state", state)
	}
}
