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

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/asset-bundle-cache/pkg/bundle"
	"github.com/NVIDIA/asset-bundle-cache/pkg/config"
	"github.com/NVIDIA/asset-bundle-cache/pkg/container"
	"github.com/NVIDIA/asset-bundle-cache/pkg/defaults"
	"github.com/NVIDIA/asset-bundle-cache/pkg/logging"
	"github.com/NVIDIA/asset-bundle-cache/pkg/serializer"
)

const (
	name           = "bundlectl"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Flags are built per command tree; urfave/cli flags keep parsed state.

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Output file path (default: stdout)",
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"t"},
		Value:   string(serializer.FormatYAML),
		Usage:   fmt.Sprintf("Output format (supported values: %v)", serializer.SupportedFormats()),
	}
}

// Execute runs bundlectl with os.Args and exits non-zero on error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cli.Command {
	return &cli.Command{
		Name:                  name,
		Usage:                 "Reference-counted asset bundle cache",
		Version:               fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		EnableShellCompletion: true,
		Description: `bundlectl inspects bundle directories, runs the bundled daemon, talks
to a running daemon and distributes bundle directories through OCI registries.

Bundle directories hold one zip container per bundle plus a manifest
container (default "bundles") whose manifest.yaml declares dependencies.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				Sources: cli.EnvVars(logging.EnvLogLevel),
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path/URL of a bundled configuration file (YAML or JSON)",
				Sources: cli.EnvVars("BUNDLED_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "base-dir",
				Usage: "Directory holding bundle files (overrides configuration)",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logging.SetDefaultStructuredLoggerWithLevel(name, version, cmd.String("log-level"))
			slog.Debug("starting",
				"name", name,
				"version", version,
				"commit", commit,
				"date", date,
			)
			return ctx, nil
		},
		Commands: []*cli.Command{
			serveCmd(),
			depsCmd(),
			assetsCmd(),
			getCmd(),
			statusCmd(),
			loadCmd(),
			unloadCmd(),
			publishCmd(),
			pullCmd(),
		},
	}
}

// parseOutputFormat returns the --format value or an error if unsupported.
func parseOutputFormat(cmd *cli.Command) (serializer.Format, error) {
	return serializer.ParseFormat(cmd.String("format"))
}

// writeOutput serializes v to --output in --format.
func writeOutput(ctx context.Context, cmd *cli.Command, v any) error {
	f, err := parseOutputFormat(cmd)
	if err != nil {
		return err
	}
	w := serializer.NewFileWriterOrStdout(f, cmd.String("output"))
	defer func() {
		if err := w.Close(); err != nil {
			slog.Warn("failed to close output", "error", err)
		}
	}()
	return w.Serialize(ctx, v)
}

// loadConfig loads --config and applies --base-dir.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	if dir := cmd.String("base-dir"); dir != "" {
		cfg.BaseDir = dir
	}
	return cfg, nil
}

// openRegistry returns a registry over the configured bundle directory with
// its manifest loaded.
func openRegistry(ctx context.Context, cmd *cli.Command) (*bundle.Registry, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	reg := bundle.NewRegistry(container.NewZipLoader(), cfg.RegistryOptions()...)

	loadCtx, cancel := context.WithTimeout(ctx, defaults.ManifestLoadTimeout)
	defer cancel()
	if err := reg.LoadManifest(loadCtx); err != nil {
		return nil, err
	}
	return reg, nil
}

// requireArgs checks the number of positional arguments.
func requireArgs(cmd *cli.Command, n int, usage string) error {
	if cmd.NArg() != n {
		return fmt.Errorf("expected %d argument(s): %s %s", n, cmd.Name, usage)
	}
	return nil
}

// withBundle loads name, waits for it and runs fn, then releases the reference.
func withBundle(ctx context.Context, reg *bundle.Registry, name string, fn func(context.Context) error) error {
	if err := reg.LoadBundle(name); err != nil {
		return err
	}
	defer reg.UnloadBundle(name)

	waitCtx, cancel := context.WithTimeout(ctx, defaults.BundleWaitTimeout)
	defer cancel()
	if err := reg.WaitBundle(waitCtx, name); err != nil {
		return err
	}
	return fn(waitCtx)
}

func elapsed(start time.Time) float64 {
	return time.Since(start).Seconds()
}
