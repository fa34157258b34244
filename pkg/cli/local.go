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
	"time"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/asset-bundle-cache/pkg/api"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the bundle cache daemon",
		Description: `Runs bundled in the foreground: loads the manifest, preloads configured
bundles and serves the HTTP API until interrupted.

Examples:
  bundlectl serve --port 8080
  bundlectl --config /etc/bundled/bundled.yaml serve --preload ui`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (overrides configuration)",
			},
			&cli.StringSliceFlag{
				Name:  "preload",
				Usage: "Bundle to load at startup and keep resident (can be repeated)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if p := cmd.Int("port"); p != 0 {
				cfg.Server.Port = int(p)
			}
			if pre := cmd.StringSlice("preload"); len(pre) > 0 {
				cfg.Preload = append(cfg.Preload, pre...)
			}
			if cmd.IsSet("log-level") {
				cfg.LogLevel = cmd.String("log-level")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return api.Run(ctx, cfg)
		},
	}
}

// DependencyReport is the output of the deps command.
type DependencyReport struct {
	Bundle       string   `json:"bundle" yaml:"bundle"`
	Direct       []string `json:"direct" yaml:"direct"`
	Dependencies []string `json:"dependencies" yaml:"dependencies"`
}

func depsCmd() *cli.Command {
	return &cli.Command{
		Name:      "deps",
		Usage:     "Show the dependency expansion of a bundle",
		ArgsUsage: "<bundle>",
		Description: `Reads the manifest from the bundle directory and prints the bundle's
direct dependencies and full load order (dependencies first).`,
		Flags: []cli.Flag{outputFlag(), formatFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := requireArgs(cmd, 1, "<bundle>"); err != nil {
				return err
			}
			reg, err := openRegistry(ctx, cmd)
			if err != nil {
				return err
			}

			b := cmd.Args().First()
			all, err := reg.Dependencies(b)
			if err != nil {
				return err
			}
			return writeOutput(ctx, cmd, DependencyReport{
				Bundle:       b,
				Direct:       reg.Manifest().DirectDependencies(b),
				Dependencies: all,
			})
		},
	}
}

// AssetReport is the output of the assets command.
type AssetReport struct {
	Bundle string   `json:"bundle" yaml:"bundle"`
	Assets []string `json:"assets" yaml:"assets"`
}

func assetsCmd() *cli.Command {
	return &cli.Command{
		Name:      "assets",
		Usage:     "List the assets of a bundle",
		ArgsUsage: "<bundle>",
		Flags:     []cli.Flag{outputFlag(), formatFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := requireArgs(cmd, 1, "<bundle>"); err != nil {
				return err
			}
			reg, err := openRegistry(ctx, cmd)
			if err != nil {
				return err
			}

			b := cmd.Args().First()
			var names []string
			err = withBundle(ctx, reg, b, func(ctx context.Context) error {
				var err error
				names, err = reg.AssetNames(ctx, b)
				return err
			})
			if err != nil {
				return err
			}
			return writeOutput(ctx, cmd, AssetReport{Bundle: b, Assets: names})
		},
	}
}

func getCmd() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Extract one asset from a bundle",
		ArgsUsage: "<bundle> <asset>",
		Description: `Loads the bundle and its dependencies, then writes the raw asset bytes to
--output or stdout.

Example:
  bundlectl --base-dir ./bundles get ui textures/logo.png -o logo.png`,
		Flags: []cli.Flag{outputFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := requireArgs(cmd, 2, "<bundle> <asset>"); err != nil {
				return err
			}
			reg, err := openRegistry(ctx, cmd)
			if err != nil {
				return err
			}

			b, asset := cmd.Args().Get(0), cmd.Args().Get(1)
			start := time.Now()
			var data []byte
			err = withBundle(ctx, reg, b, func(ctx context.Context) error {
				var err error
				data, err = reg.LoadAssetBytes(ctx, b, asset)
				return err
			})
			if err != nil {
				return err
			}

			slog.Debug("asset extracted",
				"bundle", b,
				"asset", asset,
				"bytes", len(data),
				"duration_sec", elapsed(start),
			)

			if out := cmd.String("output"); out != "" {
				if err := os.WriteFile(out, data, 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", out, err)
				}
				return nil
			}
			_, err = cmd.Root().Writer.Write(data)
			return err
		},
	}
}
