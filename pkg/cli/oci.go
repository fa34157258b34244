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
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/asset-bundle-cache/pkg/defaults"
	"github.com/NVIDIA/asset-bundle-cache/pkg/oci"
)

func registryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "tag",
			Usage: "Artifact tag, overrides any tag in the reference",
		},
		&cli.BoolFlag{
			Name:  "plain-http",
			Usage: "Use HTTP instead of HTTPS for the registry (local development)",
		},
		&cli.BoolFlag{
			Name:  "insecure-tls",
			Usage: "Skip TLS certificate verification for the registry",
		},
	}
}

// artifactTag is the tag used when neither the reference nor --tag has one.
func artifactTag() string {
	if version == versionDefault || version == "" {
		return oci.DefaultTag
	}
	return version
}

func resolveReference(cmd *cli.Command) (*oci.Reference, error) {
	ref, err := oci.ParseReference(cmd.Args().First())
	if err != nil {
		return nil, err
	}
	if t := cmd.String("tag"); t != "" {
		return ref.WithTag(t), nil
	}
	return ref.WithDefaultTag(artifactTag()), nil
}

func publishCmd() *cli.Command {
	return &cli.Command{
		Name:      "publish",
		Usage:     "Publish a bundle directory as an OCI artifact",
		ArgsUsage: "<oci://registry/repository[:tag] | layout-dir>",
		Description: `Packages every file of the bundle directory, together with a generated
checksums.txt, into a single-layer OCI artifact and pushes it to a registry
or to a local OCI image layout.

Examples:
  bundlectl publish --dir ./bundles oci://ghcr.io/nvidia/game-bundles:v1.2.0
  bundlectl publish --dir ./bundles --plain-http oci://localhost:5000/bundles
  bundlectl publish --dir ./bundles --tag dev ./layout`,
		Flags: append(registryFlags(),
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Value:   ".",
				Usage:   "Bundle directory to publish",
				Sources: cli.EnvVars("BUNDLE_BASE_DIR"),
			},
			&cli.StringFlag{
				Name:  "reproducible-timestamp",
				Usage: "RFC 3339 creation time recorded in the manifest, for reproducible digests",
			},
			&cli.BoolFlag{
				Name:  "skip-checksums",
				Usage: "Do not generate checksums.txt",
			},
			outputFlag(),
			formatFlag(),
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := requireArgs(cmd, 1, "<target>"); err != nil {
				return err
			}
			ref, err := resolveReference(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(ctx, defaults.OCIPushTimeout)
			defer cancel()

			res, err := oci.Publish(ctx, oci.PublishOptions{
				RegistryOptions: oci.RegistryOptions{
					PlainHTTP:   cmd.Bool("plain-http"),
					InsecureTLS: cmd.Bool("insecure-tls"),
				},
				SourceDir:             cmd.String("dir"),
				Target:                ref,
				Version:               version,
				ReproducibleTimestamp: cmd.String("reproducible-timestamp"),
				SkipChecksums:         cmd.Bool("skip-checksums"),
			})
			if err != nil {
				return err
			}

			slog.Info("bundles published",
				"reference", res.Reference,
				"digest", res.Digest,
				"files", res.Files,
			)
			return writeOutput(ctx, cmd, res)
		},
	}
}

func pullCmd() *cli.Command {
	return &cli.Command{
		Name:      "pull",
		Usage:     "Pull a published bundle directory",
		ArgsUsage: "<oci://registry/repository[:tag] | layout-dir>",
		Description: `Fetches a bundle artifact into a directory and verifies checksums.txt.

Examples:
  bundlectl pull --dir /var/lib/bundles oci://ghcr.io/nvidia/game-bundles:v1.2.0`,
		Flags: append(registryFlags(),
			&cli.StringFlag{
				Name:     "dir",
				Aliases:  []string{"d"},
				Required: true,
				Usage:    "Destination directory",
			},
			&cli.BoolFlag{
				Name:  "skip-verify",
				Usage: "Do not verify checksums.txt after pulling",
			},
			outputFlag(),
			formatFlag(),
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := requireArgs(cmd, 1, "<source>"); err != nil {
				return err
			}
			ref, err := resolveReference(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(ctx, defaults.OCIPullTimeout)
			defer cancel()

			res, err := oci.Pull(ctx, oci.PullOptions{
				RegistryOptions: oci.RegistryOptions{
					PlainHTTP:   cmd.Bool("plain-http"),
					InsecureTLS: cmd.Bool("insecure-tls"),
				},
				Source:     ref,
				DestDir:    cmd.String("dir"),
				SkipVerify: cmd.Bool("skip-verify"),
			})
			if err != nil {
				return err
			}

			slog.Info("bundles pulled",
				"reference", res.Reference,
				"digest", res.Digest,
				"files", res.Files,
			)
			return writeOutput(ctx, cmd, res)
		},
	}
}
