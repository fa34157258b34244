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
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/asset-bundle-cache/pkg/bundle"
	"github.com/NVIDIA/asset-bundle-cache/pkg/defaults"
	apperrors "github.com/NVIDIA/asset-bundle-cache/pkg/errors"
	"github.com/NVIDIA/asset-bundle-cache/pkg/serializer"
	"github.com/NVIDIA/asset-bundle-cache/pkg/server"
)

const defaultServerURL = "http://localhost:8080"

func serverFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "server",
		Aliases: []string{"s"},
		Value:   defaultServerURL,
		Usage:   "Base URL of a running bundled daemon",
		Sources: cli.EnvVars("BUNDLED_URL"),
	}
}

func statusCmd() *cli.Command {
	return &cli.Command{
		Name:      "status",
		Usage:     "Show bundle records held by a running daemon",
		ArgsUsage: "[bundle]",
		Description: `Without arguments lists every resident record. With a bundle name shows
that bundle's reference count and loading state.

Examples:
  bundlectl status -t table
  bundlectl status ui --server http://bundled:8080`,
		Flags: []cli.Flag{serverFlag(), outputFlag(), formatFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() > 1 {
				return requireArgs(cmd, 1, "[bundle]")
			}
			f, err := parseOutputFormat(cmd)
			if err != nil {
				return err
			}

			if cmd.NArg() == 1 {
				var resp bundle.BundleResponse
				if err := remoteCall(ctx, cmd, false, bundlePath(cmd.Args().First(), ""), &resp); err != nil {
					return err
				}
				return writeOutput(ctx, cmd, resp)
			}

			var list bundle.ListResponse
			if err := remoteCall(ctx, cmd, false, "/v1/bundles", &list); err != nil {
				return err
			}
			if f == serializer.FormatTable {
				return writeOutput(ctx, cmd, statusRows(list))
			}
			return writeOutput(ctx, cmd, list)
		},
	}
}

func loadCmd() *cli.Command {
	return &cli.Command{
		Name:      "load",
		Usage:     "Take a reference on a bundle in a running daemon",
		ArgsUsage: "<bundle>",
		Description: `Increments the bundle's reference count and those of its dependencies,
starting any loads that are needed. With --wait the command returns after
the bundle and every dependency finished loading.`,
		Flags: []cli.Flag{
			serverFlag(), outputFlag(), formatFlag(),
			&cli.BoolFlag{
				Name:  "wait",
				Usage: "Wait for the bundle and its dependencies to finish loading",
			},
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Sub-directory of the daemon's base directory holding the bundle",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := requireArgs(cmd, 1, "<bundle>"); err != nil {
				return err
			}
			q := url.Values{}
			if cmd.Bool("wait") {
				q.Set("wait", "true")
			}
			if d := cmd.String("dir"); d != "" {
				q.Set("dir", d)
			}
			p := bundlePath(cmd.Args().First(), "load")
			if len(q) > 0 {
				p += "?" + q.Encode()
			}

			var resp bundle.BundleResponse
			if err := remoteCall(ctx, cmd, true, p, &resp); err != nil {
				return err
			}
			return writeOutput(ctx, cmd, resp)
		},
	}
}

func unloadCmd() *cli.Command {
	return &cli.Command{
		Name:      "unload",
		Usage:     "Release a reference on a bundle in a running daemon",
		ArgsUsage: "<bundle>",
		Flags:     []cli.Flag{serverFlag(), outputFlag(), formatFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := requireArgs(cmd, 1, "<bundle>"); err != nil {
				return err
			}
			var resp bundle.BundleResponse
			if err := remoteCall(ctx, cmd, true, bundlePath(cmd.Args().First(), "unload"), &resp); err != nil {
				return err
			}
			return writeOutput(ctx, cmd, resp)
		},
	}
}

func bundlePath(name, action string) string {
	p := "/v1/bundles/" + url.PathEscape(name)
	if action != "" {
		p += "/" + action
	}
	return p
}

// remoteCall issues a request against --server and decodes the JSON body into v.
func remoteCall(ctx context.Context, cmd *cli.Command, post bool, path string, v any) error {
	base := strings.TrimSuffix(cmd.String("server"), "/")
	target := base + path

	reader := serializer.NewHttpReader(
		serializer.WithTotalTimeout(defaults.BundleWaitTimeout + defaults.HTTPClientTimeout),
	)

	var (
		data []byte
		err  error
	)
	if post {
		data, err = reader.PostWithContext(ctx, target)
	} else {
		data, err = reader.ReadWithContext(ctx, target)
	}
	if err != nil {
		return remoteError(err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, "failed to decode daemon response", err)
	}
	return nil
}

// remoteError converts a daemon error response back into a structured error.
func remoteError(err error) error {
	var se *serializer.StatusError
	if !stderrors.As(err, &se) {
		return apperrors.Wrap(apperrors.ErrCodeUnavailable, "daemon request failed", err)
	}

	var body server.ErrorResponse
	if jerr := json.Unmarshal(se.Body, &body); jerr != nil || body.Code == "" {
		return apperrors.Wrap(apperrors.ErrCodeInternal, fmt.Sprintf("daemon returned %s", se.Status), err)
	}
	return apperrors.NewWithContext(apperrors.ErrorCode(body.Code), body.Message, body.Details)
}

// statusRows returns the list response's records for table output.
func statusRows(list bundle.ListResponse) []bundle.Status {
	if list.Bundles == nil {
		return []bundle.Status{}
	}
	return list.Bundles
}
