// Copyright (c) 2025 Siteman Authors
// Siteman - site bootstrap and management CLI
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"github.com/spf13/cobra"

	"siteman/internal/i18n"
	"siteman/internal/logging"
	"siteman/internal/static"
)

// newCollectStaticCmd builds the 'collectstatic' command: copy static
// assets from the configured source directories into the static root.
func newCollectStaticCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "collectstatic",
		Short: "Collect static files into the static root",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := static.Collect(settings.Static.Dirs, settings.Static.Root)
			if err != nil {
				return err
			}
			logging.Info(i18n.T("collectstatic.done", n, settings.Static.Root))
			return nil
		},
	}
}
