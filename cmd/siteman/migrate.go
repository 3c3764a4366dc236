// Copyright (c) 2025 Siteman Authors
// Siteman - site bootstrap and management CLI
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"github.com/spf13/cobra"

	"siteman/internal/db"
	"siteman/internal/i18n"
	"siteman/internal/logging"
)

// newMigrateCmd builds the 'migrate' command: apply pending schema
// migrations and exit.
func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Info(i18n.T("migrate.applying", settings.Database.Engine))
			if err := db.InitDB(settings.Database.Engine, settings.Database.DSN()); err != nil {
				return err
			}
			_ = db.LogAction("MIGRATE", "engine: "+settings.Database.Engine)
			logging.Info(i18n.T("migrate.done"))
			return nil
		},
	}
}
