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

// newDBMaintenanceCmd builds the 'dbmaintenance' command: run the
// engine-specific maintenance tasks (VACUUM and friends).
func newDBMaintenanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dbmaintenance",
		Short: "Run database maintenance (VACUUM, OPTIMIZE)",
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Info(i18n.T("dbmaintenance.start", settings.Database.Engine))
			if err := db.RunDBMaintenance(settings.Database.Engine, settings.Database.DSN()); err != nil {
				return err
			}
			logging.Info(i18n.T("dbmaintenance.done"))
			return nil
		},
	}
}
