// Copyright (c) 2025 Siteman Authors
// Siteman - site bootstrap and management CLI
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"siteman/internal/config"
	"siteman/internal/db"
	"siteman/internal/i18n"
	"siteman/internal/logging"
	"siteman/internal/netwait"
	"siteman/internal/server"
	"siteman/internal/static"
)

// newRunCmd builds the 'run' command: the full site bootstrap sequence.
func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Bootstrap and serve the site",
		Long: `Runs the full startup sequence: wait for the database (debug mode),
apply migrations, collect static files, and serve HTTP until interrupted.
Development mode serves with verbose logging and no timeouts; otherwise a
tuned production server is used.`,
		RunE: runSite,
	}
}

func runSite(cmd *cobra.Command, args []string) error {
	sha := settings.GitSHA
	if sha == "" {
		sha = "<unspecified>"
	}
	logging.Info(i18n.T("run.starting", sha))

	if settings.Debug {
		logging.Warn(i18n.T("run.dev_mode"))

		if settings.Database.Host != "" {
			addr := fmt.Sprintf("%s:%d", settings.Database.Host, settings.Database.Port)
			logging.Info(i18n.T("run.waiting_db", addr))
			if err := netwait.Wait(cmd.Context(), settings.Database.Host, settings.Database.Port, netwait.Options{}); err != nil {
				logging.Error(i18n.T("run.db_unreachable"))
				return err
			}
			logging.Info(i18n.T("run.db_ready"))
		}
	}

	if settings.Database.Engine == config.EngineSQLite {
		if !settings.Debug {
			logging.Warn(i18n.T("run.sqlite_warning"))
		}
		logging.Info(i18n.T("run.using_db", settings.Database.Name))
	} else {
		logging.Info(i18n.T("run.using_db", settings.Database.Host))
	}

	if settings.NoMigrate {
		logging.Info(i18n.T("run.migrations_skipped"))
		if err := db.InitDBNoMigrations(settings.Database.Engine, settings.Database.DSN()); err != nil {
			return err
		}
	} else {
		logging.Info(i18n.T("run.migrating"))
		if err := db.InitDB(settings.Database.Engine, settings.Database.DSN()); err != nil {
			return err
		}
	}

	if settings.Debug {
		if settings.NoCollect {
			logging.Info(i18n.T("run.collect_skipped"))
		} else {
			logging.Info(i18n.T("run.collecting_static"))
			n, err := static.Collect(settings.Static.Dirs, settings.Static.Root)
			if err != nil {
				return err
			}
			logging.Info(i18n.T("run.collected", n, settings.Static.Root))
		}
	}

	_ = db.LogAction("SERVER_START", fmt.Sprintf("version: %s, debug: %t", sha, settings.Debug))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(settings, db.Default())
	if settings.Debug {
		logging.Info(i18n.T("run.serving_dev", settings.Addr))
	} else {
		logging.Info(i18n.T("run.serving_prod", settings.Addr, settings.WorkerCount))
	}
	if err := srv.Run(ctx); err != nil {
		return err
	}

	logging.Info(i18n.T("run.stopped"))
	return nil
}
