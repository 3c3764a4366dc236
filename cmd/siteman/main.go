// Copyright (c) 2025 Siteman Authors
// Siteman - site bootstrap and management CLI
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the command-line interface for the site management
// tool using Cobra. It defines the root command, the subcommands
// (run, migrate, collectstatic, createsuperuser, dbmaintenance,
// settings) and the main entry point.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"siteman/internal/config"
	"siteman/internal/db"
	"siteman/internal/i18n"
	"siteman/internal/logging"
)

// version is set by the linker, e.g.
// go build -ldflags "-X main.version=1.2.3"
var version = "dev"

// settings holds the loaded configuration for all subcommands. It is
// populated once in the root PersistentPreRunE.
var settings *config.Settings

var rootCmd *cobra.Command

// main is the entry point of the application.
func main() {
	if err := rootCmd.Execute(); err != nil {
		// The error is already printed by Cobra on failure.
		os.Exit(1)
	}
}

func init() {
	rootCmd = newRootCmd()
}

// newRootCmd creates and configures a new root cobra command. It exists
// as a function so tests can build fresh, isolated instances.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "siteman",
		Short: "Siteman manages and serves the site.",
		Long: `Siteman is the site management command. It loads its settings from
environment variables, and either launches the full server bootstrap
("run": wait for the database, apply migrations, collect static files,
serve) or executes a single management task.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lang, _ := cmd.Flags().GetString("lang")
			i18n.Init(lang)

			var err error
			settings, err = config.Load()
			if err != nil {
				return err
			}
			logging.Init(settings.LogLevel)
			db.SetDebug(settings.Debug)
			return nil
		},
	}

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newCollectStaticCmd())
	cmd.AddCommand(newCreateSuperuserCmd())
	cmd.AddCommand(newDBMaintenanceCmd())
	cmd.AddCommand(newSettingsCmd())

	cmd.Version = versionString()
	cmd.PersistentFlags().String("lang", "en", `CLI language ("en", "de")`)

	return cmd
}

// versionString combines the build version with the deployed GIT_SHA when
// one is present in the environment.
func versionString() string {
	if sha := os.Getenv("GIT_SHA"); sha != "" {
		return version + " (" + sha + ")"
	}
	return version
}
