// Copyright (c) 2025 Siteman Authors
// Siteman - site bootstrap and management CLI
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"siteman/internal/config"
)

const redacted = "********"

// settingsDump is the YAML view of the effective settings with secrets
// redacted.
type settingsDump struct {
	Debug        bool     `yaml:"debug"`
	SecretKey    string   `yaml:"secret_key"`
	AllowedHosts []string `yaml:"allowed_hosts"`
	LogLevel     string   `yaml:"log_level"`
	GitSHA       string   `yaml:"git_sha,omitempty"`
	Addr         string   `yaml:"addr"`
	WorkerCount  int      `yaml:"worker_count"`
	Static       struct {
		URL  string   `yaml:"url"`
		Root string   `yaml:"root"`
		Dirs []string `yaml:"dirs"`
	} `yaml:"static"`
	Database struct {
		Engine   string `yaml:"engine"`
		Name     string `yaml:"name"`
		User     string `yaml:"user,omitempty"`
		Password string `yaml:"password,omitempty"`
		Host     string `yaml:"host,omitempty"`
		Port     int    `yaml:"port,omitempty"`
	} `yaml:"database"`
	NoMigrate bool `yaml:"no_migrate"`
	NoCollect bool `yaml:"no_collect"`
}

func dumpSettings(s *config.Settings) settingsDump {
	var d settingsDump
	d.Debug = s.Debug
	d.SecretKey = redacted
	d.AllowedHosts = s.AllowedHosts
	d.LogLevel = s.LogLevel
	d.GitSHA = s.GitSHA
	d.Addr = s.Addr
	d.WorkerCount = s.WorkerCount
	d.Static.URL = s.Static.URL
	d.Static.Root = s.Static.Root
	d.Static.Dirs = s.Static.Dirs
	d.Database.Engine = s.Database.Engine
	d.Database.Name = s.Database.Name
	d.Database.User = s.Database.User
	if s.Database.Password != "" {
		d.Database.Password = redacted
	}
	d.Database.Host = s.Database.Host
	d.Database.Port = s.Database.Port
	d.NoMigrate = s.NoMigrate
	d.NoCollect = s.NoCollect
	return d
}

// newSettingsCmd builds the 'settings' command: print the effective
// configuration as YAML, with secrets redacted.
func newSettingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "settings",
		Short: "Print the effective settings as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(dumpSettings(settings))
			if err != nil {
				return err
			}
			cmd.Print(string(data))
			return nil
		},
	}
}
