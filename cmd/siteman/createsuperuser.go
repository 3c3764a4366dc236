// Copyright (c) 2025 Siteman Authors
// Siteman - site bootstrap and management CLI
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"siteman/internal/auth"
	"siteman/internal/db"
	"siteman/internal/i18n"
)

// newCreateSuperuserCmd builds the 'createsuperuser' command. The
// password can be passed as a flag for scripting; interactively it is
// read from the terminal without echo.
func newCreateSuperuserCmd() *cobra.Command {
	var username, email, password string

	cmd := &cobra.Command{
		Use:   "createsuperuser",
		Short: "Create an administrative user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := db.InitDB(settings.Database.Engine, settings.Database.DSN()); err != nil {
				return err
			}

			if password == "" {
				fmt.Fprint(os.Stderr, i18n.T("createsuperuser.prompt_password"))
				raw, err := term.ReadPassword(int(os.Stdin.Fd()))
				fmt.Fprintln(os.Stderr)
				if err != nil {
					return fmt.Errorf("could not read password: %w", err)
				}
				password = string(raw)
			}

			if _, err := auth.CreateSuperuser(db.Default(), username, email, password); err != nil {
				return err
			}
			cmd.Println(i18n.T("createsuperuser.created", username))
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "username for the new superuser")
	cmd.Flags().StringVar(&email, "email", "", "email address for the new superuser")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}
