// Copyright (c) 2025 GPAI
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"github.com/spf13/cobra"
)

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "logout",
		Aliases: []string{"signout"},
		Short:   "Sign out and remove the stored session",
		Long: `The logout command removes the access token, refresh token and user record
from the credential store. Running it while signed out is harmless.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			signOut(app, cmd.OutOrStdout(), "✅ Signed out. Your tokens have been removed.")
			return nil
		},
	}
}
