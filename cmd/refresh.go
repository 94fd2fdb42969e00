package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	apperrors "gpai/cli/internal/errors"
)

const expiredMessage = "🔒 Your session has expired."

func newRefreshCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the stored refresh token for a new access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !guard(app, out) {
				return nil
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), exchangeTimeout)
			defer cancel()
			err := renew(ctx, app, out)
			if apperrors.KindOf(err) == apperrors.Unauthorized {
				signOut(app, out, expiredMessage)
				return nil
			}
			if err != nil {
				return exchangeError(app, err, "refreshing your session")
			}
			fmt.Fprintln(out, "🔄 Session refreshed.")
			return nil
		},
	}
}
