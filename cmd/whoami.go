package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"gpai/cli/internal/session"
)

// guard renders the non-authenticated outcomes of a guarded command and
// reports whether the protected content may render.
func guard(app *App, w io.Writer) bool {
	switch app.Session.GuardedAccess() {
	case session.AccessAuthenticated:
		return true
	case session.AccessUnauthenticated:
		redirectToLogin(w)
	default:
		fmt.Fprintln(w, "⏳ Checking your session...")
	}
	return false
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Long: `The whoami command shows the account stored in the local session. It does not
contact the auth service.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !guard(app, out) {
				return nil
			}
			u := app.Session.User()
			fmt.Fprintf(out, "👤 Current user: %s\n", u.Name)
			fmt.Fprintf(out, "   Email:  %s\n", u.Email)
			if u.Avatar != "" {
				fmt.Fprintf(out, "   Avatar: %s\n", u.Avatar)
			}
			return nil
		},
	}
}
