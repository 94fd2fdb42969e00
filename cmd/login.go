// Copyright (c) 2025 GPAI
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"gpai/cli/internal/authapi"
	apperrors "gpai/cli/internal/errors"
	"gpai/cli/internal/session"
	"gpai/cli/internal/terminal"
)

const (
	exchangeTimeout = 30 * time.Second
	passwordPrompt  = "Password: "
)

type credentialFlags struct {
	email         string
	password      string
	passwordStdin bool
}

func (c *credentialFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&c.email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&c.password, "password", "p", "", "account password (prefer the prompt or --password-stdin)")
	cmd.Flags().BoolVar(&c.passwordStdin, "password-stdin", false, "read the password from stdin")
}

// resolve fills in missing credentials from stdin or interactive prompts.
func (c *credentialFlags) resolve(in io.Reader) (email, password string, err error) {
	email, password = c.email, c.password

	if c.passwordStdin {
		if password, err = terminal.ReadSecretLine(in); err != nil {
			return "", "", fmt.Errorf("read password from stdin: %w", err)
		}
	}
	if email == "" {
		if !terminal.IsInteractive() {
			return "", "", apperrors.New(apperrors.InvalidInput, "--email is required when not running in a terminal")
		}
		if email, err = terminal.ReadLine(in, "Email: "); err != nil {
			return "", "", err
		}
	}
	if password == "" {
		password, err = terminal.ReadSecret(passwordPrompt)
		if errors.Is(err, terminal.ErrNotInteractive) {
			return "", "", apperrors.New(apperrors.InvalidInput, "--password or --password-stdin is required when not running in a terminal")
		}
		if err != nil {
			return "", "", err
		}
		terminal.ClearPreviousLines(len(passwordPrompt))
	}
	return email, password, nil
}

func newLoginCmd(app *App) *cobra.Command {
	var (
		creds       credentialFlags
		googleToken string
	)
	cmd := &cobra.Command{
		Use:     "login",
		Aliases: []string{"signin"},
		Short:   "Sign in with email and password or a Google ID token",
		Long: `The login command exchanges your credentials with the auth service and stores
the resulting session in the configured credential store, so later commands
start signed in.

Use --google-token to sign in with a Google ID token instead of a password.
If you are already signed in, the command does nothing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if app.Session.GuardedAccess() == session.AccessAuthenticated {
				fmt.Fprintf(out, "Already logged in as %s\n", app.Session.User().Email)
				return nil
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), exchangeTimeout)
			defer cancel()

			var (
				res      *authapi.Result
				email    string
				fallback string
				err      error
			)
			if googleToken != "" {
				fallback = "Google User"
				res, err = withSpinner(out, "Signing in with Google", func() (*authapi.Result, error) {
					return app.Auth.GoogleOAuth(ctx, authapi.OAuthRequest{Token: googleToken})
				})
			} else {
				var password string
				if email, password, err = creds.resolve(cmd.InOrStdin()); err != nil {
					return err
				}
				res, err = withSpinner(out, "Signing in", func() (*authapi.Result, error) {
					return app.Auth.Login(ctx, authapi.LoginRequest{Email: email, Password: password})
				})
			}
			if err != nil {
				return exchangeError(app, err, "signing in")
			}

			user := deriveUser(res.Profile, email, fallback)
			if err := establish(app, user, tokensOf(res)); err != nil {
				return err
			}
			fmt.Fprintln(out, loginGreeting(user.Name))
			return nil
		},
	}
	creds.register(cmd)
	cmd.Flags().StringVar(&googleToken, "google-token", "", "sign in with a Google ID token")
	cmd.MarkFlagsMutuallyExclusive("google-token", "email")
	cmd.MarkFlagsMutuallyExclusive("google-token", "password")
	cmd.MarkFlagsMutuallyExclusive("password", "password-stdin")
	return cmd
}
