package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"gpai/cli/internal/authapi"
	apperrors "gpai/cli/internal/errors"
	"gpai/cli/internal/session"
)

const birthDateLayout = "2006-01-02"

func newRegisterCmd(app *App) *cobra.Command {
	var (
		creds                                      credentialFlags
		username, fullName, phone, gender, address string
		birthDate                                  string
	)
	cmd := &cobra.Command{
		Use:     "register",
		Aliases: []string{"signup"},
		Short:   "Create a new account",
		Long: `The register command creates an account with the auth service. When the
service signs the new account in straight away, the session is stored just
like after login; otherwise run 'gpai login' afterwards.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if app.Session.GuardedAccess() == session.AccessAuthenticated {
				fmt.Fprintf(out, "Already logged in as %s. Run 'gpai logout' first to create another account.\n", app.Session.User().Email)
				return nil
			}

			req := authapi.RegisterRequest{
				Username: username,
				FullName: fullName,
				Phone:    phone,
				Gender:   gender,
				Address:  address,
			}
			if birthDate != "" {
				dob, err := time.Parse(birthDateLayout, birthDate)
				if err != nil {
					return apperrors.Wrap(apperrors.InvalidInput, "--birth-date must be YYYY-MM-DD", err)
				}
				req.DateOfBirth = &dob
			}
			email, password, err := creds.resolve(cmd.InOrStdin())
			if err != nil {
				return err
			}
			req.Email, req.Password = email, password

			ctx, cancel := context.WithTimeout(cmd.Context(), exchangeTimeout)
			defer cancel()
			res, err := withSpinner(out, "Creating account", func() (*authapi.Result, error) {
				return app.Auth.Register(ctx, req)
			})
			if err != nil {
				return exchangeError(app, err, "creating your account")
			}

			if !res.HasTokens() {
				fmt.Fprintln(out, "✅ Account created.")
				fmt.Fprintln(out, "   Run 'gpai login' to sign in.")
				return nil
			}
			if res.Profile.Name == "" {
				res.Profile.Name = fullName
			}
			user := deriveUser(res.Profile, email, "")
			if err := establish(app, user, tokensOf(res)); err != nil {
				return err
			}
			fmt.Fprintf(out, "✅ Account created. Welcome, %s!\n", user.Name)
			return nil
		},
	}
	creds.register(cmd)
	f := cmd.Flags()
	f.StringVarP(&username, "username", "u", "", "username (3-50 characters)")
	f.StringVar(&fullName, "full-name", "", "your full name")
	f.StringVar(&phone, "phone", "", "phone number")
	f.StringVar(&birthDate, "birth-date", "", "date of birth, YYYY-MM-DD")
	f.StringVar(&gender, "gender", "", "male, female or other")
	f.StringVar(&address, "address", "", "postal address")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("full-name")
	cmd.MarkFlagsMutuallyExclusive("password", "password-stdin")
	return cmd
}
