package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gpai/cli/internal/authapi"
	apperrors "gpai/cli/internal/errors"
	"gpai/cli/internal/session"
)

func newProfileCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage the profile of the signed-in account",
		Args:  cobra.NoArgs,
	}
	cmd.AddCommand(newProfileUpdateCmd(app))
	return cmd
}

type profileFlags struct {
	username, fullName, phone, birthDate, gender, address, avatarURL string
}

// request builds an update from the flags the user actually set.
func (p *profileFlags) request(cmd *cobra.Command) (authapi.UpdateProfileRequest, error) {
	var req authapi.UpdateProfileRequest
	set := func(name string, v *string) *string {
		if cmd.Flags().Changed(name) {
			return v
		}
		return nil
	}
	req.Username = set("username", &p.username)
	req.FullName = set("full-name", &p.fullName)
	req.Phone = set("phone", &p.phone)
	req.Gender = set("gender", &p.gender)
	req.Address = set("address", &p.address)
	req.AvatarURL = set("avatar-url", &p.avatarURL)
	if cmd.Flags().Changed("birth-date") {
		dob, err := time.Parse(birthDateLayout, p.birthDate)
		if err != nil {
			return req, apperrors.Wrap(apperrors.InvalidInput, "--birth-date must be YYYY-MM-DD", err)
		}
		req.DateOfBirth = &dob
	}
	if req.Empty() {
		return req, apperrors.New(apperrors.InvalidInput, "nothing to update: pass at least one field flag")
	}
	return req, nil
}

func newProfileUpdateCmd(app *App) *cobra.Command {
	var pf profileFlags
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update profile fields",
		Long: `The update command changes the given profile fields with the auth service using
the stored access token. An expired access token is renewed once with the
refresh token before giving up.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !guard(app, out) {
				return nil
			}
			req, err := pf.request(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), exchangeTimeout)
			defer cancel()
			update := func() (*authapi.Result, error) {
				tokens, _ := app.Session.Tokens()
				return withSpinner(out, "Updating profile", func() (*authapi.Result, error) {
					return app.Auth.UpdateProfile(ctx, tokens.AccessToken, req)
				})
			}

			res, err := update()
			if apperrors.KindOf(err) == apperrors.Unauthorized {
				app.Log.Debug("profile update rejected, renewing session", zap.Error(err))
				if rerr := renew(ctx, app, out); rerr != nil {
					if apperrors.KindOf(rerr) == apperrors.Unauthorized {
						signOut(app, out, expiredMessage)
						return nil
					}
					return exchangeError(app, rerr, "refreshing your session")
				}
				res, err = update()
			}
			if err != nil {
				return exchangeError(app, err, "updating your profile")
			}

			user := applyProfile(app.Session.User(), req, res)
			tokens, _ := app.Session.Tokens()
			if err := establish(app, user, tokens); err != nil {
				return err
			}
			fmt.Fprintln(out, "✅ Profile updated.")
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&pf.username, "username", "u", "", "username (3-50 characters)")
	f.StringVar(&pf.fullName, "full-name", "", "your full name")
	f.StringVar(&pf.phone, "phone", "", "phone number")
	f.StringVar(&pf.birthDate, "birth-date", "", "date of birth, YYYY-MM-DD")
	f.StringVar(&pf.gender, "gender", "", "male, female or other")
	f.StringVar(&pf.address, "address", "", "postal address")
	f.StringVar(&pf.avatarURL, "avatar-url", "", "avatar image URL")
	return cmd
}

// applyProfile reflects a successful update in the stored user. Fields the
// service echoed back win over the requested ones.
func applyProfile(u *session.User, req authapi.UpdateProfileRequest, res *authapi.Result) *session.User {
	if req.FullName != nil && *req.FullName != "" {
		u.Name = *req.FullName
	}
	if req.AvatarURL != nil {
		u.Avatar = *req.AvatarURL
	}
	if res != nil {
		if res.Profile.Name != "" {
			u.Name = res.Profile.Name
		}
		if res.Profile.Avatar != "" {
			u.Avatar = res.Profile.Avatar
		}
	}
	return u
}
